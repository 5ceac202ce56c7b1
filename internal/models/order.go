package models

import "time"

// OrderStatus 订单支付状态
const (
	OrderStatusPending       = "pending"        // 待支付
	OrderStatusPaid          = "paid"           // 已支付
	OrderStatusPartiallyPaid = "partially_paid" // 部分支付
	OrderStatusRefunded      = "refunded"       // 已退款
	OrderStatusCancelled     = "cancelled"      // 已取消
)

// Order 销售订单
type Order struct {
	ID           int64   `gorm:"primaryKey" json:"id"`
	OrderNumber  string  `gorm:"size:100;not null;uniqueIndex" json:"order_number"`
	CustomerName string  `gorm:"size:100" json:"customer_name"`
	TotalAmount  float64 `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	PaidAmount   float64 `gorm:"type:decimal(10,2);default:0" json:"paid_amount"`

	// 实收与成本字段，由同步渠道写入
	ActualReceived float64 `gorm:"type:decimal(10,2);default:0" json:"actual_received"`
	PaymentMethod  string  `gorm:"size:50" json:"payment_method"`
	PaymentFee     float64 `gorm:"type:decimal(10,2);default:0" json:"payment_fee"`
	ProductCost    float64 `gorm:"type:decimal(10,2);default:0" json:"product_cost"`

	// 利润字段由报表服务回写
	GrossProfit  float64 `gorm:"type:decimal(10,2);default:0" json:"gross_profit"`
	ProfitMargin float64 `gorm:"type:decimal(10,2);default:0" json:"profit_margin"`

	Currency  string    `gorm:"size:10;default:USD" json:"currency"`
	Status    string    `gorm:"size:20;default:pending;index" json:"status"`
	OrderDate time.Time `gorm:"not null;index" json:"order_date"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// IsRevenue 订单是否计入营收
func (o *Order) IsRevenue() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusPartiallyPaid
}

// RevenueAmount 计入营收的金额（原币），有实收按实收
func (o *Order) RevenueAmount() float64 {
	if !o.IsRevenue() {
		return 0
	}
	if o.ActualReceived > 0 {
		return o.ActualReceived
	}
	if o.Status == OrderStatusPartiallyPaid {
		return o.PaidAmount
	}
	return o.TotalAmount
}
