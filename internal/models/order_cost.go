package models

import "time"

// OrderCostStatus 订单成本状态
const (
	OrderCostStatusPending   = "pending"   // 待确认
	OrderCostStatusConfirmed = "confirmed" // 已确认
	OrderCostStatusCancelled = "cancelled" // 已取消
)

// OrderCost 订单成本记录，每个订单号唯一
type OrderCost struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"size:100;not null;uniqueIndex" json:"order_number"`
	BatchID     string `gorm:"size:50;index" json:"batch_id"` // 所属导入批次

	// 运费成本（4PX等物流账户）
	ShippingCost      float64 `gorm:"type:decimal(10,2);default:0" json:"shipping_cost"`
	ShippingAccountID *int64  `gorm:"index" json:"shipping_account_id"`
	ShippingReference string  `gorm:"size:100" json:"shipping_reference"`
	ShippingNotes     string  `gorm:"type:text" json:"shipping_notes"`

	// 方果下单成本
	FangguoCost      float64 `gorm:"type:decimal(10,2);default:0" json:"fangguo_cost"`
	FangguoAccountID *int64  `gorm:"index" json:"fangguo_account_id"`
	FangguoReference string  `gorm:"size:100" json:"fangguo_reference"`
	FangguoNotes     string  `gorm:"type:text" json:"fangguo_notes"`

	// 其他成本
	OtherCost      float64 `gorm:"type:decimal(10,2);default:0" json:"other_cost"`
	OtherAccountID *int64  `gorm:"index" json:"other_account_id"`
	OtherReference string  `gorm:"size:100" json:"other_reference"`
	OtherNotes     string  `gorm:"type:text" json:"other_notes"`

	Status      string     `gorm:"size:20;default:pending;index" json:"status"`
	CostDate    time.Time  `gorm:"not null;index" json:"cost_date"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	Notes       string     `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName 表名
func (OrderCost) TableName() string {
	return "order_costs"
}

// TotalCost 订单总成本
func (c *OrderCost) TotalCost() float64 {
	return c.ShippingCost + c.FangguoCost + c.OtherCost
}

// CostComponent 成本分量，确认时逐项扣款
type CostComponent struct {
	Type      string  // 消耗类型
	Amount    float64 // 金额
	AccountID *int64  // 扣款账户
	Reference string  // 关联单号
	Notes     string  // 备注
}

// Components 返回非零成本分量
func (c *OrderCost) Components() []CostComponent {
	var comps []CostComponent
	if c.ShippingCost > 0 {
		comps = append(comps, CostComponent{
			Type:      ConsumptionTypeShipping,
			Amount:    c.ShippingCost,
			AccountID: c.ShippingAccountID,
			Reference: c.ShippingReference,
			Notes:     c.ShippingNotes,
		})
	}
	if c.FangguoCost > 0 {
		comps = append(comps, CostComponent{
			Type:      ConsumptionTypeOrderFee,
			Amount:    c.FangguoCost,
			AccountID: c.FangguoAccountID,
			Reference: c.FangguoReference,
			Notes:     c.FangguoNotes,
		})
	}
	if c.OtherCost > 0 {
		comps = append(comps, CostComponent{
			Type:      ConsumptionTypeOther,
			Amount:    c.OtherCost,
			AccountID: c.OtherAccountID,
			Reference: c.OtherReference,
			Notes:     c.OtherNotes,
		})
	}
	return comps
}

// OrderCostBatch 订单成本导入批次，汇总字段由明细计算得出
type OrderCostBatch struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	BatchID        string    `gorm:"size:50;not null;uniqueIndex" json:"batch_id"`
	Description    string    `gorm:"type:text" json:"description"`
	TotalOrders    int       `gorm:"default:0" json:"total_orders"`
	TotalShipping  float64   `gorm:"type:decimal(12,2);default:0" json:"total_shipping"`
	TotalFangguo   float64   `gorm:"type:decimal(12,2);default:0" json:"total_fangguo"`
	TotalOther     float64   `gorm:"type:decimal(12,2);default:0" json:"total_other"`
	ConfirmedCount int       `gorm:"default:0" json:"confirmed_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName 表名
func (OrderCostBatch) TableName() string {
	return "order_cost_batches"
}

// TotalCost 批次总成本
func (b *OrderCostBatch) TotalCost() float64 {
	return b.TotalShipping + b.TotalFangguo + b.TotalOther
}
