package models

import "time"

// ExpenseCategory 支出类别
const (
	ExpenseCategoryAds       = "ads"       // 广告支出
	ExpenseCategoryShipping  = "shipping"  // 物流支出
	ExpenseCategoryProcure   = "procure"   // 采购支出
	ExpenseCategoryService   = "service"   // 服务支出
	ExpenseCategoryOperating = "operating" // 运营支出
	ExpenseCategoryOther     = "other"     // 其他支出
)

// Expense 支出记录，金额统一折算为人民币入账
type Expense struct {
	ID       int64   `gorm:"primaryKey" json:"id"`
	Category string  `gorm:"size:50;not null;index" json:"category"`
	Amount   float64 `gorm:"type:decimal(10,2);not null" json:"amount"` // 人民币金额

	// 原币信息，折算后保留原始值
	OriginalAmount   float64 `gorm:"type:decimal(10,2)" json:"original_amount"`
	OriginalCurrency string  `gorm:"size:10" json:"original_currency"`
	ExchangeRate     float64 `gorm:"type:decimal(10,6)" json:"exchange_rate"`

	Description string    `gorm:"type:text" json:"description"`
	ExpenseDate time.Time `gorm:"not null;index" json:"expense_date"`

	// 从账户扣款时记录对应消耗，删除支出按此回冲
	AccountID     *int64 `gorm:"index" json:"account_id"`
	ConsumptionID *int64 `gorm:"index" json:"consumption_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Orders []Order `gorm:"many2many:expense_orders;" json:"orders,omitempty"`
}

// TableName 表名
func (Expense) TableName() string {
	return "expenses"
}

// ExpenseCategories 返回支出类别列表
func ExpenseCategories() map[string]string {
	return map[string]string{
		ExpenseCategoryAds:       "广告支出",
		ExpenseCategoryShipping:  "物流支出",
		ExpenseCategoryProcure:   "采购支出",
		ExpenseCategoryService:   "服务支出",
		ExpenseCategoryOperating: "运营支出",
		ExpenseCategoryOther:     "其他支出",
	}
}
