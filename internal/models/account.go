// Package models 定义数据模型
package models

import "time"

// 平台类型
const (
	PlatformFacebook = "facebook" // Facebook广告
	PlatformFourPX   = "4px"      // 4PX物流
	PlatformFangguo  = "fangguo"  // 方果系统
	PlatformOther    = "other"    // 其他平台
)

// AccountStatus 账户状态
const (
	AccountStatusActive    = "active"    // 正常
	AccountStatusInactive  = "inactive"  // 停用
	AccountStatusSuspended = "suspended" // 冻结
)

// RechargeStatus 充值状态
const (
	RechargeStatusPending   = "pending"   // 待确认
	RechargeStatusCompleted = "completed" // 已完成
	RechargeStatusFailed    = "failed"    // 失败
	RechargeStatusCancelled = "cancelled" // 已取消
)

// RechargeMethod 充值方式
const (
	RechargeMethodBankTransfer = "bank_transfer" // 银行转账
	RechargeMethodAlipay       = "alipay"        // 支付宝
	RechargeMethodWechat       = "wechat"        // 微信支付
	RechargeMethodCash         = "cash"          // 现金
	RechargeMethodOther        = "other"         // 其他方式
)

// ConsumptionType 消耗类型
const (
	ConsumptionTypeAds        = "ads"         // 广告费用
	ConsumptionTypeShipping   = "shipping"    // 物流费用
	ConsumptionTypeOrderFee   = "order_fee"   // 下单费用
	ConsumptionTypeServiceFee = "service_fee" // 服务费用
	ConsumptionTypeOther      = "other"       // 其他费用
)

// Account 平台预充值账户
type Account struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Platform    string    `gorm:"size:50;not null;index;uniqueIndex:uk_platform_account,priority:1" json:"platform"`
	AccountName string    `gorm:"size:100;not null;uniqueIndex:uk_platform_account,priority:2" json:"account_name"`
	AccountID   string    `gorm:"size:100" json:"account_id"` // 平台侧账户ID
	Description string    `gorm:"type:text" json:"description"`
	Balance     float64   `gorm:"type:decimal(10,2);default:0;not null" json:"balance"`
	Currency    string    `gorm:"size:10;default:CNY" json:"currency"`
	Status      string    `gorm:"size:20;default:active;index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 表名
func (Account) TableName() string {
	return "ledger_accounts"
}

// IsActive 账户是否可用
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// Recharge 预充值记录
type Recharge struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	AccountID     int64     `gorm:"not null;index" json:"account_id"`
	Amount        float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency      string    `gorm:"size:10;default:CNY" json:"currency"`
	Method        string    `gorm:"size:50" json:"method"`
	TransactionID string    `gorm:"size:100" json:"transaction_id"` // 外部交易ID
	Description   string    `gorm:"type:text" json:"description"`
	Status        string    `gorm:"size:20;default:completed;index" json:"status"`
	RechargeDate  time.Time `json:"recharge_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 表名
func (Recharge) TableName() string {
	return "recharges"
}

// Consumption 消耗记录
type Consumption struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	AccountID       int64     `gorm:"not null;index" json:"account_id"`
	Amount          float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency        string    `gorm:"size:10;default:CNY" json:"currency"`
	Type            string    `gorm:"size:50;index" json:"type"`
	Description     string    `gorm:"type:text" json:"description"`
	ReferenceID     string    `gorm:"size:100" json:"reference_id"` // 关联ID（广告ID、订单号等）
	ConsumptionDate time.Time `gorm:"not null;index" json:"consumption_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName 表名
func (Consumption) TableName() string {
	return "consumptions"
}

// Platforms 返回支持的平台列表
func Platforms() map[string]string {
	return map[string]string{
		PlatformFacebook: "Facebook广告",
		PlatformFourPX:   "4PX物流",
		PlatformFangguo:  "方果系统",
		PlatformOther:    "其他平台",
	}
}

// RechargeMethods 返回充值方式列表
func RechargeMethods() map[string]string {
	return map[string]string{
		RechargeMethodBankTransfer: "银行转账",
		RechargeMethodAlipay:       "支付宝",
		RechargeMethodWechat:       "微信支付",
		RechargeMethodCash:         "现金",
		RechargeMethodOther:        "其他方式",
	}
}

// ConsumptionTypes 返回消耗类型列表
func ConsumptionTypes() map[string]string {
	return map[string]string{
		ConsumptionTypeAds:        "广告费用",
		ConsumptionTypeShipping:   "物流费用",
		ConsumptionTypeOrderFee:   "下单费用",
		ConsumptionTypeServiceFee: "服务费用",
		ConsumptionTypeOther:      "其他费用",
	}
}
