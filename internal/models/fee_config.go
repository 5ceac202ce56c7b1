package models

import "time"

// FeeMethod 手续费计算方式
const (
	FeeMethodPercentage          = "percentage"            // 按比例
	FeeMethodFixed               = "fixed"                 // 固定金额
	FeeMethodPercentagePlusFixed = "percentage_plus_fixed" // 比例加固定
)

// FeeConfig 渠道手续费配置
type FeeConfig struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Method      string    `gorm:"size:50;not null" json:"method"`
	Percentage  float64   `gorm:"type:decimal(6,4);default:0" json:"percentage"` // 比例，如0.029表示2.9%
	FixedAmount float64   `gorm:"type:decimal(10,2);default:0" json:"fixed_amount"`
	Currency    string    `gorm:"size:10;default:CNY" json:"currency"`
	Description string    `gorm:"type:text" json:"description"`
	Enabled     bool      `gorm:"default:true" json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 表名
func (FeeConfig) TableName() string {
	return "fee_configs"
}

// IsValidFeeMethod 校验手续费计算方式
func IsValidFeeMethod(method string) bool {
	switch method {
	case FeeMethodPercentage, FeeMethodFixed, FeeMethodPercentagePlusFixed:
		return true
	}
	return false
}
