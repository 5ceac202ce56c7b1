// Package utils 提供通用工具函数
package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateBatchID 生成导入批次ID
// 格式: 年月日 + 8位UUID片段
func GenerateBatchID() string {
	now := time.Now().Format("20060102")
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("B%s%s", now, strings.ToUpper(id[:8]))
}

// GenerateReferenceNo 生成业务流水号
// 格式: 前缀 + 年月日时分秒 + 6位UUID片段
func GenerateReferenceNo(prefix string) string {
	timestamp := time.Now().Format("20060102150405")
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s%s%s", prefix, timestamp, strings.ToUpper(id[:6]))
}

// Round2 金额保留两位小数，四舍五入
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// MulRound2 金额乘法，结果保留两位小数
func MulRound2(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// DivRound 金额除法，指定精度
func DivRound(a, b float64, places int32) float64 {
	if b == 0 {
		return 0
	}
	f, _ := decimal.NewFromFloat(a).Div(decimal.NewFromFloat(b)).Round(places).Float64()
	return f
}

// SumRound2 金额求和，结果保留两位小数
func SumRound2(values ...float64) float64 {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	f, _ := sum.Round(2).Float64()
	return f
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr 返回 int64 指针
func Int64Ptr(i int64) *int64 {
	return &i
}

// Float64Ptr 返回 float64 指针
func Float64Ptr(f float64) *float64 {
	return &f
}

// TimePtr 返回时间指针
func TimePtr(t time.Time) *time.Time {
	return &t
}

// SafeString 安全获取字符串指针的值
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SafeInt64 安全获取 int64 指针的值
func SafeInt64(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}

// SafeFloat64 安全获取 float64 指针的值
func SafeFloat64(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// Contains 判断切片是否包含元素
func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// Unique 切片去重
func Unique[T comparable](slice []T) []T {
	seen := make(map[T]struct{})
	result := make([]T, 0, len(slice))
	for _, v := range slice {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}
	return result
}

// Pagination 分页参数
type Pagination struct {
	Page     int   `json:"page" form:"page"`
	PageSize int   `json:"page_size" form:"page_size"`
	Total    int64 `json:"total"`
}

// GetOffset 获取偏移量
func (p *Pagination) GetOffset() int {
	return (p.Page - 1) * p.PageSize
}

// GetLimit 获取限制数
func (p *Pagination) GetLimit() int {
	return p.PageSize
}

// Normalize 规范化分页参数
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}
