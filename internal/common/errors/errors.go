// Package errors 定义业务错误码和错误处理
package errors

import (
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrExternalService = New(1007, "外部服务错误")
	ErrRateLimitExceed = New(1008, "请求过于频繁")
	ErrOperationFailed = New(1009, "操作失败")
)

// 账户错误码 (2000-2999)
var (
	ErrAccountNotFound     = New(2000, "账户不存在")
	ErrAccountExists       = New(2001, "同平台下账户名已存在")
	ErrAccountDisabled     = New(2002, "账户已停用")
	ErrAccountSuspended    = New(2003, "账户已冻结")
	ErrPlatformInvalid     = New(2004, "无效的平台类型")
	ErrBalanceInsufficient = New(2005, "账户余额不足")
	ErrAccountHasRecords   = New(2006, "账户存在流水记录，无法删除")
	ErrCurrencyMismatch    = New(2007, "币种不匹配")
)

// 充值消耗错误码 (3000-3999)
var (
	ErrRechargeNotFound      = New(3000, "充值记录不存在")
	ErrRechargeStatusError   = New(3001, "充值状态异常")
	ErrRechargeCompleted     = New(3002, "充值已完成，不可重复确认")
	ErrRechargeAmountInvalid = New(3003, "充值金额必须大于零")
	ErrConsumptionNotFound   = New(3004, "消耗记录不存在")
	ErrConsumptionInvalid    = New(3005, "消耗金额必须大于零")
	ErrConsumptionTypeError  = New(3006, "无效的消耗类型")
)

// 订单成本错误码 (4000-4999)
var (
	ErrOrderCostNotFound     = New(4000, "订单成本不存在")
	ErrOrderCostExists       = New(4001, "订单号已录入成本")
	ErrOrderCostConfirmed    = New(4002, "订单成本已确认")
	ErrOrderCostCancelled    = New(4003, "订单成本已取消")
	ErrOrderCostStatusError  = New(4004, "订单成本状态异常")
	ErrOrderCostNoComponents = New(4005, "订单成本无有效分量")
	ErrBatchNotFound         = New(4006, "导入批次不存在")
	ErrBatchEmpty            = New(4007, "导入批次为空")
)

// 支出错误码 (5000-5999)
var (
	ErrExpenseNotFound        = New(5000, "支出记录不存在")
	ErrExpenseCategoryInvalid = New(5001, "无效的支出类别")
	ErrExpenseAmountInvalid   = New(5002, "支出金额必须大于零")
	ErrExpenseOrderNotFound   = New(5003, "关联订单不存在")
	ErrExpenseReverseFailed   = New(5004, "支出回冲失败")
)

// 汇率错误码 (6000-6999)
var (
	ErrCurrencyNotSupported = New(6000, "不支持的币种")
	ErrRateFetchFailed      = New(6001, "汇率获取失败")
	ErrRateInvalid          = New(6002, "无效的汇率")
)

// 手续费错误码 (7000-7999)
var (
	ErrFeeConfigNotFound = New(7000, "手续费配置不存在")
	ErrFeeConfigExists   = New(7001, "手续费配置名称已存在")
	ErrFeeMethodInvalid  = New(7002, "无效的手续费计算方式")
	ErrFeeAmountInvalid  = New(7004, "计费金额必须大于零")
)

// 订单报表错误码 (8000-8999)
var (
	ErrOrderNotFound    = New(8000, "订单不存在")
	ErrOrderExists      = New(8001, "订单号已存在")
	ErrOrderStatusError = New(8002, "订单状态异常")
	ErrDateRangeInvalid = New(8003, "无效的日期范围")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
