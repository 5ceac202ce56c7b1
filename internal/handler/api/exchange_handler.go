package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Treessss/CaseLedger/internal/common/handler"
	"github.com/Treessss/CaseLedger/internal/common/response"
	"github.com/Treessss/CaseLedger/internal/service/exchange"
)

// ExchangeHandler 汇率与手续费处理器
type ExchangeHandler struct {
	rateService *exchange.RateService
	feeService  *exchange.FeeService
}

// NewExchangeHandler 创建汇率处理器
func NewExchangeHandler(rateSvc *exchange.RateService, feeSvc *exchange.FeeService) *ExchangeHandler {
	return &ExchangeHandler{rateService: rateSvc, feeService: feeSvc}
}

// Rates 获取全部币种对人民币汇率
// @Summary 获取全部币种对人民币汇率
// @Tags 汇率
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/exchange/rates [get]
func (h *ExchangeHandler) Rates(c *gin.Context) {
	response.Success(c, gin.H{
		"base":       "CNY",
		"currencies": exchange.SupportedCurrencies,
		"rates":      h.rateService.Rates(c.Request.Context()),
	})
}

// GetRate 查询单个汇率
// @Summary 查询指定币种对汇率
// @Tags 汇率
// @Produce json
// @Param from query string true "源币种"
// @Param to query string false "目标币种，缺省为CNY"
// @Success 200 {object} response.Response
// @Router /api/v1/exchange/rate [get]
func (h *ExchangeHandler) GetRate(c *gin.Context) {
	from := c.Query("from")
	if from == "" {
		response.BadRequest(c, "源币种不能为空")
		return
	}
	to := c.DefaultQuery("to", "CNY")

	rate, err := h.rateService.GetRate(c.Request.Context(), from, to)
	handler.MustSucceed(c, err, gin.H{"from": from, "to": to, "rate": rate})
}

// Convert 汇率换算
// @Summary 按当前汇率换算金额
// @Tags 汇率
// @Produce json
// @Param amount query number true "金额"
// @Param from query string true "源币种"
// @Param to query string false "目标币种，缺省为CNY"
// @Success 200 {object} response.Response
// @Router /api/v1/exchange/convert [get]
func (h *ExchangeHandler) Convert(c *gin.Context) {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil || amount <= 0 {
		response.BadRequest(c, "金额非法")
		return
	}
	from := c.Query("from")
	if from == "" {
		response.BadRequest(c, "源币种不能为空")
		return
	}
	to := c.DefaultQuery("to", "CNY")

	converted, rate, err := h.rateService.Convert(c.Request.Context(), amount, from, to)
	handler.MustSucceed(c, err, gin.H{
		"amount":    amount,
		"from":      from,
		"to":        to,
		"rate":      rate,
		"converted": converted,
	})
}

// Refresh 手动刷新汇率缓存
// @Summary 手动刷新汇率缓存
// @Tags 汇率
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/exchange/refresh [post]
func (h *ExchangeHandler) Refresh(c *gin.Context) {
	h.rateService.Refresh(c.Request.Context())
	response.SuccessWithMessage(c, "汇率已刷新", h.rateService.Rates(c.Request.Context()))
}

// Currencies 获取支持的币种列表
// @Summary 获取支持的币种列表
// @Tags 汇率
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/exchange/currencies [get]
func (h *ExchangeHandler) Currencies(c *gin.Context) {
	response.Success(c, exchange.SupportedCurrencies)
}

// CreateFeeConfig 创建手续费配置
// @Summary 创建手续费配置
// @Tags 手续费
// @Accept json
// @Produce json
// @Param body body exchange.CreateFeeConfigRequest true "配置内容"
// @Success 200 {object} response.Response{data=models.FeeConfig}
// @Router /api/v1/fee-configs [post]
func (h *ExchangeHandler) CreateFeeConfig(c *gin.Context) {
	var req exchange.CreateFeeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	config, err := h.feeService.CreateFeeConfig(c.Request.Context(), &req)
	handler.MustSucceed(c, err, config)
}

// GetFeeConfig 获取手续费配置
// @Summary 获取手续费配置
// @Tags 手续费
// @Produce json
// @Param id path int true "配置ID"
// @Success 200 {object} response.Response{data=models.FeeConfig}
// @Router /api/v1/fee-configs/{id} [get]
func (h *ExchangeHandler) GetFeeConfig(c *gin.Context) {
	id, ok := handler.ParseID(c, "手续费配置")
	if !ok {
		return
	}

	config, err := h.feeService.GetFeeConfig(c.Request.Context(), id)
	handler.MustSucceed(c, err, config)
}

// ListFeeConfigs 获取手续费配置列表
// @Summary 获取手续费配置列表
// @Tags 手续费
// @Produce json
// @Param enabled_only query bool false "只看启用"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/fee-configs [get]
func (h *ExchangeHandler) ListFeeConfigs(c *gin.Context) {
	p := handler.BindPagination(c)
	enabledOnly := c.Query("enabled_only") == "true"

	configs, total, err := h.feeService.ListFeeConfigs(c.Request.Context(), enabledOnly, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, configs, total, p.Page, p.PageSize)
}

// UpdateFeeConfig 更新手续费配置
// @Summary 更新手续费配置
// @Tags 手续费
// @Accept json
// @Produce json
// @Param id path int true "配置ID"
// @Param body body exchange.UpdateFeeConfigRequest true "更新内容"
// @Success 200 {object} response.Response{data=models.FeeConfig}
// @Router /api/v1/fee-configs/{id} [put]
func (h *ExchangeHandler) UpdateFeeConfig(c *gin.Context) {
	id, ok := handler.ParseID(c, "手续费配置")
	if !ok {
		return
	}

	var req exchange.UpdateFeeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	config, err := h.feeService.UpdateFeeConfig(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, config)
}

// DeleteFeeConfig 删除手续费配置
// @Summary 删除手续费配置
// @Tags 手续费
// @Produce json
// @Param id path int true "配置ID"
// @Success 200 {object} response.Response
// @Router /api/v1/fee-configs/{id} [delete]
func (h *ExchangeHandler) DeleteFeeConfig(c *gin.Context) {
	id, ok := handler.ParseID(c, "手续费配置")
	if !ok {
		return
	}

	err := h.feeService.DeleteFeeConfig(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "手续费配置已删除", nil)
}

// CalculateFee 计算手续费
// @Summary 按配置计算手续费
// @Tags 手续费
// @Produce json
// @Param id path int true "配置ID"
// @Param amount query number true "计费金额"
// @Param currency query string false "金额币种，与配置币种不同时先折算"
// @Success 200 {object} response.Response{data=exchange.FeeResult}
// @Router /api/v1/fee-configs/{id}/calculate [get]
func (h *ExchangeHandler) CalculateFee(c *gin.Context) {
	id, ok := handler.ParseID(c, "手续费配置")
	if !ok {
		return
	}
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		response.BadRequest(c, "金额非法")
		return
	}
	currency := c.Query("currency")

	result, svcErr := h.feeService.CalculateFee(c.Request.Context(), id, amount, currency)
	handler.MustSucceed(c, svcErr, result)
}
