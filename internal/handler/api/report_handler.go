package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Treessss/CaseLedger/internal/common/handler"
	"github.com/Treessss/CaseLedger/internal/common/response"
	expenseService "github.com/Treessss/CaseLedger/internal/service/expense"
	ledgerService "github.com/Treessss/CaseLedger/internal/service/ledger"
	"github.com/Treessss/CaseLedger/internal/service/profit"
)

// ReportHandler 报表处理器
type ReportHandler struct {
	profitService      *profit.ProfitService
	expenseService     *expenseService.ExpenseService
	transactionService *ledgerService.TransactionService
}

// NewReportHandler 创建报表处理器
func NewReportHandler(
	profitSvc *profit.ProfitService,
	expenseSvc *expenseService.ExpenseService,
	transactionSvc *ledgerService.TransactionService,
) *ReportHandler {
	return &ReportHandler{
		profitService:      profitSvc,
		expenseService:     expenseSvc,
		transactionService: transactionSvc,
	}
}

// Profit 获取区间利润报表
// @Summary 获取区间利润报表
// @Tags 报表
// @Produce json
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=models.ProfitReport}
// @Router /api/v1/reports/profit [get]
func (h *ReportHandler) Profit(c *gin.Context) {
	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	report, err := h.profitService.Report(c.Request.Context(), startDate, endDate)
	handler.MustSucceed(c, err, report)
}

// OrderProfits 获取逐订单利润明细
// @Summary 获取逐订单利润明细
// @Tags 报表
// @Produce json
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /api/v1/reports/order-profits [get]
func (h *ReportHandler) OrderProfits(c *gin.Context) {
	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	profits, err := h.profitService.OrderProfits(c.Request.Context(), startDate, endDate)
	handler.MustSucceed(c, err, profits)
}

// OrderProfit 获取单订单利润明细
// @Summary 获取单订单利润明细并回写订单利润字段
// @Tags 报表
// @Produce json
// @Param order_number path string true "订单号"
// @Success 200 {object} response.Response{data=models.OrderProfit}
// @Router /api/v1/reports/order-profit/{order_number} [get]
func (h *ReportHandler) OrderProfit(c *gin.Context) {
	orderNumber := c.Param("order_number")
	if orderNumber == "" {
		response.BadRequest(c, "订单号不能为空")
		return
	}

	item, err := h.profitService.OrderProfit(c.Request.Context(), orderNumber)
	handler.MustSucceed(c, err, item)
}

// Daily 获取按日利润序列
// @Summary 获取按日收入支出利润序列
// @Tags 报表
// @Produce json
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /api/v1/reports/daily [get]
func (h *ReportHandler) Daily(c *gin.Context) {
	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	series, err := h.profitService.Series(c.Request.Context(), startDate, endDate, false)
	handler.MustSucceed(c, err, series)
}

// Monthly 获取按月利润序列
// @Summary 获取按月收入支出利润序列
// @Tags 报表
// @Produce json
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /api/v1/reports/monthly [get]
func (h *ReportHandler) Monthly(c *gin.Context) {
	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	series, err := h.profitService.Series(c.Request.Context(), startDate, endDate, true)
	handler.MustSucceed(c, err, series)
}

// ExpenseSummary 按类别汇总支出
// @Summary 按类别汇总区间支出
// @Tags 报表
// @Produce json
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /api/v1/reports/expense-summary [get]
func (h *ReportHandler) ExpenseSummary(c *gin.Context) {
	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	summary, err := h.expenseService.SumByCategory(c.Request.Context(), startDate, endDate)
	handler.MustSucceed(c, err, summary)
}

// ConsumptionSummary 按类型汇总消耗
// @Summary 按类型汇总区间消耗
// @Tags 报表
// @Produce json
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /api/v1/reports/consumption-summary [get]
func (h *ReportHandler) ConsumptionSummary(c *gin.Context) {
	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	summary, err := h.transactionService.SumConsumptionsByType(c.Request.Context(), startDate, endDate)
	handler.MustSucceed(c, err, summary)
}
