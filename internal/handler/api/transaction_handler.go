package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Treessss/CaseLedger/internal/common/handler"
	"github.com/Treessss/CaseLedger/internal/common/response"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
	ledgerService "github.com/Treessss/CaseLedger/internal/service/ledger"
)

// TransactionHandler 充值与消耗处理器
type TransactionHandler struct {
	transactionService *ledgerService.TransactionService
}

// NewTransactionHandler 创建流水处理器
func NewTransactionHandler(transactionSvc *ledgerService.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionSvc}
}

// CreateRecharge 创建充值
// @Summary 创建充值
// @Tags 流水
// @Accept json
// @Produce json
// @Param body body ledgerService.CreateRechargeRequest true "充值信息"
// @Success 200 {object} response.Response{data=models.Recharge}
// @Router /api/v1/recharges [post]
func (h *TransactionHandler) CreateRecharge(c *gin.Context) {
	var req ledgerService.CreateRechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	recharge, err := h.transactionService.CreateRecharge(c.Request.Context(), &req)
	handler.MustSucceed(c, err, recharge)
}

// ConfirmRecharge 确认充值
// @Summary 确认待确认充值
// @Tags 流水
// @Produce json
// @Param id path int true "充值ID"
// @Success 200 {object} response.Response{data=models.Recharge}
// @Router /api/v1/recharges/{id}/confirm [post]
func (h *TransactionHandler) ConfirmRecharge(c *gin.Context) {
	id, ok := handler.ParseID(c, "充值")
	if !ok {
		return
	}

	recharge, err := h.transactionService.ConfirmRecharge(c.Request.Context(), id)
	handler.MustSucceed(c, err, recharge)
}

// CancelRecharge 取消充值
// @Summary 取消待确认充值
// @Tags 流水
// @Produce json
// @Param id path int true "充值ID"
// @Success 200 {object} response.Response
// @Router /api/v1/recharges/{id}/cancel [post]
func (h *TransactionHandler) CancelRecharge(c *gin.Context) {
	id, ok := handler.ParseID(c, "充值")
	if !ok {
		return
	}

	err := h.transactionService.CancelRecharge(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "充值已取消", nil)
}

// DeleteRecharge 删除充值
// @Summary 删除充值记录
// @Tags 流水
// @Produce json
// @Param id path int true "充值ID"
// @Success 200 {object} response.Response
// @Router /api/v1/recharges/{id} [delete]
func (h *TransactionHandler) DeleteRecharge(c *gin.Context) {
	id, ok := handler.ParseID(c, "充值")
	if !ok {
		return
	}

	err := h.transactionService.DeleteRecharge(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "充值已删除", nil)
}

// ListRecharges 获取充值列表
// @Summary 获取充值列表
// @Tags 流水
// @Produce json
// @Param account_id query int false "账户ID"
// @Param status query string false "状态"
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/recharges [get]
func (h *TransactionHandler) ListRecharges(c *gin.Context) {
	p := handler.BindPagination(c)

	accountID, ok := handler.ParseQueryID(c, "account_id", "账户")
	if !ok {
		return
	}
	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	filter := &repository.RechargeFilter{
		AccountID: accountID,
		Status:    c.Query("status"),
		Method:    c.Query("method"),
		StartDate: startDate,
		EndDate:   endDate,
	}

	recharges, total, err := h.transactionService.ListRecharges(c.Request.Context(), filter, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, recharges, total, p.Page, p.PageSize)
}

// CreateConsumption 创建消耗
// @Summary 创建消耗并扣款
// @Tags 流水
// @Accept json
// @Produce json
// @Param body body ledgerService.CreateConsumptionRequest true "消耗信息"
// @Success 200 {object} response.Response{data=models.Consumption}
// @Router /api/v1/consumptions [post]
func (h *TransactionHandler) CreateConsumption(c *gin.Context) {
	var req ledgerService.CreateConsumptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	consumption, err := h.transactionService.CreateConsumption(c.Request.Context(), &req)
	handler.MustSucceed(c, err, consumption)
}

// DeleteConsumption 删除消耗
// @Summary 删除消耗记录并回冲余额
// @Tags 流水
// @Produce json
// @Param id path int true "消耗ID"
// @Success 200 {object} response.Response
// @Router /api/v1/consumptions/{id} [delete]
func (h *TransactionHandler) DeleteConsumption(c *gin.Context) {
	id, ok := handler.ParseID(c, "消耗")
	if !ok {
		return
	}

	err := h.transactionService.DeleteConsumption(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "消耗已删除", nil)
}

// ListConsumptions 获取消耗列表
// @Summary 获取消耗列表
// @Tags 流水
// @Produce json
// @Param account_id query int false "账户ID"
// @Param type query string false "消耗类型"
// @Param reference_id query string false "关联ID"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/consumptions [get]
func (h *TransactionHandler) ListConsumptions(c *gin.Context) {
	p := handler.BindPagination(c)

	accountID, ok := handler.ParseQueryID(c, "account_id", "账户")
	if !ok {
		return
	}
	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	filter := &repository.ConsumptionFilter{
		AccountID:   accountID,
		Type:        c.Query("type"),
		ReferenceID: c.Query("reference_id"),
		StartDate:   startDate,
		EndDate:     endDate,
	}

	consumptions, total, err := h.transactionService.ListConsumptions(c.Request.Context(), filter, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, consumptions, total, p.Page, p.PageSize)
}

// ConsumptionTypes 获取消耗类型列表
// @Summary 获取消耗类型列表
// @Tags 流水
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/consumptions/types [get]
func (h *TransactionHandler) ConsumptionTypes(c *gin.Context) {
	response.Success(c, models.ConsumptionTypes())
}

// RechargeMethods 获取充值方式列表
// @Summary 获取充值方式列表
// @Tags 流水
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/recharges/methods [get]
func (h *TransactionHandler) RechargeMethods(c *gin.Context) {
	response.Success(c, models.RechargeMethods())
}
