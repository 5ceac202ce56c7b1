package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Treessss/CaseLedger/internal/common/handler"
	"github.com/Treessss/CaseLedger/internal/common/response"
	"github.com/Treessss/CaseLedger/internal/repository"
	"github.com/Treessss/CaseLedger/internal/service/settlement"
)

// OrderCostHandler 订单成本与批次处理器
type OrderCostHandler struct {
	orderCostService *settlement.OrderCostService
}

// NewOrderCostHandler 创建订单成本处理器
func NewOrderCostHandler(orderCostSvc *settlement.OrderCostService) *OrderCostHandler {
	return &OrderCostHandler{orderCostService: orderCostSvc}
}

// Create 创建订单成本
// @Summary 创建单条订单成本
// @Tags 订单成本
// @Accept json
// @Produce json
// @Param body body settlement.OrderCostItemRequest true "订单成本"
// @Success 200 {object} response.Response{data=models.OrderCost}
// @Router /api/v1/order-costs [post]
func (h *OrderCostHandler) Create(c *gin.Context) {
	var req settlement.OrderCostItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	cost, err := h.orderCostService.CreateOrderCost(c.Request.Context(), &req)
	handler.MustSucceed(c, err, cost)
}

// BatchCreate 批量创建订单成本
// @Summary 批量创建订单成本
// @Tags 订单成本
// @Accept json
// @Produce json
// @Param body body settlement.BatchCreateRequest true "批次内容"
// @Success 200 {object} response.Response{data=models.OrderCostBatch}
// @Router /api/v1/order-costs/batch [post]
func (h *OrderCostHandler) BatchCreate(c *gin.Context) {
	var req settlement.BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	batch, err := h.orderCostService.BatchCreate(c.Request.Context(), &req)
	handler.MustSucceed(c, err, batch)
}

// Confirm 确认订单成本
// @Summary 确认订单成本并逐分量扣款
// @Tags 订单成本
// @Produce json
// @Param id path int true "订单成本ID"
// @Success 200 {object} response.Response{data=models.OrderCost}
// @Router /api/v1/order-costs/{id}/confirm [post]
func (h *OrderCostHandler) Confirm(c *gin.Context) {
	id, ok := handler.ParseID(c, "订单成本")
	if !ok {
		return
	}

	cost, err := h.orderCostService.Confirm(c.Request.Context(), id)
	handler.MustSucceed(c, err, cost)
}

// Cancel 取消订单成本
// @Summary 取消待确认订单成本
// @Tags 订单成本
// @Produce json
// @Param id path int true "订单成本ID"
// @Success 200 {object} response.Response
// @Router /api/v1/order-costs/{id}/cancel [post]
func (h *OrderCostHandler) Cancel(c *gin.Context) {
	id, ok := handler.ParseID(c, "订单成本")
	if !ok {
		return
	}

	err := h.orderCostService.Cancel(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "订单成本已取消", nil)
}

// Update 更新订单成本
// @Summary 更新待确认订单成本
// @Tags 订单成本
// @Accept json
// @Produce json
// @Param id path int true "订单成本ID"
// @Param body body settlement.OrderCostItemRequest true "订单成本"
// @Success 200 {object} response.Response{data=models.OrderCost}
// @Router /api/v1/order-costs/{id} [put]
func (h *OrderCostHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "订单成本")
	if !ok {
		return
	}

	var req settlement.OrderCostItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	cost, err := h.orderCostService.UpdateOrderCost(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, cost)
}

// Delete 删除订单成本
// @Summary 删除未确认的订单成本
// @Tags 订单成本
// @Produce json
// @Param id path int true "订单成本ID"
// @Success 200 {object} response.Response
// @Router /api/v1/order-costs/{id} [delete]
func (h *OrderCostHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "订单成本")
	if !ok {
		return
	}

	err := h.orderCostService.DeleteOrderCost(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "订单成本已删除", nil)
}

// Get 获取订单成本详情
// @Summary 获取订单成本详情
// @Tags 订单成本
// @Produce json
// @Param id path int true "订单成本ID"
// @Success 200 {object} response.Response{data=models.OrderCost}
// @Router /api/v1/order-costs/{id} [get]
func (h *OrderCostHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "订单成本")
	if !ok {
		return
	}

	cost, err := h.orderCostService.GetOrderCost(c.Request.Context(), id)
	handler.MustSucceed(c, err, cost)
}

// List 获取订单成本列表
// @Summary 获取订单成本列表
// @Tags 订单成本
// @Produce json
// @Param order_number query string false "订单号"
// @Param batch_id query string false "批次ID"
// @Param status query string false "状态"
// @Param account_id query int false "扣款账户ID"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/order-costs [get]
func (h *OrderCostHandler) List(c *gin.Context) {
	p := handler.BindPagination(c)

	accountID, ok := handler.ParseQueryID(c, "account_id", "账户")
	if !ok {
		return
	}
	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	filter := &repository.OrderCostFilter{
		OrderNumber: c.Query("order_number"),
		BatchID:     c.Query("batch_id"),
		Status:      c.Query("status"),
		AccountID:   accountID,
		StartDate:   startDate,
		EndDate:     endDate,
	}

	costs, total, err := h.orderCostService.ListOrderCosts(c.Request.Context(), filter, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, costs, total, p.Page, p.PageSize)
}

// GetBatch 获取批次详情
// @Summary 获取批次详情
// @Tags 订单成本
// @Produce json
// @Param batch_id path string true "批次ID"
// @Success 200 {object} response.Response{data=models.OrderCostBatch}
// @Router /api/v1/order-cost-batches/{batch_id} [get]
func (h *OrderCostHandler) GetBatch(c *gin.Context) {
	batchID := c.Param("batch_id")
	if batchID == "" {
		response.BadRequest(c, "批次ID不能为空")
		return
	}

	batch, err := h.orderCostService.GetBatch(c.Request.Context(), batchID)
	handler.MustSucceed(c, err, batch)
}

// ListBatches 获取批次列表
// @Summary 获取批次列表
// @Tags 订单成本
// @Produce json
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/order-cost-batches [get]
func (h *OrderCostHandler) ListBatches(c *gin.Context) {
	p := handler.BindPagination(c)

	batches, total, err := h.orderCostService.ListBatches(c.Request.Context(), p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, batches, total, p.Page, p.PageSize)
}

// ListBatchCosts 获取批次内订单成本
// @Summary 获取批次内订单成本
// @Tags 订单成本
// @Produce json
// @Param batch_id path string true "批次ID"
// @Success 200 {object} response.Response
// @Router /api/v1/order-cost-batches/{batch_id}/costs [get]
func (h *OrderCostHandler) ListBatchCosts(c *gin.Context) {
	batchID := c.Param("batch_id")
	if batchID == "" {
		response.BadRequest(c, "批次ID不能为空")
		return
	}

	costs, err := h.orderCostService.ListBatchCosts(c.Request.Context(), batchID)
	handler.MustSucceed(c, err, costs)
}

// ConfirmBatch 批次确认
// @Summary 确认批次内全部待确认订单成本
// @Tags 订单成本
// @Produce json
// @Param batch_id path string true "批次ID"
// @Success 200 {object} response.Response{data=settlement.BatchConfirmResult}
// @Router /api/v1/order-cost-batches/{batch_id}/confirm [post]
func (h *OrderCostHandler) ConfirmBatch(c *gin.Context) {
	batchID := c.Param("batch_id")
	if batchID == "" {
		response.BadRequest(c, "批次ID不能为空")
		return
	}

	result, err := h.orderCostService.ConfirmBatch(c.Request.Context(), batchID)
	handler.MustSucceed(c, err, result)
}

// Summary 汇总已确认订单成本
// @Summary 按区间汇总已确认订单成本各分量
// @Tags 订单成本
// @Produce json
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=models.OrderCostSummary}
// @Router /api/v1/order-costs/summary [get]
func (h *OrderCostHandler) Summary(c *gin.Context) {
	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	summary, err := h.orderCostService.Summary(c.Request.Context(), startDate, endDate)
	handler.MustSucceed(c, err, summary)
}
