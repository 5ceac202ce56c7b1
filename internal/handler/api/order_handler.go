package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Treessss/CaseLedger/internal/common/handler"
	"github.com/Treessss/CaseLedger/internal/common/response"
	"github.com/Treessss/CaseLedger/internal/repository"
	orderService "github.com/Treessss/CaseLedger/internal/service/order"
)

// OrderHandler 销售订单处理器
type OrderHandler struct {
	orderService *orderService.OrderService
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(orderSvc *orderService.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderSvc}
}

// Create 创建订单
// @Summary 创建销售订单
// @Tags 订单
// @Accept json
// @Produce json
// @Param body body orderService.CreateOrderRequest true "订单信息"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req orderService.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	handler.MustSucceed(c, err, order)
}

// Get 获取订单详情
// @Summary 获取订单详情
// @Tags 订单
// @Produce json
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	handler.MustSucceed(c, err, order)
}

// List 获取订单列表
// @Summary 获取订单列表
// @Tags 订单
// @Produce json
// @Param order_number query string false "订单号"
// @Param status query string false "状态"
// @Param currency query string false "币种"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	p := handler.BindPagination(c)

	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	filter := &repository.OrderFilter{
		OrderNumber: c.Query("order_number"),
		Status:      c.Query("status"),
		Currency:    c.Query("currency"),
		StartDate:   startDate,
		EndDate:     endDate,
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, orders, total, p.Page, p.PageSize)
}

// Update 更新订单
// @Summary 更新订单
// @Tags 订单
// @Accept json
// @Produce json
// @Param id path int true "订单ID"
// @Param body body orderService.UpdateOrderRequest true "更新内容"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id} [put]
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	var req orderService.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, order)
}

// Delete 删除订单
// @Summary 删除订单
// @Tags 订单
// @Produce json
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Router /api/v1/orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	err := h.orderService.DeleteOrder(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "订单已删除", nil)
}
