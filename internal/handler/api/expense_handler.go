package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Treessss/CaseLedger/internal/common/handler"
	"github.com/Treessss/CaseLedger/internal/common/response"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
	expenseService "github.com/Treessss/CaseLedger/internal/service/expense"
)

// ExpenseHandler 支出处理器
type ExpenseHandler struct {
	expenseService *expenseService.ExpenseService
}

// NewExpenseHandler 创建支出处理器
func NewExpenseHandler(expenseSvc *expenseService.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseSvc}
}

// Create 创建支出
// @Summary 创建支出记录
// @Tags 支出
// @Accept json
// @Produce json
// @Param body body expenseService.CreateExpenseRequest true "支出信息"
// @Success 200 {object} response.Response{data=models.Expense}
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req expenseService.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), &req)
	handler.MustSucceed(c, err, expense)
}

// Get 获取支出详情
// @Summary 获取支出详情
// @Tags 支出
// @Produce json
// @Param id path int true "支出ID"
// @Success 200 {object} response.Response{data=models.Expense}
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "支出")
	if !ok {
		return
	}

	expense, err := h.expenseService.GetExpense(c.Request.Context(), id)
	handler.MustSucceed(c, err, expense)
}

// List 获取支出列表
// @Summary 获取支出列表
// @Tags 支出
// @Produce json
// @Param category query string false "类别"
// @Param account_id query int false "账户ID"
// @Param order_id query int false "关联订单ID"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	p := handler.BindPagination(c)

	accountID, ok := handler.ParseQueryID(c, "account_id", "账户")
	if !ok {
		return
	}
	orderID, ok := handler.ParseQueryID(c, "order_id", "订单")
	if !ok {
		return
	}
	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	filter := &repository.ExpenseFilter{
		Category:  c.Query("category"),
		AccountID: accountID,
		OrderID:   orderID,
		StartDate: startDate,
		EndDate:   endDate,
	}

	expenses, total, err := h.expenseService.ListExpenses(c.Request.Context(), filter, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, expenses, total, p.Page, p.PageSize)
}

// Update 更新支出
// @Summary 更新支出的非财务字段
// @Tags 支出
// @Accept json
// @Produce json
// @Param id path int true "支出ID"
// @Param body body expenseService.UpdateExpenseRequest true "更新内容"
// @Success 200 {object} response.Response{data=models.Expense}
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "支出")
	if !ok {
		return
	}

	var req expenseService.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, expense)
}

// Delete 删除支出
// @Summary 删除支出并回冲账户余额
// @Tags 支出
// @Produce json
// @Param id path int true "支出ID"
// @Success 200 {object} response.Response
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "支出")
	if !ok {
		return
	}

	err := h.expenseService.DeleteExpense(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "支出已删除", nil)
}

// BatchDelete 批量删除支出
// @Summary 批量删除支出并逐条回冲
// @Tags 支出
// @Accept json
// @Produce json
// @Param body body object true "支出ID列表"
// @Success 200 {object} response.Response
// @Router /api/v1/expenses/batch-delete [post]
func (h *ExpenseHandler) BatchDelete(c *gin.Context) {
	var req struct {
		IDs []int64 `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.expenseService.BatchDelete(c.Request.Context(), req.IDs)
	handler.MustSucceed(c, err, result)
}

// Summary 按类别汇总支出
// @Summary 按类别汇总区间支出
// @Tags 支出
// @Produce json
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /api/v1/expenses/summary [get]
func (h *ExpenseHandler) Summary(c *gin.Context) {
	startDate, endDate, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	summary, err := h.expenseService.SumByCategory(c.Request.Context(), startDate, endDate)
	handler.MustSucceed(c, err, summary)
}

// Categories 获取支出类别列表
// @Summary 获取支出类别列表
// @Tags 支出
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/expenses/categories [get]
func (h *ExpenseHandler) Categories(c *gin.Context) {
	response.Success(c, models.ExpenseCategories())
}
