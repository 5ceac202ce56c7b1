// Package api 对外 HTTP Handler
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Treessss/CaseLedger/internal/common/handler"
	"github.com/Treessss/CaseLedger/internal/common/response"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
	ledgerService "github.com/Treessss/CaseLedger/internal/service/ledger"
)

// AccountHandler 平台账户处理器
type AccountHandler struct {
	accountService *ledgerService.AccountService
}

// NewAccountHandler 创建账户处理器
func NewAccountHandler(accountSvc *ledgerService.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountSvc}
}

// Create 创建账户
// @Summary 创建平台账户
// @Tags 账户
// @Accept json
// @Produce json
// @Param body body ledgerService.CreateAccountRequest true "账户信息"
// @Success 200 {object} response.Response{data=models.Account}
// @Router /api/v1/accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req ledgerService.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), &req)
	handler.MustSucceed(c, err, account)
}

// Get 获取账户详情
// @Summary 获取账户详情
// @Tags 账户
// @Produce json
// @Param id path int true "账户ID"
// @Success 200 {object} response.Response{data=models.Account}
// @Router /api/v1/accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "账户")
	if !ok {
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), id)
	handler.MustSucceed(c, err, account)
}

// List 获取账户列表
// @Summary 获取账户列表
// @Tags 账户
// @Produce json
// @Param platform query string false "平台"
// @Param status query string false "状态"
// @Param keyword query string false "账户名关键字"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	p := handler.BindPagination(c)
	filter := &repository.AccountFilter{
		Platform: c.Query("platform"),
		Status:   c.Query("status"),
		Keyword:  c.Query("keyword"),
	}

	accounts, total, err := h.accountService.ListAccounts(c.Request.Context(), filter, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, accounts, total, p.Page, p.PageSize)
}

// Update 更新账户
// @Summary 更新账户基础信息
// @Tags 账户
// @Accept json
// @Produce json
// @Param id path int true "账户ID"
// @Param body body ledgerService.UpdateAccountRequest true "更新内容"
// @Success 200 {object} response.Response{data=models.Account}
// @Router /api/v1/accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "账户")
	if !ok {
		return
	}

	var req ledgerService.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, account)
}

// Delete 删除账户
// @Summary 删除账户
// @Tags 账户
// @Produce json
// @Param id path int true "账户ID"
// @Param force query bool false "级联删除流水"
// @Success 200 {object} response.Response
// @Router /api/v1/accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "账户")
	if !ok {
		return
	}

	force := c.Query("force") == "true"
	err := h.accountService.DeleteAccount(c.Request.Context(), id, force)
	handler.MustSucceedWithMessage(c, err, "账户已删除", nil)
}

// Summary 获取账户汇总
// @Summary 获取账户汇总信息
// @Tags 账户
// @Produce json
// @Param id path int true "账户ID"
// @Success 200 {object} response.Response{data=models.AccountSummary}
// @Router /api/v1/accounts/{id}/summary [get]
func (h *AccountHandler) Summary(c *gin.Context) {
	id, ok := handler.ParseID(c, "账户")
	if !ok {
		return
	}

	summary, err := h.accountService.GetAccountSummary(c.Request.Context(), id)
	handler.MustSucceed(c, err, summary)
}

// Platforms 获取支持的平台列表
// @Summary 获取支持的平台列表
// @Tags 账户
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/accounts/platforms [get]
func (h *AccountHandler) Platforms(c *gin.Context) {
	response.Success(c, models.Platforms())
}

// PlatformBalances 按平台汇总余额
// @Summary 按平台汇总余额
// @Tags 账户
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/accounts/balances [get]
func (h *AccountHandler) PlatformBalances(c *gin.Context) {
	balances, err := h.accountService.PlatformBalances(c.Request.Context())
	handler.MustSucceed(c, err, balances)
}
