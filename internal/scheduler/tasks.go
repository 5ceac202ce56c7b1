package scheduler

import (
	"context"
	"time"

	"github.com/Treessss/CaseLedger/internal/common/config"
	"github.com/Treessss/CaseLedger/internal/common/metrics"
	"github.com/Treessss/CaseLedger/internal/repository"
	"github.com/Treessss/CaseLedger/internal/service/exchange"
)

// TaskHandler 任务处理器
type TaskHandler struct {
	accountRepo *repository.AccountRepository
	rateService *exchange.RateService
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	accountRepo *repository.AccountRepository,
	rateSvc *exchange.RateService,
) *TaskHandler {
	return &TaskHandler{
		accountRepo: accountRepo,
		rateService: rateSvc,
	}
}

// RefreshExchangeRates 定时刷新汇率缓存
func (h *TaskHandler) RefreshExchangeRates(ctx context.Context) error {
	h.rateService.Refresh(ctx)
	return nil
}

// UpdateBalanceGauges 更新账户余额指标
func (h *TaskHandler) UpdateBalanceGauges(ctx context.Context) error {
	accounts, err := h.accountRepo.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, account := range accounts {
		metrics.GetMetrics().SetAccountBalance(account.Platform, account.AccountName, account.Balance)
	}
	return nil
}

// SetupTasks 设置所有任务
func SetupTasks(scheduler *Scheduler, handler *TaskHandler, cfg *config.Config) {
	// 按配置间隔刷新汇率
	scheduler.AddTask("RefreshExchangeRates", cfg.ExchangeRate.RefreshDuration(), handler.RefreshExchangeRates)

	// 每分钟更新余额指标
	scheduler.AddTask("UpdateBalanceGauges", 1*time.Minute, handler.UpdateBalanceGauges)
}
