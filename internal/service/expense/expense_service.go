// Package expense 提供支出记录与分摊服务
package expense

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/common/errors"
	"github.com/Treessss/CaseLedger/internal/common/logger"
	"github.com/Treessss/CaseLedger/internal/common/utils"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
	"github.com/Treessss/CaseLedger/internal/service/exchange"
)

// ExpenseService 支出服务
type ExpenseService struct {
	db              *gorm.DB
	expenseRepo     *repository.ExpenseRepository
	orderRepo       *repository.OrderRepository
	accountRepo     *repository.AccountRepository
	consumptionRepo *repository.ConsumptionRepository
	rateService     *exchange.RateService
}

// NewExpenseService 创建支出服务
func NewExpenseService(
	db *gorm.DB,
	expenseRepo *repository.ExpenseRepository,
	orderRepo *repository.OrderRepository,
	accountRepo *repository.AccountRepository,
	consumptionRepo *repository.ConsumptionRepository,
	rateService *exchange.RateService,
) *ExpenseService {
	return &ExpenseService{
		db:              db,
		expenseRepo:     expenseRepo,
		orderRepo:       orderRepo,
		accountRepo:     accountRepo,
		consumptionRepo: consumptionRepo,
		rateService:     rateService,
	}
}

// 支出类别到消耗类型的映射
var categoryConsumptionType = map[string]string{
	models.ExpenseCategoryAds:      models.ConsumptionTypeAds,
	models.ExpenseCategoryShipping: models.ConsumptionTypeShipping,
	models.ExpenseCategoryProcure:  models.ConsumptionTypeOrderFee,
	models.ExpenseCategoryService:  models.ConsumptionTypeServiceFee,
}

// consumptionTypeFor 支出类别对应的消耗类型
func consumptionTypeFor(category string) string {
	if t, ok := categoryConsumptionType[category]; ok {
		return t
	}
	return models.ConsumptionTypeOther
}

// CreateExpenseRequest 创建支出请求
type CreateExpenseRequest struct {
	Category    string  `json:"category" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	Currency    string  `json:"currency"`     // 原币币种，缺省为人民币
	Description string  `json:"description"`
	ExpenseDate string  `json:"expense_date"` // YYYY-MM-DD，缺省为当天
	AccountID   *int64  `json:"account_id"`   // 指定时从该账户扣款
	OrderIDs    []int64 `json:"order_ids"`    // 关联订单
}

// CreateExpense 创建支出
// 外币金额折算为人民币入账，账户扣款与消耗记录在同一事务内完成
func (s *ExpenseService) CreateExpense(ctx context.Context, req *CreateExpenseRequest) (*models.Expense, error) {
	if _, ok := models.ExpenseCategories()[req.Category]; !ok {
		return nil, errors.ErrExpenseCategoryInvalid
	}
	if req.Amount <= 0 {
		return nil, errors.ErrExpenseAmountInvalid
	}

	currency := req.Currency
	if currency == "" {
		currency = "CNY"
	}

	// 折算人民币
	amountCNY := utils.Round2(req.Amount)
	rate := 1.0
	if currency != "CNY" {
		var err error
		amountCNY, rate, err = s.rateService.Convert(ctx, req.Amount, currency, "CNY")
		if err != nil {
			return nil, err
		}
	}

	expenseDate := time.Now()
	if req.ExpenseDate != "" {
		d, err := time.Parse("2006-01-02", req.ExpenseDate)
		if err != nil {
			return nil, errors.ErrInvalidParams.WithMessage("无效的支出日期")
		}
		expenseDate = d
	}

	var orders []models.Order
	if len(req.OrderIDs) > 0 {
		var err error
		orders, err = s.orderRepo.GetByIDs(ctx, utils.Unique(req.OrderIDs))
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if len(orders) != len(utils.Unique(req.OrderIDs)) {
			return nil, errors.ErrExpenseOrderNotFound
		}
	}

	if req.AccountID != nil {
		account, err := s.accountRepo.GetByID(ctx, *req.AccountID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.ErrAccountNotFound
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if !account.IsActive() {
			return nil, errors.ErrAccountDisabled
		}
	}

	expense := &models.Expense{
		Category:         req.Category,
		Amount:           amountCNY,
		OriginalAmount:   utils.Round2(req.Amount),
		OriginalCurrency: currency,
		ExchangeRate:     rate,
		Description:      req.Description,
		ExpenseDate:      expenseDate,
		AccountID:        req.AccountID,
		Orders:           orders,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if req.AccountID != nil {
			if err := s.accountRepo.Debit(ctx, tx, *req.AccountID, amountCNY); err != nil {
				if err == repository.ErrInsufficientBalance {
					return errors.ErrBalanceInsufficient
				}
				return errors.ErrDatabaseError.WithError(err)
			}

			consumption := &models.Consumption{
				AccountID:       *req.AccountID,
				Amount:          amountCNY,
				Currency:        "CNY",
				Type:            consumptionTypeFor(req.Category),
				Description:     fmt.Sprintf("支出扣款: %s", req.Description),
				ConsumptionDate: expenseDate,
			}
			if err := s.consumptionRepo.CreateTx(ctx, tx, consumption); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			expense.ConsumptionID = &consumption.ID
		}

		if err := s.expenseRepo.CreateTx(ctx, tx, expense); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("支出已创建",
		logger.String("category", req.Category),
		logger.Amount(amountCNY),
		logger.Currency(currency),
	)
	return expense, nil
}

// UpdateExpenseRequest 更新支出请求
type UpdateExpenseRequest struct {
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	ExpenseDate *string  `json:"expense_date"`
	OrderIDs    *[]int64 `json:"order_ids"`
}

// UpdateExpense 更新支出的非财务字段
// 金额与扣款账户不可修改，需先删除再重建
func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, req *UpdateExpenseRequest) (*models.Expense, error) {
	expense, err := s.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Category != nil {
		if _, ok := models.ExpenseCategories()[*req.Category]; !ok {
			return nil, errors.ErrExpenseCategoryInvalid
		}
		expense.Category = *req.Category
	}
	if req.Description != nil {
		expense.Description = *req.Description
	}
	if req.ExpenseDate != nil {
		d, err := time.Parse("2006-01-02", *req.ExpenseDate)
		if err != nil {
			return nil, errors.ErrInvalidParams.WithMessage("无效的支出日期")
		}
		expense.ExpenseDate = d
	}

	var orders []models.Order
	replaceOrders := false
	if req.OrderIDs != nil {
		replaceOrders = true
		if len(*req.OrderIDs) > 0 {
			ids := utils.Unique(*req.OrderIDs)
			orders, err = s.orderRepo.GetByIDs(ctx, ids)
			if err != nil {
				return nil, errors.ErrDatabaseError.WithError(err)
			}
			if len(orders) != len(ids) {
				return nil, errors.ErrExpenseOrderNotFound
			}
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.expenseRepo.Update(ctx, tx, expense); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if replaceOrders {
			if err := s.expenseRepo.ReplaceOrders(ctx, tx, expense, orders); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetExpense(ctx, id)
}

// DeleteExpense 删除支出
// 按消耗记录回冲账户余额，回冲与删除在同一事务内完成
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	expense, err := s.GetExpense(ctx, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if expense.ConsumptionID != nil && expense.AccountID != nil {
			consumption, err := s.consumptionRepo.GetByID(ctx, *expense.ConsumptionID)
			if err != nil {
				if err != gorm.ErrRecordNotFound {
					return errors.ErrExpenseReverseFailed.WithError(err)
				}
				// 消耗已不存在时只删除支出本身
			} else {
				if err := s.accountRepo.Credit(ctx, tx, consumption.AccountID, consumption.Amount); err != nil {
					return errors.ErrExpenseReverseFailed.WithError(err)
				}
				if err := s.consumptionRepo.Delete(ctx, tx, consumption.ID); err != nil {
					return errors.ErrExpenseReverseFailed.WithError(err)
				}
			}
		}

		if err := s.expenseRepo.DeleteTx(ctx, tx, expense); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
}

// BatchDeleteItem 批量删除失败项
type BatchDeleteItem struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// BatchDeleteResult 批量删除结果
type BatchDeleteResult struct {
	Total    int64             `json:"total"`
	Deleted  int64             `json:"deleted"`
	Failed   int64             `json:"failed"`
	Failures []BatchDeleteItem `json:"failures,omitempty"`
}

// BatchDelete 批量删除支出，逐条回冲，单条失败不影响其余
func (s *ExpenseService) BatchDelete(ctx context.Context, ids []int64) (*BatchDeleteResult, error) {
	if len(ids) == 0 {
		return nil, errors.ErrInvalidParams.WithMessage("支出ID列表不能为空")
	}

	result := &BatchDeleteResult{Total: int64(len(ids))}
	for _, id := range ids {
		if err := s.DeleteExpense(ctx, id); err != nil {
			result.Failed++
			reason := err.Error()
			if appErr, ok := err.(*errors.AppError); ok {
				reason = appErr.Message
			}
			result.Failures = append(result.Failures, BatchDeleteItem{ID: id, Reason: reason})
			continue
		}
		result.Deleted++
	}
	return result, nil
}

// GetExpense 获取支出
func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrExpenseNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return expense, nil
}

// ListExpenses 获取支出列表
func (s *ExpenseService) ListExpenses(ctx context.Context, filter *repository.ExpenseFilter, offset, limit int) ([]*models.Expense, int64, error) {
	expenses, total, err := s.expenseRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return expenses, total, nil
}

// SumByCategory 按类别汇总支出
func (s *ExpenseService) SumByCategory(ctx context.Context, startDate, endDate *time.Time) ([]*models.CategorySummary, error) {
	rows, err := s.expenseRepo.SumByCategory(ctx, startDate, endDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return rows, nil
}
