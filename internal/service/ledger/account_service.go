// Package ledger 提供平台账户与流水服务
package ledger

import (
	"context"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/common/errors"
	"github.com/Treessss/CaseLedger/internal/common/logger"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
)

// AccountService 平台账户服务
type AccountService struct {
	db              *gorm.DB
	accountRepo     *repository.AccountRepository
	rechargeRepo    *repository.RechargeRepository
	consumptionRepo *repository.ConsumptionRepository
}

// NewAccountService 创建账户服务
func NewAccountService(
	db *gorm.DB,
	accountRepo *repository.AccountRepository,
	rechargeRepo *repository.RechargeRepository,
	consumptionRepo *repository.ConsumptionRepository,
) *AccountService {
	return &AccountService{
		db:              db,
		accountRepo:     accountRepo,
		rechargeRepo:    rechargeRepo,
		consumptionRepo: consumptionRepo,
	}
}

// CreateAccountRequest 创建账户请求
type CreateAccountRequest struct {
	Platform    string  `json:"platform" binding:"required"`
	AccountName string  `json:"account_name" binding:"required"`
	AccountID   string  `json:"account_id"`
	Description string  `json:"description"`
	Balance     float64 `json:"balance"`
	Currency    string  `json:"currency"`
}

// CreateAccount 创建账户
func (s *AccountService) CreateAccount(ctx context.Context, req *CreateAccountRequest) (*models.Account, error) {
	if _, ok := models.Platforms()[req.Platform]; !ok {
		return nil, errors.ErrPlatformInvalid
	}
	if req.Balance < 0 {
		return nil, errors.ErrInvalidParams.WithMessage("初始余额不能为负")
	}

	if _, err := s.accountRepo.GetByPlatformAndName(ctx, req.Platform, req.AccountName); err == nil {
		return nil, errors.ErrAccountExists
	} else if err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "CNY"
	}

	account := &models.Account{
		Platform:    req.Platform,
		AccountName: req.AccountName,
		AccountID:   req.AccountID,
		Description: req.Description,
		Balance:     req.Balance,
		Currency:    currency,
		Status:      models.AccountStatusActive,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("账户已创建",
		logger.AccountID(account.ID),
		logger.Platform(account.Platform),
		logger.String("account_name", account.AccountName),
	)
	return account, nil
}

// UpdateAccountRequest 更新账户请求
type UpdateAccountRequest struct {
	AccountName *string `json:"account_name"`
	AccountID   *string `json:"account_id"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// UpdateAccount 更新账户基础信息，余额只能通过充值和消耗变动
func (s *AccountService) UpdateAccount(ctx context.Context, id int64, req *UpdateAccountRequest) (*models.Account, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.AccountName != nil && *req.AccountName != account.AccountName {
		if _, err := s.accountRepo.GetByPlatformAndName(ctx, account.Platform, *req.AccountName); err == nil {
			return nil, errors.ErrAccountExists
		} else if err != gorm.ErrRecordNotFound {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		account.AccountName = *req.AccountName
	}
	if req.AccountID != nil {
		account.AccountID = *req.AccountID
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	if req.Status != nil {
		switch *req.Status {
		case models.AccountStatusActive, models.AccountStatusInactive, models.AccountStatusSuspended:
			account.Status = *req.Status
		default:
			return nil, errors.ErrInvalidParams.WithMessage("无效的账户状态")
		}
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return account, nil
}

// GetAccount 获取账户
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrAccountNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return account, nil
}

// ListAccounts 获取账户列表
func (s *AccountService) ListAccounts(ctx context.Context, filter *repository.AccountFilter, offset, limit int) ([]*models.Account, int64, error) {
	accounts, total, err := s.accountRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return accounts, total, nil
}

// DeleteAccount 删除账户，存在流水时拒绝
func (s *AccountService) DeleteAccount(ctx context.Context, id int64, force bool) error {
	if _, err := s.GetAccount(ctx, id); err != nil {
		return err
	}

	rechargeCount, err := s.rechargeRepo.CountByAccount(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	consumptionCount, err := s.consumptionRepo.CountByAccount(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if rechargeCount > 0 || consumptionCount > 0 {
		// 有流水的账户仅在 force 下级联删除
		if !force {
			return errors.ErrAccountHasRecords
		}
		err = s.db.Transaction(func(tx *gorm.DB) error {
			// 级联删除期间锁定账户行，避免并发扣款落在已删流水上
			if _, err := s.accountRepo.GetByIDForUpdate(ctx, tx, id); err != nil {
				return err
			}
			if err := s.rechargeRepo.DeleteByAccountTx(ctx, tx, id); err != nil {
				return err
			}
			if err := s.consumptionRepo.DeleteByAccountTx(ctx, tx, id); err != nil {
				return err
			}
			return tx.WithContext(ctx).Delete(&models.Account{}, id).Error
		})
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		logger.Warn("账户及其流水已级联删除",
			logger.AccountID(id),
			logger.Int64("recharges", rechargeCount),
			logger.Int64("consumptions", consumptionCount),
		)
		return nil
	}

	if err := s.accountRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	logger.Info("账户已删除", logger.AccountID(id))
	return nil
}

// GetAccountSummary 获取账户汇总信息
func (s *AccountService) GetAccountSummary(ctx context.Context, id int64) (*models.AccountSummary, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	totalRecharge, err := s.rechargeRepo.SumByAccount(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	totalConsumed, err := s.consumptionRepo.SumByAccount(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	rechargeCount, err := s.rechargeRepo.CountByAccount(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	consumptionCount, err := s.consumptionRepo.CountByAccount(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return &models.AccountSummary{
		AccountID:        account.ID,
		Platform:         account.Platform,
		AccountName:      account.AccountName,
		Balance:          account.Balance,
		TotalRecharge:    totalRecharge,
		TotalConsumed:    totalConsumed,
		RechargeCount:    rechargeCount,
		ConsumptionCount: consumptionCount,
	}, nil
}

// PlatformBalances 按平台汇总余额
func (s *AccountService) PlatformBalances(ctx context.Context) (map[string]float64, error) {
	balances, err := s.accountRepo.SumBalanceByPlatform(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return balances, nil
}
