package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/common/errors"
	"github.com/Treessss/CaseLedger/internal/common/logger"
	"github.com/Treessss/CaseLedger/internal/common/metrics"
	"github.com/Treessss/CaseLedger/internal/common/utils"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
)

// TransactionService 充值与消耗服务
type TransactionService struct {
	db              *gorm.DB
	accountRepo     *repository.AccountRepository
	rechargeRepo    *repository.RechargeRepository
	consumptionRepo *repository.ConsumptionRepository
}

// NewTransactionService 创建流水服务
func NewTransactionService(
	db *gorm.DB,
	accountRepo *repository.AccountRepository,
	rechargeRepo *repository.RechargeRepository,
	consumptionRepo *repository.ConsumptionRepository,
) *TransactionService {
	return &TransactionService{
		db:              db,
		accountRepo:     accountRepo,
		rechargeRepo:    rechargeRepo,
		consumptionRepo: consumptionRepo,
	}
}

// CreateRechargeRequest 创建充值请求
type CreateRechargeRequest struct {
	AccountID     int64   `json:"account_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	Method        string  `json:"method"`
	TransactionID string  `json:"transaction_id"`
	Description   string  `json:"description"`
	Pending       bool    `json:"pending"`       // 为真时创建待确认充值，不立即入账
	RechargeDate  string  `json:"recharge_date"` // YYYY-MM-DD，缺省为当天
}

// CreateRecharge 创建充值
// 已完成状态的充值在同一事务内入账
func (s *TransactionService) CreateRecharge(ctx context.Context, req *CreateRechargeRequest) (*models.Recharge, error) {
	if req.Amount <= 0 {
		return nil, errors.ErrRechargeAmountInvalid
	}

	account, err := s.getActiveAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	rechargeDate := time.Now()
	if req.RechargeDate != "" {
		d, err := time.Parse("2006-01-02", req.RechargeDate)
		if err != nil {
			return nil, errors.ErrInvalidParams.WithMessage("无效的充值日期")
		}
		rechargeDate = d
	}

	status := models.RechargeStatusCompleted
	if req.Pending {
		status = models.RechargeStatusPending
	}

	recharge := &models.Recharge{
		AccountID:     req.AccountID,
		Amount:        utils.Round2(req.Amount),
		Currency:      account.Currency,
		Method:        req.Method,
		TransactionID: req.TransactionID,
		Description:   req.Description,
		Status:        status,
		RechargeDate:  rechargeDate,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.rechargeRepo.CreateTx(ctx, tx, recharge); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if status == models.RechargeStatusCompleted {
			if err := s.accountRepo.Credit(ctx, tx, req.AccountID, recharge.Amount); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.GetMetrics().RecordRecharge(account.Platform, status)
	logger.Info("充值已创建",
		logger.AccountID(req.AccountID),
		logger.Amount(recharge.Amount),
		logger.String("status", status),
	)
	return recharge, nil
}

// ConfirmRecharge 确认待确认充值并入账
// 状态流转带前置校验，重复确认只会生效一次
func (s *TransactionService) ConfirmRecharge(ctx context.Context, id int64) (*models.Recharge, error) {
	recharge, err := s.GetRecharge(ctx, id)
	if err != nil {
		return nil, err
	}
	if recharge.Status == models.RechargeStatusCompleted {
		return nil, errors.ErrRechargeCompleted
	}
	if recharge.Status != models.RechargeStatusPending {
		return nil, errors.ErrRechargeStatusError
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.rechargeRepo.UpdateStatusTx(ctx, tx, id,
			models.RechargeStatusPending, models.RechargeStatusCompleted)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if rows == 0 {
			return errors.ErrRechargeStatusError
		}
		if err := s.accountRepo.Credit(ctx, tx, recharge.AccountID, recharge.Amount); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recharge.Status = models.RechargeStatusCompleted
	logger.Info("充值已确认", logger.AccountID(recharge.AccountID), logger.Amount(recharge.Amount))
	return recharge, nil
}

// CancelRecharge 取消待确认充值
func (s *TransactionService) CancelRecharge(ctx context.Context, id int64) error {
	recharge, err := s.GetRecharge(ctx, id)
	if err != nil {
		return err
	}
	if recharge.Status != models.RechargeStatusPending {
		return errors.ErrRechargeStatusError
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.rechargeRepo.UpdateStatusTx(ctx, tx, id,
			models.RechargeStatusPending, models.RechargeStatusCancelled)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if rows == 0 {
			return errors.ErrRechargeStatusError
		}
		return nil
	})
}

// DeleteRecharge 删除充值记录
// 已完成的充值先回冲余额，余额不足时拒绝
func (s *TransactionService) DeleteRecharge(ctx context.Context, id int64) error {
	recharge, err := s.GetRecharge(ctx, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if recharge.Status == models.RechargeStatusCompleted {
			if err := s.accountRepo.Debit(ctx, tx, recharge.AccountID, recharge.Amount); err != nil {
				if err == repository.ErrInsufficientBalance {
					return errors.ErrBalanceInsufficient.WithMessage("余额不足以回冲该充值")
				}
				return errors.ErrDatabaseError.WithError(err)
			}
		}
		if err := s.rechargeRepo.Delete(ctx, tx, id); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
}

// GetRecharge 获取充值记录
func (s *TransactionService) GetRecharge(ctx context.Context, id int64) (*models.Recharge, error) {
	recharge, err := s.rechargeRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRechargeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return recharge, nil
}

// ListRecharges 获取充值列表
func (s *TransactionService) ListRecharges(ctx context.Context, filter *repository.RechargeFilter, offset, limit int) ([]*models.Recharge, int64, error) {
	recharges, total, err := s.rechargeRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return recharges, total, nil
}

// CreateConsumptionRequest 创建消耗请求
type CreateConsumptionRequest struct {
	AccountID       int64   `json:"account_id" binding:"required"`
	Amount          float64 `json:"amount" binding:"required"`
	Type            string  `json:"type" binding:"required"`
	Description     string  `json:"description"`
	ReferenceID     string  `json:"reference_id"`
	ConsumptionDate string  `json:"consumption_date"` // YYYY-MM-DD，缺省为当天
}

// CreateConsumption 创建消耗并扣款
// 余额校验与扣减在同一条语句内完成，并发下不会超扣
func (s *TransactionService) CreateConsumption(ctx context.Context, req *CreateConsumptionRequest) (*models.Consumption, error) {
	if req.Amount <= 0 {
		return nil, errors.ErrConsumptionInvalid
	}
	if _, ok := models.ConsumptionTypes()[req.Type]; !ok {
		return nil, errors.ErrConsumptionTypeError
	}

	account, err := s.getActiveAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	consumptionDate := time.Now()
	if req.ConsumptionDate != "" {
		d, err := time.Parse("2006-01-02", req.ConsumptionDate)
		if err != nil {
			return nil, errors.ErrInvalidParams.WithMessage("无效的消耗日期")
		}
		consumptionDate = d
	}

	consumption := &models.Consumption{
		AccountID:       req.AccountID,
		Amount:          utils.Round2(req.Amount),
		Currency:        account.Currency,
		Type:            req.Type,
		Description:     req.Description,
		ReferenceID:     req.ReferenceID,
		ConsumptionDate: consumptionDate,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.accountRepo.Debit(ctx, tx, req.AccountID, consumption.Amount); err != nil {
			if err == repository.ErrInsufficientBalance {
				return errors.ErrBalanceInsufficient
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if err := s.consumptionRepo.CreateTx(ctx, tx, consumption); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.GetMetrics().RecordConsumption(account.Platform, req.Type)
	logger.Info("消耗已记录",
		logger.AccountID(req.AccountID),
		logger.Amount(consumption.Amount),
		logger.String("type", req.Type),
	)
	return consumption, nil
}

// DeleteConsumption 删除消耗记录并回冲余额
func (s *TransactionService) DeleteConsumption(ctx context.Context, id int64) error {
	consumption, err := s.GetConsumption(ctx, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.accountRepo.Credit(ctx, tx, consumption.AccountID, consumption.Amount); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if err := s.consumptionRepo.Delete(ctx, tx, id); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
}

// GetConsumption 获取消耗记录
func (s *TransactionService) GetConsumption(ctx context.Context, id int64) (*models.Consumption, error) {
	consumption, err := s.consumptionRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrConsumptionNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return consumption, nil
}

// ListConsumptions 获取消耗列表
func (s *TransactionService) ListConsumptions(ctx context.Context, filter *repository.ConsumptionFilter, offset, limit int) ([]*models.Consumption, int64, error) {
	consumptions, total, err := s.consumptionRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return consumptions, total, nil
}

// SumConsumptionsByType 按消耗类型汇总区间消耗
func (s *TransactionService) SumConsumptionsByType(ctx context.Context, startDate, endDate *time.Time) ([]*models.CategorySummary, error) {
	rows, err := s.consumptionRepo.SumByType(ctx, startDate, endDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return rows, nil
}

// getActiveAccount 获取并校验账户可用
func (s *TransactionService) getActiveAccount(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrAccountNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	switch account.Status {
	case models.AccountStatusActive:
		return account, nil
	case models.AccountStatusSuspended:
		return nil, errors.ErrAccountSuspended
	default:
		return nil, errors.ErrAccountDisabled
	}
}
