package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/models"
)

// RechargeRepository 充值记录仓储
type RechargeRepository struct {
	db *gorm.DB
}

// NewRechargeRepository 创建充值仓储
func NewRechargeRepository(db *gorm.DB) *RechargeRepository {
	return &RechargeRepository{db: db}
}

// Create 创建充值记录
func (r *RechargeRepository) Create(ctx context.Context, recharge *models.Recharge) error {
	return r.db.WithContext(ctx).Create(recharge).Error
}

// CreateTx 在事务中创建充值记录
func (r *RechargeRepository) CreateTx(ctx context.Context, tx *gorm.DB, recharge *models.Recharge) error {
	return tx.WithContext(ctx).Create(recharge).Error
}

// GetByID 根据 ID 获取充值记录
func (r *RechargeRepository) GetByID(ctx context.Context, id int64) (*models.Recharge, error) {
	var recharge models.Recharge
	err := r.db.WithContext(ctx).First(&recharge, id).Error
	if err != nil {
		return nil, err
	}
	return &recharge, nil
}

// UpdateStatusTx 在事务中更新充值状态，带前置状态校验
// 返回命中行数，0 表示状态已被并发修改
func (r *RechargeRepository) UpdateStatusTx(ctx context.Context, tx *gorm.DB, id int64, from, to string) (int64, error) {
	result := tx.WithContext(ctx).Model(&models.Recharge{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// Delete 删除充值记录
func (r *RechargeRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	return tx.WithContext(ctx).Delete(&models.Recharge{}, id).Error
}

// RechargeFilter 充值查询过滤条件
type RechargeFilter struct {
	AccountID *int64
	Status    string
	Method    string
	StartDate *time.Time
	EndDate   *time.Time
}

// List 获取充值列表
func (r *RechargeRepository) List(ctx context.Context, filter *RechargeFilter, offset, limit int) ([]*models.Recharge, int64, error) {
	var recharges []*models.Recharge
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Recharge{})

	if filter != nil {
		if filter.AccountID != nil {
			query = query.Where("account_id = ?", *filter.AccountID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Method != "" {
			query = query.Where("method = ?", filter.Method)
		}
		if filter.StartDate != nil {
			query = query.Where("recharge_date >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			query = query.Where("recharge_date <= ?", *filter.EndDate)
		}
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.Order("recharge_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&recharges).Error
	if err != nil {
		return nil, 0, err
	}

	return recharges, total, nil
}

// SumByAccount 汇总账户已完成充值金额
func (r *RechargeRepository) SumByAccount(ctx context.Context, accountID int64) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.Recharge{}).
		Where("account_id = ? AND status = ?", accountID, models.RechargeStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&sum)
	return sum, err
}

// DeleteByAccountTx 在事务中删除账户全部充值记录
func (r *RechargeRepository) DeleteByAccountTx(ctx context.Context, tx *gorm.DB, accountID int64) error {
	return tx.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&models.Recharge{}).Error
}

// CountByAccount 统计账户充值笔数
func (r *RechargeRepository) CountByAccount(ctx context.Context, accountID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Recharge{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}
