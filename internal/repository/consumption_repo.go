package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/models"
)

// ConsumptionRepository 消耗记录仓储
type ConsumptionRepository struct {
	db *gorm.DB
}

// NewConsumptionRepository 创建消耗仓储
func NewConsumptionRepository(db *gorm.DB) *ConsumptionRepository {
	return &ConsumptionRepository{db: db}
}

// Create 创建消耗记录
func (r *ConsumptionRepository) Create(ctx context.Context, consumption *models.Consumption) error {
	return r.db.WithContext(ctx).Create(consumption).Error
}

// CreateTx 在事务中创建消耗记录
func (r *ConsumptionRepository) CreateTx(ctx context.Context, tx *gorm.DB, consumption *models.Consumption) error {
	return tx.WithContext(ctx).Create(consumption).Error
}

// GetByID 根据 ID 获取消耗记录
func (r *ConsumptionRepository) GetByID(ctx context.Context, id int64) (*models.Consumption, error) {
	var consumption models.Consumption
	err := r.db.WithContext(ctx).First(&consumption, id).Error
	if err != nil {
		return nil, err
	}
	return &consumption, nil
}

// Delete 在事务中删除消耗记录
func (r *ConsumptionRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	return tx.WithContext(ctx).Delete(&models.Consumption{}, id).Error
}

// ListByReference 按关联ID获取消耗记录
func (r *ConsumptionRepository) ListByReference(ctx context.Context, referenceID string) ([]*models.Consumption, error) {
	var consumptions []*models.Consumption
	err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("created_at DESC").
		Find(&consumptions).Error
	return consumptions, err
}

// ConsumptionFilter 消耗查询过滤条件
type ConsumptionFilter struct {
	AccountID   *int64
	Type        string
	ReferenceID string
	StartDate   *time.Time
	EndDate     *time.Time
}

// List 获取消耗列表
func (r *ConsumptionRepository) List(ctx context.Context, filter *ConsumptionFilter, offset, limit int) ([]*models.Consumption, int64, error) {
	var consumptions []*models.Consumption
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Consumption{})

	if filter != nil {
		if filter.AccountID != nil {
			query = query.Where("account_id = ?", *filter.AccountID)
		}
		if filter.Type != "" {
			query = query.Where("type = ?", filter.Type)
		}
		if filter.ReferenceID != "" {
			query = query.Where("reference_id = ?", filter.ReferenceID)
		}
		if filter.StartDate != nil {
			query = query.Where("consumption_date >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			query = query.Where("consumption_date <= ?", *filter.EndDate)
		}
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.Order("consumption_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&consumptions).Error
	if err != nil {
		return nil, 0, err
	}

	return consumptions, total, nil
}

// SumByAccount 汇总账户消耗金额
func (r *ConsumptionRepository) SumByAccount(ctx context.Context, accountID int64) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.Consumption{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&sum)
	return sum, err
}

// DeleteByAccountTx 在事务中删除账户全部消耗记录
func (r *ConsumptionRepository) DeleteByAccountTx(ctx context.Context, tx *gorm.DB, accountID int64) error {
	return tx.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&models.Consumption{}).Error
}

// CountByAccount 统计账户消耗笔数
func (r *ConsumptionRepository) CountByAccount(ctx context.Context, accountID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Consumption{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}

// SumByType 按类型汇总消耗金额
func (r *ConsumptionRepository) SumByType(ctx context.Context, startDate, endDate *time.Time) ([]*models.CategorySummary, error) {
	var rows []*models.CategorySummary
	query := r.db.WithContext(ctx).Model(&models.Consumption{}).
		Select("type as category, COALESCE(SUM(amount), 0) as amount, COUNT(*) as count")
	if startDate != nil {
		query = query.Where("consumption_date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("consumption_date <= ?", *endDate)
	}
	err := query.Group("type").Find(&rows).Error
	return rows, err
}
