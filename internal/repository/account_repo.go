// Package repository 提供数据访问层
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Treessss/CaseLedger/internal/models"
)

// AccountRepository 平台账户仓储
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建账户仓储
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create 创建账户
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// GetByID 根据 ID 获取账户
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByIDForUpdate 根据 ID 获取账户并加行锁，必须在事务中调用
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*models.Account, error) {
	var account models.Account
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByPlatformAndName 根据平台和名称获取账户
func (r *AccountRepository) GetByPlatformAndName(ctx context.Context, platform, name string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("platform = ? AND account_name = ?", platform, name).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Update 更新账户
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// UpdateFields 更新账户指定字段
func (r *AccountRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete 删除账户
func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Account{}, id).Error
}

// ErrInsufficientBalance 余额不足时扣款语句未命中任何行
var ErrInsufficientBalance = errors.New("insufficient balance")

// Credit 入账，单条语句原子加款
func (r *AccountRepository) Credit(ctx context.Context, tx *gorm.DB, id int64, amount float64) error {
	return tx.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", amount)).Error
}

// Debit 出账，余额校验与扣减同一条语句完成
// 未命中行时返回 ErrInsufficientBalance
func (r *AccountRepository) Debit(ctx context.Context, tx *gorm.DB, id int64, amount float64) error {
	result := tx.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND balance >= ?", id, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// AccountFilter 账户查询过滤条件
type AccountFilter struct {
	Platform string
	Status   string
	Keyword  string // 按账户名模糊匹配
}

// List 获取账户列表
func (r *AccountRepository) List(ctx context.Context, filter *AccountFilter, offset, limit int) ([]*models.Account, int64, error) {
	var accounts []*models.Account
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Account{})

	if filter != nil {
		if filter.Platform != "" {
			query = query.Where("platform = ?", filter.Platform)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Keyword != "" {
			query = query.Where("account_name LIKE ?", "%"+filter.Keyword+"%")
		}
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

// ListActive 获取全部正常状态账户
func (r *AccountRepository) ListActive(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	err := r.db.WithContext(ctx).
		Where("status = ?", models.AccountStatusActive).
		Order("platform, account_name").
		Find(&accounts).Error
	return accounts, err
}

// SumBalanceByPlatform 按平台汇总余额
func (r *AccountRepository) SumBalanceByPlatform(ctx context.Context) (map[string]float64, error) {
	type row struct {
		Platform string
		Total    float64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Select("platform, COALESCE(SUM(balance), 0) as total").
		Group("platform").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]float64, len(rows))
	for _, v := range rows {
		result[v.Platform] = v.Total
	}
	return result, nil
}
