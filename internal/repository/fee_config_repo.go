package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/models"
)

// FeeConfigRepository 手续费配置仓储
type FeeConfigRepository struct {
	db *gorm.DB
}

// NewFeeConfigRepository 创建手续费配置仓储
func NewFeeConfigRepository(db *gorm.DB) *FeeConfigRepository {
	return &FeeConfigRepository{db: db}
}

// Create 创建手续费配置
func (r *FeeConfigRepository) Create(ctx context.Context, config *models.FeeConfig) error {
	return r.db.WithContext(ctx).Create(config).Error
}

// GetByID 根据 ID 获取手续费配置
func (r *FeeConfigRepository) GetByID(ctx context.Context, id int64) (*models.FeeConfig, error) {
	var config models.FeeConfig
	err := r.db.WithContext(ctx).First(&config, id).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// GetByName 根据名称获取手续费配置
func (r *FeeConfigRepository) GetByName(ctx context.Context, name string) (*models.FeeConfig, error) {
	var config models.FeeConfig
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// Update 更新手续费配置
func (r *FeeConfigRepository) Update(ctx context.Context, config *models.FeeConfig) error {
	return r.db.WithContext(ctx).Save(config).Error
}

// Delete 删除手续费配置
func (r *FeeConfigRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.FeeConfig{}, id).Error
}

// List 获取手续费配置列表
func (r *FeeConfigRepository) List(ctx context.Context, enabledOnly bool, offset, limit int) ([]*models.FeeConfig, int64, error) {
	var configs []*models.FeeConfig
	var total int64

	query := r.db.WithContext(ctx).Model(&models.FeeConfig{})
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.Order("name").
		Offset(offset).
		Limit(limit).
		Find(&configs).Error
	if err != nil {
		return nil, 0, err
	}

	return configs, total, nil
}
