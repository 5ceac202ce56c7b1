package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/models"
)

// OrderCostRepository 订单成本仓储
type OrderCostRepository struct {
	db *gorm.DB
}

// NewOrderCostRepository 创建订单成本仓储
func NewOrderCostRepository(db *gorm.DB) *OrderCostRepository {
	return &OrderCostRepository{db: db}
}

// Create 创建订单成本
func (r *OrderCostRepository) Create(ctx context.Context, cost *models.OrderCost) error {
	return r.db.WithContext(ctx).Create(cost).Error
}

// CreateTx 在事务中创建订单成本
func (r *OrderCostRepository) CreateTx(ctx context.Context, tx *gorm.DB, cost *models.OrderCost) error {
	return tx.WithContext(ctx).Create(cost).Error
}

// GetByID 根据 ID 获取订单成本
func (r *OrderCostRepository) GetByID(ctx context.Context, id int64) (*models.OrderCost, error) {
	var cost models.OrderCost
	err := r.db.WithContext(ctx).First(&cost, id).Error
	if err != nil {
		return nil, err
	}
	return &cost, nil
}

// GetByOrderNumber 根据订单号获取订单成本
func (r *OrderCostRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.OrderCost, error) {
	var cost models.OrderCost
	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		First(&cost).Error
	if err != nil {
		return nil, err
	}
	return &cost, nil
}

// ExistsByOrderNumbers 返回已录入成本的订单号集合
func (r *OrderCostRepository) ExistsByOrderNumbers(ctx context.Context, orderNumbers []string) (map[string]bool, error) {
	var existing []string
	err := r.db.WithContext(ctx).Model(&models.OrderCost{}).
		Where("order_number IN ?", orderNumbers).
		Pluck("order_number", &existing).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]bool, len(existing))
	for _, no := range existing {
		result[no] = true
	}
	return result, nil
}

// Update 更新订单成本
func (r *OrderCostRepository) Update(ctx context.Context, cost *models.OrderCost) error {
	return r.db.WithContext(ctx).Save(cost).Error
}

// UpdateStatusTx 在事务中更新订单成本状态，带前置状态校验
func (r *OrderCostRepository) UpdateStatusTx(ctx context.Context, tx *gorm.DB, id int64, from, to string, confirmedAt *time.Time) (int64, error) {
	updates := map[string]interface{}{"status": to}
	if confirmedAt != nil {
		updates["confirmed_at"] = *confirmedAt
	}
	result := tx.WithContext(ctx).Model(&models.OrderCost{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// Delete 删除订单成本
func (r *OrderCostRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.OrderCost{}, id).Error
}

// OrderCostFilter 订单成本查询过滤条件
type OrderCostFilter struct {
	OrderNumber string
	BatchID     string
	Status      string
	AccountID   *int64 // 任一分量使用该账户
	StartDate   *time.Time
	EndDate     *time.Time
}

// List 获取订单成本列表
func (r *OrderCostRepository) List(ctx context.Context, filter *OrderCostFilter, offset, limit int) ([]*models.OrderCost, int64, error) {
	var costs []*models.OrderCost
	var total int64

	query := r.db.WithContext(ctx).Model(&models.OrderCost{})

	if filter != nil {
		if filter.OrderNumber != "" {
			query = query.Where("order_number LIKE ?", "%"+filter.OrderNumber+"%")
		}
		if filter.BatchID != "" {
			query = query.Where("batch_id = ?", filter.BatchID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.AccountID != nil {
			query = query.Where(
				"shipping_account_id = ? OR fangguo_account_id = ? OR other_account_id = ?",
				*filter.AccountID, *filter.AccountID, *filter.AccountID,
			)
		}
		if filter.StartDate != nil {
			query = query.Where("cost_date >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			query = query.Where("cost_date <= ?", *filter.EndDate)
		}
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.Order("cost_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&costs).Error
	if err != nil {
		return nil, 0, err
	}

	return costs, total, nil
}

// ListByBatch 获取批次内全部订单成本
func (r *OrderCostRepository) ListByBatch(ctx context.Context, batchID string) ([]*models.OrderCost, error) {
	var costs []*models.OrderCost
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("order_number").
		Find(&costs).Error
	return costs, err
}

// ListPendingByBatch 获取批次内待确认订单成本
func (r *OrderCostRepository) ListPendingByBatch(ctx context.Context, batchID string) ([]*models.OrderCost, error) {
	var costs []*models.OrderCost
	err := r.db.WithContext(ctx).
		Where("batch_id = ? AND status = ?", batchID, models.OrderCostStatusPending).
		Order("order_number").
		Find(&costs).Error
	return costs, err
}

// SumConfirmed 汇总已确认订单成本金额
func (r *OrderCostRepository) SumConfirmed(ctx context.Context, startDate, endDate *time.Time) (float64, error) {
	var sum float64
	query := r.db.WithContext(ctx).Model(&models.OrderCost{}).
		Where("status = ?", models.OrderCostStatusConfirmed)
	if startDate != nil {
		query = query.Where("cost_date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("cost_date <= ?", *endDate)
	}
	err := query.
		Select("COALESCE(SUM(shipping_cost + fangguo_cost + other_cost), 0)").
		Row().Scan(&sum)
	return sum, err
}

// SumConfirmedComponents 按分量汇总已确认订单成本
func (r *OrderCostRepository) SumConfirmedComponents(ctx context.Context, startDate, endDate *time.Time) (*models.OrderCostSummary, error) {
	var summary models.OrderCostSummary
	query := r.db.WithContext(ctx).Model(&models.OrderCost{}).
		Where("status = ?", models.OrderCostStatusConfirmed)
	if startDate != nil {
		query = query.Where("cost_date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("cost_date <= ?", *endDate)
	}
	err := query.
		Select("COALESCE(SUM(shipping_cost), 0) as total_shipping, " +
			"COALESCE(SUM(fangguo_cost), 0) as total_fangguo, " +
			"COALESCE(SUM(other_cost), 0) as total_other, " +
			"COUNT(*) as count").
		Find(&summary).Error
	if err != nil {
		return nil, err
	}
	summary.Total = summary.TotalShipping + summary.TotalFangguo + summary.TotalOther
	return &summary, nil
}

// ListConfirmedBetween 获取区间内已确认订单成本，供时间序列聚合
func (r *OrderCostRepository) ListConfirmedBetween(ctx context.Context, startDate, endDate *time.Time) ([]*models.OrderCost, error) {
	var costs []*models.OrderCost
	query := r.db.WithContext(ctx).
		Where("status = ?", models.OrderCostStatusConfirmed)
	if startDate != nil {
		query = query.Where("cost_date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("cost_date <= ?", *endDate)
	}
	err := query.Order("cost_date").Find(&costs).Error
	return costs, err
}

// CreateBatch 创建导入批次
func (r *OrderCostRepository) CreateBatch(ctx context.Context, tx *gorm.DB, batch *models.OrderCostBatch) error {
	return tx.WithContext(ctx).Create(batch).Error
}

// GetBatch 根据批次ID获取批次
func (r *OrderCostRepository) GetBatch(ctx context.Context, batchID string) (*models.OrderCostBatch, error) {
	var batch models.OrderCostBatch
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// UpdateBatchConfirmedCount 刷新批次已确认数
func (r *OrderCostRepository) UpdateBatchConfirmedCount(ctx context.Context, tx *gorm.DB, batchID string, delta int) error {
	return tx.WithContext(ctx).Model(&models.OrderCostBatch{}).
		Where("batch_id = ?", batchID).
		Update("confirmed_count", gorm.Expr("confirmed_count + ?", delta)).Error
}

// ListBatches 获取批次列表
func (r *OrderCostRepository) ListBatches(ctx context.Context, offset, limit int) ([]*models.OrderCostBatch, int64, error) {
	var batches []*models.OrderCostBatch
	var total int64

	query := r.db.WithContext(ctx).Model(&models.OrderCostBatch{})

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&batches).Error
	if err != nil {
		return nil, 0, err
	}

	return batches, total, nil
}
