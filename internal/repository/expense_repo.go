package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/models"
)

// ExpenseRepository 支出记录仓储
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository 创建支出仓储
func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// CreateTx 在事务中创建支出记录
func (r *ExpenseRepository) CreateTx(ctx context.Context, tx *gorm.DB, expense *models.Expense) error {
	return tx.WithContext(ctx).Create(expense).Error
}

// GetByID 根据 ID 获取支出记录，含关联订单
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*models.Expense, error) {
	var expense models.Expense
	err := r.db.WithContext(ctx).
		Preload("Orders").
		First(&expense, id).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// Update 更新支出记录
func (r *ExpenseRepository) Update(ctx context.Context, tx *gorm.DB, expense *models.Expense) error {
	return tx.WithContext(ctx).Save(expense).Error
}

// DeleteTx 在事务中删除支出记录及订单关联
func (r *ExpenseRepository) DeleteTx(ctx context.Context, tx *gorm.DB, expense *models.Expense) error {
	if err := tx.WithContext(ctx).Model(expense).Association("Orders").Clear(); err != nil {
		return err
	}
	return tx.WithContext(ctx).Delete(expense).Error
}

// ReplaceOrders 替换支出的关联订单
func (r *ExpenseRepository) ReplaceOrders(ctx context.Context, tx *gorm.DB, expense *models.Expense, orders []models.Order) error {
	return tx.WithContext(ctx).Model(expense).Association("Orders").Replace(orders)
}

// ExpenseFilter 支出查询过滤条件
type ExpenseFilter struct {
	Category  string
	AccountID *int64
	OrderID   *int64
	StartDate *time.Time
	EndDate   *time.Time
}

// List 获取支出列表
func (r *ExpenseRepository) List(ctx context.Context, filter *ExpenseFilter, offset, limit int) ([]*models.Expense, int64, error) {
	var expenses []*models.Expense
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Expense{})

	if filter != nil {
		if filter.Category != "" {
			query = query.Where("category = ?", filter.Category)
		}
		if filter.AccountID != nil {
			query = query.Where("account_id = ?", *filter.AccountID)
		}
		if filter.OrderID != nil {
			query = query.
				Joins("JOIN expense_orders ON expense_orders.expense_id = expenses.id").
				Where("expense_orders.order_id = ?", *filter.OrderID)
		}
		if filter.StartDate != nil {
			query = query.Where("expense_date >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			query = query.Where("expense_date <= ?", *filter.EndDate)
		}
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.Preload("Orders").
		Order("expense_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&expenses).Error
	if err != nil {
		return nil, 0, err
	}

	return expenses, total, nil
}

// Sum 汇总支出金额
func (r *ExpenseRepository) Sum(ctx context.Context, startDate, endDate *time.Time) (float64, error) {
	var sum float64
	query := r.db.WithContext(ctx).Model(&models.Expense{})
	if startDate != nil {
		query = query.Where("expense_date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("expense_date <= ?", *endDate)
	}
	err := query.Select("COALESCE(SUM(amount), 0)").Row().Scan(&sum)
	return sum, err
}

// SumByCategory 按类别汇总支出
func (r *ExpenseRepository) SumByCategory(ctx context.Context, startDate, endDate *time.Time) ([]*models.CategorySummary, error) {
	var rows []*models.CategorySummary
	query := r.db.WithContext(ctx).Model(&models.Expense{}).
		Select("category, COALESCE(SUM(amount), 0) as amount, COUNT(*) as count")
	if startDate != nil {
		query = query.Where("expense_date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("expense_date <= ?", *endDate)
	}
	err := query.Group("category").Find(&rows).Error
	return rows, err
}

// SumByOrderIDs 按订单汇总分摊支出金额
// 成本类支出在关联订单间均摊，每单分得 amount / 关联订单数
func (r *ExpenseRepository) SumByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64]float64, error) {
	type row struct {
		OrderID int64
		Total   float64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Expense{}).
		Select("expense_orders.order_id as order_id, "+
			"COALESCE(SUM(expenses.amount * 1.0 / "+
			"(SELECT COUNT(*) FROM expense_orders eo WHERE eo.expense_id = expenses.id)), 0) as total").
		Joins("JOIN expense_orders ON expense_orders.expense_id = expenses.id").
		Where("expense_orders.order_id IN ?", orderIDs).
		Where("expenses.category IN ?", []string{models.ExpenseCategoryShipping, models.ExpenseCategoryProcure}).
		Group("expense_orders.order_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[int64]float64, len(rows))
	for _, v := range rows {
		result[v.OrderID] = v.Total
	}
	return result, nil
}

// ListBetween 获取区间内全部支出，供时间序列聚合
func (r *ExpenseRepository) ListBetween(ctx context.Context, startDate, endDate *time.Time) ([]*models.Expense, error) {
	var expenses []*models.Expense
	query := r.db.WithContext(ctx)
	if startDate != nil {
		query = query.Where("expense_date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("expense_date <= ?", *endDate)
	}
	err := query.Order("expense_date").Find(&expenses).Error
	return expenses, err
}
