package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/models"
)

// OrderRepository 销售订单仓储
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create 创建订单
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByOrderNumber 根据订单号获取订单
func (r *OrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByIDs 批量获取订单
func (r *OrderRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&orders).Error
	return orders, err
}

// Update 更新订单
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// Delete 删除订单
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Order{}, id).Error
}

// OrderFilter 订单查询过滤条件
type OrderFilter struct {
	OrderNumber string
	Status      string
	Currency    string
	StartDate   *time.Time
	EndDate     *time.Time
}

// List 获取订单列表
func (r *OrderRepository) List(ctx context.Context, filter *OrderFilter, offset, limit int) ([]*models.Order, int64, error) {
	var orders []*models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})

	if filter != nil {
		if filter.OrderNumber != "" {
			query = query.Where("order_number LIKE ?", "%"+filter.OrderNumber+"%")
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Currency != "" {
			query = query.Where("currency = ?", filter.Currency)
		}
		if filter.StartDate != nil {
			query = query.Where("order_date >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			query = query.Where("order_date <= ?", *filter.EndDate)
		}
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.Order("order_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// ListRevenue 获取计入营收的订单（已支付和部分支付）
func (r *OrderRepository) ListRevenue(ctx context.Context, startDate, endDate *time.Time) ([]*models.Order, error) {
	var orders []*models.Order
	query := r.db.WithContext(ctx).
		Where("status IN ?", []string{models.OrderStatusPaid, models.OrderStatusPartiallyPaid})
	if startDate != nil {
		query = query.Where("order_date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("order_date <= ?", *endDate)
	}
	err := query.Order("order_date").Find(&orders).Error
	return orders, err
}
