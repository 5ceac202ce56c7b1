// Package order 提供销售订单服务
package order

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/common/errors"
	"github.com/Treessss/CaseLedger/internal/common/utils"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
	"github.com/Treessss/CaseLedger/internal/service/exchange"
)

// OrderService 销售订单服务
type OrderService struct {
	orderRepo *repository.OrderRepository
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo *repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	OrderNumber    string  `json:"order_number" binding:"required"`
	CustomerName   string  `json:"customer_name"`
	TotalAmount    float64 `json:"total_amount" binding:"required"`
	PaidAmount     float64 `json:"paid_amount"`
	ActualReceived float64 `json:"actual_received"`
	PaymentMethod  string  `json:"payment_method"`
	PaymentFee     float64 `json:"payment_fee"`
	ProductCost    float64 `json:"product_cost"`
	Currency       string  `json:"currency"`
	Status         string  `json:"status"`
	OrderDate      string  `json:"order_date"` // YYYY-MM-DD，缺省为当天
	Notes          string  `json:"notes"`
}

// 订单合法状态
var validOrderStatuses = []string{
	models.OrderStatusPending,
	models.OrderStatusPaid,
	models.OrderStatusPartiallyPaid,
	models.OrderStatusRefunded,
	models.OrderStatusCancelled,
}

// CreateOrder 创建订单
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	if req.TotalAmount <= 0 {
		return nil, errors.ErrInvalidParams.WithMessage("订单金额必须大于零")
	}
	if req.PaidAmount < 0 || req.PaidAmount > req.TotalAmount {
		return nil, errors.ErrInvalidParams.WithMessage("已付金额非法")
	}
	if req.ActualReceived < 0 || req.PaymentFee < 0 || req.ProductCost < 0 {
		return nil, errors.ErrInvalidParams.WithMessage("金额不能为负")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	if !exchange.IsSupported(currency) {
		return nil, errors.ErrCurrencyNotSupported
	}

	status := req.Status
	if status == "" {
		status = models.OrderStatusPending
	}
	if !utils.Contains(validOrderStatuses, status) {
		return nil, errors.ErrOrderStatusError.WithMessage("无效的订单状态")
	}

	if _, err := s.orderRepo.GetByOrderNumber(ctx, req.OrderNumber); err == nil {
		return nil, errors.ErrOrderExists
	} else if err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	orderDate := time.Now()
	if req.OrderDate != "" {
		d, err := time.Parse("2006-01-02", req.OrderDate)
		if err != nil {
			return nil, errors.ErrInvalidParams.WithMessage("无效的订单日期")
		}
		orderDate = d
	}

	order := &models.Order{
		OrderNumber:    req.OrderNumber,
		CustomerName:   req.CustomerName,
		TotalAmount:    utils.Round2(req.TotalAmount),
		PaidAmount:     utils.Round2(req.PaidAmount),
		ActualReceived: utils.Round2(req.ActualReceived),
		PaymentMethod:  req.PaymentMethod,
		PaymentFee:     utils.Round2(req.PaymentFee),
		ProductCost:    utils.Round2(req.ProductCost),
		Currency:       currency,
		Status:         status,
		OrderDate:      orderDate,
		Notes:          req.Notes,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return order, nil
}

// UpdateOrderRequest 更新订单请求
type UpdateOrderRequest struct {
	CustomerName   *string  `json:"customer_name"`
	TotalAmount    *float64 `json:"total_amount"`
	PaidAmount     *float64 `json:"paid_amount"`
	ActualReceived *float64 `json:"actual_received"`
	PaymentMethod  *string  `json:"payment_method"`
	PaymentFee     *float64 `json:"payment_fee"`
	ProductCost    *float64 `json:"product_cost"`
	Status         *string  `json:"status"`
	Notes          *string  `json:"notes"`
}

// UpdateOrder 更新订单
func (s *OrderService) UpdateOrder(ctx context.Context, id int64, req *UpdateOrderRequest) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CustomerName != nil {
		order.CustomerName = *req.CustomerName
	}
	if req.TotalAmount != nil {
		if *req.TotalAmount <= 0 {
			return nil, errors.ErrInvalidParams.WithMessage("订单金额必须大于零")
		}
		order.TotalAmount = utils.Round2(*req.TotalAmount)
	}
	if req.PaidAmount != nil {
		if *req.PaidAmount < 0 {
			return nil, errors.ErrInvalidParams.WithMessage("已付金额非法")
		}
		order.PaidAmount = utils.Round2(*req.PaidAmount)
	}
	if order.PaidAmount > order.TotalAmount {
		return nil, errors.ErrInvalidParams.WithMessage("已付金额不能超过订单金额")
	}
	if req.ActualReceived != nil {
		if *req.ActualReceived < 0 {
			return nil, errors.ErrInvalidParams.WithMessage("金额不能为负")
		}
		order.ActualReceived = utils.Round2(*req.ActualReceived)
	}
	if req.PaymentMethod != nil {
		order.PaymentMethod = *req.PaymentMethod
	}
	if req.PaymentFee != nil {
		if *req.PaymentFee < 0 {
			return nil, errors.ErrInvalidParams.WithMessage("金额不能为负")
		}
		order.PaymentFee = utils.Round2(*req.PaymentFee)
	}
	if req.ProductCost != nil {
		if *req.ProductCost < 0 {
			return nil, errors.ErrInvalidParams.WithMessage("金额不能为负")
		}
		order.ProductCost = utils.Round2(*req.ProductCost)
	}
	if req.Status != nil {
		if !utils.Contains(validOrderStatuses, *req.Status) {
			return nil, errors.ErrOrderStatusError.WithMessage("无效的订单状态")
		}
		order.Status = *req.Status
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return order, nil
}

// GetOrder 获取订单
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return order, nil
}

// ListOrders 获取订单列表
func (s *OrderService) ListOrders(ctx context.Context, filter *repository.OrderFilter, offset, limit int) ([]*models.Order, int64, error) {
	orders, total, err := s.orderRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return orders, total, nil
}

// DeleteOrder 删除订单
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	if _, err := s.GetOrder(ctx, id); err != nil {
		return err
	}
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}
