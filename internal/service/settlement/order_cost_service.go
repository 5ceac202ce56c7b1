// Package settlement 提供订单成本录入与结算服务
package settlement

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/common/errors"
	"github.com/Treessss/CaseLedger/internal/common/logger"
	"github.com/Treessss/CaseLedger/internal/common/metrics"
	"github.com/Treessss/CaseLedger/internal/common/utils"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
)

// OrderCostService 订单成本服务
type OrderCostService struct {
	db              *gorm.DB
	orderCostRepo   *repository.OrderCostRepository
	accountRepo     *repository.AccountRepository
	consumptionRepo *repository.ConsumptionRepository
}

// NewOrderCostService 创建订单成本服务
func NewOrderCostService(
	db *gorm.DB,
	orderCostRepo *repository.OrderCostRepository,
	accountRepo *repository.AccountRepository,
	consumptionRepo *repository.ConsumptionRepository,
) *OrderCostService {
	return &OrderCostService{
		db:              db,
		orderCostRepo:   orderCostRepo,
		accountRepo:     accountRepo,
		consumptionRepo: consumptionRepo,
	}
}

// CostComponentRequest 成本分量请求
type CostComponentRequest struct {
	Cost      float64 `json:"cost"`
	AccountID *int64  `json:"account_id"`
	Reference string  `json:"reference"`
	Notes     string  `json:"notes"`
}

// OrderCostItemRequest 单条订单成本请求
type OrderCostItemRequest struct {
	OrderNumber string               `json:"order_number" binding:"required"`
	Shipping    CostComponentRequest `json:"shipping"`
	Fangguo     CostComponentRequest `json:"fangguo"`
	Other       CostComponentRequest `json:"other"`
	CostDate    string               `json:"cost_date"` // YYYY-MM-DD，缺省为当天
	Notes       string               `json:"notes"`
}

// BatchCreateRequest 批量创建订单成本请求
type BatchCreateRequest struct {
	Description string                 `json:"description"`
	Items       []OrderCostItemRequest `json:"items" binding:"required"`
}

// buildOrderCost 由请求构造订单成本记录
func buildOrderCost(item *OrderCostItemRequest, batchID string) (*models.OrderCost, error) {
	if item.Shipping.Cost < 0 || item.Fangguo.Cost < 0 || item.Other.Cost < 0 {
		return nil, errors.ErrInvalidParams.WithMessage("成本金额不能为负")
	}
	total := item.Shipping.Cost + item.Fangguo.Cost + item.Other.Cost
	if total <= 0 {
		return nil, errors.ErrOrderCostNoComponents
	}

	costDate := time.Now()
	if item.CostDate != "" {
		d, err := time.Parse("2006-01-02", item.CostDate)
		if err != nil {
			return nil, errors.ErrInvalidParams.WithMessage("无效的成本日期")
		}
		costDate = d
	}

	return &models.OrderCost{
		OrderNumber:       item.OrderNumber,
		BatchID:           batchID,
		ShippingCost:      utils.Round2(item.Shipping.Cost),
		ShippingAccountID: item.Shipping.AccountID,
		ShippingReference: item.Shipping.Reference,
		ShippingNotes:     item.Shipping.Notes,
		FangguoCost:       utils.Round2(item.Fangguo.Cost),
		FangguoAccountID:  item.Fangguo.AccountID,
		FangguoReference:  item.Fangguo.Reference,
		FangguoNotes:      item.Fangguo.Notes,
		OtherCost:         utils.Round2(item.Other.Cost),
		OtherAccountID:    item.Other.AccountID,
		OtherReference:    item.Other.Reference,
		OtherNotes:        item.Other.Notes,
		Status:            models.OrderCostStatusPending,
		CostDate:          costDate,
		Notes:             item.Notes,
	}, nil
}

// CreateOrderCost 创建单条订单成本
func (s *OrderCostService) CreateOrderCost(ctx context.Context, item *OrderCostItemRequest) (*models.OrderCost, error) {
	cost, err := buildOrderCost(item, "")
	if err != nil {
		return nil, err
	}

	if _, err := s.orderCostRepo.GetByOrderNumber(ctx, item.OrderNumber); err == nil {
		return nil, errors.ErrOrderCostExists.WithMessage(
			fmt.Sprintf("订单 %s 已录入成本", item.OrderNumber))
	} else if err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if err := s.orderCostRepo.Create(ctx, cost); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return cost, nil
}

// BatchCreate 批量创建订单成本
// 整批原子：任一订单号重复或参数非法则全部回滚
func (s *OrderCostService) BatchCreate(ctx context.Context, req *BatchCreateRequest) (*models.OrderCostBatch, error) {
	if len(req.Items) == 0 {
		return nil, errors.ErrBatchEmpty
	}

	// 批内订单号去重校验
	seen := make(map[string]bool, len(req.Items))
	orderNumbers := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if seen[item.OrderNumber] {
			return nil, errors.ErrOrderCostExists.WithMessage(
				fmt.Sprintf("批次内订单号 %s 重复", item.OrderNumber))
		}
		seen[item.OrderNumber] = true
		orderNumbers = append(orderNumbers, item.OrderNumber)
	}

	existing, err := s.orderCostRepo.ExistsByOrderNumbers(ctx, orderNumbers)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	for _, no := range orderNumbers {
		if existing[no] {
			return nil, errors.ErrOrderCostExists.WithMessage(
				fmt.Sprintf("订单 %s 已录入成本", no))
		}
	}

	batchID := utils.GenerateBatchID()
	costs := make([]*models.OrderCost, 0, len(req.Items))
	batch := &models.OrderCostBatch{
		BatchID:     batchID,
		Description: req.Description,
	}

	for i := range req.Items {
		cost, err := buildOrderCost(&req.Items[i], batchID)
		if err != nil {
			return nil, err
		}
		costs = append(costs, cost)
		batch.TotalOrders++
		batch.TotalShipping = utils.SumRound2(batch.TotalShipping, cost.ShippingCost)
		batch.TotalFangguo = utils.SumRound2(batch.TotalFangguo, cost.FangguoCost)
		batch.TotalOther = utils.SumRound2(batch.TotalOther, cost.OtherCost)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderCostRepo.CreateBatch(ctx, tx, batch); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		for _, cost := range costs {
			if err := s.orderCostRepo.CreateTx(ctx, tx, cost); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("订单成本批次已创建",
		logger.BatchID(batchID),
		logger.Int("orders", batch.TotalOrders),
	)
	return batch, nil
}

// Confirm 确认单条订单成本
// 逐分量扣款并生成消耗记录，任一分量失败整单回滚
// 未指定扣款账户的分量不扣款，记录照常确认
func (s *OrderCostService) Confirm(ctx context.Context, id int64) (*models.OrderCost, error) {
	cost, err := s.GetOrderCost(ctx, id)
	if err != nil {
		return nil, err
	}
	switch cost.Status {
	case models.OrderCostStatusConfirmed:
		return nil, errors.ErrOrderCostConfirmed
	case models.OrderCostStatusCancelled:
		return nil, errors.ErrOrderCostCancelled
	}

	components := cost.Components()
	if len(components) == 0 {
		return nil, errors.ErrOrderCostNoComponents
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.orderCostRepo.UpdateStatusTx(ctx, tx, cost.ID,
			models.OrderCostStatusPending, models.OrderCostStatusConfirmed, &now)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if rows == 0 {
			return errors.ErrOrderCostStatusError
		}

		for _, comp := range components {
			if comp.AccountID == nil {
				continue
			}
			if err := s.accountRepo.Debit(ctx, tx, *comp.AccountID, comp.Amount); err != nil {
				if err == repository.ErrInsufficientBalance {
					return errors.ErrBalanceInsufficient.WithMessage(
						fmt.Sprintf("账户余额不足，订单 %s 的 %s 分量扣款失败", cost.OrderNumber, comp.Type))
				}
				return errors.ErrDatabaseError.WithError(err)
			}

			description := fmt.Sprintf("订单成本确认: %s (%s)", cost.OrderNumber, comp.Type)
			if comp.Notes != "" {
				description += " - " + comp.Notes
			}
			consumption := &models.Consumption{
				AccountID:       *comp.AccountID,
				Amount:          comp.Amount,
				Currency:        "CNY",
				Type:            comp.Type,
				Description:     description,
				ReferenceID:     cost.OrderNumber,
				ConsumptionDate: now,
			}
			if err := s.consumptionRepo.CreateTx(ctx, tx, consumption); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}

		if cost.BatchID != "" {
			if err := s.orderCostRepo.UpdateBatchConfirmedCount(ctx, tx, cost.BatchID, 1); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.GetMetrics().RecordSettlement("failed")
		return nil, err
	}

	cost.Status = models.OrderCostStatusConfirmed
	cost.ConfirmedAt = &now
	metrics.GetMetrics().RecordSettlement("confirmed")
	logger.Info("订单成本已确认",
		logger.OrderNo(cost.OrderNumber),
		logger.Amount(cost.TotalCost()),
	)
	return cost, nil
}

// BatchConfirmResult 批次确认结果
type BatchConfirmResult struct {
	BatchID   string             `json:"batch_id"`
	Total     int                `json:"total"`
	Confirmed int                `json:"confirmed"`
	Failed    int                `json:"failed"`
	Failures  []BatchConfirmItem `json:"failures,omitempty"`
}

// BatchConfirmItem 批次确认失败明细
type BatchConfirmItem struct {
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// ConfirmBatch 确认批次内全部待确认订单成本
// 逐单独立事务，单笔失败不影响其余
func (s *OrderCostService) ConfirmBatch(ctx context.Context, batchID string) (*BatchConfirmResult, error) {
	if _, err := s.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}

	pending, err := s.orderCostRepo.ListPendingByBatch(ctx, batchID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	result := &BatchConfirmResult{
		BatchID: batchID,
		Total:   len(pending),
	}
	for _, cost := range pending {
		if _, err := s.Confirm(ctx, cost.ID); err != nil {
			result.Failed++
			reason := err.Error()
			if appErr, ok := err.(*errors.AppError); ok {
				reason = appErr.Message
			}
			result.Failures = append(result.Failures, BatchConfirmItem{
				OrderNumber: cost.OrderNumber,
				Reason:      reason,
			})
			continue
		}
		result.Confirmed++
	}

	logger.Info("批次确认完成",
		logger.BatchID(batchID),
		logger.Int("confirmed", result.Confirmed),
		logger.Int("failed", result.Failed),
	)
	return result, nil
}

// Cancel 取消待确认订单成本
func (s *OrderCostService) Cancel(ctx context.Context, id int64) error {
	cost, err := s.GetOrderCost(ctx, id)
	if err != nil {
		return err
	}
	if cost.Status == models.OrderCostStatusConfirmed {
		return errors.ErrOrderCostConfirmed.WithMessage("已确认的订单成本不能取消")
	}
	if cost.Status == models.OrderCostStatusCancelled {
		return errors.ErrOrderCostCancelled
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.orderCostRepo.UpdateStatusTx(ctx, tx, id,
			models.OrderCostStatusPending, models.OrderCostStatusCancelled, nil)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if rows == 0 {
			return errors.ErrOrderCostStatusError
		}
		return nil
	})
}

// UpdateOrderCost 更新待确认订单成本
func (s *OrderCostService) UpdateOrderCost(ctx context.Context, id int64, item *OrderCostItemRequest) (*models.OrderCost, error) {
	cost, err := s.GetOrderCost(ctx, id)
	if err != nil {
		return nil, err
	}
	if cost.Status != models.OrderCostStatusPending {
		return nil, errors.ErrOrderCostStatusError.WithMessage("只有待确认的订单成本可以修改")
	}

	updated, err := buildOrderCost(item, cost.BatchID)
	if err != nil {
		return nil, err
	}

	if item.OrderNumber != cost.OrderNumber {
		if _, err := s.orderCostRepo.GetByOrderNumber(ctx, item.OrderNumber); err == nil {
			return nil, errors.ErrOrderCostExists
		} else if err != gorm.ErrRecordNotFound {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	updated.ID = cost.ID
	updated.CreatedAt = cost.CreatedAt
	if err := s.orderCostRepo.Update(ctx, updated); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return updated, nil
}

// DeleteOrderCost 删除订单成本，已确认的不可删除
func (s *OrderCostService) DeleteOrderCost(ctx context.Context, id int64) error {
	cost, err := s.GetOrderCost(ctx, id)
	if err != nil {
		return err
	}
	if cost.Status == models.OrderCostStatusConfirmed {
		return errors.ErrOrderCostConfirmed.WithMessage("已确认的订单成本不能删除")
	}
	if err := s.orderCostRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// GetOrderCost 获取订单成本
func (s *OrderCostService) GetOrderCost(ctx context.Context, id int64) (*models.OrderCost, error) {
	cost, err := s.orderCostRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOrderCostNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return cost, nil
}

// ListOrderCosts 获取订单成本列表
func (s *OrderCostService) ListOrderCosts(ctx context.Context, filter *repository.OrderCostFilter, offset, limit int) ([]*models.OrderCost, int64, error) {
	costs, total, err := s.orderCostRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return costs, total, nil
}

// Summary 按区间汇总已确认订单成本
func (s *OrderCostService) Summary(ctx context.Context, startDate, endDate *time.Time) (*models.OrderCostSummary, error) {
	summary, err := s.orderCostRepo.SumConfirmedComponents(ctx, startDate, endDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return summary, nil
}

// GetBatch 获取批次
func (s *OrderCostService) GetBatch(ctx context.Context, batchID string) (*models.OrderCostBatch, error) {
	batch, err := s.orderCostRepo.GetBatch(ctx, batchID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBatchNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return batch, nil
}

// ListBatches 获取批次列表
func (s *OrderCostService) ListBatches(ctx context.Context, offset, limit int) ([]*models.OrderCostBatch, int64, error) {
	batches, total, err := s.orderCostRepo.ListBatches(ctx, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return batches, total, nil
}

// ListBatchCosts 获取批次内订单成本
func (s *OrderCostService) ListBatchCosts(ctx context.Context, batchID string) ([]*models.OrderCost, error) {
	if _, err := s.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}
	costs, err := s.orderCostRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return costs, nil
}
