// Package profit 提供营收与利润报表服务
package profit

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/common/errors"
	"github.com/Treessss/CaseLedger/internal/common/utils"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
	"github.com/Treessss/CaseLedger/internal/service/exchange"
)

// ProfitService 利润报表服务
type ProfitService struct {
	orderRepo     *repository.OrderRepository
	orderCostRepo *repository.OrderCostRepository
	expenseRepo   *repository.ExpenseRepository
	rateService   *exchange.RateService
}

// NewProfitService 创建利润报表服务
func NewProfitService(
	orderRepo *repository.OrderRepository,
	orderCostRepo *repository.OrderCostRepository,
	expenseRepo *repository.ExpenseRepository,
	rateService *exchange.RateService,
) *ProfitService {
	return &ProfitService{
		orderRepo:     orderRepo,
		orderCostRepo: orderCostRepo,
		expenseRepo:   expenseRepo,
		rateService:   rateService,
	}
}

// Report 生成区间利润报表
// 营收取已支付与部分支付订单，外币按当前汇率折算人民币
// 成本取区间内支出加已确认订单成本
func (s *ProfitService) Report(ctx context.Context, startDate, endDate *time.Time) (*models.ProfitReport, error) {
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, errors.ErrDateRangeInvalid
	}

	orders, err := s.orderRepo.ListRevenue(ctx, startDate, endDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	revenue := 0.0
	for _, order := range orders {
		amount := order.RevenueAmount()
		if amount <= 0 {
			continue
		}
		cny, _, err := s.rateService.Convert(ctx, amount, order.Currency, "CNY")
		if err != nil {
			return nil, err
		}
		revenue = utils.SumRound2(revenue, cny)
	}

	expenses, err := s.expenseRepo.Sum(ctx, startDate, endDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	orderCost, err := s.orderCostRepo.SumConfirmed(ctx, startDate, endDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	report := &models.ProfitReport{
		Revenue:   revenue,
		Expenses:  utils.Round2(expenses),
		OrderCost: utils.Round2(orderCost),
	}
	if startDate != nil {
		report.StartDate = startDate.Format("2006-01-02")
	}
	if endDate != nil {
		report.EndDate = endDate.Format("2006-01-02")
	}
	report.Profit = utils.SumRound2(revenue, -report.Expenses, -report.OrderCost)
	if revenue > 0 {
		report.Margin = utils.DivRound(report.Profit*100, revenue, 2)
	}
	return report, nil
}

// OrderProfits 生成区间内逐订单利润明细
// 未录入成本的订单以 CostRecorded=false 标记，与零成本区分
func (s *ProfitService) OrderProfits(ctx context.Context, startDate, endDate *time.Time) ([]*models.OrderProfit, error) {
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, errors.ErrDateRangeInvalid
	}

	orders, err := s.orderRepo.ListRevenue(ctx, startDate, endDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if len(orders) == 0 {
		return []*models.OrderProfit{}, nil
	}

	orderIDs := make([]int64, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}
	expenseByOrder, err := s.expenseRepo.SumByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	profits := make([]*models.OrderProfit, 0, len(orders))
	for _, order := range orders {
		item, err := s.orderProfitItem(ctx, order, expenseByOrder[order.ID])
		if err != nil {
			return nil, err
		}
		profits = append(profits, item)
	}
	return profits, nil
}

// orderProfitItem 计算单订单利润明细
func (s *ProfitService) orderProfitItem(ctx context.Context, order *models.Order, allocatedExpense float64) (*models.OrderProfit, error) {
	revenue, _, err := s.rateService.Convert(ctx, order.RevenueAmount(), order.Currency, "CNY")
	if err != nil {
		return nil, err
	}
	productCost := 0.0
	if order.ProductCost > 0 {
		productCost, _, err = s.rateService.Convert(ctx, order.ProductCost, order.Currency, "CNY")
		if err != nil {
			return nil, err
		}
	}

	item := &models.OrderProfit{
		OrderNumber: order.OrderNumber,
		Revenue:     revenue,
		ProductCost: productCost,
		Expense:     utils.Round2(allocatedExpense),
	}

	cost, err := s.orderCostRepo.GetByOrderNumber(ctx, order.OrderNumber)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	} else if cost.Status == models.OrderCostStatusConfirmed {
		item.Cost = utils.Round2(cost.TotalCost())
		item.CostRecorded = true
	}

	item.Profit = utils.SumRound2(item.Revenue, -item.ProductCost, -item.Cost, -item.Expense)
	if item.Revenue > 0 {
		item.Margin = utils.DivRound(item.Profit*100, item.Revenue, 2)
	}
	return item, nil
}

// OrderProfit 计算指定订单的利润明细并回写订单利润字段
func (s *ProfitService) OrderProfit(ctx context.Context, orderNumber string) (*models.OrderProfit, error) {
	order, err := s.orderRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	expenseByOrder, err := s.expenseRepo.SumByOrderIDs(ctx, []int64{order.ID})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	item, err := s.orderProfitItem(ctx, order, expenseByOrder[order.ID])
	if err != nil {
		return nil, err
	}

	order.GrossProfit = item.Profit
	order.ProfitMargin = item.Margin
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return item, nil
}

// Series 生成按日或按月的利润时间序列
func (s *ProfitService) Series(ctx context.Context, startDate, endDate *time.Time, monthly bool) ([]*models.PeriodPoint, error) {
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, errors.ErrDateRangeInvalid
	}

	layout := "2006-01-02"
	if monthly {
		layout = "2006-01"
	}

	points := make(map[string]*models.PeriodPoint)
	point := func(ts time.Time) *models.PeriodPoint {
		key := ts.Format(layout)
		p, ok := points[key]
		if !ok {
			p = &models.PeriodPoint{Period: key}
			points[key] = p
		}
		return p
	}

	orders, err := s.orderRepo.ListRevenue(ctx, startDate, endDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	for _, order := range orders {
		amount := order.RevenueAmount()
		if amount <= 0 {
			continue
		}
		cny, _, err := s.rateService.Convert(ctx, amount, order.Currency, "CNY")
		if err != nil {
			return nil, err
		}
		p := point(order.OrderDate)
		p.Revenue = utils.SumRound2(p.Revenue, cny)
	}

	expenses, err := s.expenseRepo.ListBetween(ctx, startDate, endDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	for _, e := range expenses {
		p := point(e.ExpenseDate)
		p.Expenses = utils.SumRound2(p.Expenses, e.Amount)
	}

	costs, err := s.orderCostRepo.ListConfirmedBetween(ctx, startDate, endDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	for _, c := range costs {
		p := point(c.CostDate)
		p.OrderCost = utils.SumRound2(p.OrderCost, c.TotalCost())
	}

	series := make([]*models.PeriodPoint, 0, len(points))
	for _, p := range points {
		p.Profit = utils.SumRound2(p.Revenue, -p.Expenses, -p.OrderCost)
		series = append(series, p)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Period < series[j].Period })
	return series, nil
}
