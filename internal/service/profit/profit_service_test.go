package profit

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Treessss/CaseLedger/internal/common/config"
	"github.com/Treessss/CaseLedger/internal/common/errors"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
	"github.com/Treessss/CaseLedger/internal/service/exchange"
)

// setupProfitTestDB 创建测试数据库
func setupProfitTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Order{},
		&models.OrderCost{},
		&models.OrderCostBatch{},
		&models.Expense{},
	))
	return db
}

// createTestProfitService 创建测试服务
func createTestProfitService(db *gorm.DB) *ProfitService {
	rateSvc := exchange.NewRateService(&config.ExchangeRateConfig{
		CacheTTL:       3600,
		RequestTimeout: 1,
	}, nil)
	return NewProfitService(
		repository.NewOrderRepository(db),
		repository.NewOrderCostRepository(db),
		repository.NewExpenseRepository(db),
		rateSvc,
	)
}

// createProfitTestOrder 创建测试订单
func createProfitTestOrder(t *testing.T, db *gorm.DB, orderNumber string, total, paid float64, status string) *models.Order {
	order := &models.Order{
		OrderNumber: orderNumber,
		TotalAmount: total,
		PaidAmount:  paid,
		Currency:    "CNY",
		Status:      status,
		OrderDate:   time.Now(),
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestReportInvalidDateRange(t *testing.T) {
	db := setupProfitTestDB(t)
	svc := createTestProfitService(db)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -7)
	_, err := svc.Report(context.Background(), &start, &end)
	assert.Equal(t, errors.ErrDateRangeInvalid, err)
}

func TestReportRevenueAndProfit(t *testing.T) {
	db := setupProfitTestDB(t)
	svc := createTestProfitService(db)
	ctx := context.Background()

	// 已支付订单按全额计营收，部分支付按已付金额
	createProfitTestOrder(t, db, "SO-1", 1000, 1000, models.OrderStatusPaid)
	createProfitTestOrder(t, db, "SO-2", 500, 200, models.OrderStatusPartiallyPaid)
	// 待支付与已取消不计营收
	createProfitTestOrder(t, db, "SO-3", 300, 0, models.OrderStatusPending)
	createProfitTestOrder(t, db, "SO-4", 400, 400, models.OrderStatusCancelled)

	expense := &models.Expense{
		Category:    models.ExpenseCategoryAds,
		Amount:      150,
		ExpenseDate: time.Now(),
	}
	require.NoError(t, db.Create(expense).Error)

	now := time.Now()
	confirmed := &models.OrderCost{
		OrderNumber:  "SO-1",
		ShippingCost: 80,
		Status:       models.OrderCostStatusConfirmed,
		CostDate:     now,
		ConfirmedAt:  &now,
	}
	require.NoError(t, db.Create(confirmed).Error)
	// 待确认成本不计入
	pending := &models.OrderCost{
		OrderNumber:  "SO-2",
		ShippingCost: 60,
		Status:       models.OrderCostStatusPending,
		CostDate:     now,
	}
	require.NoError(t, db.Create(pending).Error)

	report, err := svc.Report(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, report.Revenue)
	assert.Equal(t, 150.0, report.Expenses)
	assert.Equal(t, 80.0, report.OrderCost)
	assert.Equal(t, 970.0, report.Profit)
	assert.InDelta(t, 80.83, report.Margin, 0.01)
}

func TestOrderProfitsCostRecordedFlag(t *testing.T) {
	db := setupProfitTestDB(t)
	svc := createTestProfitService(db)
	ctx := context.Background()

	createProfitTestOrder(t, db, "SO-10", 500, 500, models.OrderStatusPaid)
	createProfitTestOrder(t, db, "SO-11", 300, 300, models.OrderStatusPaid)

	now := time.Now()
	cost := &models.OrderCost{
		OrderNumber:  "SO-10",
		ShippingCost: 120,
		Status:       models.OrderCostStatusConfirmed,
		CostDate:     now,
		ConfirmedAt:  &now,
	}
	require.NoError(t, db.Create(cost).Error)

	profits, err := svc.OrderProfits(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, profits, 2)

	byOrder := make(map[string]*models.OrderProfit, len(profits))
	for _, p := range profits {
		byOrder[p.OrderNumber] = p
	}

	withCost := byOrder["SO-10"]
	require.NotNil(t, withCost)
	assert.True(t, withCost.CostRecorded)
	assert.Equal(t, 120.0, withCost.Cost)
	assert.Equal(t, 380.0, withCost.Profit)

	// 未录入成本的订单标记区分于零成本
	withoutCost := byOrder["SO-11"]
	require.NotNil(t, withoutCost)
	assert.False(t, withoutCost.CostRecorded)
	assert.Equal(t, 0.0, withoutCost.Cost)
	assert.Equal(t, 300.0, withoutCost.Profit)
}

func TestOrderProfitsPendingCostNotCounted(t *testing.T) {
	db := setupProfitTestDB(t)
	svc := createTestProfitService(db)
	ctx := context.Background()

	createProfitTestOrder(t, db, "SO-20", 500, 500, models.OrderStatusPaid)

	pending := &models.OrderCost{
		OrderNumber:  "SO-20",
		ShippingCost: 100,
		Status:       models.OrderCostStatusPending,
		CostDate:     time.Now(),
	}
	require.NoError(t, db.Create(pending).Error)

	profits, err := svc.OrderProfits(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, profits, 1)
	assert.False(t, profits[0].CostRecorded)
	assert.Equal(t, 500.0, profits[0].Profit)
}

func TestOrderProfitsExpenseAllocation(t *testing.T) {
	db := setupProfitTestDB(t)
	svc := createTestProfitService(db)
	ctx := context.Background()

	order := createProfitTestOrder(t, db, "SO-30", 400, 400, models.OrderStatusPaid)

	expense := &models.Expense{
		Category:    models.ExpenseCategoryShipping,
		Amount:      60,
		ExpenseDate: time.Now(),
		Orders:      []models.Order{*order},
	}
	require.NoError(t, db.Create(expense).Error)

	profits, err := svc.OrderProfits(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, profits, 1)
	assert.Equal(t, 60.0, profits[0].Expense)
	assert.Equal(t, 340.0, profits[0].Profit)
}

func TestOrderProfitsExpenseSplitAcrossOrders(t *testing.T) {
	db := setupProfitTestDB(t)
	svc := createTestProfitService(db)
	ctx := context.Background()

	o1 := createProfitTestOrder(t, db, "SO-40", 100, 100, models.OrderStatusPaid)
	o2 := createProfitTestOrder(t, db, "SO-41", 100, 100, models.OrderStatusPaid)
	o3 := createProfitTestOrder(t, db, "SO-42", 100, 100, models.OrderStatusPaid)

	// 成本类支出在关联订单间均摊
	expense := &models.Expense{
		Category:    models.ExpenseCategoryProcure,
		Amount:      90,
		ExpenseDate: time.Now(),
		Orders:      []models.Order{*o1, *o2, *o3},
	}
	require.NoError(t, db.Create(expense).Error)

	// 非成本类支出不参与分摊
	ads := &models.Expense{
		Category:    models.ExpenseCategoryAds,
		Amount:      300,
		ExpenseDate: time.Now(),
		Orders:      []models.Order{*o1},
	}
	require.NoError(t, db.Create(ads).Error)

	profits, err := svc.OrderProfits(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, profits, 3)
	for _, p := range profits {
		assert.Equal(t, 30.0, p.Expense, p.OrderNumber)
		assert.Equal(t, 70.0, p.Profit, p.OrderNumber)
	}
}

func TestOrderProfitsProductCost(t *testing.T) {
	db := setupProfitTestDB(t)
	svc := createTestProfitService(db)
	ctx := context.Background()

	order := createProfitTestOrder(t, db, "SO-50", 500, 500, models.OrderStatusPaid)
	require.NoError(t, db.Model(order).Update("product_cost", 120).Error)

	profits, err := svc.OrderProfits(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, profits, 1)
	assert.Equal(t, 120.0, profits[0].ProductCost)
	assert.Equal(t, 380.0, profits[0].Profit)
}

func TestOrderProfitWritesBack(t *testing.T) {
	db := setupProfitTestDB(t)
	svc := createTestProfitService(db)
	ctx := context.Background()

	order := createProfitTestOrder(t, db, "SO-60", 200, 200, models.OrderStatusPaid)

	now := time.Now()
	cost := &models.OrderCost{
		OrderNumber:  "SO-60",
		ShippingCost: 50,
		Status:       models.OrderCostStatusConfirmed,
		CostDate:     now,
		ConfirmedAt:  &now,
	}
	require.NoError(t, db.Create(cost).Error)

	item, err := svc.OrderProfit(ctx, "SO-60")
	require.NoError(t, err)
	assert.Equal(t, 150.0, item.Profit)
	assert.Equal(t, 75.0, item.Margin)

	// 利润字段回写到订单
	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, 150.0, reloaded.GrossProfit)
	assert.Equal(t, 75.0, reloaded.ProfitMargin)
}

func TestOrderProfitUnknownOrder(t *testing.T) {
	db := setupProfitTestDB(t)
	svc := createTestProfitService(db)

	_, err := svc.OrderProfit(context.Background(), "SO-NONE")
	assert.Equal(t, errors.ErrOrderNotFound, err)
}

func TestSeriesDaily(t *testing.T) {
	db := setupProfitTestDB(t)
	svc := createTestProfitService(db)
	ctx := context.Background()

	day1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)

	for i, d := range []time.Time{day1, day1, day2} {
		order := &models.Order{
			OrderNumber: fmt.Sprintf("SO-7%d", i),
			TotalAmount: 100,
			PaidAmount:  100,
			Currency:    "CNY",
			Status:      models.OrderStatusPaid,
			OrderDate:   d,
		}
		require.NoError(t, db.Create(order).Error)
	}
	expense := &models.Expense{
		Category:    models.ExpenseCategoryAds,
		Amount:      30,
		ExpenseDate: day2,
	}
	require.NoError(t, db.Create(expense).Error)

	series, err := svc.Series(ctx, nil, nil, false)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "2026-08-01", series[0].Period)
	assert.Equal(t, 200.0, series[0].Revenue)
	assert.Equal(t, 200.0, series[0].Profit)
	assert.Equal(t, "2026-08-02", series[1].Period)
	assert.Equal(t, 100.0, series[1].Revenue)
	assert.Equal(t, 30.0, series[1].Expenses)
	assert.Equal(t, 70.0, series[1].Profit)
}

func TestSeriesMonthly(t *testing.T) {
	db := setupProfitTestDB(t)
	svc := createTestProfitService(db)
	ctx := context.Background()

	aug := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	sep := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	for i, d := range []time.Time{aug, sep} {
		order := &models.Order{
			OrderNumber: fmt.Sprintf("SO-8%d", i),
			TotalAmount: 100,
			PaidAmount:  100,
			Currency:    "CNY",
			Status:      models.OrderStatusPaid,
			OrderDate:   d,
		}
		require.NoError(t, db.Create(order).Error)
	}

	series, err := svc.Series(ctx, nil, nil, true)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "2026-08", series[0].Period)
	assert.Equal(t, "2026-09", series[1].Period)
}

func TestReportEmpty(t *testing.T) {
	db := setupProfitTestDB(t)
	svc := createTestProfitService(db)

	report, err := svc.Report(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Revenue)
	assert.Equal(t, 0.0, report.Profit)
	assert.Equal(t, 0.0, report.Margin)
}
