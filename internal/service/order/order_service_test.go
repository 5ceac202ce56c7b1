package order

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Treessss/CaseLedger/internal/common/errors"
	"github.com/Treessss/CaseLedger/internal/common/utils"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
)

// setupOrderTestDB 创建测试数据库
func setupOrderTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(&models.Order{}))
	return db
}

// createTestOrderService 创建测试服务
func createTestOrderService(db *gorm.DB) *OrderService {
	return NewOrderService(repository.NewOrderRepository(db))
}

func TestCreateOrder(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := createTestOrderService(db)

	order, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		OrderNumber:  "SO-1001",
		CustomerName: "张三",
		TotalAmount:  99.999,
		OrderDate:    "2026-08-15",
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, order.TotalAmount)
	// 币种缺省美元，状态缺省待支付
	assert.Equal(t, "USD", order.Currency)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "2026-08-15", order.OrderDate.Format("2006-01-02"))
}

func TestCreateOrderWithReceivedAndCost(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := createTestOrderService(db)

	order, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		OrderNumber:    "SO-1010",
		TotalAmount:    100,
		PaidAmount:     100,
		ActualReceived: 96.5,
		PaymentMethod:  "paypal",
		PaymentFee:     3.5,
		ProductCost:    40,
		Status:         models.OrderStatusPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, 96.5, order.ActualReceived)
	assert.Equal(t, 3.5, order.PaymentFee)
	assert.Equal(t, 40.0, order.ProductCost)
	// 有实收时营收按实收计
	assert.Equal(t, 96.5, order.RevenueAmount())
}

func TestCreateOrderInvalidAmount(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := createTestOrderService(db)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		OrderNumber: "SO-1002",
		TotalAmount: 0,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidParams.Code, errors.GetAppError(err).Code)

	// 已付金额不能超过订单金额
	_, err = svc.CreateOrder(ctx, &CreateOrderRequest{
		OrderNumber: "SO-1003",
		TotalAmount: 100,
		PaidAmount:  150,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidParams.Code, errors.GetAppError(err).Code)
}

func TestCreateOrderUnsupportedCurrency(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := createTestOrderService(db)

	_, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		OrderNumber: "SO-1004",
		TotalAmount: 100,
		Currency:    "BTC",
	})
	assert.Equal(t, errors.ErrCurrencyNotSupported, err)
}

func TestCreateOrderInvalidStatus(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := createTestOrderService(db)

	_, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		OrderNumber: "SO-1005",
		TotalAmount: 100,
		Status:      "shipped",
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrOrderStatusError.Code, errors.GetAppError(err).Code)
}

func TestCreateOrderInvalidDate(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := createTestOrderService(db)

	_, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		OrderNumber: "SO-1006",
		TotalAmount: 100,
		OrderDate:   "15/08/2026",
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidParams.Code, errors.GetAppError(err).Code)
}

func TestCreateOrderDuplicateNumber(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := createTestOrderService(db)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		OrderNumber: "SO-2001",
		TotalAmount: 100,
	})
	require.NoError(t, err)

	// 订单号唯一
	_, err = svc.CreateOrder(ctx, &CreateOrderRequest{
		OrderNumber: "SO-2001",
		TotalAmount: 200,
	})
	assert.Equal(t, errors.ErrOrderExists, err)
}

func TestUpdateOrder(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := createTestOrderService(db)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		OrderNumber: "SO-3001",
		TotalAmount: 100,
	})
	require.NoError(t, err)

	status := models.OrderStatusPartiallyPaid
	updated, err := svc.UpdateOrder(ctx, order.ID, &UpdateOrderRequest{
		PaidAmount: utils.Float64Ptr(60),
		Status:     &status,
	})
	require.NoError(t, err)
	assert.Equal(t, 60.0, updated.PaidAmount)
	assert.Equal(t, models.OrderStatusPartiallyPaid, updated.Status)
}

func TestUpdateOrderPaidExceedsTotal(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := createTestOrderService(db)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		OrderNumber: "SO-3002",
		TotalAmount: 100,
		PaidAmount:  100,
		Status:      models.OrderStatusPaid,
	})
	require.NoError(t, err)

	// 调低总额后已付金额超限
	_, err = svc.UpdateOrder(ctx, order.ID, &UpdateOrderRequest{
		TotalAmount: utils.Float64Ptr(80),
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidParams.Code, errors.GetAppError(err).Code)
}

func TestGetOrderNotFound(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := createTestOrderService(db)

	_, err := svc.GetOrder(context.Background(), 999)
	assert.Equal(t, errors.ErrOrderNotFound, err)
}

func TestDeleteOrder(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := createTestOrderService(db)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		OrderNumber: "SO-4001",
		TotalAmount: 100,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))
	_, err = svc.GetOrder(ctx, order.ID)
	assert.Equal(t, errors.ErrOrderNotFound, err)

	assert.Equal(t, errors.ErrOrderNotFound, svc.DeleteOrder(ctx, order.ID))
}

func TestListOrdersFilter(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := createTestOrderService(db)
	ctx := context.Background()

	for i, status := range []string{models.OrderStatusPaid, models.OrderStatusPaid, models.OrderStatusPending} {
		_, err := svc.CreateOrder(ctx, &CreateOrderRequest{
			OrderNumber: fmt.Sprintf("SO-50%02d", i),
			TotalAmount: 100,
			Status:      status,
		})
		require.NoError(t, err)
	}

	orders, total, err := svc.ListOrders(ctx, &repository.OrderFilter{Status: models.OrderStatusPaid}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 2)

	_, total, err = svc.ListOrders(ctx, &repository.OrderFilter{OrderNumber: "SO-5002"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
