package settlement

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

	"github.com/Treessss/CaseLedger/internal/common/errors"
	"github.com/Treessss/CaseLedger/internal/common/utils"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
)

// setupSettlementTestDB 创建测试数据库
func setupSettlementTestDB(t *testing.T) *gorm.DB {
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
		&models.Account{},
		&models.Consumption{},
		&models.OrderCost{},
		&models.OrderCostBatch{},
	))
	return db
}

// createTestOrderCostService 创建测试服务
func createTestOrderCostService(db *gorm.DB) *OrderCostService {
	return NewOrderCostService(
		db,
		repository.NewOrderCostRepository(db),
		repository.NewAccountRepository(db),
		repository.NewConsumptionRepository(db),
	)
}

// createSettlementAccount 创建指定余额的扣款账户
func createSettlementAccount(t *testing.T, db *gorm.DB, platform, name string, balance float64) *models.Account {
	account := &models.Account{
		Platform:    platform,
		AccountName: name,
		Balance:     balance,
		Currency:    "CNY",
		Status:      models.AccountStatusActive,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func settlementBalance(t *testing.T, db *gorm.DB, id int64) float64 {
	var account models.Account
	require.NoError(t, db.First(&account, id).Error)
	return account.Balance
}

func TestCreateOrderCost(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	cost, err := svc.CreateOrderCost(ctx, &OrderCostItemRequest{
		OrderNumber: "SO-1001",
		Shipping:    CostComponentRequest{Cost: 12.5},
		Fangguo:     CostComponentRequest{Cost: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCostStatusPending, cost.Status)
	assert.Equal(t, 15.5, cost.TotalCost())

	// 同订单号重复录入拒绝
	_, err = svc.CreateOrderCost(ctx, &OrderCostItemRequest{
		OrderNumber: "SO-1001",
		Shipping:    CostComponentRequest{Cost: 1},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrOrderCostExists.Code, errors.GetAppError(err).Code)
}

func TestCreateOrderCostNoComponents(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)

	_, err := svc.CreateOrderCost(context.Background(), &OrderCostItemRequest{
		OrderNumber: "SO-1002",
	})
	assert.Equal(t, errors.ErrOrderCostNoComponents, err)
}

func TestBatchCreate(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	batch, err := svc.BatchCreate(ctx, &BatchCreateRequest{
		Description: "九月物流对账单",
		Items: []OrderCostItemRequest{
			{OrderNumber: "SO-2001", Shipping: CostComponentRequest{Cost: 10}},
			{OrderNumber: "SO-2002", Shipping: CostComponentRequest{Cost: 20}, Other: CostComponentRequest{Cost: 5}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, batch.TotalOrders)
	assert.Equal(t, 30.0, batch.TotalShipping)
	assert.Equal(t, 5.0, batch.TotalOther)
	assert.NotEmpty(t, batch.BatchID)

	costs, err := svc.ListBatchCosts(ctx, batch.BatchID)
	require.NoError(t, err)
	assert.Len(t, costs, 2)
}

func TestBatchCreateDuplicateInBatch(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)

	_, err := svc.BatchCreate(context.Background(), &BatchCreateRequest{
		Items: []OrderCostItemRequest{
			{OrderNumber: "SO-3001", Shipping: CostComponentRequest{Cost: 10}},
			{OrderNumber: "SO-3001", Shipping: CostComponentRequest{Cost: 20}},
		},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrOrderCostExists.Code, errors.GetAppError(err).Code)
}

func TestBatchCreateExistingOrderRejectsWholeBatch(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	_, err := svc.CreateOrderCost(ctx, &OrderCostItemRequest{
		OrderNumber: "SO-3101",
		Shipping:    CostComponentRequest{Cost: 1},
	})
	require.NoError(t, err)

	_, err = svc.BatchCreate(ctx, &BatchCreateRequest{
		Items: []OrderCostItemRequest{
			{OrderNumber: "SO-3100", Shipping: CostComponentRequest{Cost: 10}},
			{OrderNumber: "SO-3101", Shipping: CostComponentRequest{Cost: 20}},
		},
	})
	require.Error(t, err)

	// 整批回滚，新订单号也不落库
	var count int64
	db.Model(&models.OrderCost{}).Where("order_number = ?", "SO-3100").Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestBatchCreateEmpty(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)

	_, err := svc.BatchCreate(context.Background(), &BatchCreateRequest{})
	assert.Equal(t, errors.ErrBatchEmpty, err)
}

func TestConfirmDebitsAndCreatesConsumptions(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	shippingAccount := createSettlementAccount(t, db, models.PlatformFourPX, "4px-main", 1000)
	fangguoAccount := createSettlementAccount(t, db, models.PlatformFangguo, "fg-main", 1000)

	cost, err := svc.CreateOrderCost(ctx, &OrderCostItemRequest{
		OrderNumber: "SO-4001",
		Shipping:    CostComponentRequest{Cost: 30, AccountID: &shippingAccount.ID},
		Fangguo:     CostComponentRequest{Cost: 8, AccountID: &fangguoAccount.ID},
	})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, cost.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCostStatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)

	// 逐分量扣款
	assert.Equal(t, 970.0, settlementBalance(t, db, shippingAccount.ID))
	assert.Equal(t, 992.0, settlementBalance(t, db, fangguoAccount.ID))

	// 每个分量生成一条消耗记录，关联订单号
	var consumptions []*models.Consumption
	require.NoError(t, db.Where("reference_id = ?", "SO-4001").Find(&consumptions).Error)
	assert.Len(t, consumptions, 2)
}

func TestConfirmSkipsUnfundedComponents(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	shippingAccount := createSettlementAccount(t, db, models.PlatformFourPX, "4px-main", 100)

	// 其他分量未指定扣款账户，不扣款但记录照常确认
	cost, err := svc.CreateOrderCost(ctx, &OrderCostItemRequest{
		OrderNumber: "SO-4002",
		Shipping:    CostComponentRequest{Cost: 30, AccountID: &shippingAccount.ID},
		Other:       CostComponentRequest{Cost: 5},
	})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, cost.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCostStatusConfirmed, confirmed.Status)
	assert.Equal(t, 70.0, settlementBalance(t, db, shippingAccount.ID))

	// 仅有账户的分量生成消耗记录
	var consumptions []models.Consumption
	require.NoError(t, db.Where("reference_id = ?", "SO-4002").Find(&consumptions).Error)
	require.Len(t, consumptions, 1)
	assert.Equal(t, 30.0, consumptions[0].Amount)
}

func TestConfirmFullyUnfunded(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	// 全部分量无扣款账户时确认仍然成立，只记成本不动余额
	cost, err := svc.CreateOrderCost(ctx, &OrderCostItemRequest{
		OrderNumber: "SO-4005",
		Shipping:    CostComponentRequest{Cost: 30},
	})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, cost.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCostStatusConfirmed, confirmed.Status)

	var count int64
	require.NoError(t, db.Model(&models.Consumption{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestConfirmInsufficientBalanceRollsBack(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	shippingAccount := createSettlementAccount(t, db, models.PlatformFourPX, "4px-main", 100)
	fangguoAccount := createSettlementAccount(t, db, models.PlatformFangguo, "fg-main", 5)

	cost, err := svc.CreateOrderCost(ctx, &OrderCostItemRequest{
		OrderNumber: "SO-4003",
		Shipping:    CostComponentRequest{Cost: 30, AccountID: &shippingAccount.ID},
		Fangguo:     CostComponentRequest{Cost: 8, AccountID: &fangguoAccount.ID},
	})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, cost.ID)
	require.Error(t, err)
	assert.Equal(t, errors.ErrBalanceInsufficient.Code, errors.GetAppError(err).Code)

	// 整单回滚，已扣分量也要恢复
	assert.Equal(t, 100.0, settlementBalance(t, db, shippingAccount.ID))
	assert.Equal(t, 5.0, settlementBalance(t, db, fangguoAccount.ID))

	reloaded, err := svc.GetOrderCost(ctx, cost.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCostStatusPending, reloaded.Status)
}

func TestConfirmTwice(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	account := createSettlementAccount(t, db, models.PlatformFourPX, "4px-main", 1000)

	cost, err := svc.CreateOrderCost(ctx, &OrderCostItemRequest{
		OrderNumber: "SO-4004",
		Shipping:    CostComponentRequest{Cost: 30, AccountID: &account.ID},
	})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, cost.ID)
	require.NoError(t, err)

	// 重复确认拒绝，不再扣款
	_, err = svc.Confirm(ctx, cost.ID)
	assert.Equal(t, errors.ErrOrderCostConfirmed, err)
	assert.Equal(t, 970.0, settlementBalance(t, db, account.ID))
}

func TestConfirmBatchPartialFailure(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	account := createSettlementAccount(t, db, models.PlatformFourPX, "4px-main", 25)

	batch, err := svc.BatchCreate(ctx, &BatchCreateRequest{
		Items: []OrderCostItemRequest{
			{OrderNumber: "SO-5001", Shipping: CostComponentRequest{Cost: 20, AccountID: &account.ID}},
			{OrderNumber: "SO-5002", Shipping: CostComponentRequest{Cost: 20, AccountID: &account.ID}},
		},
	})
	require.NoError(t, err)

	// 余额只够确认一单，另一单失败但不影响整体
	result, err := svc.ConfirmBatch(ctx, batch.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Confirmed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "SO-5002", result.Failures[0].OrderNumber)

	assert.Equal(t, 5.0, settlementBalance(t, db, account.ID))

	// 批次已确认数更新
	reloaded, err := svc.GetBatch(ctx, batch.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.ConfirmedCount)
}

func TestCancelOrderCost(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	cost, err := svc.CreateOrderCost(ctx, &OrderCostItemRequest{
		OrderNumber: "SO-6001",
		Shipping:    CostComponentRequest{Cost: 10},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, cost.ID))

	reloaded, err := svc.GetOrderCost(ctx, cost.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCostStatusCancelled, reloaded.Status)

	// 已取消的不能确认
	_, err = svc.Confirm(ctx, cost.ID)
	assert.Equal(t, errors.ErrOrderCostCancelled, err)
}

func TestUpdateOrderCostOnlyPending(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	account := createSettlementAccount(t, db, models.PlatformFourPX, "4px-main", 1000)

	cost, err := svc.CreateOrderCost(ctx, &OrderCostItemRequest{
		OrderNumber: "SO-7001",
		Shipping:    CostComponentRequest{Cost: 10, AccountID: &account.ID},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateOrderCost(ctx, cost.ID, &OrderCostItemRequest{
		OrderNumber: "SO-7001",
		Shipping:    CostComponentRequest{Cost: 15, AccountID: &account.ID, Reference: "4PX-889"},
	})
	require.NoError(t, err)
	assert.Equal(t, 15.0, updated.ShippingCost)
	assert.Equal(t, "4PX-889", updated.ShippingReference)

	_, err = svc.Confirm(ctx, cost.ID)
	require.NoError(t, err)

	// 已确认后不可修改
	_, err = svc.UpdateOrderCost(ctx, cost.ID, &OrderCostItemRequest{
		OrderNumber: "SO-7001",
		Shipping:    CostComponentRequest{Cost: 1, AccountID: &account.ID},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrOrderCostStatusError.Code, errors.GetAppError(err).Code)
}

func TestDeleteConfirmedOrderCostRejected(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	account := createSettlementAccount(t, db, models.PlatformFourPX, "4px-main", 1000)

	cost, err := svc.CreateOrderCost(ctx, &OrderCostItemRequest{
		OrderNumber: "SO-8001",
		Shipping:    CostComponentRequest{Cost: 10, AccountID: &account.ID},
	})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, cost.ID)
	require.NoError(t, err)

	err = svc.DeleteOrderCost(ctx, cost.ID)
	require.Error(t, err)
	assert.Equal(t, errors.ErrOrderCostConfirmed.Code, errors.GetAppError(err).Code)
}

func TestComponentsMapping(t *testing.T) {
	shipping := utils.Int64Ptr(1)
	fangguo := utils.Int64Ptr(2)

	cost := &models.OrderCost{
		ShippingCost:      10,
		ShippingAccountID: shipping,
		FangguoCost:       5,
		FangguoAccountID:  fangguo,
	}

	components := cost.Components()
	require.Len(t, components, 2)
	assert.Equal(t, models.ConsumptionTypeShipping, components[0].Type)
	assert.Equal(t, models.ConsumptionTypeOrderFee, components[1].Type)
}

func TestSummaryConfirmedComponents(t *testing.T) {
	db := setupSettlementTestDB(t)
	svc := createTestOrderCostService(db)
	ctx := context.Background()

	now := time.Now()
	confirmed := &models.OrderCost{
		OrderNumber:  "SO-9001",
		ShippingCost: 20,
		FangguoCost:  10,
		OtherCost:    5,
		Status:       models.OrderCostStatusConfirmed,
		CostDate:     now,
		ConfirmedAt:  &now,
	}
	require.NoError(t, db.Create(confirmed).Error)
	// 待确认成本不计入汇总
	pending := &models.OrderCost{
		OrderNumber:  "SO-9002",
		ShippingCost: 100,
		Status:       models.OrderCostStatusPending,
		CostDate:     now,
	}
	require.NoError(t, db.Create(pending).Error)

	summary, err := svc.Summary(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 20.0, summary.TotalShipping)
	assert.Equal(t, 10.0, summary.TotalFangguo)
	assert.Equal(t, 5.0, summary.TotalOther)
	assert.Equal(t, 35.0, summary.Total)
	assert.Equal(t, int64(1), summary.Count)
}
