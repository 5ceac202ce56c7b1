package exchange

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

	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
)

// setupFeeServiceTestDB 创建测试数据库
func setupFeeServiceTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(&models.FeeConfig{}))
	return db
}

// createTestFeeService 创建测试服务
func createTestFeeService(db *gorm.DB) *FeeService {
	return NewFeeService(repository.NewFeeConfigRepository(db), newTestRateService())
}

func TestCreateFeeConfig(t *testing.T) {
	db := setupFeeServiceTestDB(t)
	svc := createTestFeeService(db)
	ctx := context.Background()

	config, err := svc.CreateFeeConfig(ctx, &CreateFeeConfigRequest{
		Name:       "PayPal提现",
		Method:     models.FeeMethodPercentagePlusFixed,
		Percentage: 0.029,
		FixedAmount: 2.5,
	})
	require.NoError(t, err)
	assert.True(t, config.Enabled)
	assert.Equal(t, "CNY", config.Currency)

	// 重名拒绝
	_, err = svc.CreateFeeConfig(ctx, &CreateFeeConfigRequest{
		Name:   "PayPal提现",
		Method: models.FeeMethodFixed,
	})
	assert.Error(t, err)
}

func TestCreateFeeConfigInvalidMethod(t *testing.T) {
	db := setupFeeServiceTestDB(t)
	svc := createTestFeeService(db)

	_, err := svc.CreateFeeConfig(context.Background(), &CreateFeeConfigRequest{
		Name:   "非法配置",
		Method: "tiered",
	})
	assert.Error(t, err)
}

func TestUpdateFeeConfig(t *testing.T) {
	db := setupFeeServiceTestDB(t)
	svc := createTestFeeService(db)
	ctx := context.Background()

	config, err := svc.CreateFeeConfig(ctx, &CreateFeeConfigRequest{
		Name:       "信用卡",
		Method:     models.FeeMethodPercentage,
		Percentage: 0.03,
	})
	require.NoError(t, err)

	enabled := false
	pct := 0.025
	updated, err := svc.UpdateFeeConfig(ctx, config.ID, &UpdateFeeConfigRequest{
		Percentage: &pct,
		Enabled:    &enabled,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.025, updated.Percentage)
	assert.False(t, updated.Enabled)
}

func TestCalculateFee(t *testing.T) {
	db := setupFeeServiceTestDB(t)
	svc := createTestFeeService(db)
	ctx := context.Background()

	config, err := svc.CreateFeeConfig(ctx, &CreateFeeConfigRequest{
		Name:        "跨境结算",
		Method:      models.FeeMethodPercentagePlusFixed,
		Percentage:  0.029,
		FixedAmount: 2.5,
	})
	require.NoError(t, err)

	result, err := svc.CalculateFee(ctx, config.ID, 1000, "")
	require.NoError(t, err)
	assert.Equal(t, 31.5, result.Fee)
	assert.Equal(t, 968.5, result.NetAmount)
}

func TestCalculateFeeDisabledConfig(t *testing.T) {
	db := setupFeeServiceTestDB(t)
	svc := createTestFeeService(db)
	ctx := context.Background()

	config, err := svc.CreateFeeConfig(ctx, &CreateFeeConfigRequest{
		Name:        "已停用",
		Method:      models.FeeMethodFixed,
		FixedAmount: 15,
	})
	require.NoError(t, err)

	enabled := false
	_, err = svc.UpdateFeeConfig(ctx, config.ID, &UpdateFeeConfigRequest{Enabled: &enabled})
	require.NoError(t, err)

	// 停用配置手续费按零计
	result, err := svc.CalculateFee(ctx, config.ID, 100, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Fee)
	assert.Equal(t, 100.0, result.NetAmount)
}

func TestCalculateFeeCurrencyConversion(t *testing.T) {
	db := setupFeeServiceTestDB(t)
	svc := createTestFeeService(db)
	ctx := context.Background()

	// 金额币种与配置币种不同时先折算再计费
	svc.rateService.storeLocal("CNY_USD", 0.14)
	config, err := svc.CreateFeeConfig(ctx, &CreateFeeConfigRequest{
		Name:       "美元通道",
		Method:     models.FeeMethodPercentage,
		Percentage: 0.02,
		Currency:   "USD",
	})
	require.NoError(t, err)

	result, err := svc.CalculateFee(ctx, config.ID, 1000, "CNY")
	require.NoError(t, err)
	assert.Equal(t, 140.0, result.Amount)
	assert.Equal(t, 2.8, result.Fee)
	assert.Equal(t, "USD", result.Currency)
}

func TestCalculateFeeConversionUnavailable(t *testing.T) {
	db := setupFeeServiceTestDB(t)
	svc := NewFeeService(repository.NewFeeConfigRepository(db), nil)
	ctx := context.Background()

	config, err := svc.CreateFeeConfig(ctx, &CreateFeeConfigRequest{
		Name:       "美元通道",
		Method:     models.FeeMethodPercentage,
		Percentage: 0.02,
		Currency:   "USD",
	})
	require.NoError(t, err)

	// 折算不可用时按原金额计费
	result, err := svc.CalculateFee(ctx, config.ID, 1000, "CNY")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, result.Amount)
	assert.Equal(t, 20.0, result.Fee)
}

func TestCalculateFeeAmount(t *testing.T) {
	cases := []struct {
		name   string
		config *models.FeeConfig
		amount float64
		want   float64
	}{
		{"百分比", &models.FeeConfig{Method: models.FeeMethodPercentage, Percentage: 0.029}, 1000, 29.0},
		{"固定金额", &models.FeeConfig{Method: models.FeeMethodFixed, FixedAmount: 15}, 1000, 15.0},
		{"百分比加固定", &models.FeeConfig{Method: models.FeeMethodPercentagePlusFixed, Percentage: 0.01, FixedAmount: 5}, 1000, 15.0},
		{"未知方式", &models.FeeConfig{Method: "unknown"}, 1000, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculateFeeAmount(tc.config, tc.amount))
		})
	}
}
