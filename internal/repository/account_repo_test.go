package repository

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
)

// setupAccountRepoTestDB 创建测试数据库
func setupAccountRepoTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(&models.Account{}))
	return db
}

// createTestAccount 创建测试账户
func createTestAccount(t *testing.T, db *gorm.DB, balance float64) *models.Account {
	account := &models.Account{
		Platform:    models.PlatformFacebook,
		AccountName: fmt.Sprintf("广告账户-%s", t.Name()),
		Balance:     balance,
		Currency:    "CNY",
		Status:      models.AccountStatusActive,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestDebitSufficientBalance(t *testing.T) {
	db := setupAccountRepoTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := createTestAccount(t, db, 100)

	require.NoError(t, repo.Debit(ctx, db, account.ID, 60))

	reloaded, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, reloaded.Balance)
}

func TestDebitInsufficientBalance(t *testing.T) {
	db := setupAccountRepoTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := createTestAccount(t, db, 50)

	err := repo.Debit(ctx, db, account.ID, 50.01)
	assert.Equal(t, ErrInsufficientBalance, err)

	// 余额不变
	reloaded, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, reloaded.Balance)
}

func TestDebitExactBalance(t *testing.T) {
	db := setupAccountRepoTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := createTestAccount(t, db, 50)

	require.NoError(t, repo.Debit(ctx, db, account.ID, 50))

	reloaded, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, reloaded.Balance)
}

func TestCredit(t *testing.T) {
	db := setupAccountRepoTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := createTestAccount(t, db, 10)

	require.NoError(t, repo.Credit(ctx, db, account.ID, 90))

	reloaded, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, reloaded.Balance)
}

func TestGetByPlatformAndName(t *testing.T) {
	db := setupAccountRepoTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := createTestAccount(t, db, 0)

	found, err := repo.GetByPlatformAndName(ctx, account.Platform, account.AccountName)
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	_, err = repo.GetByPlatformAndName(ctx, models.PlatformFourPX, account.AccountName)
	assert.Equal(t, gorm.ErrRecordNotFound, err)
}

func TestAccountList(t *testing.T) {
	db := setupAccountRepoTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		account := &models.Account{
			Platform:    models.PlatformFacebook,
			AccountName: fmt.Sprintf("fb-%d", i),
			Currency:    "CNY",
			Status:      models.AccountStatusActive,
		}
		require.NoError(t, db.Create(account).Error)
	}
	other := &models.Account{
		Platform:    models.PlatformFourPX,
		AccountName: "shipping-1",
		Currency:    "CNY",
		Status:      models.AccountStatusInactive,
	}
	require.NoError(t, db.Create(other).Error)

	accounts, total, err := repo.List(ctx, &AccountFilter{Platform: models.PlatformFacebook}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, accounts, 3)

	_, total, err = repo.List(ctx, &AccountFilter{Status: models.AccountStatusInactive}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
