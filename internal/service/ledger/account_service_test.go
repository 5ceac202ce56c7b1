package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/common/errors"
	"github.com/Treessss/CaseLedger/internal/common/utils"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
)

// createTestAccountService 创建测试服务
func createTestAccountService(db *gorm.DB) *AccountService {
	return NewAccountService(
		db,
		repository.NewAccountRepository(db),
		repository.NewRechargeRepository(db),
		repository.NewConsumptionRepository(db),
	)
}

func TestCreateAccount(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := createTestAccountService(db)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform:    models.PlatformFacebook,
		AccountName: "fb-main",
		Balance:     1000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusActive, account.Status)
	assert.Equal(t, "CNY", account.Currency)
	assert.Equal(t, 1000.0, account.Balance)
}

func TestCreateAccountDuplicateName(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := createTestAccountService(db)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform:    models.PlatformFacebook,
		AccountName: "fb-main",
	})
	require.NoError(t, err)

	// 同平台重名拒绝
	_, err = svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform:    models.PlatformFacebook,
		AccountName: "fb-main",
	})
	assert.Equal(t, errors.ErrAccountExists, err)

	// 不同平台允许同名
	_, err = svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform:    models.PlatformFourPX,
		AccountName: "fb-main",
	})
	assert.NoError(t, err)
}

func TestCreateAccountInvalidPlatform(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := createTestAccountService(db)

	_, err := svc.CreateAccount(context.Background(), &CreateAccountRequest{
		Platform:    "tiktok",
		AccountName: "tt-1",
	})
	assert.Equal(t, errors.ErrPlatformInvalid, err)
}

func TestUpdateAccountKeepsBalance(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := createTestAccountService(db)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform:    models.PlatformFacebook,
		AccountName: "fb-main",
		Balance:     500,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateAccount(ctx, account.ID, &UpdateAccountRequest{
		AccountName: utils.StringPtr("fb-renamed"),
		Status:      utils.StringPtr(models.AccountStatusSuspended),
	})
	require.NoError(t, err)
	assert.Equal(t, "fb-renamed", updated.AccountName)
	assert.Equal(t, models.AccountStatusSuspended, updated.Status)
	// 余额不随更新接口变动
	assert.Equal(t, 500.0, updated.Balance)
}

func TestUpdateAccountInvalidStatus(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := createTestAccountService(db)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform:    models.PlatformFacebook,
		AccountName: "fb-main",
	})
	require.NoError(t, err)

	_, err = svc.UpdateAccount(ctx, account.ID, &UpdateAccountRequest{
		Status: utils.StringPtr("archived"),
	})
	assert.Error(t, err)
}

func TestDeleteAccountWithRecords(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := createTestAccountService(db)
	transactionSvc := createTestTransactionService(db)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform:    models.PlatformFacebook,
		AccountName: "fb-main",
	})
	require.NoError(t, err)

	_, err = transactionSvc.CreateRecharge(ctx, &CreateRechargeRequest{
		AccountID: account.ID,
		Amount:    100,
	})
	require.NoError(t, err)

	// 存在流水时拒绝删除
	err = svc.DeleteAccount(ctx, account.ID, false)
	assert.Equal(t, errors.ErrAccountHasRecords, err)
}

func TestDeleteAccountForceCascades(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := createTestAccountService(db)
	transactionSvc := createTestTransactionService(db)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform:    models.PlatformFacebook,
		AccountName: "fb-main",
	})
	require.NoError(t, err)

	_, err = transactionSvc.CreateRecharge(ctx, &CreateRechargeRequest{AccountID: account.ID, Amount: 100})
	require.NoError(t, err)
	_, err = transactionSvc.CreateConsumption(ctx, &CreateConsumptionRequest{
		AccountID: account.ID,
		Amount:    40,
		Type:      models.ConsumptionTypeAds,
	})
	require.NoError(t, err)

	// force 级联删除账户及其流水
	require.NoError(t, svc.DeleteAccount(ctx, account.ID, true))

	_, err = svc.GetAccount(ctx, account.ID)
	assert.Equal(t, errors.ErrAccountNotFound, err)

	var rechargeCount, consumptionCount int64
	db.Model(&models.Recharge{}).Where("account_id = ?", account.ID).Count(&rechargeCount)
	db.Model(&models.Consumption{}).Where("account_id = ?", account.ID).Count(&consumptionCount)
	assert.Equal(t, int64(0), rechargeCount)
	assert.Equal(t, int64(0), consumptionCount)
}

func TestDeleteAccountWithoutRecords(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := createTestAccountService(db)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform:    models.PlatformFacebook,
		AccountName: "fb-main",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, account.ID, false))

	_, err = svc.GetAccount(ctx, account.ID)
	assert.Equal(t, errors.ErrAccountNotFound, err)
}

func TestGetAccountSummary(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := createTestAccountService(db)
	transactionSvc := createTestTransactionService(db)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform:    models.PlatformFacebook,
		AccountName: "fb-main",
	})
	require.NoError(t, err)

	_, err = transactionSvc.CreateRecharge(ctx, &CreateRechargeRequest{AccountID: account.ID, Amount: 300})
	require.NoError(t, err)
	_, err = transactionSvc.CreateConsumption(ctx, &CreateConsumptionRequest{
		AccountID: account.ID,
		Amount:    120,
		Type:      models.ConsumptionTypeAds,
	})
	require.NoError(t, err)

	summary, err := svc.GetAccountSummary(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, summary.TotalRecharge)
	assert.Equal(t, 120.0, summary.TotalConsumed)
	assert.Equal(t, 180.0, summary.Balance)
	assert.Equal(t, int64(1), summary.RechargeCount)
	assert.Equal(t, int64(1), summary.ConsumptionCount)
}

func TestPlatformBalances(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := createTestAccountService(db)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform: models.PlatformFacebook, AccountName: "fb-1", Balance: 100,
	})
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform: models.PlatformFacebook, AccountName: "fb-2", Balance: 200,
	})
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, &CreateAccountRequest{
		Platform: models.PlatformFourPX, AccountName: "4px-1", Balance: 50,
	})
	require.NoError(t, err)

	balances, err := svc.PlatformBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300.0, balances[models.PlatformFacebook])
	assert.Equal(t, 50.0, balances[models.PlatformFourPX])
}
