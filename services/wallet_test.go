package services_test

import (
	"testing"

	"github.com/bellapacxx/raffle-backend/models"
	"github.com/bellapacxx/raffle-backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func walletDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Transaction{}))
	return db
}

func TestWalletPayoutCreditsAndRecords(t *testing.T) {
	db := walletDB(t)
	user := models.User{TelegramID: 1, Name: "alice", Balance: 0.5}
	require.NoError(t, db.Create(&user).Error)

	wallet := services.NewWalletPayout(db)
	require.NoError(t, wallet.Payout(user.ID, 0.06))

	var got models.User
	require.NoError(t, db.First(&got, user.ID).Error)
	assert.InDelta(t, 0.56, got.Balance, 1e-9)

	var record models.Transaction
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&record).Error)
	assert.Equal(t, models.PayoutTransaction, record.Type)
	assert.InDelta(t, 0.06, record.Amount, 1e-9)
	assert.InDelta(t, 0.56, record.BalanceAfter, 1e-9)
}

func TestWalletRefundWritesLedgerRow(t *testing.T) {
	db := walletDB(t)
	user := models.User{TelegramID: 2, Name: "bob", Balance: 1}
	require.NoError(t, db.Create(&user).Error)

	wallet := services.NewWalletPayout(db)

	// a deposit landing after the caller's read must not be overwritten:
	// the credit re-fetches the balance inside its own transaction
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("balance", 3.0).Error)

	require.NoError(t, wallet.Refund(user.ID, 0.01))

	var got models.User
	require.NoError(t, db.First(&got, user.ID).Error)
	assert.InDelta(t, 3.01, got.Balance, 1e-9)

	var record models.Transaction
	require.NoError(t, db.Where("user_id = ? AND type = ?", user.ID, models.RefundTransaction).
		First(&record).Error)
	assert.InDelta(t, 3.01, record.BalanceAfter, 1e-9)
}

func TestWalletPayoutUnknownUser(t *testing.T) {
	db := walletDB(t)
	wallet := services.NewWalletPayout(db)

	err := wallet.Payout(999, 1)

	require.Error(t, err)

	// nothing was written
	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}
