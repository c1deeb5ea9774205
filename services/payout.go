package services

import (
	"fmt"

	"github.com/bellapacxx/raffle-backend/models"
	"github.com/bellapacxx/raffle-backend/utils/logger"
	"gorm.io/gorm"
)

// WalletPayout credits wallet balances and writes the matching ledger row, in
// one DB transaction. Either both happen or neither does.
type WalletPayout struct {
	db *gorm.DB
}

func NewWalletPayout(db *gorm.DB) *WalletPayout {
	return &WalletPayout{db: db}
}

// Payout moves the pot to the winner.
func (w *WalletPayout) Payout(userID uint, amount float64) error {
	return w.credit(userID, amount, models.PayoutTransaction)
}

// Refund returns an entry fee debited for an admission the engine refused.
func (w *WalletPayout) Refund(userID uint, amount float64) error {
	return w.credit(userID, amount, models.RefundTransaction)
}

func (w *WalletPayout) credit(userID uint, amount float64, txType models.TransactionType) error {
	tx := w.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin %s tx: %w", txType, tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// fetch inside the transaction so a concurrent balance change is never
	// overwritten
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("fetch user %d: %w", userID, err)
	}

	user.Balance += amount
	if err := tx.Save(&user).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("credit user %d: %w", userID, err)
	}

	record := models.Transaction{
		UserID:       userID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: user.Balance,
	}
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("record %s for %d: %w", txType, userID, err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit %s for %d: %w", txType, userID, err)
	}

	logger.Infof("[Wallet] user %d credited %.4f as %s (balance=%.4f)", userID, amount, txType, user.Balance)
	return nil
}
