package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bellapacxx/raffle-backend/config"
	"github.com/bellapacxx/raffle-backend/models"
	"github.com/bellapacxx/raffle-backend/raffle"
	"github.com/bellapacxx/raffle-backend/services"
	"github.com/bellapacxx/raffle-backend/utils/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Engine is the live raffle, wired in main before the router starts.
var Engine *raffle.Raffle

// Wallet handles balance credits (payouts, refunds), wired in main.
var Wallet *services.WalletPayout

// EnterRaffle admits a user into the current round, debiting the fee from
// their wallet balance
func EnterRaffle(c *gin.Context) {
	var req struct {
		TelegramID int64   `json:"telegram_id" binding:"required"`
		Amount     float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("telegram_id = ?", req.TelegramID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if user.Balance < req.Amount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
		return
	}

	// Debit first; admission can still be refused (the round may have flipped
	// to calculating), in which case the debit is refunded.
	tx := config.DB.Begin()
	user.Balance -= req.Amount
	if err := tx.Save(&user).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update balance"})
		return
	}
	entryTx := models.Transaction{
		UserID:       user.ID,
		Type:         models.EntryTransaction,
		Amount:       req.Amount,
		BalanceAfter: user.Balance,
	}
	if err := tx.Create(&entryTx).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	if err := Engine.Enter(user.ID, req.Amount); err != nil {
		refundEntry(&user, req.Amount)
		switch {
		case errors.Is(err, raffle.ErrInsufficientFee):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Entrance fee not met"})
		case errors.Is(err, raffle.ErrRoundNotOpen):
			c.JSON(http.StatusConflict, gin.H{"error": "Round is calculating, try again after the draw"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enter raffle"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Entered round",
		"players": Engine.NumPlayers(),
	})
}

func refundEntry(user *models.User, amount float64) {
	if err := Wallet.Refund(user.ID, amount); err != nil {
		logger.Errorf("[Raffle] failed to refund %.4f to user %d: %v", amount, user.ID, err)
	}
}

// RaffleStatus returns the live round snapshot
func RaffleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, Engine.Status())
}

// GetEntrant returns the entrant at the given index in admission order
func GetEntrant(c *gin.Context) {
	idxStr := c.Param("index")
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
		return
	}

	entrant, ok := Engine.Entrant(idx)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No entrant at that index"})
		return
	}

	c.JSON(http.StatusOK, entrant)
}

// ListWinners returns the most recent settled rounds' winners
func ListWinners(c *gin.Context) {
	var winners []models.Winner
	if err := config.DB.Order("created_at DESC").Limit(20).Find(&winners).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, winners)
}

// FulfillRandomWords is the oracle's fulfillment webhook
func FulfillRandomWords(c *gin.Context) {
	var req struct {
		RequestID   string   `json:"request_id" binding:"required"`
		RandomWords []uint64 `json:"random_words" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := Engine.Fulfill(req.RequestID, req.RandomWords); err != nil {
		var payoutErr *raffle.PayoutFailedError
		switch {
		case errors.Is(err, raffle.ErrUnknownRequest):
			c.JSON(http.StatusConflict, gin.H{"error": "Unknown or stale request"})
		case errors.As(err, &payoutErr):
			logger.Errorf("[Raffle] %v", payoutErr)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Winner payout failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to settle round"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Round settled"})
}
