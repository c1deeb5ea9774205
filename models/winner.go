package models

import "time"

type Winner struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoundNumber int       `json:"round_number"`
	UserID      uint      `json:"user_id"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}
