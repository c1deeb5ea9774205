package models

import (
	"time"

	"gorm.io/datatypes"
)

// RaffleRound is the persisted record of a settled round. The live round is
// in-memory only; a row is written the moment a draw settles.
type RaffleRound struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RoundNumber  int    `gorm:"index" json:"round_number"`
	RequestID    string `json:"request_id"`
	RandomWord   string `json:"random_word"` // full 64-bit word, stored as text
	WinnerUserID uint   `json:"winner_user_id"`
	Pot          float64
	NumPlayers   int
	EntrantsJSON datatypes.JSON // entrant snapshot at draw time
	SettledAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
