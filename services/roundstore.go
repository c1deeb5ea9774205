package services

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bellapacxx/raffle-backend/models"
	"github.com/bellapacxx/raffle-backend/raffle"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DBRoundStore persists settled rounds and winner rows for the history API.
type DBRoundStore struct {
	db *gorm.DB
}

func NewDBRoundStore(db *gorm.DB) *DBRoundStore {
	return &DBRoundStore{db: db}
}

func (s *DBRoundStore) SaveRound(round *raffle.SettledRound) error {
	snapshot, err := json.Marshal(round.Entrants)
	if err != nil {
		return fmt.Errorf("marshal entrants: %w", err)
	}

	record := models.RaffleRound{
		RoundNumber:  round.Number,
		RequestID:    round.RequestID,
		RandomWord:   strconv.FormatUint(round.RandomWord, 10),
		WinnerUserID: round.WinnerID,
		Pot:          round.Pot,
		NumPlayers:   len(round.Entrants),
		EntrantsJSON: datatypes.JSON(snapshot),
		SettledAt:    round.SettledAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("save round %d: %w", round.Number, err)
	}

	winner := models.Winner{
		RoundNumber: round.Number,
		UserID:      round.WinnerID,
		Amount:      round.Pot,
	}
	if err := s.db.Create(&winner).Error; err != nil {
		return fmt.Errorf("save winner for round %d: %w", round.Number, err)
	}
	return nil
}
