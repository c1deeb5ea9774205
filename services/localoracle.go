package services

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/bellapacxx/raffle-backend/raffle"
	"github.com/bellapacxx/raffle-backend/utils/logger"
	"github.com/google/uuid"
)

// LocalOracle is an in-process stand-in for the external randomness service,
// used when ORACLE_URL is not configured. It issues uuid request ids and
// feeds a random word back to the engine after a fixed delay that stands in
// for block confirmations.
type LocalOracle struct {
	delay   time.Duration
	fulfill func(requestID string, randomWords []uint64) error
}

func NewLocalOracle(delay time.Duration) *LocalOracle {
	return &LocalOracle{delay: delay}
}

// Bind wires the engine's fulfillment callback. Must be called before the
// first request; the engine and the oracle reference each other, so the
// cycle is closed here instead of in a constructor.
func (o *LocalOracle) Bind(fulfill func(requestID string, randomWords []uint64) error) {
	o.fulfill = fulfill
}

func (o *LocalOracle) RequestRandomWords(req raffle.RandomnessRequest) (string, error) {
	requestID := uuid.NewString()

	go func() {
		time.Sleep(o.delay)

		words := make([]uint64, req.NumWords)
		for i := range words {
			w, err := randomWord()
			if err != nil {
				logger.Errorf("[Oracle] failed to draw random word for %s: %v", requestID, err)
				return
			}
			words[i] = w
		}

		if err := o.fulfill(requestID, words); err != nil {
			logger.Errorf("[Oracle] fulfillment rejected for %s: %v", requestID, err)
		}
	}()

	logger.Infof("[Oracle] local request %s accepted (%d words, delay=%s)", requestID, req.NumWords, o.delay)
	return requestID, nil
}

func randomWord() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}
