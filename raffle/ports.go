package raffle

import "time"

// RandomnessRequest is the parameter block sent to the randomness oracle.
type RandomnessRequest struct {
	KeyHash          string
	Confirmations    int
	NumWords         int
	CallbackGasLimit uint32
}

// Oracle submits a randomness request and returns the request id the
// fulfillment will carry. The fulfillment itself arrives asynchronously
// through Raffle.Fulfill.
type Oracle interface {
	RequestRandomWords(req RandomnessRequest) (string, error)
}

// PayoutBackend moves the pot to the winner. A payout either fully succeeds
// or leaves balances untouched.
type PayoutBackend interface {
	Payout(userID uint, amount float64) error
}

// Notifier receives the engine's lifecycle events.
type Notifier interface {
	EnteredRound(userID uint)
	DrawRequested(requestID string)
	WinnerPicked(userID uint, amount float64)
}

// SettledRound is the snapshot handed to the RoundStore when a draw settles.
type SettledRound struct {
	Number     int
	RequestID  string
	RandomWord uint64
	WinnerID   uint
	Pot        float64
	Entrants   []Entrant
	SettledAt  time.Time
}

// RoundStore persists settled rounds for the history endpoints.
type RoundStore interface {
	SaveRound(round *SettledRound) error
}
