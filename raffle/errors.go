package raffle

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFee rejects an entry paying less than the entrance fee.
	ErrInsufficientFee = errors.New("entrance fee not met")
	// ErrRoundNotOpen rejects entries while a draw is being calculated.
	ErrRoundNotOpen = errors.New("round is not open")
	// ErrUnknownRequest rejects a fulfillment whose request id does not match
	// the one currently outstanding. Replayed and cross-round fulfillments
	// land here.
	ErrUnknownRequest = errors.New("unknown or stale randomness request")
)

// UpkeepNotNeededError is returned by PerformUpkeep when the draw conditions
// do not hold. It carries the state the keeper needs to see in its logs.
type UpkeepNotNeededError struct {
	Pot        float64
	NumPlayers int
	Phase      Phase
}

func (e *UpkeepNotNeededError) Error() string {
	return fmt.Sprintf("upkeep not needed (pot=%.4f players=%d phase=%s)", e.Pot, e.NumPlayers, e.Phase)
}

// PayoutFailedError reports that the winner transfer failed after the round
// bookkeeping was already reset. The funds stay in the wallet ledger until an
// operator re-issues the payout.
type PayoutFailedError struct {
	WinnerID uint
	Amount   float64
	Err      error
}

func (e *PayoutFailedError) Error() string {
	return fmt.Sprintf("payout of %.4f to user %d failed: %v", e.Amount, e.WinnerID, e.Err)
}

func (e *PayoutFailedError) Unwrap() error {
	return e.Err
}
