package raffle

import (
	"fmt"
	"sync"
	"time"

	"github.com/bellapacxx/raffle-backend/utils/logger"
)

// Oracle request constants. One word decides the draw; three confirmations
// before the oracle answers.
const (
	RequestConfirmations = 3
	NumWords             = 1
)

type Phase string

const (
	PhaseOpen        Phase = "open"
	PhaseCalculating Phase = "calculating"
)

// Entrant is one admitted participant. Slice order defines the index space
// the random word is reduced into.
type Entrant struct {
	UserID  uint    `json:"user_id"`
	FeePaid float64 `json:"fee_paid"`
}

// Config is fixed at construction.
type Config struct {
	EntranceFee      float64
	Interval         time.Duration
	KeyHash          string
	CallbackGasLimit uint32
}

// Raffle is the round engine. One mutex guards phase, entrants and pot as a
// unit: an observer never sees a phase change without the matching entrant
// and pot state.
type Raffle struct {
	cfg Config

	oracle   Oracle
	payouts  PayoutBackend
	notifier Notifier
	store    RoundStore

	mu               sync.Mutex
	phase            Phase
	entrants         []Entrant
	pot              float64
	lastDrawTime     time.Time
	pendingRequestID string
	lastWinner       *uint
	roundNumber      int
}

// New builds an open raffle. The interval clock starts at construction time.
func New(cfg Config, oracle Oracle, payouts PayoutBackend, notifier Notifier, store RoundStore) *Raffle {
	return &Raffle{
		cfg:          cfg,
		oracle:       oracle,
		payouts:      payouts,
		notifier:     notifier,
		store:        store,
		phase:        PhaseOpen,
		lastDrawTime: time.Now(),
		roundNumber:  1,
	}
}

// Enter admits a participant into the current round and credits the fee to
// the pot. Fails fast while a draw is calculating.
func (r *Raffle) Enter(userID uint, fee float64) error {
	r.mu.Lock()
	if fee < r.cfg.EntranceFee {
		r.mu.Unlock()
		return ErrInsufficientFee
	}
	if r.phase != PhaseOpen {
		r.mu.Unlock()
		return ErrRoundNotOpen
	}

	r.entrants = append(r.entrants, Entrant{UserID: userID, FeePaid: fee})
	r.pot += fee
	players := len(r.entrants)
	round := r.roundNumber
	r.mu.Unlock()

	logger.Infof("[Raffle] user %d entered round %d (players=%d)", userID, round, players)
	if r.notifier != nil {
		r.notifier.EnteredRound(userID)
	}
	return nil
}

// CheckUpkeep reports whether a draw is due. Pure read, keeper polling
// contract: one aggregate boolean, no detail on which condition failed.
func (r *Raffle) CheckUpkeep(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upkeepNeeded(now)
}

// upkeepNeeded must be called with r.mu held.
func (r *Raffle) upkeepNeeded(now time.Time) bool {
	intervalPassed := now.Sub(r.lastDrawTime) >= r.cfg.Interval
	isOpen := r.phase == PhaseOpen
	hasPot := r.pot > 0
	hasPlayers := len(r.entrants) > 0
	return intervalPassed && isOpen && hasPot && hasPlayers
}

// PerformUpkeep closes the round and requests a random word from the oracle.
// The phase flips to calculating before the oracle is contacted, so no entry
// and no second request can slip in while the call is in flight.
func (r *Raffle) PerformUpkeep(now time.Time) error {
	r.mu.Lock()
	if !r.upkeepNeeded(now) {
		err := &UpkeepNotNeededError{
			Pot:        r.pot,
			NumPlayers: len(r.entrants),
			Phase:      r.phase,
		}
		r.mu.Unlock()
		return err
	}

	r.phase = PhaseCalculating
	round := r.roundNumber
	req := RandomnessRequest{
		KeyHash:          r.cfg.KeyHash,
		Confirmations:    RequestConfirmations,
		NumWords:         NumWords,
		CallbackGasLimit: r.cfg.CallbackGasLimit,
	}

	// The lock stays held across the oracle call: the fulfillment is checked
	// against pendingRequestID, so the id must be stored before any
	// fulfillment can be admitted. The oracle delivers exactly once; a
	// delivery racing the store would be rejected as stale and the word lost.
	// Oracle implementations must deliver from another goroutine, never from
	// inside RequestRandomWords.
	requestID, err := r.oracle.RequestRandomWords(req)
	if err != nil {
		// The round stays in calculating: entries are rejected and no draw
		// can settle until an operator intervenes. Recovery is external.
		r.mu.Unlock()
		logger.Errorf("[Raffle] randomness request for round %d failed: %v", round, err)
		return fmt.Errorf("request random words: %w", err)
	}
	r.pendingRequestID = requestID
	r.mu.Unlock()

	logger.Infof("[Raffle] round %d calculating, request %s", round, requestID)
	if r.notifier != nil {
		r.notifier.DrawRequested(requestID)
	}
	return nil
}

// Fulfill settles the round with the oracle's answer. The winner index is
// randomWords[0] mod the entrant count. All bookkeeping (winner record,
// phase, entrants, pot, draw clock) is reset before the payout is attempted,
// so a failed transfer can never be paid twice; the failure still surfaces
// as PayoutFailedError.
func (r *Raffle) Fulfill(requestID string, randomWords []uint64) error {
	now := time.Now()

	r.mu.Lock()
	if r.pendingRequestID == "" || requestID != r.pendingRequestID {
		r.mu.Unlock()
		return ErrUnknownRequest
	}
	// Upkeep never issues a request for an empty round and the oracle sends
	// exactly one word; guard anyway so a broken fulfillment cannot settle.
	if len(randomWords) == 0 || len(r.entrants) == 0 {
		r.mu.Unlock()
		return ErrUnknownRequest
	}

	idx := int(randomWords[0] % uint64(len(r.entrants)))
	winner := r.entrants[idx]
	amount := r.pot
	settled := &SettledRound{
		Number:     r.roundNumber,
		RequestID:  requestID,
		RandomWord: randomWords[0],
		WinnerID:   winner.UserID,
		Pot:        amount,
		Entrants:   append([]Entrant(nil), r.entrants...),
		SettledAt:  now,
	}

	winnerID := winner.UserID
	r.lastWinner = &winnerID
	r.phase = PhaseOpen
	r.pendingRequestID = ""
	r.entrants = nil
	r.pot = 0
	r.lastDrawTime = now
	r.roundNumber++
	r.mu.Unlock()

	logger.Infof("[Raffle] round %d settled: winner=%d index=%d pot=%.4f", settled.Number, winnerID, idx, amount)

	if r.store != nil {
		// History is best effort; a failed insert never blocks the payout.
		if err := r.store.SaveRound(settled); err != nil {
			logger.Errorf("[Raffle] failed to persist round %d: %v", settled.Number, err)
		}
	}

	if err := r.payouts.Payout(winnerID, amount); err != nil {
		return &PayoutFailedError{WinnerID: winnerID, Amount: amount, Err: err}
	}

	if r.notifier != nil {
		r.notifier.WinnerPicked(winnerID, amount)
	}
	return nil
}

// -------------------- Query surface --------------------

// Status is a consistent snapshot of the live round.
type Status struct {
	Phase            Phase     `json:"phase"`
	RoundNumber      int       `json:"round_number"`
	EntranceFee      float64   `json:"entrance_fee"`
	IntervalSec      int       `json:"interval_sec"`
	Pot              float64   `json:"pot"`
	NumPlayers       int       `json:"num_players"`
	LastDrawTime     time.Time `json:"last_draw_time"`
	LastWinner       *uint     `json:"last_winner,omitempty"`
	PendingRequestID string    `json:"pending_request_id,omitempty"`
	Confirmations    int       `json:"confirmations"`
}

func (r *Raffle) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastWinner *uint
	if r.lastWinner != nil {
		w := *r.lastWinner
		lastWinner = &w
	}

	return Status{
		Phase:            r.phase,
		RoundNumber:      r.roundNumber,
		EntranceFee:      r.cfg.EntranceFee,
		IntervalSec:      int(r.cfg.Interval.Seconds()),
		Pot:              r.pot,
		NumPlayers:       len(r.entrants),
		LastDrawTime:     r.lastDrawTime,
		LastWinner:       lastWinner,
		PendingRequestID: r.pendingRequestID,
		Confirmations:    RequestConfirmations,
	}
}

func (r *Raffle) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *Raffle) EntranceFee() float64 {
	return r.cfg.EntranceFee
}

func (r *Raffle) NumPlayers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entrants)
}

// Entrant returns the entrant at index i in admission order.
func (r *Raffle) Entrant(i int) (Entrant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.entrants) {
		return Entrant{}, false
	}
	return r.entrants[i], true
}

// LastWinner returns the most recent winner, nil before the first draw.
func (r *Raffle) LastWinner() *uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastWinner == nil {
		return nil
	}
	w := *r.lastWinner
	return &w
}

func (r *Raffle) LastDrawTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastDrawTime
}
