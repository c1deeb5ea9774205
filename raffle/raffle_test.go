package raffle_test

import (
	"errors"
	"testing"
	"time"

	"github.com/bellapacxx/raffle-backend/raffle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	requestID string
	err       error
	requests  []raffle.RandomnessRequest
}

func (o *fakeOracle) RequestRandomWords(req raffle.RandomnessRequest) (string, error) {
	o.requests = append(o.requests, req)
	if o.err != nil {
		return "", o.err
	}
	return o.requestID, nil
}

type fakePayout struct {
	err     error
	userIDs []uint
	amounts []float64
}

func (p *fakePayout) Payout(userID uint, amount float64) error {
	if p.err != nil {
		return p.err
	}
	p.userIDs = append(p.userIDs, userID)
	p.amounts = append(p.amounts, amount)
	return nil
}

type fakeNotifier struct {
	entered   []uint
	requested []string
	winners   []uint
	amounts   []float64
}

func (n *fakeNotifier) EnteredRound(userID uint)  { n.entered = append(n.entered, userID) }
func (n *fakeNotifier) DrawRequested(id string)   { n.requested = append(n.requested, id) }
func (n *fakeNotifier) WinnerPicked(userID uint, amount float64) {
	n.winners = append(n.winners, userID)
	n.amounts = append(n.amounts, amount)
}

type fakeStore struct {
	rounds []*raffle.SettledRound
}

func (s *fakeStore) SaveRound(round *raffle.SettledRound) error {
	s.rounds = append(s.rounds, round)
	return nil
}

type fixture struct {
	engine   *raffle.Raffle
	oracle   *fakeOracle
	payout   *fakePayout
	notifier *fakeNotifier
	store    *fakeStore
}

func newFixture(t *testing.T, cfg raffle.Config) *fixture {
	t.Helper()
	f := &fixture{
		oracle:   &fakeOracle{requestID: "req-1"},
		payout:   &fakePayout{},
		notifier: &fakeNotifier{},
		store:    &fakeStore{},
	}
	f.engine = raffle.New(cfg, f.oracle, f.payout, f.notifier, f.store)
	return f
}

func defaultConfig() raffle.Config {
	return raffle.Config{
		EntranceFee:      0.01,
		Interval:         30 * time.Second,
		KeyHash:          "lane-1",
		CallbackGasLimit: 500000,
	}
}

// due returns an instant past the draw interval.
func (f *fixture) due() time.Time {
	return f.engine.LastDrawTime().Add(31 * time.Second)
}

func (f *fixture) enterAndRequest(t *testing.T, userIDs ...uint) {
	t.Helper()
	for _, id := range userIDs {
		require.NoError(t, f.engine.Enter(id, f.engine.EntranceFee()))
	}
	require.NoError(t, f.engine.PerformUpkeep(f.due()))
}

func TestEnterInsufficientFee(t *testing.T) {
	f := newFixture(t, defaultConfig())

	err := f.engine.Enter(1, 0.005)

	require.ErrorIs(t, err, raffle.ErrInsufficientFee)
	assert.Equal(t, 0, f.engine.NumPlayers())
	assert.Zero(t, f.engine.Status().Pot)
	assert.Empty(t, f.notifier.entered)
}

func TestEnterWhileCalculating(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.enterAndRequest(t, 1)

	before := f.engine.Status()
	err := f.engine.Enter(2, 0.01)

	require.ErrorIs(t, err, raffle.ErrRoundNotOpen)
	assert.Equal(t, before, f.engine.Status())
}

func TestEnterCreditsPotAndNotifies(t *testing.T) {
	f := newFixture(t, defaultConfig())

	require.NoError(t, f.engine.Enter(1, 0.01))
	require.NoError(t, f.engine.Enter(2, 0.02)) // overpaying is allowed

	st := f.engine.Status()
	assert.Equal(t, 2, st.NumPlayers)
	assert.InDelta(t, 0.03, st.Pot, 1e-9)
	assert.Equal(t, []uint{1, 2}, f.notifier.entered)

	first, ok := f.engine.Entrant(0)
	require.True(t, ok)
	assert.Equal(t, uint(1), first.UserID)
	assert.InDelta(t, 0.01, first.FeePaid, 1e-9)
}

func TestCheckUpkeepConjuncts(t *testing.T) {
	t.Run("all conditions hold", func(t *testing.T) {
		f := newFixture(t, defaultConfig())
		require.NoError(t, f.engine.Enter(1, 0.01))
		assert.True(t, f.engine.CheckUpkeep(f.due()))
	})

	t.Run("interval not elapsed", func(t *testing.T) {
		f := newFixture(t, defaultConfig())
		require.NoError(t, f.engine.Enter(1, 0.01))
		early := f.engine.LastDrawTime().Add(29 * time.Second)
		assert.False(t, f.engine.CheckUpkeep(early))
	})

	t.Run("round calculating", func(t *testing.T) {
		f := newFixture(t, defaultConfig())
		f.enterAndRequest(t, 1)
		assert.False(t, f.engine.CheckUpkeep(f.due()))
	})

	t.Run("no players and no pot", func(t *testing.T) {
		f := newFixture(t, defaultConfig())
		assert.False(t, f.engine.CheckUpkeep(f.due()))
	})
}

func TestPerformUpkeepNotNeeded(t *testing.T) {
	f := newFixture(t, defaultConfig())

	err := f.engine.PerformUpkeep(f.due())

	var notNeeded *raffle.UpkeepNotNeededError
	require.ErrorAs(t, err, &notNeeded)
	assert.Zero(t, notNeeded.Pot)
	assert.Zero(t, notNeeded.NumPlayers)
	assert.Equal(t, raffle.PhaseOpen, notNeeded.Phase)
	assert.Equal(t, raffle.PhaseOpen, f.engine.Phase())
	assert.Empty(t, f.oracle.requests)
}

func TestPerformUpkeepRequestsOneWord(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.enterAndRequest(t, 1)

	require.Len(t, f.oracle.requests, 1)
	req := f.oracle.requests[0]
	assert.Equal(t, "lane-1", req.KeyHash)
	assert.Equal(t, raffle.RequestConfirmations, req.Confirmations)
	assert.Equal(t, raffle.NumWords, req.NumWords)
	assert.Equal(t, uint32(500000), req.CallbackGasLimit)
	assert.Equal(t, []string{"req-1"}, f.notifier.requested)

	// second upkeep while calculating is refused
	err := f.engine.PerformUpkeep(f.due())
	var notNeeded *raffle.UpkeepNotNeededError
	require.ErrorAs(t, err, &notNeeded)
	assert.Equal(t, raffle.PhaseCalculating, notNeeded.Phase)
	assert.Len(t, f.oracle.requests, 1)
}

func TestPerformUpkeepOracleFailure(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.oracle.err = errors.New("oracle unreachable")
	require.NoError(t, f.engine.Enter(1, 0.01))

	err := f.engine.PerformUpkeep(f.due())

	require.Error(t, err)
	// The round is stuck in calculating with no request outstanding; any
	// fulfillment is stale until an operator recovers the round.
	assert.Equal(t, raffle.PhaseCalculating, f.engine.Phase())
	assert.Empty(t, f.engine.Status().PendingRequestID)
	require.ErrorIs(t, f.engine.Fulfill("req-1", []uint64{4}), raffle.ErrUnknownRequest)
}

func TestPhaseAndRequestIDMoveTogether(t *testing.T) {
	f := newFixture(t, defaultConfig())

	st := f.engine.Status()
	assert.Equal(t, raffle.PhaseOpen, st.Phase)
	assert.Empty(t, st.PendingRequestID)

	f.enterAndRequest(t, 1)
	st = f.engine.Status()
	assert.Equal(t, raffle.PhaseCalculating, st.Phase)
	assert.Equal(t, "req-1", st.PendingRequestID)

	require.NoError(t, f.engine.Fulfill("req-1", []uint64{0}))
	st = f.engine.Status()
	assert.Equal(t, raffle.PhaseOpen, st.Phase)
	assert.Empty(t, st.PendingRequestID)
}

func TestFulfillSingleEntrant(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.enterAndRequest(t, 42)

	require.NoError(t, f.engine.Fulfill("req-1", []uint64{7})) // 7 mod 1 = 0

	st := f.engine.Status()
	assert.Equal(t, raffle.PhaseOpen, st.Phase)
	assert.Zero(t, st.NumPlayers)
	assert.Zero(t, st.Pot)
	require.NotNil(t, st.LastWinner)
	assert.Equal(t, uint(42), *st.LastWinner)

	require.Len(t, f.payout.userIDs, 1)
	assert.Equal(t, uint(42), f.payout.userIDs[0])
	assert.InDelta(t, 0.01, f.payout.amounts[0], 1e-9)

	assert.Equal(t, []uint{42}, f.notifier.winners)
}

func TestFulfillSixEntrants(t *testing.T) {
	cfg := defaultConfig()
	cfg.EntranceFee = 2
	f := newFixture(t, cfg)
	f.enterAndRequest(t, 10, 11, 12, 13, 14, 15)

	require.NoError(t, f.engine.Fulfill("req-1", []uint64{17})) // 17 mod 6 = 5

	require.Len(t, f.payout.userIDs, 1)
	assert.Equal(t, uint(15), f.payout.userIDs[0])
	assert.InDelta(t, 12, f.payout.amounts[0], 1e-9)
	assert.Zero(t, f.engine.NumPlayers())

	// the next round is open again
	require.NoError(t, f.engine.Enter(20, 2))
	assert.Equal(t, 1, f.engine.NumPlayers())
}

func TestFulfillUnknownRequest(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.enterAndRequest(t, 1, 2)

	before := f.engine.Status()
	err := f.engine.Fulfill("req-999", []uint64{3})

	require.ErrorIs(t, err, raffle.ErrUnknownRequest)
	assert.Equal(t, before, f.engine.Status())
	assert.Empty(t, f.payout.userIDs)
}

func TestFulfillTwiceIsStale(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.enterAndRequest(t, 1, 2)

	require.NoError(t, f.engine.Fulfill("req-1", []uint64{3}))
	err := f.engine.Fulfill("req-1", []uint64{3})

	require.ErrorIs(t, err, raffle.ErrUnknownRequest)
	assert.Len(t, f.payout.userIDs, 1)
}

func TestFulfillPayoutFailure(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.enterAndRequest(t, 1, 2)
	cause := errors.New("wallet update failed")
	f.payout.err = cause

	err := f.engine.Fulfill("req-1", []uint64{5})

	var payoutErr *raffle.PayoutFailedError
	require.ErrorAs(t, err, &payoutErr)
	assert.Equal(t, uint(2), payoutErr.WinnerID) // 5 mod 2 = 1
	assert.InDelta(t, 0.02, payoutErr.Amount, 1e-9)
	require.ErrorIs(t, err, cause)

	// bookkeeping is committed even though the transfer failed
	st := f.engine.Status()
	assert.Equal(t, raffle.PhaseOpen, st.Phase)
	assert.Zero(t, st.NumPlayers)
	assert.Zero(t, st.Pot)
	assert.Empty(t, f.notifier.winners)
}

func TestFulfillPersistsRound(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.enterAndRequest(t, 1, 2, 3)

	require.NoError(t, f.engine.Fulfill("req-1", []uint64{4})) // 4 mod 3 = 1

	require.Len(t, f.store.rounds, 1)
	settled := f.store.rounds[0]
	assert.Equal(t, 1, settled.Number)
	assert.Equal(t, "req-1", settled.RequestID)
	assert.Equal(t, uint64(4), settled.RandomWord)
	assert.Equal(t, uint(2), settled.WinnerID)
	assert.InDelta(t, 0.03, settled.Pot, 1e-9)
	assert.Len(t, settled.Entrants, 3)

	assert.Equal(t, 2, f.engine.Status().RoundNumber)
}

func TestFulfillEmptyRandomWords(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.enterAndRequest(t, 1)

	err := f.engine.Fulfill("req-1", nil)

	require.ErrorIs(t, err, raffle.ErrUnknownRequest)
	assert.Equal(t, raffle.PhaseCalculating, f.engine.Phase())
}

func TestEntrantOutOfRange(t *testing.T) {
	f := newFixture(t, defaultConfig())
	require.NoError(t, f.engine.Enter(1, 0.01))

	_, ok := f.engine.Entrant(1)
	assert.False(t, ok)
	_, ok = f.engine.Entrant(-1)
	assert.False(t, ok)
}

// racingOracle delivers its fulfillment from a goroutine the moment the
// request is made, before RequestRandomWords returns. The engine must hold
// the fulfillment until the request id is stored instead of dropping it as
// stale.
type racingOracle struct {
	engine    *raffle.Raffle
	fulfilled chan error
}

func (o *racingOracle) RequestRandomWords(raffle.RandomnessRequest) (string, error) {
	go func() {
		o.fulfilled <- o.engine.Fulfill("req-1", []uint64{5})
	}()
	time.Sleep(50 * time.Millisecond) // give the delivery every chance to race
	return "req-1", nil
}

func TestFulfillmentRacingRequestIDStoreIsNotLost(t *testing.T) {
	oracle := &racingOracle{fulfilled: make(chan error, 1)}
	payout := &fakePayout{}
	engine := raffle.New(defaultConfig(), oracle, payout, nil, nil)
	oracle.engine = engine

	require.NoError(t, engine.Enter(9, 0.01))
	require.NoError(t, engine.PerformUpkeep(engine.LastDrawTime().Add(31*time.Second)))

	select {
	case err := <-oracle.fulfilled:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("fulfillment never settled")
	}

	assert.Equal(t, raffle.PhaseOpen, engine.Phase())
	assert.Equal(t, []uint{9}, payout.userIDs)
}

func TestFullCycleTwice(t *testing.T) {
	f := newFixture(t, defaultConfig())

	f.enterAndRequest(t, 1, 2)
	require.NoError(t, f.engine.Fulfill("req-1", []uint64{0}))

	f.oracle.requestID = "req-2"
	f.enterAndRequest(t, 3)
	require.NoError(t, f.engine.Fulfill("req-2", []uint64{9}))

	require.NotNil(t, f.engine.LastWinner())
	assert.Equal(t, uint(3), *f.engine.LastWinner())
	assert.Equal(t, []uint{1, 3}, f.payout.userIDs)
	assert.Equal(t, 3, f.engine.Status().RoundNumber)
}
