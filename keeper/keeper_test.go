package keeper_test

import (
	"testing"
	"time"

	"github.com/bellapacxx/raffle-backend/keeper"
	"github.com/bellapacxx/raffle-backend/raffle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOracle struct {
	requests int
}

func (o *stubOracle) RequestRandomWords(raffle.RandomnessRequest) (string, error) {
	o.requests++
	return "req-1", nil
}

type stubPayout struct{}

func (stubPayout) Payout(uint, float64) error { return nil }

func TestTickTriggersDrawWhenDue(t *testing.T) {
	oracle := &stubOracle{}
	engine := raffle.New(raffle.Config{
		EntranceFee: 0.01,
		Interval:    0, // every round is immediately due
	}, oracle, stubPayout{}, nil, nil)
	require.NoError(t, engine.Enter(1, 0.01))

	k := keeper.New(engine, time.Second)
	k.Tick()

	assert.Equal(t, raffle.PhaseCalculating, engine.Phase())
	assert.Equal(t, 1, oracle.requests)

	// a second tick while calculating must not issue another request
	k.Tick()
	assert.Equal(t, 1, oracle.requests)
}

func TestTickNoopWhileRoundEmpty(t *testing.T) {
	oracle := &stubOracle{}
	engine := raffle.New(raffle.Config{
		EntranceFee: 0.01,
		Interval:    0,
	}, oracle, stubPayout{}, nil, nil)

	k := keeper.New(engine, time.Second)
	k.Tick()

	assert.Equal(t, raffle.PhaseOpen, engine.Phase())
	assert.Zero(t, oracle.requests)
}
