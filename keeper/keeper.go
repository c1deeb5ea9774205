package keeper

import (
	"errors"
	"time"

	"github.com/bellapacxx/raffle-backend/raffle"
	"github.com/bellapacxx/raffle-backend/utils/logger"
	"github.com/go-co-op/gocron"
)

// Keeper polls the engine the way an external upkeep service would: check at
// a fixed cadence, trigger the draw only when the engine says one is due.
type Keeper struct {
	engine    *raffle.Raffle
	scheduler *gocron.Scheduler
	poll      time.Duration
}

func New(engine *raffle.Raffle, poll time.Duration) *Keeper {
	return &Keeper{
		engine:    engine,
		scheduler: gocron.NewScheduler(time.UTC),
		poll:      poll,
	}
}

func (k *Keeper) Start() error {
	if _, err := k.scheduler.Every(int(k.poll.Seconds())).Seconds().Do(k.Tick); err != nil {
		return err
	}
	k.scheduler.StartAsync()
	logger.Infof("[Keeper] polling every %s", k.poll)
	return nil
}

func (k *Keeper) Stop() {
	k.scheduler.Stop()
}

// Tick is one poll cycle.
func (k *Keeper) Tick() {
	now := time.Now()
	if !k.engine.CheckUpkeep(now) {
		return
	}

	if err := k.engine.PerformUpkeep(now); err != nil {
		var notNeeded *raffle.UpkeepNotNeededError
		if errors.As(err, &notNeeded) {
			// conditions changed between check and perform
			logger.Debugf("[Keeper] upkeep no longer needed: %v", notNeeded)
			return
		}
		logger.Errorf("[Keeper] perform upkeep failed: %v", err)
	}
}
