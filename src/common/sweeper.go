package common

import (
	"context"
	"errors"
	"etix/src/config"
	"etix/src/lib"
	"etix/src/monitoring"
	"log"
	"time"
)

// Sweeper reclaims holds whose expiry has passed. Each run scans the ledger
// and releases every expired entry once; deleting the ledger key first is
// what makes concurrent sweeps and user releases single-shot.
type Sweeper struct {
	svc *HoldService
}

func NewSweeper(svc *HoldService) *Sweeper {
	return &Sweeper{svc: svc}
}

// Start registers the sweep as a recurring job with a short initial delay so
// boot-time work settles before the first pass.
func (s *Sweeper) Start() error {
	interval := config.SweepInterval()
	_, err := lib.CreateDelayedCronJob(func() {
		s.Sweep(context.Background())
	}, interval, 5*time.Second)
	if err != nil {
		log.Printf("Error registering sweeper job: %s\n", err.Error())
		return err
	}
	log.Printf("Sweeper: running every %s\n", interval)
	return nil
}

func (s *Sweeper) Sweep(ctx context.Context) {
	start := time.Now()
	defer func() {
		monitoring.SweepDuration.Observe(time.Since(start).Seconds())
	}()
	ids, err := s.svc.ledger.ScanHolds(ctx)
	if err != nil {
		log.Printf("Sweeper: error scanning ledger: %s\n", err.Error())
		return
	}
	now := time.Now()
	for _, id := range ids {
		s.sweepOne(ctx, id, now)
	}
}

// sweepOne handles a single entry. Failures are logged and never abort the
// rest of the sweep.
func (s *Sweeper) sweepOne(ctx context.Context, id string, now time.Time) {
	hold, err := s.svc.ledger.GetHold(ctx, id)
	if errors.Is(err, ErrHoldNotFound) {
		return
	}
	if errors.Is(err, ErrCorruptHold) {
		// The ledger is not the durable truth, so an unparsable entry is
		// safe to drop.
		log.Printf("Sweeper: dropping corrupt entry %s: %s\n", id, err.Error())
		if _, derr := s.svc.ledger.DeleteHold(ctx, id); derr != nil {
			log.Printf("Sweeper: error deleting corrupt entry %s: %s\n", id, derr.Error())
		}
		monitoring.HoldsReleased.WithLabelValues("corrupt").Inc()
		return
	}
	if err != nil {
		log.Printf("Sweeper: error reading hold %s: %s\n", id, err.Error())
		return
	}
	if !hold.Expired(now) {
		return
	}
	ok, err := s.svc.ledger.DeleteHold(ctx, id)
	if err != nil {
		log.Printf("Sweeper: error deleting hold %s: %s\n", id, err.Error())
		return
	}
	if !ok {
		// Another sweep or a checkout got there first.
		return
	}
	strat, err := s.svc.strategyFor(hold.Mode)
	if err != nil {
		log.Printf("Sweeper: hold %s: %s\n", id, err.Error())
		return
	}
	if err := strat.release(ctx, hold); err != nil {
		log.Printf("Sweeper: error releasing resources of hold %s: %s\n", id, err.Error())
		return
	}
	monitoring.HoldsReleased.WithLabelValues("expired").Inc()
	log.Printf("Sweeper: reclaimed expired hold %s for event %d\n", id, hold.EventID)
}
