/*
sweep.go - Periodic reconciliation sweep

PURPOSE:
  Runs ReconcileAll on a cron schedule as a safety net. The fan-out keeps
  achievements current in the happy path; the sweep repairs anything a
  dropped job or crashed process left behind. Safe because per-schedule
  reconciliation is idempotent.
*/
package ecotrack

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically reconciles every schedule.
type Sweeper struct {
	Reconciler *Reconciler
	cron       *cron.Cron
}

func NewSweeper(rec *Reconciler) *Sweeper {
	return &Sweeper{
		Reconciler: rec,
		cron:       cron.New(),
	}
}

// Schedule registers a sweep every interval. Must be called before Start.
func (s *Sweeper) Schedule(interval time.Duration) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("sweep interval must be positive")
	}
	spec := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	return s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		if err := s.Reconciler.ReconcileAll(ctx); err != nil {
			log.Printf("Warning: reconciliation sweep: %v", err)
		}
	})
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
