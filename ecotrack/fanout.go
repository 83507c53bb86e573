/*
fanout.go - Asynchronous reconciliation fan-out

PURPOSE:
  When an eco action changes category, every schedule's achievement set is
  potentially affected. Running that O(schedules) scan inline in the
  triggering request would hold the request open for an unbounded time, so
  the fan-out enqueues one job per schedule onto an in-process worker.

ORDERING:
  EnqueueAll is called strictly after the triggering eco-action write is
  durable, so the worker observes the post-commit category assignment. Each
  job re-reads its schedule at execution time; jobs that race with schedule
  deletion are harmless no-ops.

RETRIES:
  Per-schedule reconciliation is idempotent, so a failed job is retried
  once and then logged. The periodic sweep picks up anything that still
  slipped through.

SEE ALSO:
  - reconcile.go: The per-schedule algorithm
  - sweep.go: Scheduled full reconciliation
*/
package ecotrack

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Fanout runs per-schedule reconciliation jobs on a background worker.
type Fanout struct {
	Reconciler *Reconciler
	Schedules  ScheduleStore

	jobs chan ScheduleID
	wg   sync.WaitGroup
	once sync.Once
}

const fanoutQueueSize = 256

func NewFanout(store Store) *Fanout {
	return &Fanout{
		Reconciler: NewReconciler(store),
		Schedules:  store,
		jobs:       make(chan ScheduleID, fanoutQueueSize),
	}
}

// Start launches the worker goroutine. The worker drains remaining jobs
// when ctx is canceled, then exits.
func (f *Fanout) Start(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for {
			select {
			case id, ok := <-f.jobs:
				if !ok {
					return
				}
				f.run(ctx, id)
			case <-ctx.Done():
				// Drain what is already queued, then stop.
				for {
					select {
					case id, ok := <-f.jobs:
						if !ok {
							return
						}
						f.run(context.Background(), id)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop closes the queue and waits for the worker to finish.
func (f *Fanout) Stop() {
	f.once.Do(func() { close(f.jobs) })
	f.wg.Wait()
}

func (f *Fanout) run(ctx context.Context, id ScheduleID) {
	err := f.Reconciler.ReconcileByID(ctx, id)
	if err == nil {
		return
	}
	// Idempotent, so one immediate retry is safe.
	if err := f.Reconciler.ReconcileByID(ctx, id); err != nil {
		log.Printf("Warning: fan-out reconciliation failed for schedule %s: %v", id, err)
	}
}

// EnqueueAll queues a reconciliation job for every schedule. Call only after
// the triggering mutation has committed.
func (f *Fanout) EnqueueAll(ctx context.Context) error {
	ids, err := f.Schedules.ListScheduleIDs(ctx)
	if err != nil {
		return fmt.Errorf("list schedules for fan-out: %w", err)
	}
	for _, id := range ids {
		select {
		case f.jobs <- id:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
