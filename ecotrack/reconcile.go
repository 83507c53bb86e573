/*
reconcile.go - The achievement reconciliation engine

PURPOSE:
  Keeps the achievement store exactly in sync with two independently
  mutable inputs: a schedule's assigned category, and the set of eco
  actions belonging to that category. Achievements are a materialized
  join; completion state is the only part of a row that is real state,
  so reconciliation must never clobber it.

ALGORITHM (set symmetric difference, not delete-all-then-recreate):
  target   = actions in the schedule's category (empty if no category)
  previous = actions that already have an achievement row
  create rows for target \ previous (incomplete)
  delete rows for previous \ target
  rows in both sets are left untouched

IDEMPOTENCE:
  Running Reconcile twice with no intervening mutation performs zero
  writes on the second run. This is what makes retry-on-failure safe,
  both for the fan-out worker and the periodic sweep.

ERROR ABSORPTION:
  A broken category reference is logged and absorbed. Reconciliation is
  attached to schedule writes and must never fail the primary write.

SEE ALSO:
  - fanout.go: Queues per-schedule reconciliation after eco-action edits
  - sweep.go: Periodic full reconciliation for drift repair
*/
package ecotrack

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Reconciler recomputes the achievement set for one schedule or for all of
// them, applying a minimal diff against what is already stored.
type Reconciler struct {
	Categories   CategoryStore
	Actions      EcoActionStore
	Schedules    ScheduleStore
	Achievements AchievementStore
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{
		Categories:   store,
		Actions:      store,
		Schedules:    store,
		Achievements: store,
	}
}

// Reconcile brings the achievement rows of one schedule in line with its
// current category assignment.
//
// A schedule without a category reconciles against an empty target set, so
// any rows left over from a previous category are removed. An invalid
// category reference is logged and treated as a no-op so that it never
// blocks the schedule write it rides on.
func (r *Reconciler) Reconcile(ctx context.Context, schedule *Schedule) error {
	target, err := r.targetActions(ctx, schedule)
	if err != nil {
		if errors.Is(err, ErrInvalidCategoryRef) {
			log.Printf("Warning: schedule %s references unknown category %s, skipping reconciliation",
				schedule.ID, *schedule.CategoryID)
			return nil
		}
		return fmt.Errorf("load target eco actions: %w", err)
	}

	current, err := r.Achievements.ListAchievementsBySchedule(ctx, schedule.ID)
	if err != nil {
		return fmt.Errorf("load achievements for schedule %s: %w", schedule.ID, err)
	}

	previous := make(map[EcoActionID]bool, len(current))
	for _, a := range current {
		previous[a.EcoActionID] = true
	}

	if len(previous) == 0 && len(target) == 0 {
		return nil
	}

	wanted := make(map[EcoActionID]bool, len(target))
	for _, action := range target {
		wanted[action.ID] = true
		if previous[action.ID] {
			continue // completion state survives untouched
		}
		err := r.Achievements.CreateAchievement(ctx, Achievement{
			ScheduleID:  schedule.ID,
			EcoActionID: action.ID,
			IsCompleted: false,
			AchievedAt:  time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("create achievement (%s, %s): %w", schedule.ID, action.ID, err)
		}
	}

	for _, a := range current {
		if wanted[a.EcoActionID] {
			continue
		}
		if err := r.Achievements.DeleteAchievement(ctx, a.ScheduleID, a.EcoActionID); err != nil {
			return fmt.Errorf("delete achievement (%s, %s): %w", a.ScheduleID, a.EcoActionID, err)
		}
	}

	return nil
}

// targetActions resolves the eco actions a schedule should have achievements
// for. No category means an empty target set.
func (r *Reconciler) targetActions(ctx context.Context, schedule *Schedule) ([]EcoAction, error) {
	if schedule.CategoryID == nil {
		return nil, nil
	}

	cat, err := r.Categories.GetCategory(ctx, *schedule.CategoryID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, ErrInvalidCategoryRef
	}

	return r.Actions.ListEcoActionsByCategory(ctx, cat.ID)
}

// ReconcileByID loads the schedule and reconciles it. Missing schedules are
// a no-op: the fan-out queue may race with schedule deletion.
func (r *Reconciler) ReconcileByID(ctx context.Context, id ScheduleID) error {
	schedule, err := r.Schedules.GetSchedule(ctx, id)
	if err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			return nil
		}
		return err
	}
	return r.Reconcile(ctx, schedule)
}

// ReconcileAll walks every schedule in the store and reconciles each one.
// Cost is O(schedules x actions per category); callers that run on a request
// path should go through the fan-out worker instead of calling this inline.
// Returns the number of schedules that failed alongside the first error.
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	ids, err := r.Schedules.ListScheduleIDs(ctx)
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}

	var firstErr error
	failed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.ReconcileByID(ctx, id); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			log.Printf("Warning: reconciliation failed for schedule %s: %v", id, err)
		}
	}

	if firstErr != nil {
		return fmt.Errorf("reconcile all: %d schedule(s) failed: %w", failed, firstErr)
	}
	return nil
}
