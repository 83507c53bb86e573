/*
achievement.go - Completion flips and their statistics deltas

PURPOSE:
  Exposes the one user-facing mutation on achievements: marking an eco
  action done or not done for a schedule. The flip itself is a pure state
  transition in the store; this service is the explicit caller that keeps
  the savings counters in step, so the two cannot silently diverge.

DELTA RULES:
  incomplete -> complete: +action savings to user and global counters
  complete -> incomplete: -action savings (undo)
  no-op flips (already in the requested state) move nothing.

SEE ALSO:
  - stats.go: The counter contract
  - schedule.go: Ownership checks reused here via the schedule
*/
package ecotrack

import (
	"context"
	"fmt"
	"time"
)

// AchievementService flips completion state with ownership checks and keeps
// the statistics counters consistent with every flip.
type AchievementService struct {
	Schedules    ScheduleStore
	Achievements AchievementStore
	Actions      EcoActionStore
	Stats        *StatsService
}

func NewAchievementService(store Store) *AchievementService {
	return &AchievementService{
		Schedules:    store,
		Achievements: store,
		Actions:      store,
		Stats:        NewStatsService(store),
	}
}

// ListForSchedule returns the achievement checklist of a schedule the caller
// owns.
func (s *AchievementService) ListForSchedule(ctx context.Context, callerID UserID, scheduleID ScheduleID) ([]Achievement, error) {
	if err := s.checkOwnership(ctx, callerID, scheduleID); err != nil {
		return nil, err
	}
	return s.Achievements.ListAchievementsBySchedule(ctx, scheduleID)
}

// SetStatus marks the achievement for (scheduleID, ecoActionID) as completed
// or not. Fails with ErrAchievementNotFound if no row exists for the pair
// and ErrForbidden if the caller doesn't own the schedule.
func (s *AchievementService) SetStatus(ctx context.Context, callerID UserID, scheduleID ScheduleID, ecoActionID EcoActionID, completed bool) (*Achievement, error) {
	if err := s.checkOwnership(ctx, callerID, scheduleID); err != nil {
		return nil, err
	}

	current, err := s.Achievements.FindAchievement(ctx, scheduleID, ecoActionID)
	if err != nil {
		return nil, err
	}
	if current.IsCompleted == completed {
		return current, nil
	}

	updated, err := s.Achievements.SetAchievementCompleted(ctx, scheduleID, ecoActionID, completed, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	action, err := s.Actions.GetEcoAction(ctx, ecoActionID)
	if err != nil {
		return nil, fmt.Errorf("load eco action for delta: %w", err)
	}

	delta := action.Savings
	if !completed {
		delta = delta.Neg()
	}

	schedule, err := s.Schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := s.Stats.RecordDelta(ctx, schedule.UserID, delta); err != nil {
		return nil, fmt.Errorf("apply statistics delta: %w", err)
	}

	return updated, nil
}

func (s *AchievementService) checkOwnership(ctx context.Context, callerID UserID, scheduleID ScheduleID) error {
	schedule, err := s.Schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	if schedule.UserID != callerID {
		return &OwnershipError{ScheduleID: scheduleID, CallerID: callerID}
	}
	return nil
}
