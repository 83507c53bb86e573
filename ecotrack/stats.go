/*
stats.go - Savings counters

PURPOSE:
  Rolls completed eco-action savings up into per-user and global running
  totals. Two aggregation models existed historically: a query-time join
  over completed achievements, and denormalized counters. The counters are
  the primary path here; the join survives as an audit read that can detect
  counter drift.

CONTRACT:
  - RecordDelta ensures the user row exists, then moves the user and global
    rows by the same signed delta atomically (both-or-neither, enforced by
    the store).
  - Negative deltas are valid: undoing a completion applies the negative of
    the original delta.
*/
package ecotrack

import (
	"context"
	"fmt"
)

// StatsService fronts the statistics counters.
type StatsService struct {
	Stats StatsStore
}

func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{Stats: store}
}

// ForUser returns the user's running totals, creating a zeroed row on first
// read so callers never see a missing-row error for a valid user.
func (s *StatsService) ForUser(ctx context.Context, userID UserID) (*UserStatistics, error) {
	return s.Stats.EnsureUserStats(ctx, userID)
}

// Overall returns the global running totals.
func (s *StatsService) Overall(ctx context.Context) (*OverallStatistics, error) {
	return s.Stats.GetOverallStats(ctx)
}

// RecordDelta applies a signed savings delta to the user and global counters.
func (s *StatsService) RecordDelta(ctx context.Context, userID UserID, delta Savings) error {
	if delta.IsZero() {
		return nil
	}
	if _, err := s.Stats.EnsureUserStats(ctx, userID); err != nil {
		return fmt.Errorf("ensure user stats: %w", err)
	}
	return s.Stats.ApplyStatsDelta(ctx, userID, delta)
}

// Audit recomputes a user's totals from completed achievements. Counters can
// drift if a delta path is skipped; comparing this against the stored row is
// the way to find out.
func (s *StatsService) Audit(ctx context.Context, userID UserID) (Savings, error) {
	return s.Stats.ComputeUserSavings(ctx, userID)
}
