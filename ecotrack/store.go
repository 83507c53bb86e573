/*
store.go - Persistence interfaces for the tracking engine

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  CategoryStore:    Seeded reference data reads
  EcoActionStore:   Eco-action catalog reads and admin writes
  ScheduleStore:    Schedule CRUD (delete cascades to achievements)
  AchievementStore: The derived join rows and their completion flag
  StatsStore:       Savings counters (upsert-safe, atomic deltas)

ATOMICITY CONTRACT:
  Atomicity lives inside single store methods rather than in a cross-store
  transaction wrapper. ApplyStatsDelta moves the per-user and global rows
  both-or-neither; DeleteSchedule removes the schedule and its achievement
  rows as one operation. Implementations use a database transaction (SQLite)
  or a single lock (memory) to honor this.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - ecotrack/store/memory.go: In-memory for testing

SEE ALSO:
  - reconcile.go: Drives AchievementStore through diffs
  - stats.go: Drives StatsStore
*/
package ecotrack

import (
	"context"
	"time"
)

// =============================================================================
// REFERENCE DATA STORES
// =============================================================================

// CategoryStore reads the seeded category catalog. SaveCategory exists only
// for the startup seeding path; categories are immutable at runtime.
type CategoryStore interface {
	// GetCategory returns nil, nil when the id is unknown: callers decide
	// whether a dangling reference is an error or a logged no-op.
	GetCategory(ctx context.Context, id CategoryID) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	SaveCategory(ctx context.Context, c Category) error
}

// EcoActionStore persists the eco-action catalog.
type EcoActionStore interface {
	GetEcoAction(ctx context.Context, id EcoActionID) (*EcoAction, error)
	ListEcoActions(ctx context.Context) ([]EcoAction, error)
	ListEcoActionsByCategory(ctx context.Context, categoryID CategoryID) ([]EcoAction, error)
	SaveEcoAction(ctx context.Context, a EcoAction) error
}

// =============================================================================
// SCHEDULE STORE
// =============================================================================

type ScheduleStore interface {
	GetSchedule(ctx context.Context, id ScheduleID) (*Schedule, error)
	ListSchedulesByUser(ctx context.Context, userID UserID) ([]Schedule, error)

	// ListScheduleIDs returns every schedule id in the store. Used by the
	// fan-out after an eco-action category change.
	ListScheduleIDs(ctx context.Context) ([]ScheduleID, error)

	SaveSchedule(ctx context.Context, s Schedule) error

	// DeleteSchedule removes the schedule and all its achievement rows
	// atomically. Returns ErrScheduleNotFound if absent.
	DeleteSchedule(ctx context.Context, id ScheduleID) error
}

// =============================================================================
// ACHIEVEMENT STORE - The derived join table
// =============================================================================

type AchievementStore interface {
	// CreateAchievement inserts with IsCompleted=false. Returns
	// ErrDuplicateAchievement if the (schedule, eco action) pair exists.
	CreateAchievement(ctx context.Context, a Achievement) error

	// FindAchievement returns nil, ErrAchievementNotFound if absent.
	FindAchievement(ctx context.Context, scheduleID ScheduleID, ecoActionID EcoActionID) (*Achievement, error)

	ListAchievementsBySchedule(ctx context.Context, scheduleID ScheduleID) ([]Achievement, error)

	// DeleteAchievement is an idempotent no-op if the pair is absent.
	DeleteAchievement(ctx context.Context, scheduleID ScheduleID, ecoActionID EcoActionID) error

	// SetAchievementCompleted flips the completion flag and stamps
	// AchievedAt. Pure state transition: statistics are the caller's job.
	SetAchievementCompleted(ctx context.Context, scheduleID ScheduleID, ecoActionID EcoActionID, completed bool, at time.Time) (*Achievement, error)
}

// =============================================================================
// STATISTICS STORE
// =============================================================================

type StatsStore interface {
	// EnsureUserStats returns the user's stats row, creating a zeroed one if
	// absent. Upsert-safe: concurrent calls must not fail on create.
	EnsureUserStats(ctx context.Context, userID UserID) (*UserStatistics, error)

	// ApplyStatsDelta adds a signed delta to the user row and the global row
	// in one atomic operation. Partial failure rolls back both.
	ApplyStatsDelta(ctx context.Context, userID UserID, delta Savings) error

	GetUserStats(ctx context.Context, userID UserID) (*UserStatistics, error)
	GetOverallStats(ctx context.Context) (*OverallStatistics, error)

	// ComputeUserSavings sums completed achievements' savings via the
	// Schedule -> Achievement -> EcoAction join. Audit read path; always
	// consistent with the achievement store by construction.
	ComputeUserSavings(ctx context.Context, userID UserID) (Savings, error)
}

// Store composes every persistence interface. The SQLite and memory
// implementations satisfy it; services depend on the narrow slices.
type Store interface {
	CategoryStore
	EcoActionStore
	ScheduleStore
	AchievementStore
	StatsStore
}
