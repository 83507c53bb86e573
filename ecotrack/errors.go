/*
errors.go - Centralized error types for the tracking engine

PURPOSE:
  All domain error types in one place. The HTTP layer maps these onto
  status codes; nothing in this package knows about HTTP.

ERROR CATEGORIES:
  1. Not-found errors - missing schedule/achievement/user/action
  2. Authorization errors - ownership violations
  3. Invariant errors - duplicate achievement natural key

USAGE:
  if errors.Is(err, ecotrack.ErrForbidden) { ... }

SEE ALSO:
  - reconcile.go: Treats ErrInvalidCategoryRef as a logged no-op
  - api/handlers.go: Maps these onto HTTP statuses
*/
package ecotrack

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrScheduleNotFound is returned when a referenced schedule doesn't exist.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrAchievementNotFound is returned when no achievement exists for a
	// (schedule, eco action) pair.
	ErrAchievementNotFound = errors.New("achievement not found")

	// ErrUserNotFound is returned when a referenced user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEcoActionNotFound is returned when a referenced eco action doesn't exist.
	ErrEcoActionNotFound = errors.New("eco action not found")

	// ErrForbidden is returned when a caller touches a schedule they don't own.
	ErrForbidden = errors.New("not authorized for this schedule")

	// ErrDuplicateAchievement is returned on a natural-key collision in the
	// achievement store. Correct reconciliation never produces this; treat it
	// as an internal invariant failure, not a user error.
	ErrDuplicateAchievement = errors.New("achievement already exists for schedule and eco action")

	// ErrInvalidCategoryRef is returned when a category id doesn't exist in
	// the catalog. The reconciler absorbs this (logged no-op); validation
	// paths may surface it.
	ErrInvalidCategoryRef = errors.New("category does not exist")

	// ErrInvalidPeriod is returned when a schedule is neither all-day nor a
	// well-formed start/end range.
	ErrInvalidPeriod = errors.New("invalid period: schedule must be all-day or have start before end")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// OwnershipError carries which schedule and caller collided.
type OwnershipError struct {
	ScheduleID ScheduleID
	CallerID   UserID
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("user %s is not the owner of schedule %s", e.CallerID, e.ScheduleID)
}

func (e *OwnershipError) Unwrap() error { return ErrForbidden }

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrAchievementNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrEcoActionNotFound)
}
