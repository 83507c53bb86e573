/*
Package ecotrack provides the core eco-action tracking engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  "eco actions": users create calendar schedules, tag them with a category,
  and the engine derives a checklist of achievements for that category,
  tracks completion, and rolls savings up into per-user and global totals.

KEY CONCEPTS IN THIS FILE (types.go):
  - Savings: A money/CO2 quantity pair (decimal-precise)
  - Category: Seeded reference data shared by schedules and eco actions
  - EcoAction: A catalog entry describing one sustainable action
  - Schedule: A user's calendar entry, optionally tagged with a category
  - Achievement: Derived (schedule, eco action) pairing with completion state
  - UserStatistics / OverallStatistics: Running savings counters

DESIGN PRINCIPLES:
  1. Derived state: Achievement rows are a materialized join, never a source
     of truth - only their completion flag is independent state
  2. Precision: Uses decimal.Decimal for money and kg-CO2 amounts
  3. Type Safety: Strong typing for IDs prevents mixing schedule/action IDs

SEE ALSO:
  - reconcile.go: Keeps the achievement set consistent with categories
  - store.go: Persistence interfaces
  - stats.go: Savings counters
*/
package ecotrack

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type CategoryID string
type EcoActionID string
type ScheduleID string

// NewID returns a fresh random identifier usable for any entity.
func NewID() string { return uuid.NewString() }

// =============================================================================
// SAVINGS - Money and CO2 quantities, always moved together
// =============================================================================

// Savings pairs a monetary amount with a kg-CO2 amount. Every path that
// adjusts statistics moves both, so they travel as one value.
type Savings struct {
	Money decimal.Decimal
	CO2   decimal.Decimal
}

func NewSavings(money, co2 float64) Savings {
	return Savings{Money: decimal.NewFromFloat(money), CO2: decimal.NewFromFloat(co2)}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (s Savings) Add(o Savings) Savings {
	return Savings{Money: s.Money.Add(o.Money), CO2: s.CO2.Add(o.CO2)}
}
func (s Savings) Neg() Savings    { return Savings{Money: s.Money.Neg(), CO2: s.CO2.Neg()} }
func (s Savings) IsZero() bool    { return s.Money.IsZero() && s.CO2.IsZero() }
func (s Savings) Equal(o Savings) bool {
	return s.Money.Equal(o.Money) && s.CO2.Equal(o.CO2)
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

// Category is static reference data. Rows are seeded once at startup and
// never created or deleted by the application at runtime.
type Category struct {
	ID   CategoryID
	Name string // unique display name, e.g. "commuting"
}

// EcoAction belongs to exactly one category. Its savings figures are
// estimates entered by an administrator, not computed values.
type EcoAction struct {
	ID         EcoActionID
	CategoryID CategoryID
	Content    string // description of the action
	Savings    Savings
}

// =============================================================================
// SCHEDULE
// =============================================================================

// Schedule is a user's calendar entry. The owner never changes after
// creation. CategoryID is optional; assigning one is what causes the
// reconciler to derive achievements for it.
type Schedule struct {
	ID          ScheduleID
	UserID      UserID
	Title       string
	Description string
	AllDay      bool
	Start       time.Time // required unless AllDay
	End         time.Time // required unless AllDay; must be after Start
	CategoryID  *CategoryID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// =============================================================================
// ACHIEVEMENT - The derived entity
// =============================================================================

// Achievement pairs a schedule with an eco action. The (ScheduleID,
// EcoActionID) pair is the natural key and must never be duplicated.
// A row exists iff the schedule's category equals the action's category;
// IsCompleted and AchievedAt are independent state that must survive
// reconciliation.
type Achievement struct {
	ScheduleID  ScheduleID
	EcoActionID EcoActionID
	IsCompleted bool
	AchievedAt  time.Time
}

// =============================================================================
// STATISTICS - Running counters, one row per user plus one global row
// =============================================================================

type UserStatistics struct {
	UserID UserID
	Totals Savings
}

type OverallStatistics struct {
	Totals       Savings
	CalculatedAt time.Time
}
