package ecotrack_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdant/eco-engine/ecotrack"
	"github.com/verdant/eco-engine/ecotrack/store"
)

func TestStats_DeltasAreAdditive(t *testing.T) {
	// GIVEN: A fresh user
	// WHEN: Recording +100.5/+1.25 then +50/+0.5
	// THEN: The total is exactly 150.5/1.75

	m := store.NewMemory()
	ctx := context.Background()
	svc := ecotrack.NewStatsService(m)

	require.NoError(t, svc.RecordDelta(ctx, "user-1", ecotrack.NewSavings(100.5, 1.25)))
	require.NoError(t, svc.RecordDelta(ctx, "user-1", ecotrack.NewSavings(50.0, 0.5)))

	got, err := svc.ForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "150.5", got.Totals.Money.String())
	assert.Equal(t, "1.75", got.Totals.CO2.String())
}

func TestStats_NegativeDeltaIsValid(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	svc := ecotrack.NewStatsService(m)

	require.NoError(t, svc.RecordDelta(ctx, "user-1", ecotrack.NewSavings(10, 2)))
	require.NoError(t, svc.RecordDelta(ctx, "user-1", ecotrack.NewSavings(10, 2).Neg()))

	got, err := svc.ForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, got.Totals.IsZero())
}

func TestStats_GlobalSumsAllUsers(t *testing.T) {
	// GIVEN: Two users recording deltas
	// WHEN: Reading the global counter
	// THEN: It is the sum over both users

	m := store.NewMemory()
	ctx := context.Background()
	svc := ecotrack.NewStatsService(m)

	require.NoError(t, svc.RecordDelta(ctx, "user-1", ecotrack.NewSavings(3, 1)))
	require.NoError(t, svc.RecordDelta(ctx, "user-2", ecotrack.NewSavings(7, 4)))

	overall, err := svc.Overall(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", overall.Totals.Money.String())
	assert.Equal(t, "5", overall.Totals.CO2.String())

	// Per-user rows stay independent.
	u1, err := svc.ForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "3", u1.Totals.Money.String())
}

func TestStats_EnsureIsIdempotent(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	svc := ecotrack.NewStatsService(m)

	require.NoError(t, svc.RecordDelta(ctx, "user-1", ecotrack.NewSavings(5, 1)))

	// A later read must not zero the row back out.
	got, err := svc.ForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "5", got.Totals.Money.String())

	got, err = svc.ForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "5", got.Totals.Money.String())
}

func TestStats_ZeroDeltaIsSkipped(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	svc := ecotrack.NewStatsService(m)

	require.NoError(t, svc.RecordDelta(ctx, "user-1", ecotrack.Savings{}))

	overall, err := svc.Overall(ctx)
	require.NoError(t, err)
	assert.True(t, overall.Totals.IsZero())
}

func TestStats_FirstReadCreatesZeroedRow(t *testing.T) {
	m := store.NewMemory()
	svc := ecotrack.NewStatsService(m)

	got, err := svc.ForUser(context.Background(), "brand-new")
	require.NoError(t, err)
	assert.True(t, got.Totals.IsZero())
}
