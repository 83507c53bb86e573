package ecotrack_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdant/eco-engine/ecotrack"
	"github.com/verdant/eco-engine/ecotrack/store"
)

func strPtr(s string) *string { return &s }

func catPtr(id ecotrack.CategoryID) *ecotrack.CategoryID { return &id }

func TestScheduleService_Create_DerivesAchievements(t *testing.T) {
	// GIVEN: A category with one eco action
	// WHEN: Creating a schedule tagged with it
	// THEN: The achievement checklist is derived immediately

	m := store.NewMemory()
	ctx := context.Background()
	commuting := seedCategory(t, m, "commuting")
	action := seedAction(t, m, commuting.ID, "bike to work", 3.5, 2.1)

	svc := ecotrack.NewScheduleService(m)
	sched, err := svc.Create(ctx, "user-1", ecotrack.ScheduleInput{
		Title:      "monday commute",
		AllDay:     true,
		CategoryID: &commuting.ID,
	})
	require.NoError(t, err)

	got := achievedActionIDs(t, m, sched.ID)
	require.Len(t, got, 1)
	assert.False(t, got[action.ID])
}

func TestScheduleService_Create_RejectsInvertedPeriod(t *testing.T) {
	m := store.NewMemory()
	svc := ecotrack.NewScheduleService(m)

	start := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), "user-1", ecotrack.ScheduleInput{
		Title: "backwards",
		Start: start,
		End:   start.Add(-time.Hour),
	})
	assert.ErrorIs(t, err, ecotrack.ErrInvalidPeriod)

	// All-day entries skip the period check entirely.
	_, err = svc.Create(context.Background(), "user-1", ecotrack.ScheduleInput{
		Title:  "all day",
		AllDay: true,
	})
	assert.NoError(t, err)
}

func TestScheduleService_Update_TitleOnly_KeepsCompletion(t *testing.T) {
	// GIVEN: A schedule with a completed achievement
	// WHEN: Updating only the title
	// THEN: The completion flag is untouched

	m := store.NewMemory()
	ctx := context.Background()
	energy := seedCategory(t, m, "energy")
	action := seedAction(t, m, energy.ID, "unplug chargers", 0.5, 0.3)

	svc := ecotrack.NewScheduleService(m)
	sched, err := svc.Create(ctx, "user-1", ecotrack.ScheduleInput{
		Title: "save power", AllDay: true, CategoryID: &energy.ID,
	})
	require.NoError(t, err)
	_, err = m.SetAchievementCompleted(ctx, sched.ID, action.ID, true, time.Now().UTC())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "user-1", sched.ID, ecotrack.ScheduleUpdate{
		Title: strPtr("save more power"),
	})
	require.NoError(t, err)
	assert.Equal(t, "save more power", updated.Title)

	got := achievedActionIDs(t, m, sched.ID)
	assert.True(t, got[action.ID], "title-only update must not reset completion")
}

func TestScheduleService_Update_ClearCategory_RemovesChecklist(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	water := seedCategory(t, m, "water")
	seedAction(t, m, water.ID, "fix the drip", 2.0, 0.6)

	svc := ecotrack.NewScheduleService(m)
	sched, err := svc.Create(ctx, "user-1", ecotrack.ScheduleInput{
		Title: "plumbing day", AllDay: true, CategoryID: &water.ID,
	})
	require.NoError(t, err)
	require.Len(t, achievedActionIDs(t, m, sched.ID), 1)

	updated, err := svc.Update(ctx, "user-1", sched.ID, ecotrack.ScheduleUpdate{
		CategoryID: catPtr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
	assert.Empty(t, achievedActionIDs(t, m, sched.ID))
}

func TestScheduleService_Update_SwitchCategory_Rederives(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	food := seedCategory(t, m, "food")
	waste := seedCategory(t, m, "waste")
	seedAction(t, m, food.ID, "meatless monday", 4.0, 3.2)
	jars := seedAction(t, m, waste.ID, "reuse jars", 0.4, 0.2)

	svc := ecotrack.NewScheduleService(m)
	sched, err := svc.Create(ctx, "user-1", ecotrack.ScheduleInput{
		Title: "kitchen", AllDay: true, CategoryID: &food.ID,
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "user-1", sched.ID, ecotrack.ScheduleUpdate{
		CategoryID: catPtr(waste.ID),
	})
	require.NoError(t, err)

	got := achievedActionIDs(t, m, sched.ID)
	require.Len(t, got, 1)
	assert.Contains(t, got, jars.ID)
}

func TestScheduleService_OwnershipEnforced(t *testing.T) {
	// GIVEN: user-1 owns a schedule
	// WHEN: user-2 tries to read, update and delete it
	// THEN: Every call fails with ErrForbidden and nothing changes

	m := store.NewMemory()
	ctx := context.Background()
	svc := ecotrack.NewScheduleService(m)

	sched, err := svc.Create(ctx, "user-1", ecotrack.ScheduleInput{Title: "mine", AllDay: true})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "user-2", sched.ID)
	assert.ErrorIs(t, err, ecotrack.ErrForbidden)

	var ownErr *ecotrack.OwnershipError
	_, err = svc.Update(ctx, "user-2", sched.ID, ecotrack.ScheduleUpdate{Title: strPtr("stolen")})
	require.ErrorAs(t, err, &ownErr)
	assert.Equal(t, sched.ID, ownErr.ScheduleID)

	err = svc.Delete(ctx, "user-2", sched.ID)
	assert.ErrorIs(t, err, ecotrack.ErrForbidden)

	// Still there, still named "mine".
	got, err := svc.Get(ctx, "user-1", sched.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)
}

func TestScheduleService_ListForUser_IsIsolated(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	svc := ecotrack.NewScheduleService(m)

	_, err := svc.Create(ctx, "user-1", ecotrack.ScheduleInput{Title: "a", AllDay: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-1", ecotrack.ScheduleInput{Title: "b", AllDay: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-2", ecotrack.ScheduleInput{Title: "c", AllDay: true})
	require.NoError(t, err)

	mine, err := svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestScheduleService_Delete_CascadesAchievements(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	commuting := seedCategory(t, m, "commuting")
	seedAction(t, m, commuting.ID, "bike to work", 3.5, 2.1)

	svc := ecotrack.NewScheduleService(m)
	sched, err := svc.Create(ctx, "user-1", ecotrack.ScheduleInput{
		Title: "commute", AllDay: true, CategoryID: &commuting.ID,
	})
	require.NoError(t, err)
	require.Len(t, achievedActionIDs(t, m, sched.ID), 1)

	require.NoError(t, svc.Delete(ctx, "user-1", sched.ID))

	_, err = m.GetSchedule(ctx, sched.ID)
	assert.ErrorIs(t, err, ecotrack.ErrScheduleNotFound)
	assert.Empty(t, achievedActionIDs(t, m, sched.ID))
}
