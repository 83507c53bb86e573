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

func TestSweeper_RepairsDrift(t *testing.T) {
	// GIVEN: A schedule whose checklist was never derived (simulated drift)
	// WHEN: The sweep fires
	// THEN: The missing achievement row appears

	m := store.NewMemory()
	energy := seedCategory(t, m, "energy")
	action := seedAction(t, m, energy.ID, "unplug chargers", 0.5, 0.3)
	sched := seedSchedule(t, m, "user-1", &energy.ID)

	sweeper := ecotrack.NewSweeper(ecotrack.NewReconciler(m))
	_, err := sweeper.Schedule(time.Second)
	require.NoError(t, err)
	sweeper.Start()
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		rows, err := m.ListAchievementsBySchedule(context.Background(), sched.ID)
		return err == nil && len(rows) == 1 && rows[0].EcoActionID == action.ID
	}, 5*time.Second, 50*time.Millisecond, "sweep should derive the missing row")
}

func TestSweeper_RejectsNonPositiveInterval(t *testing.T) {
	sweeper := ecotrack.NewSweeper(ecotrack.NewReconciler(store.NewMemory()))
	_, err := sweeper.Schedule(0)
	assert.Error(t, err)
}
