// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/verdant/eco-engine/auth"
	"github.com/verdant/eco-engine/ecotrack"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type achievementKey struct {
	ScheduleID  ecotrack.ScheduleID
	EcoActionID ecotrack.EcoActionID
}

type Memory struct {
	mu           sync.RWMutex
	users        map[ecotrack.UserID]auth.User
	categories   map[ecotrack.CategoryID]ecotrack.Category
	actions      map[ecotrack.EcoActionID]ecotrack.EcoAction
	schedules    map[ecotrack.ScheduleID]ecotrack.Schedule
	achievements map[achievementKey]ecotrack.Achievement
	userStats    map[ecotrack.UserID]ecotrack.Savings
	overall      ecotrack.Savings
	overallAt    time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[ecotrack.UserID]auth.User),
		categories:   make(map[ecotrack.CategoryID]ecotrack.Category),
		actions:      make(map[ecotrack.EcoActionID]ecotrack.EcoAction),
		schedules:    make(map[ecotrack.ScheduleID]ecotrack.Schedule),
		achievements: make(map[achievementKey]ecotrack.Achievement),
		userStats:    make(map[ecotrack.UserID]ecotrack.Savings),
	}
}

// =============================================================================
// USER STORE (auth.UserStore)
// =============================================================================

func (m *Memory) SaveUser(_ context.Context, u auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *Memory) GetUser(_ context.Context, id ecotrack.UserID) (*auth.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// =============================================================================
// CATEGORY STORE
// =============================================================================

func (m *Memory) GetCategory(_ context.Context, id ecotrack.CategoryID) (*ecotrack.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) ListCategories(_ context.Context) ([]ecotrack.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ecotrack.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveCategory(_ context.Context, c ecotrack.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return nil
}

// =============================================================================
// ECO-ACTION STORE
// =============================================================================

func (m *Memory) GetEcoAction(_ context.Context, id ecotrack.EcoActionID) (*ecotrack.EcoAction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actions[id]
	if !ok {
		return nil, ecotrack.ErrEcoActionNotFound
	}
	return &a, nil
}

func (m *Memory) ListEcoActions(_ context.Context) ([]ecotrack.EcoAction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ecotrack.EcoAction, 0, len(m.actions))
	for _, a := range m.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListEcoActionsByCategory(_ context.Context, categoryID ecotrack.CategoryID) ([]ecotrack.EcoAction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ecotrack.EcoAction
	for _, a := range m.actions {
		if a.CategoryID == categoryID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveEcoAction(_ context.Context, a ecotrack.EcoAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[a.ID] = a
	return nil
}

// =============================================================================
// SCHEDULE STORE
// =============================================================================

func (m *Memory) GetSchedule(_ context.Context, id ecotrack.ScheduleID) (*ecotrack.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, ecotrack.ErrScheduleNotFound
	}
	return &s, nil
}

func (m *Memory) ListSchedulesByUser(_ context.Context, userID ecotrack.UserID) ([]ecotrack.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ecotrack.Schedule
	for _, s := range m.schedules {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListScheduleIDs(_ context.Context) ([]ecotrack.ScheduleID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ecotrack.ScheduleID, 0, len(m.schedules))
	for id := range m.schedules {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *Memory) SaveSchedule(_ context.Context, s ecotrack.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[s.ID] = s
	return nil
}

// DeleteSchedule removes the schedule and cascades to its achievements under
// one lock, matching the atomicity contract.
func (m *Memory) DeleteSchedule(_ context.Context, id ecotrack.ScheduleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return ecotrack.ErrScheduleNotFound
	}
	delete(m.schedules, id)
	for k := range m.achievements {
		if k.ScheduleID == id {
			delete(m.achievements, k)
		}
	}
	return nil
}

// =============================================================================
// ACHIEVEMENT STORE
// =============================================================================

func (m *Memory) CreateAchievement(_ context.Context, a ecotrack.Achievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := achievementKey{ScheduleID: a.ScheduleID, EcoActionID: a.EcoActionID}
	if _, ok := m.achievements[k]; ok {
		return ecotrack.ErrDuplicateAchievement
	}
	m.achievements[k] = a
	return nil
}

func (m *Memory) FindAchievement(_ context.Context, scheduleID ecotrack.ScheduleID, ecoActionID ecotrack.EcoActionID) (*ecotrack.Achievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.achievements[achievementKey{ScheduleID: scheduleID, EcoActionID: ecoActionID}]
	if !ok {
		return nil, ecotrack.ErrAchievementNotFound
	}
	return &a, nil
}

func (m *Memory) ListAchievementsBySchedule(_ context.Context, scheduleID ecotrack.ScheduleID) ([]ecotrack.Achievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ecotrack.Achievement
	for k, a := range m.achievements {
		if k.ScheduleID == scheduleID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EcoActionID < out[j].EcoActionID })
	return out, nil
}

func (m *Memory) DeleteAchievement(_ context.Context, scheduleID ecotrack.ScheduleID, ecoActionID ecotrack.EcoActionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.achievements, achievementKey{ScheduleID: scheduleID, EcoActionID: ecoActionID})
	return nil
}

func (m *Memory) SetAchievementCompleted(_ context.Context, scheduleID ecotrack.ScheduleID, ecoActionID ecotrack.EcoActionID, completed bool, at time.Time) (*ecotrack.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := achievementKey{ScheduleID: scheduleID, EcoActionID: ecoActionID}
	a, ok := m.achievements[k]
	if !ok {
		return nil, ecotrack.ErrAchievementNotFound
	}
	a.IsCompleted = completed
	a.AchievedAt = at
	m.achievements[k] = a
	return &a, nil
}

// =============================================================================
// STATISTICS STORE
// =============================================================================

func (m *Memory) EnsureUserStats(_ context.Context, userID ecotrack.UserID) (*ecotrack.UserStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals, ok := m.userStats[userID]
	if !ok {
		m.userStats[userID] = ecotrack.Savings{}
		totals = m.userStats[userID]
	}
	return &ecotrack.UserStatistics{UserID: userID, Totals: totals}, nil
}

func (m *Memory) ApplyStatsDelta(_ context.Context, userID ecotrack.UserID, delta ecotrack.Savings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userStats[userID] = m.userStats[userID].Add(delta)
	m.overall = m.overall.Add(delta)
	m.overallAt = time.Now().UTC()
	return nil
}

func (m *Memory) GetUserStats(_ context.Context, userID ecotrack.UserID) (*ecotrack.UserStatistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	totals, ok := m.userStats[userID]
	if !ok {
		return nil, ecotrack.ErrUserNotFound
	}
	return &ecotrack.UserStatistics{UserID: userID, Totals: totals}, nil
}

func (m *Memory) GetOverallStats(_ context.Context) (*ecotrack.OverallStatistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &ecotrack.OverallStatistics{Totals: m.overall, CalculatedAt: m.overallAt}, nil
}

// ComputeUserSavings walks Schedule -> Achievement -> EcoAction the way the
// SQL join does.
func (m *Memory) ComputeUserSavings(_ context.Context, userID ecotrack.UserID) (ecotrack.Savings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total ecotrack.Savings
	for k, a := range m.achievements {
		if !a.IsCompleted {
			continue
		}
		sched, ok := m.schedules[k.ScheduleID]
		if !ok || sched.UserID != userID {
			continue
		}
		action, ok := m.actions[k.EcoActionID]
		if !ok {
			continue
		}
		total = total.Add(action.Savings)
	}
	return total, nil
}
