/*
handlers_test.go - HTTP-level tests for the API surface

Tests for:
- Registration/login and bearer-token enforcement
- Schedule lifecycle with derived achievement checklists
- Completion flips and the statistics endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant/eco-engine/ecotrack"
	"github.com/verdant/eco-engine/ecotrack/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	*httptest.Server
	mem *store.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := store.NewMemory()
	fanout := ecotrack.NewFanout(mem)
	fanout.Start(context.Background())
	t.Cleanup(fanout.Stop)

	h := NewHandler(mem, mem, fanout, []byte("test-secret"))
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, mem: mem}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any, out any) *http.Response {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (ts *testServer) register(t *testing.T, email string) string {
	t.Helper()
	var tok TokenResponse
	resp := ts.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email: email, Name: "Tester", Password: "hunter22",
	}, &tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return tok.Token
}

func (ts *testServer) seedCatalog(t *testing.T) (ecotrack.Category, ecotrack.EcoAction) {
	t.Helper()
	ctx := context.Background()
	cat := ecotrack.Category{ID: ecotrack.CategoryID(ecotrack.NewID()), Name: "commuting"}
	require.NoError(t, ts.mem.SaveCategory(ctx, cat))
	action := ecotrack.EcoAction{
		ID:         ecotrack.EcoActionID(ecotrack.NewID()),
		CategoryID: cat.ID,
		Content:    "bike to work",
		Savings:    ecotrack.NewSavings(3.5, 2.1),
	}
	require.NoError(t, ts.mem.SaveEcoAction(ctx, action))
	return cat, action
}

// =============================================================================
// AUTH
// =============================================================================

func TestAPI_RequiresBearerToken(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/schedules", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/statistics/me", "garbage-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_RegisterThenLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "eco@example.com")

	var tok TokenResponse
	resp := ts.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "eco@example.com", Password: "hunter22",
	}, &tok)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, tok.Token)
	assert.Equal(t, "eco@example.com", tok.User.Email)

	resp = ts.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email: "eco@example.com", Name: "Dup", Password: "x",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// =============================================================================
// SCHEDULE LIFECYCLE
// =============================================================================

func TestAPI_ScheduleLifecycle(t *testing.T) {
	// GIVEN: A category with one action and an authenticated user
	// WHEN: Creating a schedule tagged with the category
	// THEN: The response carries the derived checklist; completing the item
	//       moves the statistics counters

	ts := newTestServer(t)
	cat, action := ts.seedCatalog(t)
	token := ts.register(t, "eco@example.com")

	catID := string(cat.ID)
	var sched ScheduleDTO
	resp := ts.do(t, http.MethodPost, "/api/schedules", token, CreateScheduleRequest{
		Title:      "monday commute",
		AllDay:     true,
		CategoryID: &catID,
	}, &sched)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, sched.Achievements, 1)
	assert.Equal(t, string(action.ID), sched.Achievements[0].EcoActionID)
	assert.False(t, sched.Achievements[0].IsCompleted)
	require.NotNil(t, sched.Category)
	assert.Equal(t, "commuting", sched.Category.Name)

	// Complete the achievement.
	var flipped AchievementDTO
	path := fmt.Sprintf("/api/schedules/%s/achievements/%s", sched.ID, action.ID)
	resp = ts.do(t, http.MethodPut, path, token, SetAchievementStatusRequest{IsCompleted: true}, &flipped)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, flipped.IsCompleted)

	var stats StatisticsDTO
	resp = ts.do(t, http.MethodGet, "/api/statistics/me", token, nil, &stats)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "3.5", stats.TotalMoneySaved)
	assert.Equal(t, "2.1", stats.TotalCO2Reduction)

	var overall StatisticsDTO
	resp = ts.do(t, http.MethodGet, "/api/statistics/overall", token, nil, &overall)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "3.5", overall.TotalMoneySaved)

	// Delete cascades the checklist away.
	resp = ts.do(t, http.MethodDelete, "/api/schedules/"+sched.ID, token, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/schedules/"+sched.ID, token, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ScheduleOwnership(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.register(t, "owner@example.com")
	intruder := ts.register(t, "intruder@example.com")

	var sched ScheduleDTO
	resp := ts.do(t, http.MethodPost, "/api/schedules", owner, CreateScheduleRequest{
		Title: "mine", AllDay: true,
	}, &sched)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/schedules/"+sched.ID, intruder, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/schedules/"+sched.ID, intruder, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_CreateSchedule_InvalidPeriod(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "eco@example.com")

	resp := ts.do(t, http.MethodPost, "/api/schedules", token, CreateScheduleRequest{
		Title: "backwards",
		Start: "2026-03-10T12:00:00Z",
		End:   "2026-03-10T11:00:00Z",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// CATALOG
// =============================================================================

func TestAPI_EcoActionMutationsNeedAuth(t *testing.T) {
	ts := newTestServer(t)
	cat, _ := ts.seedCatalog(t)

	body := EcoActionRequest{
		CategoryID: string(cat.ID), Content: "take the bus",
		MoneySaved: "1.2", CO2Reduction: "1.4",
	}
	resp := ts.do(t, http.MethodPost, "/api/eco-actions", "", body, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := ts.register(t, "admin@example.com")
	var created EcoActionDTO
	resp = ts.do(t, http.MethodPost, "/api/eco-actions", token, body, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "1.2", created.MoneySaved)

	// Catalog reads stay public.
	var actions []EcoActionDTO
	resp = ts.do(t, http.MethodGet, "/api/eco-actions?category_id="+string(cat.ID), "", nil, &actions)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, actions, 2)
}

func TestAPI_RecordStatisticsDelta(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "eco@example.com")

	var stats StatisticsDTO
	resp := ts.do(t, http.MethodPost, "/api/statistics/deltas", token, RecordDeltaRequest{
		MoneySaved: "100.5", CO2Reduction: "1.25",
	}, &stats)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "100.5", stats.TotalMoneySaved)

	resp = ts.do(t, http.MethodPost, "/api/statistics/deltas", token, RecordDeltaRequest{
		MoneySaved: "50", CO2Reduction: "0.5",
	}, &stats)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "150.5", stats.TotalMoneySaved)
	assert.Equal(t, "1.75", stats.TotalCO2Reduction)
}
