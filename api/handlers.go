/*
handlers.go - HTTP API handlers for the eco-action tracking engine

PURPOSE:
  Exposes the tracking engine via REST. Handles HTTP request/response and
  JSON serialization, delegates everything else to the domain services.

ENDPOINTS:
  Auth:
    POST   /api/auth/register
    POST   /api/auth/login

  Catalog:
    GET    /api/categories
    GET    /api/eco-actions (?category_id=)
    POST   /api/eco-actions              (admin; ripples via fan-out)
    PUT    /api/eco-actions/{id}         (admin; ripples via fan-out)

  Schedules (authenticated owner only):
    GET    /api/schedules
    POST   /api/schedules
    GET    /api/schedules/{id}
    PUT    /api/schedules/{id}
    DELETE /api/schedules/{id}
    PUT    /api/schedules/{id}/achievements/{ecoActionID}

  Statistics:
    GET    /api/statistics/me
    GET    /api/statistics/overall
    POST   /api/statistics/deltas

ERROR HANDLING:
  Errors map onto HTTP status by domain taxonomy:
  - 400: Validation errors, invalid input
  - 401: Missing/invalid token
  - 403: Ownership violation
  - 404: Resource not found
  - 409: Duplicate (achievement natural key, email taken)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/verdant/eco-engine/auth"
	"github.com/verdant/eco-engine/ecotrack"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Auth         *auth.Service
	Schedules    *ecotrack.ScheduleService
	Achievements *ecotrack.AchievementService
	EcoActions   *ecotrack.EcoActionService
	Stats        *ecotrack.StatsService
	Categories   ecotrack.CategoryStore
}

// NewHandler wires the handler against one store and one fan-out worker.
func NewHandler(store ecotrack.Store, users auth.UserStore, fanout *ecotrack.Fanout, jwtSecret []byte) *Handler {
	return &Handler{
		Auth:         auth.NewService(users, jwtSecret),
		Schedules:    ecotrack.NewScheduleService(store),
		Achievements: ecotrack.NewAchievementService(store),
		EcoActions:   ecotrack.NewEcoActionService(store, fanout),
		Stats:        ecotrack.NewStatsService(store),
		Categories:   store,
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Auth.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, http.StatusConflict, "Email already registered", nil)
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, "Email and password are required", nil)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to register", err)
		}
		return
	}

	token, err := h.Auth.IssueToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusCreated, TokenResponse{Token: token, User: toUserDTO(user)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	token, user, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to log in", err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, User: toUserDTO(user)})
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Categories.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}

	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = CategoryDTO{ID: string(c.ID), Name: c.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListEcoActions(w http.ResponseWriter, r *http.Request) {
	var (
		actions []ecotrack.EcoAction
		err     error
	)
	if cid := r.URL.Query().Get("category_id"); cid != "" {
		actions, err = h.EcoActions.Actions.ListEcoActionsByCategory(r.Context(), ecotrack.CategoryID(cid))
	} else {
		actions, err = h.EcoActions.Actions.ListEcoActions(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list eco actions", err)
		return
	}

	dtos := make([]EcoActionDTO, len(actions))
	for i, a := range actions {
		dtos[i] = toEcoActionDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) decodeEcoActionInput(w http.ResponseWriter, r *http.Request) (ecotrack.EcoActionInput, bool) {
	var req EcoActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return ecotrack.EcoActionInput{}, false
	}
	money, err := decimal.NewFromString(req.MoneySaved)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid money_saved amount", err)
		return ecotrack.EcoActionInput{}, false
	}
	co2, err := decimal.NewFromString(req.CO2Reduction)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid co2_reduction amount", err)
		return ecotrack.EcoActionInput{}, false
	}
	return ecotrack.EcoActionInput{
		CategoryID: ecotrack.CategoryID(req.CategoryID),
		Content:    req.Content,
		MoneySaved: money,
		CO2Saved:   co2,
	}, true
}

func (h *Handler) CreateEcoAction(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeEcoActionInput(w, r)
	if !ok {
		return
	}

	action, err := h.EcoActions.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, ecotrack.ErrInvalidCategoryRef) {
			writeError(w, http.StatusBadRequest, "Unknown category", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create eco action", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEcoActionDTO(*action))
}

func (h *Handler) UpdateEcoAction(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeEcoActionInput(w, r)
	if !ok {
		return
	}

	action, err := h.EcoActions.Update(r.Context(), ecotrack.EcoActionID(chi.URLParam(r, "id")), in)
	if err != nil {
		switch {
		case errors.Is(err, ecotrack.ErrEcoActionNotFound):
			writeError(w, http.StatusNotFound, "Eco action not found", nil)
		case errors.Is(err, ecotrack.ErrInvalidCategoryRef):
			writeError(w, http.StatusBadRequest, "Unknown category", nil)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to update eco action", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toEcoActionDTO(*action))
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	schedules, err := h.Schedules.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list schedules", err)
		return
	}

	dtos := make([]ScheduleDTO, len(schedules))
	for i := range schedules {
		dtos[i] = h.scheduleDTO(r, &schedules[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := ecotrack.ScheduleInput{
		Title:       req.Title,
		Description: req.Description,
		AllDay:      req.AllDay,
	}
	var err error
	if in.Start, err = parseTime(req.Start); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start time (use RFC 3339)", err)
		return
	}
	if in.End, err = parseTime(req.End); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end time (use RFC 3339)", err)
		return
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		cid := ecotrack.CategoryID(*req.CategoryID)
		in.CategoryID = &cid
	}

	schedule, err := h.Schedules.Create(r.Context(), userID, in)
	if err != nil {
		if errors.Is(err, ecotrack.ErrInvalidPeriod) {
			writeError(w, http.StatusBadRequest, "Schedule must be all-day or have start before end", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create schedule", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.scheduleDTO(r, schedule))
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())
	id := ecotrack.ScheduleID(chi.URLParam(r, "id"))

	schedule, err := h.Schedules.Get(r.Context(), userID, id)
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.scheduleDTO(r, schedule))
}

func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())
	id := ecotrack.ScheduleID(chi.URLParam(r, "id"))

	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	upd := ecotrack.ScheduleUpdate{
		Title:       req.Title,
		Description: req.Description,
		AllDay:      req.AllDay,
	}
	if req.Start != nil {
		t, err := parseTime(*req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start time (use RFC 3339)", err)
			return
		}
		upd.Start = &t
	}
	if req.End != nil {
		t, err := parseTime(*req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end time (use RFC 3339)", err)
			return
		}
		upd.End = &t
	}
	if req.CategoryID != nil {
		cid := ecotrack.CategoryID(*req.CategoryID)
		upd.CategoryID = &cid
	}

	schedule, err := h.Schedules.Update(r.Context(), userID, id, upd)
	if err != nil {
		if errors.Is(err, ecotrack.ErrInvalidPeriod) {
			writeError(w, http.StatusBadRequest, "Schedule must be all-day or have start before end", nil)
			return
		}
		writeScheduleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.scheduleDTO(r, schedule))
}

func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())
	id := ecotrack.ScheduleID(chi.URLParam(r, "id"))

	if err := h.Schedules.Delete(r.Context(), userID, id); err != nil {
		writeScheduleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// scheduleDTO assembles the nested response: schedule + category +
// achievement checklist. Lookup failures degrade to a flat schedule rather
// than failing the response.
func (h *Handler) scheduleDTO(r *http.Request, s *ecotrack.Schedule) ScheduleDTO {
	dto := ScheduleDTO{
		ID:           string(s.ID),
		Title:        s.Title,
		Description:  s.Description,
		AllDay:       s.AllDay,
		Achievements: []AchievementDTO{},
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339),
	}
	if !s.Start.IsZero() {
		dto.Start = s.Start.Format(time.RFC3339)
	}
	if !s.End.IsZero() {
		dto.End = s.End.Format(time.RFC3339)
	}

	if s.CategoryID != nil {
		if cat, err := h.Categories.GetCategory(r.Context(), *s.CategoryID); err == nil && cat != nil {
			dto.Category = &CategoryDTO{ID: string(cat.ID), Name: cat.Name}
		}
	}

	achievements, err := h.Achievements.Achievements.ListAchievementsBySchedule(r.Context(), s.ID)
	if err != nil {
		log.Printf("Warning: failed to load achievements for schedule %s: %v", s.ID, err)
		return dto
	}
	for _, a := range achievements {
		dto.Achievements = append(dto.Achievements, toAchievementDTO(a))
	}
	return dto
}

// =============================================================================
// ACHIEVEMENT HANDLERS
// =============================================================================

func (h *Handler) SetAchievementStatus(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())
	scheduleID := ecotrack.ScheduleID(chi.URLParam(r, "id"))
	ecoActionID := ecotrack.EcoActionID(chi.URLParam(r, "ecoActionID"))

	var req SetAchievementStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	achievement, err := h.Achievements.SetStatus(r.Context(), userID, scheduleID, ecoActionID, req.IsCompleted)
	if err != nil {
		switch {
		case errors.Is(err, ecotrack.ErrForbidden):
			writeError(w, http.StatusForbidden, "Not authorized for this schedule", nil)
		case ecotrack.IsNotFound(err):
			writeError(w, http.StatusNotFound, "Achievement not found", nil)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to update achievement", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toAchievementDTO(*achievement))
}

// =============================================================================
// STATISTICS HANDLERS
// =============================================================================

func (h *Handler) GetMyStatistics(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	stats, err := h.Stats.ForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatisticsDTO(stats.Totals))
}

func (h *Handler) GetOverallStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.Overall(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatisticsDTO(stats.Totals))
}

func (h *Handler) RecordStatisticsDelta(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	var req RecordDeltaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	money, err := decimal.NewFromString(req.MoneySaved)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid money_saved amount", err)
		return
	}
	co2, err := decimal.NewFromString(req.CO2Reduction)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid co2_reduction amount", err)
		return
	}

	delta := ecotrack.Savings{Money: money, CO2: co2}
	if err := h.Stats.RecordDelta(r.Context(), userID, delta); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record delta", err)
		return
	}

	stats, err := h.Stats.ForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatisticsDTO(stats.Totals))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ecotrack.ErrForbidden):
		writeError(w, http.StatusForbidden, "Not authorized for this schedule", nil)
	case ecotrack.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Schedule not found", nil)
	default:
		writeError(w, http.StatusInternalServerError, "Schedule operation failed", err)
	}
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}
