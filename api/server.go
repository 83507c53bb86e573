/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend
  5. requireAuth: Bearer-token resolution on secure routes

ROUTE GROUPS:
  /api/auth/*         Registration and login (public)
  /api/categories     Catalog reads (public)
  /api/eco-actions/*  Catalog reads (public) and admin mutations
  /api/schedules/*    Authenticated schedule and achievement operations
  /api/statistics/*   Authenticated statistics

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/verdant/eco-engine/ecotrack"
)

type contextKey string

const userContextKey contextKey = "authenticated-user"

// userFromContext returns the user id the middleware resolved. Only valid
// inside requireAuth-protected handlers.
func userFromContext(ctx context.Context) ecotrack.UserID {
	id, _ := ctx.Value(userContextKey).(ecotrack.UserID)
	return id
}

// requireAuth resolves the Bearer token and stores the user id in the
// request context. Requests without a valid token get a 401.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}

		userID, err := h.Auth.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})
		r.Get("/categories", h.ListCategories)
		r.Get("/eco-actions", h.ListEcoActions)

		// Admin mutation path for the eco-action catalog. Updates ripple
		// into every schedule via the reconciliation fan-out.
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/eco-actions", h.CreateEcoAction)
			r.Put("/eco-actions/{id}", h.UpdateEcoAction)
		})

		// Authenticated user routes
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Route("/schedules", func(r chi.Router) {
				r.Get("/", h.ListSchedules)
				r.Post("/", h.CreateSchedule)
				r.Get("/{id}", h.GetSchedule)
				r.Put("/{id}", h.UpdateSchedule)
				r.Delete("/{id}", h.DeleteSchedule)
				r.Put("/{id}/achievements/{ecoActionID}", h.SetAchievementStatus)
			})

			r.Route("/statistics", func(r chi.Router) {
				r.Get("/me", h.GetMyStatistics)
				r.Get("/overall", h.GetOverallStatistics)
				r.Post("/deltas", h.RecordStatisticsDelta)
			})
		})
	})

	return r
}
