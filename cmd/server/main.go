/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the eco-action tracking server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store and seed the category catalog
  3. Start the reconciliation fan-out worker and periodic sweep
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port            HTTP server port (default: 8080)
  -db              SQLite database path (default: ecotrack.db)
                   Use ":memory:" for an in-memory database
  -jwt-secret      HMAC secret for access tokens (required outside dev)
  -sweep-interval  Period of the reconciliation drift-repair sweep

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Drain the fan-out queue and stop the sweeper
  4. Close database connection
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verdant/eco-engine/api"
	"github.com/verdant/eco-engine/ecotrack"
	"github.com/verdant/eco-engine/store/sqlite"
)

// seedCategories is the category master data. Upserted by name on every
// start, so restarts are harmless.
var seedCategories = []string{
	"commuting",
	"energy",
	"food",
	"shopping",
	"waste",
	"water",
}

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "ecotrack.db", "SQLite database path")
	jwtSecret := flag.String("jwt-secret", "dev-secret-change-me", "HMAC secret for access tokens")
	sweepInterval := flag.Duration("sweep-interval", time.Hour, "reconciliation sweep period")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, name := range seedCategories {
		c := ecotrack.Category{ID: ecotrack.CategoryID(ecotrack.NewID()), Name: name}
		if err := store.SaveCategory(ctx, c); err != nil {
			log.Fatalf("Failed to seed category %q: %v", name, err)
		}
	}

	// Reconciliation fan-out worker
	fanoutCtx, cancelFanout := context.WithCancel(ctx)
	fanout := ecotrack.NewFanout(store)
	fanout.Start(fanoutCtx)

	// Periodic drift-repair sweep
	sweeper := ecotrack.NewSweeper(ecotrack.NewReconciler(store))
	if _, err := sweeper.Schedule(*sweepInterval); err != nil {
		log.Fatalf("Failed to schedule reconciliation sweep: %v", err)
	}
	sweeper.Start()

	// Router
	handler := api.NewHandler(store, store, fanout, []byte(*jwtSecret))
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	sweeper.Stop()
	cancelFanout()
	fanout.Stop()

	log.Println("Server stopped")
}
