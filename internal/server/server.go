// Package server provides the gestos status server: health, stats, settings,
// a websocket feed of emitted gestures, an annotated camera preview and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/gestos/internal/logging"
	"github.com/ayusman/gestos/internal/metrics"
	"github.com/ayusman/gestos/internal/server/api"
	"github.com/ayusman/gestos/internal/store"
)

// shutdownTimeout bounds graceful shutdown in ListenAndServe.
const shutdownTimeout = 5 * time.Second

// Config holds the server configuration. Nil fields disable their routes.
type Config struct {
	StaticDir string
	Store     *store.Store
	Stats     api.StatsSource
	Tuner     api.Tuner
	Preview   *Preview
	Metrics   *metrics.Metrics
}

// Server routes the gestos HTTP API.
type Server struct {
	config Config
	mux    *http.ServeMux
	events *EventsHandler
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		events: NewEventsHandler(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/api/events", s.events)

	if s.config.Stats != nil {
		s.mux.Handle("/api/stats", api.NewStatsHandler(s.config.Stats))
	}

	if s.config.Tuner != nil {
		settings := api.NewSettingsHandler(s.config.Tuner, s.config.Store)
		s.mux.Handle("/api/settings", settings)
		s.mux.Handle("/api/settings/", settings)
	}

	if s.config.Store != nil {
		s.mux.Handle("/api/journal", api.NewJournalHandler(s.config.Store))
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics.Handler())
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// Events returns the websocket feed that emitted gestures are published to.
func (s *Server) Events() *EventsHandler {
	return s.events
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status":  "ok",
		"uptime":  time.Since(s.start).Round(time.Second).String(),
		"clients": s.events.Clients(),
		"dropped": s.events.Dropped(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and disconnects websocket clients.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.WithPrefix("server").Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.events.Close()
		return err
	case <-ctx.Done():
	}

	s.events.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
