package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/gestos/internal/gesture"
	"github.com/ayusman/gestos/internal/store"
)

// Stats is the live pipeline summary served at /api/stats.
type Stats struct {
	Enabled   bool          `json:"enabled"`
	Mode      string        `json:"mode"`
	State     string        `json:"state"`
	Provider  string        `json:"provider"`
	Debouncer gesture.Stats `json:"debouncer"`
}

// StatsSource reports the live pipeline state.
type StatsSource interface {
	Stats() Stats
}

// StatsHandler serves GET /api/stats.
type StatsHandler struct {
	source StatsSource
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(source StatsSource) *StatsHandler {
	return &StatsHandler{source: source}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.source.Stats())
}

// DefaultJournalLimit is the number of events returned without ?limit.
const DefaultJournalLimit = 50

// maxJournalLimit caps ?limit.
const maxJournalLimit = 1000

// JournalHandler serves GET /api/journal?limit=n from the gesture journal.
type JournalHandler struct {
	store *store.Store
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(s *store.Store) *JournalHandler {
	return &JournalHandler{store: s}
}

type journalResponse struct {
	Total  int                   `json:"total"`
	Counts map[gesture.Label]int `json:"counts"`
	Events []store.Event         `json:"events"`
}

func (h *JournalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := DefaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	journal := h.store.Journal()
	events, err := journal.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read journal")
		return
	}
	total, err := journal.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read journal")
		return
	}
	counts, err := journal.CountByLabel()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read journal")
		return
	}

	writeJSON(w, http.StatusOK, journalResponse{Total: total, Counts: counts, Events: events})
}
