package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/gestos/internal/config"
	"github.com/ayusman/gestos/internal/store"
)

// Tuner reads and applies live settings such as gesture.cooldown.
type Tuner interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// SettingsHandler serves /api/settings and /api/settings/{key}.
// A PUT applies the value to the running pipeline and persists it;
// a DELETE removes the persisted override.
type SettingsHandler struct {
	tuner Tuner
	store *store.Store
}

// NewSettingsHandler creates the handler. A nil store disables persistence.
func NewSettingsHandler(tuner Tuner, s *store.Store) *SettingsHandler {
	return &SettingsHandler{tuner: tuner, store: s}
}

type setting struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Stored bool   `json:"stored"`
}

type settingsResponse struct {
	Settings []setting `json:"settings"`
}

type putSettingRequest struct {
	Value string `json:"value"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/settings"), "/")

	if key == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w)
		return
	}

	if !overridable(key) {
		writeError(w, http.StatusNotFound, "Unknown setting")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, key)
	case http.MethodPut:
		h.put(w, r, key)
	case http.MethodDelete:
		h.delete(w, key)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) list(w http.ResponseWriter) {
	stored := map[string]string{}
	if h.store != nil {
		all, err := h.store.Settings().All()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load settings")
			return
		}
		stored = all
	}

	response := settingsResponse{Settings: make([]setting, 0, len(config.Overridable))}
	for _, key := range config.Overridable {
		value, _ := h.tuner.Get(key)
		_, ok := stored[key]
		response.Settings = append(response.Settings, setting{Key: key, Value: value, Stored: ok})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *SettingsHandler) get(w http.ResponseWriter, key string) {
	value, _ := h.tuner.Get(key)
	s := setting{Key: key, Value: value}
	if h.store != nil {
		if _, err := h.store.Settings().Get(key); err == nil {
			s.Stored = true
		}
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request, key string) {
	var req putSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.tuner.Set(key, req.Value); err != nil {
		if errors.Is(err, config.ErrInvalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s := setting{Key: key}
	s.Value, _ = h.tuner.Get(key)
	if h.store != nil {
		if err := h.store.Settings().Set(key, s.Value); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save setting")
			return
		}
		s.Stored = true
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *SettingsHandler) delete(w http.ResponseWriter, key string) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "Setting not stored")
		return
	}
	if err := h.store.Settings().Delete(key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Setting not stored")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete setting")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func overridable(key string) bool {
	for _, k := range config.Overridable {
		if k == key {
			return true
		}
	}
	return false
}
