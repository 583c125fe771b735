// Package handlers provides HTTP handlers for configuration naming, saving,
// and history endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/events"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/modules/configurations"
)

// Handler provides HTTP handlers for configuration endpoints.
//
// One Saver exists per flowsheet, created on first use and reset when a new
// result draft arrives, mirroring the view mount lifecycle: the editable
// name starts from the computed default each time a fresh result is shown.
type Handler struct {
	history  *configurations.History
	repo     *configurations.Repository
	backend  configurations.SaveBackend
	eventBus *events.Bus
	log      zerolog.Logger

	mu     sync.Mutex
	savers map[string]*configurations.Saver

	// onSaved is attached to every saver; the shell wires the history
	// snapshot writer here.
	onSaved func()
}

// NewHandler creates a new configurations handler
func NewHandler(
	history *configurations.History,
	repo *configurations.Repository,
	backend configurations.SaveBackend,
	eventBus *events.Bus,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		history:  history,
		repo:     repo,
		backend:  backend,
		eventBus: eventBus,
		savers:   make(map[string]*configurations.Saver),
		log:      log.With().Str("handler", "configurations").Logger(),
	}
}

// SetOnSaved registers a hook attached to every saver (for dependency injection)
func (h *Handler) SetOnSaved(fn func()) {
	h.mu.Lock()
	h.onSaved = fn
	for _, s := range h.savers {
		s.OnSaved(fn)
	}
	h.mu.Unlock()
}

// saverFor returns the saver for a flowsheet, creating it on first use.
func (h *Handler) saverFor(flowsheetID string) *configurations.Saver {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.savers[flowsheetID]
	if !ok {
		s = configurations.NewSaver(h.history, h.backend, h.eventBus, h.log)
		if h.onSaved != nil {
			s.OnSaved(h.onSaved)
		}
		h.savers[flowsheetID] = s
	}
	return s
}

// resetSaver discards the saver for a flowsheet so the next access mounts a
// fresh one with a recomputed default name.
func (h *Handler) resetSaver(flowsheetID string) {
	h.mu.Lock()
	delete(h.savers, flowsheetID)
	h.mu.Unlock()
}

// HandleGetName handles GET /api/flowsheets/{id}/config-name
func (h *Handler) HandleGetName(w http.ResponseWriter, r *http.Request) {
	flowsheetID := chi.URLParam(r, "id")
	if flowsheetID == "" {
		http.Error(w, "Flowsheet id is required", http.StatusBadRequest)
		return
	}

	response := map[string]string{"name": h.saverFor(flowsheetID).Name()}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleSetName handles PUT /api/flowsheets/{id}/config-name
func (h *Handler) HandleSetName(w http.ResponseWriter, r *http.Request) {
	flowsheetID := chi.URLParam(r, "id")
	if flowsheetID == "" {
		http.Error(w, "Flowsheet id is required", http.StatusBadRequest)
		return
	}

	var req configurations.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.saverFor(flowsheetID).SetName(req.Name)

	response := map[string]string{"name": req.Name}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleSave handles POST /api/flowsheets/{id}/configs
// A name in the request body overrides the saver's current name. A pending
// save returns 409; a save with no draft entry returns 409 as well, since
// the caller skipped the pre-allocation step.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	flowsheetID := chi.URLParam(r, "id")
	if flowsheetID == "" {
		http.Error(w, "Flowsheet id is required", http.StatusBadRequest)
		return
	}

	var req configurations.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	saver := h.saverFor(flowsheetID)
	if req.Name != "" {
		saver.SetName(req.Name)
	}

	result, err := saver.Save(r.Context(), flowsheetID)
	if err != nil {
		if errors.Is(err, configurations.ErrSaveInFlight) || errors.Is(err, configurations.ErrNoPending) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.log.Error().Err(err).Str("flowsheet_id", flowsheetID).Msg("Save failed")
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if result.Status == configurations.SaveStatusFailed {
		status = http.StatusBadGateway
	} else if h.repo != nil {
		if err := h.repo.Save(flowsheetID, result.Name, ""); err != nil {
			h.log.Warn().Err(err).Str("name", result.Name).Msg("Failed to store configuration locally")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(result)
}

// HandleList handles GET /api/flowsheets/{id}/configs
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	flowsheetID := chi.URLParam(r, "id")
	if flowsheetID == "" {
		http.Error(w, "Flowsheet id is required", http.StatusBadRequest)
		return
	}

	configs, err := h.repo.List(flowsheetID)
	if err != nil {
		h.log.Error().Err(err).Str("flowsheet_id", flowsheetID).Msg("Failed to list configurations")
		http.Error(w, "Failed to list configurations", http.StatusInternalServerError)
		return
	}
	if configs == nil {
		configs = []configurations.StoredConfiguration{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(configs)
}

// HandleDelete handles DELETE /api/flowsheets/{id}/configs/{name}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	flowsheetID := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")
	if flowsheetID == "" || name == "" {
		http.Error(w, "Flowsheet id and name are required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(flowsheetID, name); err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("Failed to delete configuration")
		http.Error(w, "Failed to delete configuration", http.StatusInternalServerError)
		return
	}

	response := map[string]string{"status": "ok"}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleGetHistory handles GET /api/history
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	records := h.history.List()
	if records == nil {
		records = []configurations.ConfigurationRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// HandleAppendDraft handles POST /api/flowsheets/{id}/history/draft
// The shell calls this when a fresh result arrives, pre-allocating the
// placeholder entry a later save will name. The flowsheet's saver is reset
// so the next mount starts from the recomputed default name.
func (h *Handler) HandleAppendDraft(w http.ResponseWriter, r *http.Request) {
	flowsheetID := chi.URLParam(r, "id")
	if flowsheetID == "" {
		http.Error(w, "Flowsheet id is required", http.StatusBadRequest)
		return
	}

	index := h.history.AppendDraft()
	h.resetSaver(flowsheetID)

	response := map[string]int{"index": index}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
