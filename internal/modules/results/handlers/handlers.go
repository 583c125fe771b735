// Package handlers provides HTTP handlers for result rendering endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/events"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/modules/results"
)

// Handler provides HTTP handlers for results endpoints
type Handler struct {
	client   *results.Client
	eventBus *events.Bus
	log      zerolog.Logger
}

// NewHandler creates a new results handler
func NewHandler(client *results.Client, eventBus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		client:   client,
		eventBus: eventBus,
		log:      log.With().Str("handler", "results").Logger(),
	}
}

// HandleGetView handles GET /api/flowsheets/{id}/results
// It fetches the payload fresh from the solver service and returns the
// rendered view model as JSON.
func (h *Handler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	flowsheetID := chi.URLParam(r, "id")
	if flowsheetID == "" {
		http.Error(w, "Flowsheet id is required", http.StatusBadRequest)
		return
	}

	payload, err := h.client.Fetch(r.Context(), flowsheetID)
	if err != nil {
		h.log.Error().Err(err).Str("flowsheet_id", flowsheetID).Msg("Failed to fetch results")
		http.Error(w, "Failed to fetch results", http.StatusBadGateway)
		return
	}

	view := results.BuildView(payload)
	h.publishResultReady(flowsheetID, view)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode results view")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleGetFragment handles GET /api/flowsheets/{id}/results/fragment
// Same view as HandleGetView, rendered as an HTML fragment.
func (h *Handler) HandleGetFragment(w http.ResponseWriter, r *http.Request) {
	flowsheetID := chi.URLParam(r, "id")
	if flowsheetID == "" {
		http.Error(w, "Flowsheet id is required", http.StatusBadRequest)
		return
	}

	payload, err := h.client.Fetch(r.Context(), flowsheetID)
	if err != nil {
		h.log.Error().Err(err).Str("flowsheet_id", flowsheetID).Msg("Failed to fetch results")
		http.Error(w, "Failed to fetch results", http.StatusBadGateway)
		return
	}

	view := results.BuildView(payload)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := results.WriteFragment(w, view); err != nil {
		h.log.Error().Err(err).Msg("Failed to render results fragment")
	}
}

// HandleRender handles POST /api/results/render
// Renders a payload supplied in the request body without contacting the
// solver service. Used by the dev tooling and the desktop shell when the
// payload is already in hand.
func (h *Handler) HandleRender(w http.ResponseWriter, r *http.Request) {
	var payload results.ResultPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	view := results.BuildView(&payload)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode rendered view")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// publishResultReady emits a ResultReady event for non-empty views.
func (h *Handler) publishResultReady(flowsheetID string, view results.View) {
	if h.eventBus == nil || view.Empty() {
		return
	}
	h.eventBus.Publish("results", &events.ResultReadyData{
		FlowsheetID: flowsheetID,
		Sections:    len(view.Sections),
	})
}
