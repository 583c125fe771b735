package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/events"
)

// EventsStreamHandler handles Server-Sent Events (SSE) streaming of UI
// events: save confirmations, save failures, and result arrivals.
type EventsStreamHandler struct {
	eventBus *events.Bus
	log      zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler.
func NewEventsStreamHandler(eventBus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus: eventBus,
		log:      log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/stream requests (SSE).
// An optional "types" query parameter holds a comma-separated list of event
// types to forward; everything else is dropped for that connection.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// The server's write timeout would sever the stream before the first
	// heartbeat. Long-lived connections manage their own lifetime through the
	// request context, so clear the deadline for this response.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.log.Warn().Err(err).Msg("Failed to clear stream write deadline")
	}

	var allowedTypes map[events.EventType]bool
	if typesFilter := r.URL.Query().Get("types"); typesFilter != "" {
		allowedTypes = make(map[events.EventType]bool)
		for _, t := range strings.Split(typesFilter, ",") {
			allowedTypes[events.EventType(strings.TrimSpace(t))] = true
		}
	}

	eventChan, unsubscribe := h.eventBus.Subscribe()
	defer unsubscribe()

	h.log.Info().Msg("Client connected to event stream")
	defer h.log.Info().Msg("Client disconnected from event stream")

	// Initial comment so proxies start forwarding immediately
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()

		case evt, open := <-eventChan:
			if !open {
				return
			}
			if allowedTypes != nil && !allowedTypes[evt.Type] {
				continue
			}

			data, err := json.Marshal(evt)
			if err != nil {
				h.log.Warn().Err(err).Str("event_type", string(evt.Type)).Msg("Failed to marshal event")
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
		}
	}
}
