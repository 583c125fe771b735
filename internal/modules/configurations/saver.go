package configurations

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/events"
)

// SaveBackend persists a configuration name for a flowsheet run.
type SaveBackend interface {
	SaveConfig(ctx context.Context, flowsheetID, name string) error
}

// Saver captures a user-chosen name for the currently displayed result and
// requests its persistence.
//
// One save may be in flight at a time; a concurrent attempt fails with
// ErrSaveInFlight instead of racing the trailing history entry. History is
// only mutated after the backend confirms the save, through
// History.RecordSaved on the draft index the caller pre-allocated.
type Saver struct {
	history  *History
	backend  SaveBackend
	eventBus *events.Bus
	log      zerolog.Logger

	mu       sync.Mutex
	name     string
	inFlight bool

	// onSaved, when set, runs after each confirmed save. The shell uses it
	// to write the history snapshot.
	onSaved func()
}

// NewSaver creates a saver for the current result. The editable name starts
// at "Configuration #N" where N is the history length at mount time.
func NewSaver(history *History, backend SaveBackend, eventBus *events.Bus, log zerolog.Logger) *Saver {
	return &Saver{
		history:  history,
		backend:  backend,
		eventBus: eventBus,
		name:     DefaultName(history.Len()),
		log:      log.With().Str("component", "saver").Logger(),
	}
}

// DefaultName computes the initial configuration name for a history of the
// given length.
func DefaultName(historyLen int) string {
	return fmt.Sprintf("Configuration #%d", historyLen)
}

// Name returns the current configuration name.
func (s *Saver) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// SetName updates the configuration name. Pure local state, always succeeds.
func (s *Saver) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

// OnSaved registers a hook invoked after every confirmed save.
func (s *Saver) OnSaved(fn func()) {
	s.mu.Lock()
	s.onSaved = fn
	s.mu.Unlock()
}

// Save issues exactly one persistence request for the current name, keyed by
// the flowsheet identifier.
//
// Policy violations (save already pending, no draft entry) are returned as
// errors. A backend failure is not an error from Save's perspective: it is
// reported in the SaveResult and as a SaveFailed event, and history is left
// untouched.
func (s *Saver) Save(ctx context.Context, flowsheetID string) (SaveResult, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return SaveResult{}, ErrSaveInFlight
	}
	name := s.name
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	// The draft is addressed by its stable ID, not its position: maintenance
	// pruning can compact the history and shift indices while the backend
	// call is in flight.
	draftID, index, ok := s.history.LastDraft()
	if !ok {
		return SaveResult{}, ErrNoPending
	}

	if err := s.backend.SaveConfig(ctx, flowsheetID, name); err != nil {
		s.log.Error().
			Err(err).
			Str("flowsheet_id", flowsheetID).
			Str("name", name).
			Msg("Configuration save failed")

		if s.eventBus != nil {
			s.eventBus.Publish("configurations", &events.SaveFailedData{
				FlowsheetID: flowsheetID,
				Name:        name,
				Message:     err.Error(),
			})
		}

		return SaveResult{
			Status:  SaveStatusFailed,
			Name:    name,
			Index:   index,
			Message: err.Error(),
		}, nil
	}

	savedIndex, ok := s.history.RecordSavedByID(draftID, name)
	if !ok {
		// The draft vanished while the request was in flight. The backend
		// holds the configuration, but history cannot confirm a save it has
		// no entry for, so report the failure instead of a phantom success.
		msg := "history entry disappeared before the save confirmed"
		s.log.Error().
			Str("flowsheet_id", flowsheetID).
			Str("name", name).
			Msg("Configuration save could not be recorded")

		if s.eventBus != nil {
			s.eventBus.Publish("configurations", &events.SaveFailedData{
				FlowsheetID: flowsheetID,
				Name:        name,
				Message:     msg,
			})
		}

		return SaveResult{
			Status:  SaveStatusFailed,
			Name:    name,
			Index:   index,
			Message: msg,
		}, nil
	}

	s.log.Info().
		Str("flowsheet_id", flowsheetID).
		Str("name", name).
		Int("index", savedIndex).
		Msg("Configuration saved")

	if s.eventBus != nil {
		s.eventBus.Publish("configurations", &events.ConfigSavedData{
			FlowsheetID: flowsheetID,
			Name:        name,
			Index:       savedIndex,
		})
	}

	s.mu.Lock()
	hook := s.onSaved
	s.mu.Unlock()
	if hook != nil {
		hook()
	}

	return SaveResult{
		Status: SaveStatusOK,
		Name:   name,
		Index:  savedIndex,
	}, nil
}
