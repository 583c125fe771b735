// Package events provides the in-process event bus feeding the UI event stream.
package events

import (
	"sync"
	"time"
)

// EventType identifies a class of UI-visible event
type EventType string

const (
	// ConfigSaved - a configuration was persisted under a user-chosen name
	ConfigSaved EventType = "CONFIG_SAVED"
	// SaveFailed - a persistence request was rejected or errored
	SaveFailed EventType = "SAVE_FAILED"
	// ResultReady - a fresh result payload was received for display
	ResultReady EventType = "RESULT_READY"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// ConfigSavedData contains data for ConfigSaved events
type ConfigSavedData struct {
	FlowsheetID string `json:"flowsheet_id"`
	Name        string `json:"name"`
	Index       int    `json:"index"`
}

// EventType returns the event type for ConfigSavedData
func (d *ConfigSavedData) EventType() EventType {
	return ConfigSaved
}

// SaveFailedData contains data for SaveFailed events
type SaveFailedData struct {
	FlowsheetID string `json:"flowsheet_id"`
	Name        string `json:"name"`
	Message     string `json:"message"`
}

// EventType returns the event type for SaveFailedData
func (d *SaveFailedData) EventType() EventType {
	return SaveFailed
}

// ResultReadyData contains data for ResultReady events
type ResultReadyData struct {
	FlowsheetID string `json:"flowsheet_id"`
	Sections    int    `json:"sections"`
}

// EventType returns the event type for ResultReadyData
func (d *ResultReadyData) EventType() EventType {
	return ResultReady
}

// Event is a published event with its envelope fields
type Event struct {
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
}

// Bus is a fan-out pub/sub bus for UI events. Subscribers that fall behind
// are dropped rather than allowed to block publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subs: make(map[chan Event]struct{}),
	}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. The channel is buffered; see Publish.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}

	return ch, unsubscribe
}

// Publish delivers an event to all subscribers. A subscriber with a full
// buffer misses the event; the stream carries status, not state of record.
func (b *Bus) Publish(source string, data EventData) {
	evt := Event{
		Type:      data.EventType(),
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
