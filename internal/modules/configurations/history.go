package configurations

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// History is the thread-safe, append-only run history owned by the app
// shell. It outlives individual renders and save attempts.
//
// The save flow is two-phase: AppendDraft pre-allocates an unnamed entry and
// returns its index, and RecordSaved fills the name in once the backend has
// confirmed the save. A failed save leaves the draft untouched, so history
// content never reflects a save that did not happen.
type History struct {
	mu      sync.RWMutex
	records []ConfigurationRecord
	log     zerolog.Logger
}

// NewHistory creates an empty run history.
func NewHistory(log zerolog.Logger) *History {
	return &History{
		log: log.With().Str("component", "history").Logger(),
	}
}

// Len returns the number of history entries, drafts included.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// List returns a copy of the history in order.
func (h *History) List() []ConfigurationRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ConfigurationRecord, len(h.records))
	copy(out, h.records)
	return out
}

// AppendDraft appends an unnamed placeholder entry for an in-progress result
// and returns its index. Call this before invoking Saver.Save.
func (h *History) AppendDraft() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, ConfigurationRecord{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().Unix(),
	})
	index := len(h.records) - 1

	h.log.Debug().Int("index", index).Msg("History draft appended")
	return index
}

// RecordSaved sets the name of the entry at index after a confirmed save.
// The history length never changes here; only the named entry is altered.
func (h *History) RecordSaved(index int, name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if index < 0 || index >= len(h.records) {
		h.log.Warn().Int("index", index).Msg("RecordSaved index out of range")
		return false
	}

	h.records[index].Name = name
	h.records[index].Saved = true

	h.log.Debug().Int("index", index).Str("name", name).Msg("History entry named")
	return true
}

// RecordSavedByID names the entry with the given ID after a confirmed save
// and returns its current index. IDs are stable while indices shift when
// pruning compacts the history, so in-flight saves address their draft by ID.
func (h *History) RecordSavedByID(id, name string) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.records {
		if h.records[i].ID != id {
			continue
		}
		h.records[i].Name = name
		h.records[i].Saved = true

		h.log.Debug().Int("index", i).Str("name", name).Msg("History entry named")
		return i, true
	}

	h.log.Warn().Str("id", id).Msg("RecordSavedByID entry not found")
	return -1, false
}

// LastDraftIndex returns the index of the trailing entry if it is still an
// unsaved draft, or -1 when there is nothing pending.
func (h *History) LastDraftIndex() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	last := len(h.records) - 1
	if last < 0 || h.records[last].Saved {
		return -1
	}
	return last
}

// LastDraft returns the trailing entry's ID and index if it is still an
// unsaved draft.
func (h *History) LastDraft() (string, int, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	last := len(h.records) - 1
	if last < 0 || h.records[last].Saved {
		return "", -1, false
	}
	return h.records[last].ID, last, true
}

// PruneStaleDrafts removes unsaved drafts older than maxAge, except the
// trailing entry, which may still have a save pending. Returns the number of
// entries removed.
func (h *History) PruneStaleDrafts(maxAge time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-maxAge).Unix()
	kept := h.records[:0]
	removed := 0
	for i, rec := range h.records {
		stale := !rec.Saved && rec.CreatedAt < cutoff && i != len(h.records)-1
		if stale {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	h.records = kept

	if removed > 0 {
		h.log.Info().Int("removed", removed).Msg("Pruned stale history drafts")
	}
	return removed
}

// restore replaces the history contents. Used by the snapshot loader at
// startup, before any other goroutine holds a reference.
func (h *History) restore(records []ConfigurationRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append([]ConfigurationRecord(nil), records...)
}
