package configurations

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestHistory_AppendDraftAssignsSequentialIndexes(t *testing.T) {
	h := NewHistory(testLog())

	assert.Equal(t, 0, h.AppendDraft())
	assert.Equal(t, 1, h.AppendDraft())
	assert.Equal(t, 2, h.Len())

	records := h.List()
	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.False(t, records[0].Saved)
	assert.Empty(t, records[0].Name)
}

func TestHistory_RecordSavedNamesOnlyThatEntry(t *testing.T) {
	h := NewHistory(testLog())
	h.AppendDraft()
	h.AppendDraft()
	index := h.AppendDraft()

	require.True(t, h.RecordSaved(index, "Run 1"))

	records := h.List()
	require.Len(t, records, 3)
	assert.Equal(t, "Run 1", records[2].Name)
	assert.True(t, records[2].Saved)
	// No other element altered, length unchanged
	assert.Empty(t, records[0].Name)
	assert.Empty(t, records[1].Name)
	assert.Equal(t, 3, h.Len())
}

func TestHistory_RecordSavedOutOfRange(t *testing.T) {
	h := NewHistory(testLog())
	assert.False(t, h.RecordSaved(0, "x"))
	assert.False(t, h.RecordSaved(-1, "x"))
	assert.Equal(t, 0, h.Len())
}

func TestHistory_RecordSavedByID(t *testing.T) {
	h := NewHistory(testLog())
	h.restore([]ConfigurationRecord{
		{ID: "a"},
		{ID: "b"},
	})

	index, ok := h.RecordSavedByID("a", "Run 1")
	require.True(t, ok)
	assert.Equal(t, 0, index)

	records := h.List()
	assert.Equal(t, "Run 1", records[0].Name)
	assert.True(t, records[0].Saved)
	assert.Empty(t, records[1].Name)

	// IDs stay valid across index shifts
	h.restore([]ConfigurationRecord{{ID: "b"}})
	index, ok = h.RecordSavedByID("b", "Run 2")
	require.True(t, ok)
	assert.Equal(t, 0, index)

	_, ok = h.RecordSavedByID("gone", "x")
	assert.False(t, ok)
}

func TestHistory_LastDraft(t *testing.T) {
	h := NewHistory(testLog())
	_, _, ok := h.LastDraft()
	assert.False(t, ok)

	h.AppendDraft()
	index := h.AppendDraft()

	id, gotIndex, ok := h.LastDraft()
	require.True(t, ok)
	assert.Equal(t, index, gotIndex)
	assert.Equal(t, h.List()[index].ID, id)

	h.RecordSaved(index, "done")
	_, _, ok = h.LastDraft()
	assert.False(t, ok)
}

func TestHistory_LastDraftIndex(t *testing.T) {
	h := NewHistory(testLog())
	assert.Equal(t, -1, h.LastDraftIndex())

	index := h.AppendDraft()
	assert.Equal(t, index, h.LastDraftIndex())

	h.RecordSaved(index, "done")
	assert.Equal(t, -1, h.LastDraftIndex())
}

func TestHistory_ListReturnsCopy(t *testing.T) {
	h := NewHistory(testLog())
	h.AppendDraft()

	records := h.List()
	records[0].Name = "mutated"

	assert.Empty(t, h.List()[0].Name)
}

func TestHistory_PruneStaleDrafts(t *testing.T) {
	h := NewHistory(testLog())
	old := time.Now().Add(-2 * time.Hour).Unix()

	h.restore([]ConfigurationRecord{
		{ID: "a", Name: "kept", Saved: true, CreatedAt: old},
		{ID: "b", CreatedAt: old},               // stale draft
		{ID: "c", CreatedAt: time.Now().Unix()}, // fresh draft
		{ID: "d", CreatedAt: old},               // trailing draft, spared
	})

	removed := h.PruneStaleDrafts(time.Hour)
	assert.Equal(t, 1, removed)

	records := h.List()
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "c", records[1].ID)
	assert.Equal(t, "d", records[2].ID)
}
