package configurations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.snapshot")
	snapshot := NewSnapshot(path, testLog())

	h := NewHistory(testLog())
	h.AppendDraft()
	h.RecordSaved(0, "Run 1")
	h.AppendDraft()

	require.NoError(t, snapshot.Write(h))

	restored := NewHistory(testLog())
	require.NoError(t, snapshot.Restore(restored))

	assert.Equal(t, h.List(), restored.List())
}

func TestSnapshot_RestoreMissingFileIsNoop(t *testing.T) {
	snapshot := NewSnapshot(filepath.Join(t.TempDir(), "absent"), testLog())

	h := NewHistory(testLog())
	require.NoError(t, snapshot.Restore(h))
	assert.Equal(t, 0, h.Len())
}

func TestSnapshot_RestoreCorruptFileIsDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.snapshot")
	require.NoError(t, os.WriteFile(path, []byte("not msgpack at all"), 0644))

	h := NewHistory(testLog())
	require.NoError(t, NewSnapshot(path, testLog()).Restore(h))
	assert.Equal(t, 0, h.Len())
}

func TestSnapshot_WriteReplacesPreviousContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.snapshot")
	snapshot := NewSnapshot(path, testLog())

	h := NewHistory(testLog())
	h.AppendDraft()
	require.NoError(t, snapshot.Write(h))

	h.RecordSaved(0, "named later")
	require.NoError(t, snapshot.Write(h))

	restored := NewHistory(testLog())
	require.NoError(t, snapshot.Restore(restored))
	require.Equal(t, 1, restored.Len())
	assert.Equal(t, "named later", restored.List()[0].Name)
}

func TestSnapshot_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.snapshot")
	snapshot := NewSnapshot(path, testLog())

	h := NewHistory(testLog())
	require.NoError(t, snapshot.Write(h))
	require.NoError(t, snapshot.Remove())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Idempotent
	require.NoError(t, snapshot.Remove())
}
