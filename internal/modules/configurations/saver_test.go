package configurations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/events"
)

const (
	testWait = 2 * time.Second
	testTick = 5 * time.Millisecond
)

// fakeBackend records save calls and can fail or block on demand.
type fakeBackend struct {
	mu      sync.Mutex
	calls   int
	lastID  string
	lastNme string
	err     error
	block   chan struct{} // when set, SaveConfig waits until closed
}

func (f *fakeBackend) SaveConfig(ctx context.Context, flowsheetID, name string) error {
	f.mu.Lock()
	f.calls++
	f.lastID = flowsheetID
	f.lastNme = name
	block := f.block
	err := f.err
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "Configuration #0", DefaultName(0))
	assert.Equal(t, "Configuration #3", DefaultName(3))
}

func TestNewSaver_DefaultNameFromHistoryLength(t *testing.T) {
	h := NewHistory(testLog())
	h.AppendDraft()
	h.AppendDraft()
	h.AppendDraft()

	s := NewSaver(h, &fakeBackend{}, nil, testLog())
	assert.Equal(t, "Configuration #3", s.Name())
}

func TestSaver_SetName(t *testing.T) {
	s := NewSaver(NewHistory(testLog()), &fakeBackend{}, nil, testLog())
	s.SetName("Run 1")
	assert.Equal(t, "Run 1", s.Name())
}

func TestSaver_SuccessNamesTrailingDraft(t *testing.T) {
	h := NewHistory(testLog())
	h.AppendDraft()
	h.RecordSaved(0, "earlier")
	index := h.AppendDraft()

	backend := &fakeBackend{}
	s := NewSaver(h, backend, nil, testLog())
	s.SetName("Run 1")

	result, err := s.Save(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, SaveStatusOK, result.Status)
	assert.Equal(t, "Run 1", result.Name)
	assert.Equal(t, index, result.Index)

	records := h.List()
	require.Len(t, records, 2)
	assert.Equal(t, "Run 1", records[1].Name)
	// Earlier entry untouched, no new entry created by save itself
	assert.Equal(t, "earlier", records[0].Name)
	assert.Equal(t, 2, h.Len())

	assert.Equal(t, 1, backend.callCount())
	assert.Equal(t, "abc123", backend.lastID)
	assert.Equal(t, "Run 1", backend.lastNme)
}

func TestSaver_FailureLeavesHistoryUntouched(t *testing.T) {
	h := NewHistory(testLog())
	h.AppendDraft()

	bus := events.NewBus()
	eventCh, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	backend := &fakeBackend{err: errors.New("boom")}
	s := NewSaver(h, backend, bus, testLog())
	s.SetName("Run 1")

	result, err := s.Save(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, SaveStatusFailed, result.Status)
	assert.Contains(t, result.Message, "boom")

	records := h.List()
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Name)
	assert.False(t, records[0].Saved)

	// Failure is observable on the event stream
	evt := <-eventCh
	assert.Equal(t, events.SaveFailed, evt.Type)
}

func TestSaver_SuccessEmitsConfigSaved(t *testing.T) {
	h := NewHistory(testLog())
	h.AppendDraft()

	bus := events.NewBus()
	eventCh, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	s := NewSaver(h, &fakeBackend{}, bus, testLog())
	s.SetName("Run 2")

	_, err := s.Save(context.Background(), "fs-9")
	require.NoError(t, err)

	evt := <-eventCh
	assert.Equal(t, events.ConfigSaved, evt.Type)
	data, ok := evt.Data.(*events.ConfigSavedData)
	require.True(t, ok)
	assert.Equal(t, "Run 2", data.Name)
	assert.Equal(t, "fs-9", data.FlowsheetID)
}

func TestSaver_NoPendingDraft(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(h *History)
	}{
		{"empty history", func(h *History) {}},
		{"trailing entry already saved", func(h *History) {
			h.AppendDraft()
			h.RecordSaved(0, "done")
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHistory(testLog())
			tc.prepare(h)

			backend := &fakeBackend{}
			s := NewSaver(h, backend, nil, testLog())

			_, err := s.Save(context.Background(), "abc123")
			assert.ErrorIs(t, err, ErrNoPending)
			assert.Equal(t, 0, backend.callCount())
		})
	}
}

func TestSaver_RejectsConcurrentSave(t *testing.T) {
	h := NewHistory(testLog())
	h.AppendDraft()

	block := make(chan struct{})
	backend := &fakeBackend{block: block}
	s := NewSaver(h, backend, nil, testLog())

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Save(context.Background(), "abc123")
		firstDone <- err
	}()

	// Wait for the first save to reach the backend
	require.Eventually(t, func() bool { return backend.callCount() == 1 },
		testWait, testTick)

	_, err := s.Save(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrSaveInFlight)

	close(block)
	require.NoError(t, <-firstDone)

	// Once the first save resolves, saving is possible again
	h.AppendDraft()
	_, err = s.Save(context.Background(), "abc123")
	assert.NoError(t, err)
}

func TestSaver_SurvivesPruneDuringSave(t *testing.T) {
	h := NewHistory(testLog())
	h.AppendDraft() // stale draft, pruned mid-save
	h.AppendDraft() // the draft being saved

	block := make(chan struct{})
	backend := &fakeBackend{block: block}
	s := NewSaver(h, backend, nil, testLog())
	s.SetName("Run 1")

	done := make(chan SaveResult, 1)
	go func() {
		result, err := s.Save(context.Background(), "abc123")
		require.NoError(t, err)
		done <- result
	}()

	require.Eventually(t, func() bool { return backend.callCount() == 1 },
		testWait, testTick)

	// Maintenance compacts the history while the backend call is in flight;
	// the draft being saved shifts from index 1 to index 0.
	require.Equal(t, 1, h.PruneStaleDrafts(-time.Hour))

	close(block)
	result := <-done

	assert.Equal(t, SaveStatusOK, result.Status)
	assert.Equal(t, 0, result.Index)

	records := h.List()
	require.Len(t, records, 1)
	assert.Equal(t, "Run 1", records[0].Name)
	assert.True(t, records[0].Saved)
}

func TestSaver_DraftRemovedDuringSaveReportsFailure(t *testing.T) {
	h := NewHistory(testLog())
	h.AppendDraft() // the draft being saved

	bus := events.NewBus()
	eventCh, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	block := make(chan struct{})
	backend := &fakeBackend{block: block}
	s := NewSaver(h, backend, bus, testLog())
	s.SetName("Run 1")

	done := make(chan SaveResult, 1)
	go func() {
		result, err := s.Save(context.Background(), "abc123")
		require.NoError(t, err)
		done <- result
	}()

	require.Eventually(t, func() bool { return backend.callCount() == 1 },
		testWait, testTick)

	// A newer draft demotes the in-flight one from the trailing slot, then
	// pruning removes it entirely before the backend confirms.
	h.AppendDraft()
	require.Equal(t, 1, h.PruneStaleDrafts(-time.Hour))

	close(block)
	result := <-done

	assert.Equal(t, SaveStatusFailed, result.Status)
	assert.NotEmpty(t, result.Message)

	records := h.List()
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Name)
	assert.False(t, records[0].Saved)

	evt := <-eventCh
	assert.Equal(t, events.SaveFailed, evt.Type)
}

func TestSaver_OnSavedHookRunsAfterSuccess(t *testing.T) {
	h := NewHistory(testLog())
	h.AppendDraft()

	s := NewSaver(h, &fakeBackend{}, nil, testLog())

	ran := false
	s.OnSaved(func() { ran = true })

	_, err := s.Save(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestSaver_OnSavedHookSkippedOnFailure(t *testing.T) {
	h := NewHistory(testLog())
	h.AppendDraft()

	s := NewSaver(h, &fakeBackend{err: errors.New("down")}, nil, testLog())

	ran := false
	s.OnSaved(func() { ran = true })

	_, err := s.Save(context.Background(), "abc123")
	require.NoError(t, err)
	assert.False(t, ran)
}
