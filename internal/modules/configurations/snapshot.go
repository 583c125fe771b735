package configurations

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot persists the run history to disk so a restarted shell keeps the
// history of previously computed configurations. The file is msgpack-encoded
// and written atomically via a temp-file rename.
type Snapshot struct {
	path string
	log  zerolog.Logger
}

// snapshotFile is the on-disk shape of a history snapshot.
type snapshotFile struct {
	Version int                   `msgpack:"version"`
	Records []ConfigurationRecord `msgpack:"records"`
}

const snapshotVersion = 1

// NewSnapshot creates a snapshot bound to a file path.
func NewSnapshot(path string, log zerolog.Logger) *Snapshot {
	return &Snapshot{
		path: path,
		log:  log.With().Str("component", "history_snapshot").Logger(),
	}
}

// Write stores the current history contents.
func (s *Snapshot) Write(history *History) error {
	data, err := msgpack.Marshal(snapshotFile{
		Version: snapshotVersion,
		Records: history.List(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode history snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace history snapshot: %w", err)
	}

	s.log.Debug().Str("path", s.path).Int("records", history.Len()).Msg("History snapshot written")
	return nil
}

// Restore loads a snapshot into the history. A missing file is not an error;
// the history simply starts empty. An unreadable or unknown-version file is
// logged and ignored rather than blocking startup.
func (s *Snapshot) Restore(history *History) error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history snapshot: %w", err)
	}

	var file snapshotFile
	if err := msgpack.Unmarshal(data, &file); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("Discarding unreadable history snapshot")
		return nil
	}
	if file.Version != snapshotVersion {
		s.log.Warn().Int("version", file.Version).Msg("Discarding history snapshot with unknown version")
		return nil
	}

	history.restore(file.Records)
	s.log.Info().Int("records", len(file.Records)).Msg("History restored from snapshot")
	return nil
}

// Path returns the snapshot file path.
func (s *Snapshot) Path() string {
	return s.path
}

// Remove deletes the snapshot file. Idempotent.
func (s *Snapshot) Remove() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove history snapshot: %w", err)
	}
	return nil
}

// DefaultSnapshotPath joins a data directory with the snapshot file name.
func DefaultSnapshotPath(dataDir string) string {
	return filepath.Join(dataDir, "history.snapshot")
}
