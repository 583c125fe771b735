// Package configurations captures user-chosen names for flowsheet results and
// requests their persistence: the in-memory run history, the namer/saver, the
// stored-configuration repository, and the outbound save client.
package configurations

import "errors"

// Save policy errors. A second save while one is pending is rejected rather
// than raced, and a save with no pre-allocated draft entry is a caller bug.
var (
	ErrSaveInFlight = errors.New("a save is already in flight")
	ErrNoPending    = errors.New("no pending history entry to name")
)

// ConfigurationRecord is one entry of the run history: a user-labeled
// snapshot of one result. A record starts as an unnamed draft and receives
// its name only after the backend confirms the save.
type ConfigurationRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// CreatedAt is a Unix timestamp; drafts that never get saved are pruned
	// by the maintenance job once they exceed the configured age.
	CreatedAt int64 `json:"created_at"`
	Saved     bool  `json:"saved"`
}

// SaveStatus is the terminal state of one save attempt.
type SaveStatus string

const (
	SaveStatusOK     SaveStatus = "ok"
	SaveStatusFailed SaveStatus = "failed"
)

// SaveResult reports the outcome of a save attempt to the caller instead of
// burying it in a log line.
type SaveResult struct {
	Status  SaveStatus `json:"status"`
	Name    string     `json:"name"`
	Index   int        `json:"index"`
	Message string     `json:"message,omitempty"`
}

// SaveRequest is the request body of POST /api/flowsheets/{id}/configs.
type SaveRequest struct {
	Name string `json:"name"`
}

// StoredConfiguration is one persisted configuration row.
type StoredConfiguration struct {
	FlowsheetID string `json:"flowsheet_id"`
	Name        string `json:"name"`
	Data        string `json:"data,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}
