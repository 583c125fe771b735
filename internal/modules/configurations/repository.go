// This file implements the Repository, which handles configurations stored in
// configurations.db. Each row is one user-labeled snapshot of a solve result,
// keyed by flowsheet and name so re-saving a name replaces the snapshot.
package configurations

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles stored-configuration database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new configurations repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "configurations").Logger(),
	}
}

// Save persists a configuration under a name. Uses upsert so saving the same
// name again replaces the stored data and refreshes updated_at.
func (r *Repository) Save(flowsheetID, name, data string) error {
	now := time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO configurations (flowsheet_id, name, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(flowsheet_id, name) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, flowsheetID, name, data, now, now)
	if err != nil {
		return fmt.Errorf("failed to save configuration %s/%s: %w", flowsheetID, name, err)
	}
	return nil
}

// Get retrieves a stored configuration by flowsheet and name.
// Returns nil if it doesn't exist (not an error).
func (r *Repository) Get(flowsheetID, name string) (*StoredConfiguration, error) {
	var cfg StoredConfiguration
	err := r.db.QueryRow(`
		SELECT flowsheet_id, name, data, created_at, updated_at
		FROM configurations
		WHERE flowsheet_id = ? AND name = ?
	`, flowsheetID, name).Scan(&cfg.FlowsheetID, &cfg.Name, &cfg.Data, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration %s/%s: %w", flowsheetID, name, err)
	}
	return &cfg, nil
}

// List retrieves all stored configurations for a flowsheet, most recently
// updated first.
func (r *Repository) List(flowsheetID string) ([]StoredConfiguration, error) {
	rows, err := r.db.Query(`
		SELECT flowsheet_id, name, data, created_at, updated_at
		FROM configurations
		WHERE flowsheet_id = ?
		ORDER BY updated_at DESC
	`, flowsheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list configurations for %s: %w", flowsheetID, err)
	}
	defer rows.Close()

	var result []StoredConfiguration
	for rows.Next() {
		var cfg StoredConfiguration
		if err := rows.Scan(&cfg.FlowsheetID, &cfg.Name, &cfg.Data, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan configuration row")
			continue
		}
		result = append(result, cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating configurations: %w", err)
	}

	return result, nil
}

// Delete deletes a stored configuration.
// This operation is idempotent - it does not error if the row doesn't exist.
func (r *Repository) Delete(flowsheetID, name string) error {
	_, err := r.db.Exec(`
		DELETE FROM configurations WHERE flowsheet_id = ? AND name = ?
	`, flowsheetID, name)
	if err != nil {
		return fmt.Errorf("failed to delete configuration %s/%s: %w", flowsheetID, name, err)
	}
	return nil
}
