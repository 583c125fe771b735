package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/database"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/modules/configurations"
)

// MaintenanceJob keeps the shell's storage healthy between restarts: it
// truncates the configurations database WAL and prunes history drafts that
// were never saved.
type MaintenanceJob struct {
	db       *database.DB
	history  *configurations.History
	draftAge time.Duration
	log      zerolog.Logger
}

// NewMaintenanceJob creates the maintenance job.
func NewMaintenanceJob(db *database.DB, history *configurations.History, draftAge time.Duration, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:       db,
		history:  history,
		draftAge: draftAge,
		log:      log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run performs one maintenance pass.
func (j *MaintenanceJob) Run() error {
	if err := j.db.CheckpointWAL(); err != nil {
		return err
	}

	removed := j.history.PruneStaleDrafts(j.draftAge)
	j.log.Debug().Int("drafts_removed", removed).Msg("Maintenance pass complete")
	return nil
}
