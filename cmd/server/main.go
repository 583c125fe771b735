// Package main is the entry point for the flowsheet processor UI shell: the
// local service behind the desktop/web frontend that renders solver results
// and stores user-named configurations.
//
// Startup sequence:
//  1. Load configuration from environment variables (.env supported)
//  2. Initialize structured logging
//  3. Open the configurations database
//  4. Restore the run history snapshot, if one exists
//  5. Wire the event bus, history, and HTTP server
//  6. Start the maintenance scheduler and the server
//  7. Wait for a shutdown signal and drain gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/config"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/database"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/events"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/modules/configurations"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/scheduler"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/server"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use a fallback logger so the configuration error itself is logged
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("solver_service", cfg.SolverServiceURL).
		Bool("dev_mode", cfg.DevMode).
		Msg("Starting flowsheet processor UI")

	db, err := database.New(database.Config{
		Path: cfg.DatabasePath(),
		Name: "configurations",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open configurations database")
	}
	defer db.Close()

	eventBus := events.NewBus()

	history := configurations.NewHistory(log)
	snapshot := configurations.NewSnapshot(cfg.SnapshotPath(), log)
	if err := snapshot.Restore(history); err != nil {
		log.Warn().Err(err).Msg("Failed to restore history snapshot")
	}

	srv := server.New(server.Config{
		Log:      log,
		DB:       db,
		Config:   cfg,
		EventBus: eventBus,
		History:  history,
		Snapshot: snapshot,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
	})

	sched := scheduler.New(log)
	maintenance := scheduler.NewMaintenanceJob(
		db,
		history,
		time.Duration(cfg.DraftMaxAge)*time.Minute,
		log,
	)
	if err := sched.AddJob(cfg.MaintenanceSchedule, maintenance); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}
	sched.Start()
	defer sched.Stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	// Persist the history one last time so a restart picks up where we left off
	if err := snapshot.Write(history); err != nil {
		log.Warn().Err(err).Msg("Failed to write final history snapshot")
	}

	log.Info().Msg("Shutdown complete")
}
