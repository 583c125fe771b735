// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir             string // Base directory for the configurations database and history snapshot
	SolverServiceURL    string // Base URL of the flowsheet-processing service
	LogLevel            string
	Port                int
	DevMode             bool
	DevOrigin           string // Frontend dev-server origin allowed by CORS in dev mode
	MaintenanceSchedule string // cron spec for the database maintenance job
	DraftMaxAge         int    // minutes a never-saved history draft survives before pruning
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. Check UI_DATA_DIR environment variable
	// 2. If not set, default to ~/.flowsheet-processor
	// 3. Always resolve to absolute path and ensure the directory exists
	dataDir := getEnv("UI_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".flowsheet-processor")
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("UI_PORT", 8001),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		SolverServiceURL:    getEnv("SOLVER_SERVICE_URL", "http://localhost:8000"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DevOrigin:           getEnv("DEV_ORIGIN", "http://localhost:5173"),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "@every 15m"),
		DraftMaxAge:         getEnvAsInt("DRAFT_MAX_AGE_MINUTES", 240),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SolverServiceURL == "" {
		return fmt.Errorf("solver service URL is required")
	}
	return nil
}

// DatabasePath returns the path of the configurations database inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "configurations.db")
}

// SnapshotPath returns the path of the history snapshot file inside DataDir.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "history.snapshot")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
