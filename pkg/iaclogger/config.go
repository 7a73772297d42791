package iaclogger

import (
	"github.com/ghsecuritylab/488-final-project-code/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// PollingConfig controls the cycle interval and retry/watchdog budgets.
	PollingConfig = config.PollingConfig
	// BacklogConfig configures on-disk persistence.
	BacklogConfig = config.BacklogConfig
	// UplinkConfig selects and configures the transmit backend.
	UplinkConfig = config.UplinkConfig
	// SourceConfig selects and configures the analog input backend.
	SourceConfig = config.SourceConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// Duration is a YAML-friendly wrapper around time.Duration.
	Duration = config.Duration
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
