package iaclogger

import (
	base "github.com/ghsecuritylab/488-final-project-code/pkg/iaclogger"
)

// Re-exported errors for convenience.
var (
	ErrChannelUplinkClosed = base.ErrChannelUplinkClosed
)

// Type aliases so consumers can import the module root directly.
type (
	Config         = base.Config
	PollingConfig  = base.PollingConfig
	BacklogConfig  = base.BacklogConfig
	UplinkConfig   = base.UplinkConfig
	SourceConfig   = base.SourceConfig
	MetricsConfig  = base.MetricsConfig
	Duration       = base.Duration
	Runtime        = base.Runtime
	Option         = base.Option
	BoardModel     = base.BoardModel
	PortBinding    = base.PortBinding
	SensorType     = base.SensorType
	Snapshot       = base.Snapshot
	PortReading    = base.PortReading
	SnapshotSender = base.SnapshotSender
	Uplink         = base.Uplink
	Backlog        = base.Backlog
	BacklogStats   = base.BacklogStats
	AnalogSource   = base.AnalogSource
	Watchdog       = base.Watchdog
	Observability  = base.Observability
	Field          = base.Field
	Policy         = base.Policy
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime and options.
func New(cfg *Config, opts ...Option) (*Runtime, error) {
	return base.New(cfg, opts...)
}

func WithUplink(u Uplink) Option {
	return base.WithUplink(u)
}

func WithBacklog(b Backlog) Option {
	return base.WithBacklog(b)
}

func WithSource(s AnalogSource) Option {
	return base.WithSource(s)
}

func WithWatchdog(w Watchdog) Option {
	return base.WithWatchdog(w)
}

func WithObservability(obs Observability) Option {
	return base.WithObservability(obs)
}

// Uplink adapters.
func NewCallbackUplink(name string, fn SnapshotSender) Uplink {
	return base.NewCallbackUplink(name, fn)
}

func NewChannelUplink(name string, buffer int) (Uplink, <-chan Snapshot, func()) {
	return base.NewChannelUplink(name, buffer)
}
