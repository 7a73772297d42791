package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

// Config is the logger's runtime configuration. It is distinct from the
// board configuration text file (board_config), which describes sensors and
// ports in the board's own line-oriented grammar and is parsed separately.
type Config struct {
	BoardConfig string        `yaml:"board_config"`
	Polling     PollingConfig `yaml:"polling"`
	Backlog     BacklogConfig `yaml:"backlog"`
	Uplink      UplinkConfig  `yaml:"uplink"`
	Source      SourceConfig  `yaml:"source"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

type PollingConfig struct {
	Interval         Duration `yaml:"interval"`
	RetryBudget      int      `yaml:"retry_budget"`
	WatchdogMultiple int      `yaml:"watchdog_multiple"`
}

type BacklogConfig struct {
	Dir          string `yaml:"dir"`
	MaxSizeBytes int64  `yaml:"max_size_bytes"`
}

type UplinkConfig struct {
	Kind       string   `yaml:"kind"` // "http" or "postgres"
	ConnString string   `yaml:"conn_string"`
	Timeout    Duration `yaml:"timeout"`
}

type SourceConfig struct {
	Kind          string   `yaml:"kind"` // "sim", "iio", or "opcua"
	IIODir        string   `yaml:"iio_dir"`
	IIOBits       int      `yaml:"iio_bits"`
	OPCUAEndpoint string   `yaml:"opcua_endpoint"`
	OPCUANodes    []string `yaml:"opcua_nodes"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Duration accepts either a Go duration string ("5s", "250ms") or a plain
// number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var asString string
	if err := value.Decode(&asString); err == nil {
		parsed, err := time.ParseDuration(asString)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", asString, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var secs float64
	if err := value.Decode(&secs); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BoardConfig == "" {
		c.BoardConfig = "./data/IAC_Config_File.txt"
	}
	if c.Polling.Interval <= 0 {
		c.Polling.Interval = Duration(5 * time.Second)
	}
	if c.Polling.RetryBudget <= 0 {
		c.Polling.RetryBudget = 3
	}
	if c.Polling.WatchdogMultiple <= 0 {
		c.Polling.WatchdogMultiple = 5
	}
	if c.Backlog.Dir == "" {
		c.Backlog.Dir = "./data/backlog"
	}
	if c.Backlog.MaxSizeBytes == 0 {
		c.Backlog.MaxSizeBytes = 1 << 30
	}
	if c.Uplink.Kind == "" {
		c.Uplink.Kind = "http"
	}
	if c.Uplink.Timeout <= 0 {
		c.Uplink.Timeout = Duration(5 * time.Second)
	}
	if c.Source.Kind == "" {
		c.Source.Kind = "sim"
	}
	if c.Source.IIOBits == 0 {
		c.Source.IIOBits = 12
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
}

func (c *Config) validate() error {
	switch c.Uplink.Kind {
	case "http":
	case "postgres":
		if c.Uplink.ConnString == "" {
			return fmt.Errorf("uplink.conn_string is required for the postgres uplink")
		}
	default:
		return fmt.Errorf("uplink.kind must be http or postgres, got %q", c.Uplink.Kind)
	}

	switch c.Source.Kind {
	case "sim":
	case "iio":
		if c.Source.IIODir == "" {
			return fmt.Errorf("source.iio_dir is required for the iio source")
		}
	case "opcua":
		if c.Source.OPCUAEndpoint == "" {
			return fmt.Errorf("source.opcua_endpoint is required for the opcua source")
		}
		if len(c.Source.OPCUANodes) == 0 {
			return fmt.Errorf("source.opcua_nodes must map at least one port")
		}
	default:
		return fmt.Errorf("source.kind must be sim, iio, or opcua, got %q", c.Source.Kind)
	}

	return nil
}

// Policy flattens the polling and backlog knobs into the loop's Policy.
func (c *Config) Policy() ports.Policy {
	return ports.Policy{
		PollInterval:     c.Polling.Interval.Std(),
		RetryBudget:      c.Polling.RetryBudget,
		WatchdogMultiple: c.Polling.WatchdogMultiple,
		MaxBacklogBytes:  c.Backlog.MaxSizeBytes,
	}
}
