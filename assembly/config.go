package assembly

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/activekit/errors"
)

// Config is the YAML deployment configuration for one assembly.
type Config struct {
	Name string `yaml:"name"`

	// QueueCapacity bounds every component's message queue.
	QueueCapacity int `yaml:"queue_capacity"`

	RateGroups []RateGroupConfig `yaml:"rate_groups"`

	// NATS configures the optional NATS event/telemetry sink. An empty URL
	// keeps diagnostics local (slog only).
	NATS NATSConfig `yaml:"nats"`

	// ParamFile, when set, is loaded into component parameter stores at
	// startup and saved on shutdown.
	ParamFile string `yaml:"param_file"`

	// HTTPAddr serves Prometheus metrics and health; empty disables it.
	HTTPAddr string `yaml:"http_addr"`
}

// RateGroupConfig describes one scheduler.
type RateGroupConfig struct {
	Name   string        `yaml:"name"`
	Period time.Duration `yaml:"period"`
}

// NATSConfig describes the NATS sink connection.
type NATSConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		Name:          "activekit",
		QueueCapacity: 64,
		RateGroups: []RateGroupConfig{
			{Name: "rg-10hz", Period: 100 * time.Millisecond},
		},
		HTTPAddr: ":9100",
	}
}

// LoadConfig reads and validates a YAML deployment configuration.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.WrapTransient(err, "Config", "LoadConfig", "file read")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.WrapInvalid(err, "Config", "LoadConfig", "yaml unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for assembly-breaking mistakes.
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "name")
	}
	if c.QueueCapacity < 1 {
		return errors.WrapInvalid(
			fmt.Errorf("queue_capacity %d must be at least 1", c.QueueCapacity),
			"Config", "Validate", "queue capacity")
	}
	if len(c.RateGroups) == 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "rate_groups")
	}
	for _, rg := range c.RateGroups {
		if rg.Name == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "rate group name")
		}
		if rg.Period <= 0 {
			return errors.WrapInvalid(
				fmt.Errorf("rate group %q period must be positive", rg.Name),
				"Config", "Validate", "rate group period")
		}
	}
	return nil
}
