package tracestore

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/collector/component"
)

// Config defines configuration for the trace store.
type Config struct {
	// MaxPending is the max number of builders waiting for a flush
	MaxPending int `mapstructure:"max_pending"`

	// FlushSchedule is the cron schedule on which pending builders are converted
	FlushSchedule string `mapstructure:"flush_schedule"`

	// ServiceName is reported as service.name on exported traces
	ServiceName string `mapstructure:"service_name"`
}

var _ component.Config = (*Config)(nil)

// Validate checks if the store configuration is valid
func (cfg *Config) Validate() error {
	if cfg.MaxPending <= 0 {
		return fmt.Errorf("max_pending must be greater than 0, got %d", cfg.MaxPending)
	}

	if cfg.FlushSchedule == "" {
		return fmt.Errorf("flush_schedule must be specified")
	}

	if _, err := cron.ParseStandard(cfg.FlushSchedule); err != nil {
		return fmt.Errorf("invalid flush_schedule: %w", err)
	}

	if cfg.ServiceName == "" {
		return fmt.Errorf("service_name must be specified")
	}

	return nil
}

// NewDefaultConfig creates the default store configuration.
func NewDefaultConfig() *Config {
	return &Config{
		MaxPending:    1000,
		FlushSchedule: "@every 10s",
		ServiceName:   "detailed-trace",
	}
}
