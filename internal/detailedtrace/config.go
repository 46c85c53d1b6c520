package detailedtrace

import (
	"fmt"

	"go.opentelemetry.io/collector/component"
)

// Config defines configuration for trace conversion.
type Config struct {
	// MaxSpans is the soft cap on spans per trace
	MaxSpans int `mapstructure:"max_spans"`
}

var _ component.Config = (*Config)(nil)

// Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.MaxSpans <= 0 {
		return fmt.Errorf("max_spans must be greater than 0, got %d", cfg.MaxSpans)
	}
	return nil
}

// NewDefaultConfig creates the default conversion configuration.
func NewDefaultConfig() *Config {
	return &Config{
		MaxSpans: DefaultMaxSpans,
	}
}
