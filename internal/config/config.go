// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and LTV_ environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/ltv/internal/domain/processor"
)

const defaultMaxPayloadBytes = 1 << 20

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxPayloadBytes caps request bodies; larger payloads get 413.
	MaxPayloadBytes int64 `koanf:"max_payload_bytes"`

	// DefaultReportLimit is used when POST /reports/ltv has no limit.
	DefaultReportLimit int `koanf:"default_report_limit"`

	// MaxReportLimit caps POST /reports/ltv?limit.
	MaxReportLimit int `koanf:"max_report_limit"`

	// LifespanYears and WeeksPerYear parameterize the LTV formula.
	LifespanYears int `koanf:"lifespan_years"`
	WeeksPerYear  int `koanf:"weeks_per_year"`

	// Processors names the event processors to register at startup.
	Processors []string `koanf:"processors"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		MaxPayloadBytes:    defaultMaxPayloadBytes,
		DefaultReportLimit: 10,
		MaxReportLimit:     100,
		LifespanYears:      10,
		WeeksPerYear:       52,
		Processors:         processor.Names(),
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxPayloadBytes <= 0:
		return fmt.Errorf("%w: max_payload_bytes must be positive", ErrInvalidConfig)
	case c.DefaultReportLimit <= 0 || c.MaxReportLimit <= 0:
		return fmt.Errorf("%w: report limits must be positive", ErrInvalidConfig)
	case c.DefaultReportLimit > c.MaxReportLimit:
		return fmt.Errorf("%w: default_report_limit %d exceeds max_report_limit %d",
			ErrInvalidConfig, c.DefaultReportLimit, c.MaxReportLimit)
	case c.LifespanYears <= 0:
		return fmt.Errorf("%w: lifespan_years must be positive", ErrInvalidConfig)
	case c.WeeksPerYear <= 0:
		return fmt.Errorf("%w: weeks_per_year must be positive", ErrInvalidConfig)
	case len(c.Processors) == 0:
		return fmt.Errorf("%w: at least one processor is required", ErrInvalidConfig)
	}
	known := processor.Names()
	for _, name := range c.Processors {
		if !slices.Contains(known, strings.ToLower(strings.TrimSpace(name))) {
			return fmt.Errorf("%w: unknown processor %q (known: %s)",
				ErrInvalidConfig, name, strings.Join(known, ", "))
		}
	}
	return nil
}
