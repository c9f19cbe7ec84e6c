package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvConfigPath names the variable holding an optional YAML config path.
	EnvConfigPath = "LTV_CONFIG"
	envPrefix     = "LTV_"
	keyProcessors = "processors"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LTV_CONFIG is set
//  3. env (prefix LTV_)
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LTV_MAX_REPORT_LIMIT -> max_report_limit. Keys stay flat so underscores
	// match the koanf tags. LTV_PROCESSORS is a comma separated list.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(key, envPrefix)
		if key == strings.TrimPrefix(EnvConfigPath, envPrefix) {
			return "", nil
		}
		key = strings.ToLower(key)
		if key == keyProcessors {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	// Decoding merges into existing slices, so the processor list starts
	// empty and is defaulted afterwards.
	defaults := cfg.Processors
	cfg.Processors = nil
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if len(cfg.Processors) == 0 {
		cfg.Processors = defaults
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList splits a comma separated value, dropping blank elements.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
