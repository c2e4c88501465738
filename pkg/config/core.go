package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GO4ME1/morgus-agent-sub009/pkg/retry"
	"github.com/GO4ME1/morgus-agent-sub009/pkg/router"
)

// CoreConfig holds the routing-core configuration: model capability
// profiles, the payoff matrix seed, and retry bounds.
type CoreConfig struct {
	Profiles      []router.ModelProfile `yaml:"profiles"`
	InitialPayoff float64               `yaml:"initial_payoff,omitempty"`
	Retry         RetryConfig           `yaml:"retry,omitempty"`
}

// RetryConfig defines retry and backoff behavior.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts,omitempty"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms,omitempty"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms,omitempty"`
	Multiplier       float64 `yaml:"multiplier,omitempty"`
}

// LoadCoreConfig reads core configuration from a YAML file.
func LoadCoreConfig(path string) (*CoreConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg CoreConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyCoreDefaults(&cfg)
	return &cfg, nil
}

// DefaultCoreConfig returns the built-in core configuration.
func DefaultCoreConfig() *CoreConfig {
	cfg := &CoreConfig{
		Profiles: router.DefaultRegistry().Profiles(),
	}
	applyCoreDefaults(cfg)
	return cfg
}

func applyCoreDefaults(cfg *CoreConfig) {
	if cfg == nil {
		return
	}
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = router.DefaultRegistry().Profiles()
	}
	if cfg.InitialPayoff <= 0 || cfg.InitialPayoff > 1 {
		cfg.InitialPayoff = 0.5
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.InitialBackoffMs == 0 {
		cfg.Retry.InitialBackoffMs = 500
	}
	if cfg.Retry.MaxBackoffMs == 0 {
		cfg.Retry.MaxBackoffMs = 30000
	}
	if cfg.Retry.MaxBackoffMs < cfg.Retry.InitialBackoffMs {
		cfg.Retry.MaxBackoffMs = cfg.Retry.InitialBackoffMs
	}
	if cfg.Retry.Multiplier <= 0 {
		cfg.Retry.Multiplier = 2
	}
}

// Registry builds the capability registry from the configured profiles.
func (c *CoreConfig) Registry() *router.Registry {
	return router.NewRegistry(c.Profiles...)
}

// Matrix builds the payoff matrix seeded uniformly over the configured
// profiles.
func (c *CoreConfig) Matrix() *router.PayoffMatrix {
	return router.SeedUniform(c.Registry(), c.InitialPayoff)
}

// RetrySettings converts the configured bounds into retry.Config.
func (c *CoreConfig) RetrySettings() retry.Config {
	return retry.Config{
		MaxAttempts:    c.Retry.MaxAttempts,
		InitialBackoff: time.Duration(c.Retry.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:     time.Duration(c.Retry.MaxBackoffMs) * time.Millisecond,
		Multiplier:     c.Retry.Multiplier,
	}
}
