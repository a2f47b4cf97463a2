// Package config loads diagnosa configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kamilpajak/diagnosa/internal/narrative"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Engine    EngineConfig    `yaml:"engine"`
	Narrative NarrativeConfig `yaml:"narrative"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            string `yaml:"port"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// CatalogConfig selects the catalog source: DatabaseURL wins over Path,
// and with neither the embedded catalog is used.
type CatalogConfig struct {
	Path        string `yaml:"path"`
	DatabaseURL string `yaml:"database_url"`
	Migrate     bool   `yaml:"migrate"`
}

// EngineConfig configures the diagnosis engine.
type EngineConfig struct {
	RulesPath         string `yaml:"rules_path"` // empty uses the built-in rules
	DisablePriorSeeds bool   `yaml:"disable_prior_seeds"`
}

// NarrativeConfig lists the models tried, in order, for explanations.
type NarrativeConfig struct {
	Models []ModelConfig `yaml:"models"`
}

// ModelConfig is one link of the narrative chain.
type ModelConfig struct {
	Provider    string `yaml:"provider"` // google, openai, anthropic
	Model       string `yaml:"model"`
	APIKey      string `yaml:"api_key"`
	Timeout     string `yaml:"timeout"`
	HourlyLimit int    `yaml:"hourly_limit"` // 0 means unlimited
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: "30s",
		},
		Narrative: NarrativeConfig{
			Models: []ModelConfig{
				{Provider: "google", Timeout: "30s", HourlyLimit: 60},
				{Provider: "openai", Timeout: "30s", HourlyLimit: 30},
				{Provider: "anthropic", Timeout: "30s", HourlyLimit: 30},
			},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	envErr := cfg.applyEnvOverrides()
	return cfg, errors.Join(envErr, cfg.Validate())
}

var apiKeyEnv = map[narrative.Provider]string{
	narrative.ProviderGoogle:    "GOOGLE_API_KEY",
	narrative.ProviderOpenAI:    "OPENAI_API_KEY",
	narrative.ProviderAnthropic: "ANTHROPIC_API_KEY",
}

func (c *Config) applyEnvOverrides() error {
	var errs []error
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Catalog.DatabaseURL = v
	}
	if v := os.Getenv("DIAGNOSA_CATALOG"); v != "" {
		c.Catalog.Path = v
	}
	if v := os.Getenv("DIAGNOSA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DIAGNOSA_DISABLE_PRIOR_SEEDS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DIAGNOSA_DISABLE_PRIOR_SEEDS %q is not a boolean", v))
		} else {
			c.Engine.DisablePriorSeeds = b
		}
	}
	for i := range c.Narrative.Models {
		m := &c.Narrative.Models[i]
		if m.APIKey != "" {
			continue
		}
		if p, err := narrative.ParseProvider(m.Provider); err == nil {
			m.APIKey = os.Getenv(apiKeyEnv[p])
		}
	}
	return errors.Join(errs...)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	} else if _, err := strconv.Atoi(c.Server.Port); err != nil {
		errs = append(errs, fmt.Errorf("server.port %q is not a number", c.Server.Port))
	}
	if _, err := parseDuration(c.Server.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout: %w", err))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level))
	}

	for i, m := range c.Narrative.Models {
		if _, err := narrative.ParseProvider(m.Provider); err != nil {
			errs = append(errs, fmt.Errorf("narrative.models[%d]: %w", i, err))
		}
		if _, err := parseDuration(m.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("narrative.models[%d].timeout: %w", i, err))
		}
		if m.HourlyLimit < 0 {
			errs = append(errs, fmt.Errorf("narrative.models[%d].hourly_limit must not be negative", i))
		}
	}

	return errors.Join(errs...)
}

// GetShutdownTimeout returns the graceful shutdown timeout.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := parseDuration(c.Server.ShutdownTimeout)
	if err != nil || d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetTimeout returns the per-call timeout of a model, 0 when unset.
func (m ModelConfig) GetTimeout() time.Duration {
	d, _ := parseDuration(m.Timeout)
	return d
}

// parseDuration accepts an empty string as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %s is negative", s)
	}
	return d, nil
}
