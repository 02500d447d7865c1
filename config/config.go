// Package config loads Warden configuration from the environment and an
// optional warden.yaml, with the WARDEN_ prefix for environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Model    ModelConfig   `mapstructure:"model"`
	Intel    IntelConfig   `mapstructure:"intel"`
	Analyst  AnalystConfig `mapstructure:"analyst"`
}

// ModelConfig configures the local language model endpoint.
type ModelConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	Name           string  `mapstructure:"name"`
	APIKey         string  `mapstructure:"api_key"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// IntelConfig configures the reputation API collaborators. API keys are
// supplied out of band; a missing key surfaces as a remote rejection at
// lookup time, not a startup failure.
type IntelConfig struct {
	AbuseIPDBKey   string `mapstructure:"abuseipdb_key"`
	ThreatFoxKey   string `mapstructure:"threatfox_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// AnalystConfig bounds the dispatch loop.
type AnalystConfig struct {
	MaxTurns           int `mapstructure:"max_turns"`
	MaxCorrections     int `mapstructure:"max_corrections"`
	UnavailableRetries int `mapstructure:"unavailable_retries"`
}

// Timeout returns the model call timeout.
func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// Timeout returns the intel call timeout.
func (i IntelConfig) Timeout() time.Duration {
	return time.Duration(i.TimeoutSeconds) * time.Second
}

// Load reads configuration. The config file is optional; environment
// variables such as WARDEN_MODEL_BASE_URL always win.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("model.base_url", "http://localhost:11434/v1")
	v.SetDefault("model.name", "qwen3:8b")
	v.SetDefault("model.temperature", 0.1)
	v.SetDefault("model.max_tokens", 2048)
	v.SetDefault("model.timeout_seconds", 300)
	v.SetDefault("model.api_key", "")
	// Empty defaults register the keys so AutomaticEnv can see them.
	v.SetDefault("intel.abuseipdb_key", "")
	v.SetDefault("intel.threatfox_key", "")
	v.SetDefault("intel.timeout_seconds", 10)
	v.SetDefault("analyst.max_turns", 4)
	v.SetDefault("analyst.max_corrections", 2)
	v.SetDefault("analyst.unavailable_retries", 1)

	v.SetEnvPrefix("WARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("warden")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.warden")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Model.BaseURL) == "" {
		return fmt.Errorf("model.base_url is required")
	}
	if strings.TrimSpace(c.Model.Name) == "" {
		return fmt.Errorf("model.name is required")
	}
	if c.Analyst.MaxTurns <= 0 {
		return fmt.Errorf("analyst.max_turns must be positive")
	}
	return nil
}
