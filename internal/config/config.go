// Package config loads server and CLI settings. DEDUPE_* environment
// variables override dedupe.yaml, which overrides the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
)

// Store types.
const (
	StoreMemory = "memory"
	StoreTOML   = "toml"
	StoreSQLite = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Matching MatchingConfig `mapstructure:"matching"`
	Store    StoreConfig    `mapstructure:"store"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port               string        `mapstructure:"port"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	MaxRequestBodySize int           `mapstructure:"max_request_body_size"`
	Concurrency        int           `mapstructure:"concurrency"`
	RatePerIP          float64       `mapstructure:"rate_per_ip"` // requests per second, 0 disables
	RateBurst          int           `mapstructure:"rate_burst"`
	WarmUp             bool          `mapstructure:"warm_up"`
	WarmUpDuration     time.Duration `mapstructure:"warm_up_duration"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	File string `mapstructure:"file"`
	JSON bool   `mapstructure:"json"`
}

// MatchingConfig holds scoring and classification defaults.
type MatchingConfig struct {
	Threshold    float64            `mapstructure:"threshold"`
	MinThreshold float64            `mapstructure:"min_threshold"`
	MaxThreshold float64            `mapstructure:"max_threshold"`
	Weights      map[string]float64 `mapstructure:"weights"`
	Workers      int                `mapstructure:"workers"`
	Debounce     time.Duration      `mapstructure:"debounce"`
	Normalizer   string             `mapstructure:"normalizer"` // "lowercase" or "folded"
}

// ThresholdRange returns the threshold input bounds.
func (m MatchingConfig) ThresholdRange() domain.ThresholdRange {
	return domain.ThresholdRange{Min: m.MinThreshold, Max: m.MaxThreshold, Default: m.Threshold}
}

// FieldWeights returns the configured weights in deterministic order.
func (m MatchingConfig) FieldWeights() domain.Weights {
	return domain.WeightsFromMap(m.Weights)
}

// StoreConfig selects the template store.
type StoreConfig struct {
	Type string `mapstructure:"type"` // "memory", "toml" or "sqlite"
	Path string `mapstructure:"path"`
}

// Load loads configuration. configFile, when set, replaces the search for
// dedupe.yaml in ., ./config and /etc/dedupe/.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("dedupe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/dedupe/")
	}

	v.SetEnvPrefix("DEDUPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional unless named explicitly.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	applyDerivedDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the built-in configuration, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("decoding default config: %v", err))
	}
	applyDerivedDefaults(&config)
	return &config
}

// applyDerivedDefaults fills values viper cannot default without merging.
// Map defaults are merged key by key with file values, so a file that sets
// only {phone: 1} would otherwise inherit name and email as well.
func applyDerivedDefaults(config *Config) {
	if len(config.Matching.Weights) == 0 {
		config.Matching.Weights = domain.DefaultWeights().Map()
	}
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "5s")
	v.SetDefault("server.max_request_body_size", 4*1024*1024)
	v.SetDefault("server.concurrency", 256*1024)
	v.SetDefault("server.rate_per_ip", 50)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("server.warm_up", false)
	v.SetDefault("server.warm_up_duration", "2s")

	// Log defaults
	v.SetDefault("log.file", "")
	v.SetDefault("log.json", false)

	// Matching defaults
	v.SetDefault("matching.threshold", domain.DefaultThreshold)
	v.SetDefault("matching.min_threshold", domain.DefaultMinThreshold)
	v.SetDefault("matching.max_threshold", domain.DefaultMaxThreshold)
	v.SetDefault("matching.workers", 0)
	v.SetDefault("matching.debounce", "300ms")
	v.SetDefault("matching.normalizer", "lowercase")

	// Store defaults
	v.SetDefault("store.type", StoreTOML)
	v.SetDefault("store.path", "")
}

// validate validates the configuration.
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set DEDUPE_SERVER_PORT)")
	}
	if config.Server.RatePerIP < 0 {
		return fmt.Errorf("server rate_per_ip must not be negative, got: %v", config.Server.RatePerIP)
	}

	if err := config.Matching.ThresholdRange().Validate(); err != nil {
		return err
	}
	if config.Matching.MinThreshold < 0 || config.Matching.MaxThreshold > 100 {
		return fmt.Errorf("threshold range must lie within [0, 100], got [%.0f, %.0f]",
			config.Matching.MinThreshold, config.Matching.MaxThreshold)
	}
	if err := config.Matching.FieldWeights().Validate(); err != nil {
		return err
	}
	if config.Matching.Debounce < 0 {
		return fmt.Errorf("matching debounce must not be negative, got: %s", config.Matching.Debounce)
	}

	switch config.Matching.Normalizer {
	case "lowercase", "folded":
	default:
		return fmt.Errorf("matching normalizer must be 'lowercase' or 'folded', got: %s", config.Matching.Normalizer)
	}

	switch config.Store.Type {
	case StoreMemory, StoreTOML, StoreSQLite:
	default:
		return fmt.Errorf("store type must be 'memory', 'toml' or 'sqlite', got: %s", config.Store.Type)
	}

	return nil
}
