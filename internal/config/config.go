// Package config loads and validates chunkscout configuration from file,
// environment, and defaults.
package config

import "errors"

// Config is the top-level configuration struct for chunkscout.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Collector CollectorConfig `mapstructure:"collector"`
	Output    OutputConfig    `mapstructure:"output"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// CollectorConfig holds graph traversal and matching knobs.
type CollectorConfig struct {
	// WrapperSource is the module the deferred-import wrapper is imported
	// from.
	WrapperSource string `mapstructure:"wrapper_source"`
	// Workers is the number of goroutines expanding graph branches.
	// Zero selects one per CPU.
	Workers int `mapstructure:"workers"`
	// ParseCacheSize is the number of parse results kept in memory.
	ParseCacheSize int `mapstructure:"parse_cache_size"`
}

// OutputConfig holds rendering knobs.
type OutputConfig struct {
	// Format selects the mapping renderer: text, json, or yaml.
	Format string `mapstructure:"format"`
	// NoColor disables colorized diagnostics.
	NoColor bool `mapstructure:"no_color"`
}

// MetricsConfig holds the metrics endpoint settings.
type MetricsConfig struct {
	// Enabled serves a Prometheus scrape endpoint for the run's duration.
	Enabled bool `mapstructure:"enabled"`
	// Listen is the address the scrape endpoint binds.
	Listen string `mapstructure:"listen"`
}

// Default configuration values.
const (
	DefaultWrapperSource  = "next/dynamic"
	DefaultWorkers        = 0
	DefaultParseCacheSize = 512
	DefaultFormat         = FormatText
	DefaultMetricsListen  = "127.0.0.1:9464"
)

// Output format constants.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("collector.workers must be >= 0")
	// ErrInvalidParseCacheSize indicates the parse cache size is negative.
	ErrInvalidParseCacheSize = errors.New("collector.parse_cache_size must be >= 0")
	// ErrEmptyWrapperSource indicates the wrapper source is empty.
	ErrEmptyWrapperSource = errors.New("collector.wrapper_source must not be empty")
	// ErrInvalidFormat indicates an unknown output format.
	ErrInvalidFormat = errors.New("output.format must be text, json, or yaml")
	// ErrEmptyMetricsListen indicates metrics are enabled without an address.
	ErrEmptyMetricsListen = errors.New("metrics.listen must not be empty when metrics are enabled")
)

// Validate checks the configuration for invalid values.
func (cfg *Config) Validate() error {
	if cfg.Collector.Workers < 0 {
		return ErrInvalidWorkers
	}

	if cfg.Collector.ParseCacheSize < 0 {
		return ErrInvalidParseCacheSize
	}

	if cfg.Collector.WrapperSource == "" {
		return ErrEmptyWrapperSource
	}

	switch cfg.Output.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return ErrInvalidFormat
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return ErrEmptyMetricsListen
	}

	return nil
}
