package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkscout/chunkscout/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Collector: config.CollectorConfig{
			WrapperSource:  config.DefaultWrapperSource,
			Workers:        config.DefaultWorkers,
			ParseCacheSize: config.DefaultParseCacheSize,
		},
		Output: config.OutputConfig{
			Format: config.DefaultFormat,
		},
		Metrics: config.MetricsConfig{
			Listen: config.DefaultMetricsListen,
		},
	}
}

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{
			name:    "negative workers",
			mutate:  func(cfg *config.Config) { cfg.Collector.Workers = -1 },
			wantErr: config.ErrInvalidWorkers,
		},
		{
			name:    "negative parse cache size",
			mutate:  func(cfg *config.Config) { cfg.Collector.ParseCacheSize = -1 },
			wantErr: config.ErrInvalidParseCacheSize,
		},
		{
			name:    "empty wrapper source",
			mutate:  func(cfg *config.Config) { cfg.Collector.WrapperSource = "" },
			wantErr: config.ErrEmptyWrapperSource,
		},
		{
			name:    "unknown format",
			mutate:  func(cfg *config.Config) { cfg.Output.Format = "xml" },
			wantErr: config.ErrInvalidFormat,
		},
		{
			name: "metrics enabled without listen address",
			mutate: func(cfg *config.Config) {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Listen = ""
			},
			wantErr: config.ErrEmptyMetricsListen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)

			require.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_AllFormatsAccepted(t *testing.T) {
	t.Parallel()

	for _, format := range []string{config.FormatText, config.FormatJSON, config.FormatYAML} {
		cfg := validConfig()
		cfg.Output.Format = format

		assert.NoError(t, cfg.Validate(), format)
	}
}

func TestValidate_MetricsDisabledIgnoresListen(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Metrics.Enabled = false
	cfg.Metrics.Listen = ""

	require.NoError(t, cfg.Validate())
}
