package main

import (
	"testing"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		InputDir:     "./in",
		OutputDir:    "./out",
		NumParts:     2,
		Assigner:     "range",
		EdgeStrategy: "by_src",
		ChunkSize:    10000,
		Compression:  "none",
		LogFormat:    "text",
		LogLevel:     "info",
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, ValidateConfig(&cfg))
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"EmptyInput", func(c *Config) { c.InputDir = "" }, ErrInvalidInputDir},
		{"EmptyOutput", func(c *Config) { c.OutputDir = "" }, ErrInvalidOutputDir},
		{"OnePart", func(c *Config) { c.NumParts = 1 }, ErrInvalidNumParts},
		{"BadAssigner", func(c *Config) { c.Assigner = "random" }, ErrInvalidAssigner},
		{"BadStrategy", func(c *Config) { c.EdgeStrategy = "by_eid" }, ErrInvalidEdgeStrategy},
		{"NegativeCacheRatio", func(c *Config) { c.CacheRatio = -0.1 }, ErrInvalidCacheRatio},
		{"CacheRatioOne", func(c *Config) { c.CacheRatio = 1 }, ErrInvalidCacheRatio},
		{"ZeroChunk", func(c *Config) { c.ChunkSize = 0 }, ErrInvalidChunkSize},
		{"BadCompression", func(c *Config) { c.Compression = "gzip" }, ErrInvalidCompression},
		{"BadLogFormat", func(c *Config) { c.LogFormat = "xml" }, ErrInvalidLogFormat},
		{"BadLogLevel", func(c *Config) { c.LogLevel = "trace" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, ValidateConfig(&cfg), tt.wantErr)
		})
	}
}

func TestEnvironmentDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, envconfig.Process("GRAPHPART_TEST", &cfg))

	assert.Equal(t, 2, cfg.NumParts)
	assert.Equal(t, "range", cfg.Assigner)
	assert.Equal(t, "by_src", cfg.EdgeStrategy)
	assert.Equal(t, 10000, cfg.ChunkSize)
	assert.Equal(t, "none", cfg.Compression)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("GRAPHPART_OVR_NUM_PARTS", "8")
	t.Setenv("GRAPHPART_OVR_ASSIGNER", "degree")

	var cfg Config
	require.NoError(t, envconfig.Process("GRAPHPART_OVR", &cfg))

	assert.Equal(t, 8, cfg.NumParts)
	assert.Equal(t, "degree", cfg.Assigner)
}
