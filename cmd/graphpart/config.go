package main

import (
	"errors"

	"github.com/hupe1980/graphpart/partition"
	"github.com/hupe1980/graphpart/tensor"
)

// Config validation errors
var (
	ErrInvalidInputDir     = errors.New("input_dir cannot be empty")
	ErrInvalidOutputDir    = errors.New("output_dir cannot be empty")
	ErrInvalidNumParts     = errors.New("num_parts must be at least 2")
	ErrInvalidAssigner     = errors.New("assigner must be 'range', 'hash', or 'degree'")
	ErrInvalidEdgeStrategy = errors.New("edge_strategy must be 'by_src' or 'by_dst'")
	ErrInvalidCacheRatio   = errors.New("cache_ratio must be in [0, 1)")
	ErrInvalidChunkSize    = errors.New("chunk_size must be positive")
	ErrInvalidCompression  = errors.New("compression must be 'none', 'lz4', or 'zstd'")
	ErrInvalidLogFormat    = errors.New("log_format must be 'json' or 'text'")
	ErrInvalidLogLevel     = errors.New("log_level must be debug, info, warn, or error")
)

// Config holds all settings of the partitioning run. Values come from
// the environment (GRAPHPART_ prefix), optionally seeded from a .env
// file, with a few common ones overridable by flags.
type Config struct {
	InputDir  string `envconfig:"INPUT_DIR"`
	OutputDir string `envconfig:"OUTPUT_DIR"`
	NumParts  int    `envconfig:"NUM_PARTS" default:"2"`
	NumNodes  int64  `envconfig:"NUM_NODES" default:"0"` // 0 means derive from edge ids

	Assigner     string  `envconfig:"ASSIGNER" default:"range"`
	EdgeStrategy string  `envconfig:"EDGE_STRATEGY" default:"by_src"`
	CacheRatio   float64 `envconfig:"CACHE_RATIO" default:"0"`
	ChunkSize    int     `envconfig:"CHUNK_SIZE" default:"10000"`
	Parallelism  int     `envconfig:"PARALLELISM" default:"0"` // 0 means unbounded

	Compression  string `envconfig:"COMPRESSION" default:"none"`
	IOLimitBytes int64  `envconfig:"IO_LIMIT_BYTES" default:"0"` // 0 means unlimited

	MetricsAddr string `envconfig:"METRICS_ADDR" default:""` // empty disables the endpoint
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if cfg.InputDir == "" {
		return ErrInvalidInputDir
	}
	if cfg.OutputDir == "" {
		return ErrInvalidOutputDir
	}
	if cfg.NumParts < 2 {
		return ErrInvalidNumParts
	}
	if _, err := assignerFor(cfg.Assigner); err != nil {
		return err
	}
	if cfg.EdgeStrategy != string(partition.AssignBySrc) && cfg.EdgeStrategy != string(partition.AssignByDst) {
		return ErrInvalidEdgeStrategy
	}
	if cfg.CacheRatio < 0 || cfg.CacheRatio >= 1 {
		return ErrInvalidCacheRatio
	}
	if cfg.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}
	if _, err := compressionFor(cfg.Compression); err != nil {
		return err
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return ErrInvalidLogFormat
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

func assignerFor(name string) (partition.NodeAssigner, error) {
	switch name {
	case "range":
		return partition.RangeAssigner{}, nil
	case "hash":
		return partition.HashAssigner{}, nil
	case "degree":
		return partition.DegreeBalancedAssigner{}, nil
	default:
		return nil, ErrInvalidAssigner
	}
}

func compressionFor(name string) (tensor.Compression, error) {
	switch name {
	case "none":
		return tensor.CompressionNone, nil
	case "lz4":
		return tensor.CompressionLZ4, nil
	case "zstd":
		return tensor.CompressionZstd, nil
	default:
		return tensor.CompressionNone, ErrInvalidCompression
	}
}
