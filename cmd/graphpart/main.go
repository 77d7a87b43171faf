// Command graphpart partitions a graph dataset on disk.
//
// The input directory holds the edge index as rows.pt and cols.pt,
// optionally node features as feats.pt and edge features as
// edge_feats.pt. The output directory receives the partition layout
// consumed by the dataset package.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/graphpart"
	"github.com/hupe1980/graphpart/blobstore"
	"github.com/hupe1980/graphpart/partition"
	"github.com/hupe1980/graphpart/promexport"
	"github.com/hupe1980/graphpart/resource"
	"github.com/hupe1980/graphpart/tensor"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("GRAPHPART", &cfg); err != nil {
		slog.Error("failed to process environment", "error", err)
		os.Exit(1)
	}

	inputDir := flag.String("in", cfg.InputDir, "Input directory with rows.pt/cols.pt")
	outputDir := flag.String("out", cfg.OutputDir, "Output directory for the partition layout")
	numParts := flag.Int("parts", cfg.NumParts, "Number of partitions")
	flag.Parse()
	cfg.InputDir = *inputDir
	cfg.OutputDir = *outputDir
	cfg.NumParts = *numParts

	logger := newLogger(&cfg)
	slog.SetDefault(logger.Logger)

	if err := ValidateConfig(&cfg); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := startMetrics(&cfg, logger)

	if err := run(ctx, &cfg, logger, collector); err != nil {
		logger.Error("partitioning failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *Config) *graphpart.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if cfg.LogFormat == "json" {
		return graphpart.NewJSONLogger(level)
	}
	return graphpart.NewTextLogger(level)
}

// startMetrics exposes /metrics when an address is configured and
// returns the collector feeding it. Nil when metrics are disabled.
func startMetrics(cfg *Config, logger *graphpart.Logger) partition.Collector {
	if cfg.MetricsAddr == "" {
		return nil
	}

	registry := prometheus.NewRegistry()
	collector := promexport.NewCollector("graphpart")
	if err := collector.Register(registry); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("starting metrics server", "address", cfg.MetricsAddr)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return collector
}

func run(ctx context.Context, cfg *Config, logger *graphpart.Logger, collector partition.Collector) error {
	in, err := loadInput(ctx, cfg)
	if err != nil {
		return err
	}

	out, err := blobstore.NewLocalStore(cfg.OutputDir)
	if err != nil {
		return err
	}

	assigner, err := assignerFor(cfg.Assigner)
	if err != nil {
		return err
	}
	compression, err := compressionFor(cfg.Compression)
	if err != nil {
		return err
	}

	saveOpts := []tensor.SaveOption{tensor.WithCompression(compression)}
	if cfg.IOLimitBytes > 0 {
		rc := resource.NewController(resource.Config{IOLimitBytesPerSec: cfg.IOLimitBytes})
		saveOpts = append(saveOpts, tensor.WithSaveRateLimit(rc))
	}

	opts := []partition.PartitionerOption{
		partition.WithAssigner(assigner),
		partition.WithEdgeAssignStrategy(partition.EdgeAssignStrategy(cfg.EdgeStrategy)),
		partition.WithChunkSize(cfg.ChunkSize),
		partition.WithParallelism(cfg.Parallelism),
		partition.WithLogger(logger.WithNumParts(cfg.NumParts).Logger),
		partition.WithStoreOptions(partition.WithTensorSaveOptions(saveOpts...)),
	}
	if cfg.CacheRatio > 0 {
		opts = append(opts, partition.WithCacheSelector(partition.TopDegreeCacheSelector{Ratio: cfg.CacheRatio}))
	}
	if collector != nil {
		opts = append(opts, partition.WithCollector(collector))
	}

	p, err := partition.NewPartitioner(out, in, cfg.NumParts, opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.Partition(ctx)
	logger.LogPartition(ctx, cfg.NumParts, time.Since(start), err)
	return err
}

// loadInput reads the edge index and any feature tensors from the input
// directory. Node count defaults to max endpoint id + 1.
func loadInput(ctx context.Context, cfg *Config) (*partition.Input, error) {
	src, err := blobstore.NewLocalStore(cfg.InputDir)
	if err != nil {
		return nil, err
	}

	rows, rowsCloser, err := tensor.LoadInt64s(ctx, src, "rows.pt", tensor.WithCopy())
	if err != nil {
		return nil, err
	}
	defer rowsCloser.Close()

	cols, colsCloser, err := tensor.LoadInt64s(ctx, src, "cols.pt", tensor.WithCopy())
	if err != nil {
		return nil, err
	}
	defer colsCloser.Close()

	numNodes := cfg.NumNodes
	if numNodes == 0 {
		for _, id := range rows {
			if id+1 > numNodes {
				numNodes = id + 1
			}
		}
		for _, id := range cols {
			if id+1 > numNodes {
				numNodes = id + 1
			}
		}
	}

	var opts []partition.InputOption

	feats, featsCloser, err := tensor.LoadMatrix(ctx, src, "feats.pt", tensor.WithCopy())
	if err == nil {
		defer featsCloser.Close()
		opts = append(opts, partition.WithNodeFeatures(feats))
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, err
	}

	efeats, efeatsCloser, err := tensor.LoadMatrix(ctx, src, "edge_feats.pt", tensor.WithCopy())
	if err == nil {
		defer efeatsCloser.Close()
		opts = append(opts, partition.WithEdgeFeatures(efeats))
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, err
	}

	return partition.NewInput(numNodes, partition.EdgeIndex{Rows: rows, Cols: cols}, opts...)
}
