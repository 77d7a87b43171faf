package graphpart

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with graphpart-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPart adds a partition index field to the logger.
func (l *Logger) WithPart(pidx int) *Logger {
	return &Logger{
		Logger: l.Logger.With("part", pidx),
	}
}

// WithNumParts adds a partition count field to the logger.
func (l *Logger) WithNumParts(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("num_parts", n),
	}
}

// WithNodeType adds a node type field to the logger.
func (l *Logger) WithNodeType(nt NodeType) *Logger {
	return &Logger{
		Logger: l.Logger.With("node_type", string(nt)),
	}
}

// WithEdgeType adds an edge type field to the logger.
func (l *Logger) WithEdgeType(et EdgeType) *Logger {
	return &Logger{
		Logger: l.Logger.With("edge_type", et.String()),
	}
}

// LogPartition logs a completed partitioning run.
func (l *Logger) LogPartition(ctx context.Context, numParts int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "partitioning failed",
			"num_parts", numParts,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "partitioning completed",
			"num_parts", numParts,
			"elapsed", elapsed,
		)
	}
}

// LogLoad logs a dataset load.
func (l *Logger) LogLoad(ctx context.Context, pidx int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dataset load failed",
			"part", pidx,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dataset loaded",
			"part", pidx,
			"elapsed", elapsed,
		)
	}
}

// LogMerge logs a feature cache merge.
func (l *Logger) LogMerge(ctx context.Context, nt NodeType, cacheRatio float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "feature cache merge failed",
			"node_type", string(nt),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "feature cache merged",
			"node_type", string(nt),
			"cache_ratio", cacheRatio,
		)
	}
}

// LogMirror logs a directory upload to a remote store.
func (l *Logger) LogMirror(ctx context.Context, blobs int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "mirror failed",
			"blobs", blobs,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "mirror completed",
			"blobs", blobs,
			"elapsed", elapsed,
		)
	}
}
