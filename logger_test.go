package graphpart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCaptureLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewLogger(handler), &buf
}

func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLoggerDefaults(t *testing.T) {
	logger := NewLogger(nil)
	require.NotNil(t, logger)
	require.NotNil(t, logger.Logger)
}

func TestLoggerWithHelpers(t *testing.T) {
	logger, buf := newCaptureLogger(t)

	logger.WithPart(3).
		WithNumParts(4).
		WithNodeType("user").
		WithEdgeType(EdgeType{Src: "user", Rel: "clicks", Dst: "item"}).
		Info("hello")

	entries := logEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, float64(3), entries[0]["part"])
	assert.Equal(t, float64(4), entries[0]["num_parts"])
	assert.Equal(t, "user", entries[0]["node_type"])
	assert.Equal(t, "user__clicks__item", entries[0]["edge_type"])
}

func TestLogPartition(t *testing.T) {
	ctx := context.Background()
	logger, buf := newCaptureLogger(t)

	logger.LogPartition(ctx, 4, 250*time.Millisecond, nil)
	logger.LogPartition(ctx, 4, 0, errors.New("boom"))

	entries := logEntries(t, buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "partitioning completed", entries[0]["msg"])
	assert.Equal(t, float64(4), entries[0]["num_parts"])

	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "partitioning failed", entries[1]["msg"])
	assert.Equal(t, "boom", entries[1]["error"])
}

func TestLogLoad(t *testing.T) {
	ctx := context.Background()
	logger, buf := newCaptureLogger(t)

	logger.LogLoad(ctx, 1, 10*time.Millisecond, nil)
	logger.LogLoad(ctx, 1, 0, errors.New("corrupt"))

	entries := logEntries(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "dataset loaded", entries[0]["msg"])
	assert.Equal(t, float64(1), entries[0]["part"])
	assert.Equal(t, "dataset load failed", entries[1]["msg"])
	assert.Equal(t, "corrupt", entries[1]["error"])
}

func TestLogMergeAndMirror(t *testing.T) {
	ctx := context.Background()
	logger, buf := newCaptureLogger(t)

	logger.LogMerge(ctx, "user", 0.25, nil)
	logger.LogMirror(ctx, 12, time.Second, nil)
	logger.LogMirror(ctx, 0, 0, errors.New("denied"))

	entries := logEntries(t, buf)
	require.Len(t, entries, 3)

	assert.Equal(t, "feature cache merged", entries[0]["msg"])
	assert.Equal(t, 0.25, entries[0]["cache_ratio"])

	assert.Equal(t, "mirror completed", entries[1]["msg"])
	assert.Equal(t, float64(12), entries[1]["blobs"])

	assert.Equal(t, "mirror failed", entries[2]["msg"])
	assert.Equal(t, "denied", entries[2]["error"])
}

func TestNoopLoggerDiscards(t *testing.T) {
	logger := NoopLogger()
	require.NotNil(t, logger)
	logger.Info("should go nowhere")
	logger.Error("also nowhere")
}
