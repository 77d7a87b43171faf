package graphpart

import "github.com/hupe1980/graphpart/partition"

// MetricsCollector receives partitioning and load measurements.
// Implement this interface to integrate with monitoring systems; the
// promexport subpackage provides a Prometheus-backed implementation.
type MetricsCollector = partition.Collector

// NoopMetricsCollector discards all measurements.
// Use this when metrics collection is not needed.
type NoopMetricsCollector = partition.NoopCollector

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector = partition.BasicCollector
