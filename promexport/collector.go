// Package promexport implements the partition.Collector interface on top
// of Prometheus metrics.
package promexport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/graphpart/partition"
)

// Collector records partitioning and load measurements as Prometheus
// metrics. Register it on a registry before use.
type Collector struct {
	nodesAssigned *prometheus.CounterVec
	edgesAssigned *prometheus.CounterVec
	typeFailures  *prometheus.CounterVec

	nodeDuration *prometheus.HistogramVec
	edgeDuration *prometheus.HistogramVec

	loadsTotal   *prometheus.CounterVec
	loadDuration prometheus.Histogram
}

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300}

// NewCollector creates an unregistered Collector with the given metric
// namespace (e.g. "graphpart").
func NewCollector(namespace string) *Collector {
	return &Collector{
		nodesAssigned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_assigned_total",
				Help:      "Total nodes assigned to shards, by node type",
			},
			[]string{"node_type"},
		),
		edgesAssigned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "edges_assigned_total",
				Help:      "Total edges assigned to shards, by edge type",
			},
			[]string{"edge_type"},
		),
		typeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "type_failures_total",
				Help:      "Failed per-type partitioning attempts",
			},
			[]string{"kind"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_partition_duration_seconds",
				Help:      "Wall time to partition one node type",
				Buckets:   durationBuckets,
			},
			[]string{"node_type"},
		),
		edgeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "edge_partition_duration_seconds",
				Help:      "Wall time to partition one edge type",
				Buckets:   durationBuckets,
			},
			[]string{"edge_type"},
		),
		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loads_total",
				Help:      "Partition load attempts, by status",
			},
			[]string{"status"},
		),
		loadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Wall time to load one partition",
				Buckets:   durationBuckets,
			},
		),
	}
}

// Register registers all metrics on the given registerer.
func (c *Collector) Register(r prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.nodesAssigned, c.edgesAssigned, c.typeFailures,
		c.nodeDuration, c.edgeDuration,
		c.loadsTotal, c.loadDuration,
	} {
		if err := r.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// RecordNodePartition implements partition.Collector.
func (c *Collector) RecordNodePartition(nt partition.NodeType, n int64, d time.Duration, err error) {
	if err != nil {
		c.typeFailures.WithLabelValues("node").Inc()
		return
	}
	c.nodesAssigned.WithLabelValues(string(nt)).Add(float64(n))
	c.nodeDuration.WithLabelValues(string(nt)).Observe(d.Seconds())
}

// RecordEdgePartition implements partition.Collector.
func (c *Collector) RecordEdgePartition(et partition.EdgeType, n int64, d time.Duration, err error) {
	if err != nil {
		c.typeFailures.WithLabelValues("edge").Inc()
		return
	}
	c.edgesAssigned.WithLabelValues(et.String()).Add(float64(n))
	c.edgeDuration.WithLabelValues(et.String()).Observe(d.Seconds())
}

// RecordLoad implements partition.Collector.
func (c *Collector) RecordLoad(_ int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.loadsTotal.WithLabelValues(status).Inc()
	if err == nil {
		c.loadDuration.Observe(d.Seconds())
	}
}

var _ partition.Collector = (*Collector)(nil)
