// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus collectors for a noesis process.
// Collectors live on a private registry so tests can build fresh instances.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors updated by the pipeline.
type Metrics struct {
	Registry *prometheus.Registry

	// Graph snapshot
	GraphNodes *prometheus.GaugeVec
	GraphEdges *prometheus.GaugeVec

	// Generative backend
	BackendCalls   *prometheus.CounterVec
	BackendLatency prometheus.Histogram

	// Hypotheses
	HypothesesGenerated prometheus.Counter
	HypothesesDropped   *prometheus.CounterVec

	// Pipeline
	StageDuration *prometheus.HistogramVec
	LayersCreated *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		GraphNodes: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "noesis_graph_nodes",
			Help: "Concepts in the loaded snapshot",
		}, []string{"concept_type"}),

		GraphEdges: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "noesis_graph_edges",
			Help: "Relationships in the loaded snapshot",
		}, []string{"relationship_type"}),

		BackendCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noesis_backend_calls_total",
			Help: "Generative backend calls by outcome",
		}, []string{"status"}),

		BackendLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "noesis_backend_latency_seconds",
			Help:    "Latency of generative backend calls",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),

		HypothesesGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "noesis_hypotheses_generated_total",
			Help: "Hypotheses successfully generated",
		}),

		HypothesesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noesis_hypotheses_dropped_total",
			Help: "Predictions that yielded no hypothesis, by reason",
		}, []string{"reason"}),

		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "noesis_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),

		LayersCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noesis_layers_created_total",
			Help: "Exploration layers created, by depth",
		}, []string{"depth"}),
	}
}

// ObserveStage records the time elapsed since start under stage. It is
// nil-safe so components can run without metrics.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile dumps the registry in the Prometheus text format, suitable
// for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
