// Package metrics provides Prometheus metrics for BOM generation
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the generation metrics registered on one registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	BuildsTotal        *prometheus.CounterVec
	BuildIssuesTotal   *prometheus.CounterVec
	BOMNodes           prometheus.Histogram
	CatalogIssues      *prometheus.GaugeVec
}

// NewRecorder registers the metrics on reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sinkbom_generations_total",
				Help: "Total number of BOM generation requests",
			},
			[]string{"status"},
		),
		GenerationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sinkbom_generation_duration_seconds",
				Help:    "Time taken to generate the BOM of one order",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		BuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sinkbom_builds_total",
				Help: "Total number of builds processed",
			},
			[]string{"status"},
		),
		BuildIssuesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sinkbom_build_issues_total",
				Help: "Total number of issues reported on builds",
			},
			[]string{"kind", "severity"},
		),
		BOMNodes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sinkbom_build_nodes",
				Help:    "Number of nodes in one build's BOM tree",
				Buckets: prometheus.ExponentialBuckets(8, 2, 10),
			},
		),
		CatalogIssues: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sinkbom_catalog_integrity_issues",
				Help: "Integrity issues found in the active catalog",
			},
			[]string{"severity"},
		),
	}
}

// RecordGeneration records one generation call
func (r *Recorder) RecordGeneration(status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.GenerationsTotal.WithLabelValues(status).Inc()
	r.GenerationDuration.Observe(duration.Seconds())
}

// RecordBuild records the outcome of one build and the size of its tree
func (r *Recorder) RecordBuild(status string, nodes int) {
	if r == nil {
		return
	}
	r.BuildsTotal.WithLabelValues(status).Inc()
	if nodes > 0 {
		r.BOMNodes.Observe(float64(nodes))
	}
}

// RecordIssue records one reported issue
func (r *Recorder) RecordIssue(kind, severity string) {
	if r == nil {
		return
	}
	r.BuildIssuesTotal.WithLabelValues(kind, severity).Inc()
}

// SetCatalogIssues publishes the integrity counts of the active catalog
func (r *Recorder) SetCatalogIssues(warnings, errors int) {
	if r == nil {
		return
	}
	r.CatalogIssues.WithLabelValues("warning").Set(float64(warnings))
	r.CatalogIssues.WithLabelValues("error").Set(float64(errors))
}

// Timer is a helper for measuring duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
