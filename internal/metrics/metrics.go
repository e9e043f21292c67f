// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records pipeline counters on a private Prometheus
// registry. A run can write them in node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/material-normalizer/pkg/types"
)

const namespace = "material_normalizer"

// Recorder holds the metrics of one process.
type Recorder struct {
	registry *prometheus.Registry

	FilesTotal       *prometheus.CounterVec
	DocumentsTotal   *prometheus.CounterVec
	DiagnosticsTotal *prometheus.CounterVec
	RecordsTotal     *prometheus.CounterVec
	FileDuration     prometheus.Histogram
	RunsTotal        prometheus.Counter
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		FilesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Record files processed, by outcome.",
		}, []string{"outcome"}),
		DocumentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed, by outcome.",
		}, []string{"outcome"}),
		DiagnosticsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Diagnostics reported, by code and severity.",
		}, []string{"code", "severity"}),
		RecordsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Canonical records emitted, by status.",
		}, []string{"status"}),
		FileDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Time to split, map, and validate one file.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		RunsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs started.",
		}),
	}
}

// Registry exposes the registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordFile records one processed file.
func (r *Recorder) RecordFile(outcome string, duration time.Duration) {
	r.FilesTotal.WithLabelValues(outcome).Inc()
	r.FileDuration.Observe(duration.Seconds())
}

// RecordDocument records one document outcome.
func (r *Recorder) RecordDocument(outcome string) {
	r.DocumentsTotal.WithLabelValues(outcome).Inc()
}

// RecordDiagnostics counts each diagnostic by code and severity.
func (r *Recorder) RecordDiagnostics(ds types.Diagnostics) {
	for _, d := range ds {
		r.DiagnosticsTotal.WithLabelValues(string(d.Code), string(d.Severity)).Inc()
	}
}

// RecordRecord records one emitted record.
func (r *Recorder) RecordRecord(status string) {
	r.RecordsTotal.WithLabelValues(status).Inc()
}

// WriteTextfile writes every metric to path in textfile collector format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
