// package metrics exposes pipeline counters on a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Track outcome labels.
const (
	OutcomeDownloaded     = "downloaded"
	OutcomeNotFound       = "not_found"
	OutcomeDownloadFailed = "download_failed"
)

// Status labels shared by runs and ledger flushes.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the collectors recorded by the pipeline and the HTTP surface.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TracksTotal      *prometheus.CounterVec
	TagFailuresTotal prometheus.Counter
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	LedgerFlushes    *prometheus.CounterVec
	ActiveRuns       prometheus.Gauge
	registry         *prometheus.Registry
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		TracksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotdl_tracks_total",
				Help: "Total number of tracks processed, by outcome",
			},
			[]string{"outcome"},
		),
		TagFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spotdl_tag_failures_total",
				Help: "Total number of downloaded files whose tags could not be written",
			},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotdl_runs_total",
				Help: "Total number of pipeline runs, by status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spotdl_run_duration_seconds",
				Help:    "Time spent processing a collection",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
		),
		LedgerFlushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotdl_ledger_flushes_total",
				Help: "Total number of failure ledger flushes that wrote a block, by status",
			},
			[]string{"status"},
		),
		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spotdl_active_runs",
				Help: "Number of pipeline runs in progress",
			},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.TracksTotal,
		m.TagFailuresTotal,
		m.RunsTotal,
		m.RunDuration,
		m.LedgerFlushes,
		m.ActiveRuns,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) TrackOutcome(outcome string) {
	if m == nil {
		return
	}
	m.TracksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TagFailure() {
	if m == nil {
		return
	}
	m.TagFailuresTotal.Inc()
}

// RunStarted marks a run in progress. Pair it with [Metrics.RunFinished].
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.ActiveRuns.Inc()
}

func (m *Metrics) RunFinished(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.ActiveRuns.Dec()
	m.RunsTotal.WithLabelValues(status(err)).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) LedgerFlush(err error) {
	if m == nil {
		return
	}
	m.LedgerFlushes.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
