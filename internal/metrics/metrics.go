// Package metrics records sync outcomes as Prometheus metrics and exports
// them in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// SyncMetrics holds the counters of one run. Each instance owns its registry
// so runs and tests never share state.
type SyncMetrics struct {
	registry *prometheus.Registry

	itemsTotal   *prometheus.CounterVec
	lookupsTotal *prometheus.CounterVec
	itemDuration *prometheus.HistogramVec
	lastRun      prometheus.Gauge
}

// NewSyncMetrics creates and registers the sync metrics.
func NewSyncMetrics() *SyncMetrics {
	m := &SyncMetrics{
		registry: prometheus.NewRegistry(),
		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsync_items_total",
				Help: "Total number of work items processed",
			},
			[]string{"type", "status"},
		),
		lookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsync_lookups_total",
				Help: "Total number of template placeholder lookups",
			},
			[]string{"status"},
		),
		itemDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opsync_item_duration_seconds",
				Help:    "Duration of work item processing in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"type"},
		),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "opsync_last_run_timestamp_seconds",
			Help: "Unix time the last sync finished",
		}),
	}

	m.registry.MustRegister(m.itemsTotal, m.lookupsTotal, m.itemDuration, m.lastRun)
	return m
}

// RecordItem records the outcome of one work item.
func (m *SyncMetrics) RecordItem(itemType, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.itemsTotal.WithLabelValues(itemType, status).Inc()
	if status != StatusSkipped {
		m.itemDuration.WithLabelValues(itemType).Observe(duration.Seconds())
	}
}

// RecordLookups adds the outcome of a template's placeholder lookups.
func (m *SyncMetrics) RecordLookups(succeeded, failed int) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(StatusSuccess).Add(float64(succeeded))
	m.lookupsTotal.WithLabelValues(StatusFailure).Add(float64(failed))
}

// Finish stamps the run completion time.
func (m *SyncMetrics) Finish(at time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(at.Unix()))
}

// Registry exposes the underlying registry for testing.
func (m *SyncMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile writes every metric to path in the textfile collector format.
// The file is replaced atomically.
func (m *SyncMetrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
