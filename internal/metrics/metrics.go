// Package metrics provides Prometheus metrics for source passes, derivations
// and alert delivery.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Parse metrics
	RowsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeflow_rows_parsed_total",
			Help: "Total number of logical rows parsed from source files",
		},
		[]string{"country"},
	)

	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeflow_rows_dropped_total",
			Help: "Total number of malformed rows dropped with a warning",
		},
		[]string{"country"},
	)

	ParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradeflow_parse_duration_seconds",
			Help:    "Time taken to read, parse and derive one source file",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"country"},
	)

	// Derivation metrics
	OperationsDerived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeflow_operations_derived_total",
			Help: "Total number of operations derived",
		},
		[]string{"country", "valid"},
	)

	OperationsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeflow_operations_skipped_total",
			Help: "Rows skipped because no client or key could be recovered",
		},
		[]string{"country"},
	)

	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeflow_alerts_raised_total",
			Help: "Alerts attached to derived operations",
		},
		[]string{"kind", "severity"},
	)

	// Source availability
	SourceUnavailable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeflow_source_unavailable_total",
			Help: "Refresh passes that found a source missing or unreadable",
		},
		[]string{"source"},
	)

	SnapshotAge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tradeflow_snapshot_age_seconds",
			Help: "Age of the snapshot served for each source",
		},
		[]string{"source"},
	)

	// Delivery
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradeflow_notifications_total",
			Help: "Webhook notifications by outcome",
		},
		[]string{"status"},
	)
)

// SourceMetrics records metrics for one country's source file.
type SourceMetrics struct {
	country string
}

// ForCountry returns a recorder labeled with a profile code.
func ForCountry(code string) *SourceMetrics {
	return &SourceMetrics{country: code}
}

// RecordParse records one parse pass.
func (m *SourceMetrics) RecordParse(rows, dropped int, duration time.Duration) {
	RowsParsed.WithLabelValues(m.country).Add(float64(rows))
	RowsDropped.WithLabelValues(m.country).Add(float64(dropped))
	ParseDuration.WithLabelValues(m.country).Observe(duration.Seconds())
}

// RecordOperation records one derived operation.
func (m *SourceMetrics) RecordOperation(valid bool) {
	label := "false"
	if valid {
		label = "true"
	}
	OperationsDerived.WithLabelValues(m.country, label).Inc()
}

// RecordSkipped records rows that yielded no operation.
func (m *SourceMetrics) RecordSkipped(n int) {
	if n > 0 {
		OperationsSkipped.WithLabelValues(m.country).Add(float64(n))
	}
}

// RecordAlert records one alert.
func RecordAlert(kind, severity string) {
	AlertsRaised.WithLabelValues(kind, severity).Inc()
}

// RecordUnavailable records a missing or unreadable source.
func RecordUnavailable(source string) {
	SourceUnavailable.WithLabelValues(source).Inc()
}

// RecordSnapshotAge records how old the snapshot for a source is.
func RecordSnapshotAge(source string, age time.Duration) {
	SnapshotAge.WithLabelValues(source).Set(age.Seconds())
}

// RecordNotification records a webhook delivery outcome.
func RecordNotification(status string) {
	NotificationsSent.WithLabelValues(status).Inc()
}
