// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gerador_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	DatasetsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gerador_datasets_generated_total",
			Help: "Workbooks written",
		},
	)

	RowsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gerador_rows_generated_total",
			Help: "Customer rows written across all workbooks",
		},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gerador_emails_total",
			Help: "Attachment emails by outcome",
		},
		[]string{"outcome"}, // sent, failed, skipped
	)

	FilesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gerador_files_swept_total",
			Help: "Generated files deleted by the retention sweep",
		},
	)

	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gerador_auth_attempts_total",
			Help: "Login and registration attempts by outcome",
		},
		[]string{"kind", "outcome"},
	)
)

// Email outcomes.
const (
	EmailSent    = "sent"
	EmailFailed  = "failed"
	EmailSkipped = "skipped"
)

func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

func RecordDataset(rows int) {
	DatasetsGenerated.Inc()
	RowsGenerated.Add(float64(rows))
}

func RecordEmail(outcome string) {
	EmailsSent.WithLabelValues(outcome).Inc()
}

func RecordSwept(n int) {
	FilesSwept.Add(float64(n))
}

func RecordAuth(kind, outcome string) {
	AuthAttempts.WithLabelValues(kind, outcome).Inc()
}
