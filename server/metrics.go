package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsPrefix = "rossdash_"

// Metrics are the server's prometheus collectors.
type Metrics struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	rowsServed    *prometheus.CounterVec
	tableRows     *prometheus.GaugeVec
	windowChanges prometheus.Counter
}

// NewMetrics registers the server collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricsPrefix + "http_requests_total",
				Help: "Number of API requests by route and status code",
			},
			[]string{"route", "code"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricsPrefix + "http_request_duration_seconds",
				Help:    "API request latency by route",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"route"},
		),
		rowsServed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricsPrefix + "rows_served_total",
				Help: "Number of telemetry rows returned by row queries",
			},
			[]string{"kind"},
		),
		tableRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricsPrefix + "table_rows",
				Help: "Number of rows loaded per record kind",
			},
			[]string{"kind"},
		),
		windowChanges: factory.NewCounter(
			prometheus.CounterOpts{
				Name: metricsPrefix + "window_changes_total",
				Help: "Number of time window changes",
			},
		),
	}
}
