// Package metrics declares the Prometheus collectors of the dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload outcomes.
const (
	OutcomeAccepted    = "accepted"
	OutcomeUnsupported = "unsupported_type"
	OutcomeParseError  = "parse_error"
	OutcomeMissingCols = "missing_columns"
	OutcomeTooLarge    = "too_large"
	OutcomeBadRequest  = "bad_request"
)

var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrdash_uploads_total",
			Help: "Total number of spreadsheet uploads by outcome",
		},
		[]string{"outcome"},
	)

	UploadedRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hrdash_uploaded_rows",
			Help:    "Number of data rows per accepted upload",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	ParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "hrdash_parse_duration_seconds",
			Help: "Duration of spreadsheet decoding in seconds",
		},
		[]string{"format"},
	)

	DashboardRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrdash_dashboard_renders_total",
			Help: "Total number of dashboard derivations by resulting state",
		},
		[]string{"state"},
	)

	SessionsEvicted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrdash_sessions_evicted_total",
			Help: "Total number of sessions dropped from memory",
		},
		[]string{"reason"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "hrdash_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "route", "status"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hrdash_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)
