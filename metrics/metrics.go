package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wardrobe_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SuggestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wardrobe_suggestion_duration_seconds",
			Help:    "End-to-end duration of outfit suggestion requests",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"outcome"},
	)

	SuggestionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_suggestion_failures_total",
			Help: "Outfit suggestion failures by pipeline stage",
		},
		[]string{"stage"},
	)

	TasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_tasks_processed_total",
			Help: "Background tasks processed by type and result",
		},
		[]string{"task_type", "result"},
	)
)
