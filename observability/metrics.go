package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "smartsacco"

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		},
	)

	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Loan decisions by outcome",
		},
		[]string{"outcome"},
	)

	DecisionConfidence = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_confidence_pct",
			Help:      "Classifier confidence of each decision, in percent",
			Buckets:   prometheus.LinearBuckets(10, 10, 9),
		},
		[]string{"outcome"},
	)

	RejectionReasons = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejection_reasons_total",
			Help:      "Rejection reasons reported, by rule",
		},
		[]string{"rule"},
	)

	CounterOffers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counter_offers_total",
			Help:      "Counter-offer searches by result",
		},
		[]string{"result"},
	)
)
