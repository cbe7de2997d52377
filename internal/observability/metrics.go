// Package observability holds the Prometheus collectors exported on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aurora_http_requests_total",
		Help: "HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aurora_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	Reactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aurora_reactions_total",
		Help: "Reaction toggles by target kind, direction and outcome",
	}, []string{"target", "direction", "outcome"})

	FollowToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aurora_follow_toggles_total",
		Help: "Follow toggles by target kind and resulting state",
	}, []string{"target", "state"})

	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aurora_content_created_total",
		Help: "Created posts, comments and categories",
	}, []string{"kind"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aurora_rate_limited_total",
		Help: "Requests rejected by the per-IP rate limiter",
	})
)
