// Package metrics holds the Prometheus collectors of the storefront API.
// Collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopsy"

// HTTPRequestsTotal counts completed requests by method, route template and
// status code.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled.",
	},
	[]string{"method", "route", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// AuthRejectionsTotal counts requests stopped by the auth gate.
// Label:
//   - reason: "missing_authorization", "invalid_token", "forbidden"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Requests rejected before reaching a handler.",
	},
	[]string{"reason"},
)

// StatsLoadDuration measures one database load of the dashboard figures.
// Label:
//   - mode: "snapshot" or "independent"
var StatsLoadDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stats_load_duration_seconds",
		Help:      "Duration of loading admin dashboard stats from the database.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"mode"},
)

var StatsRetriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stats_retries_total",
		Help:      "Retries of dashboard stats loads after transient database errors.",
	},
)

// StatsCacheTotal counts cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var StatsCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stats_cache_total",
		Help:      "Dashboard stats cache lookups by result.",
	},
	[]string{"result"},
)
