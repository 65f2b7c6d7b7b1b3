package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	alertsCreatedTotal *prometheus.CounterVec
	alertEmailsSent    prometheus.Counter
	alertEmailsFailed  prometheus.Counter
	dashboardCacheHits prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API
// and the alert batch job.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gcse_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gcse_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		alertsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gcse_alerts_created_total",
			Help: "Progress alerts created by the rule engine, by alert type.",
		}, []string{"alert_type"})

		alertEmailsSent = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gcse_alert_emails_sent_total",
			Help: "Alert digest emails successfully handed to the mail transport.",
		})

		alertEmailsFailed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gcse_alert_emails_failed_total",
			Help: "Alert digest emails the mail transport rejected.",
		})

		dashboardCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gcse_dashboard_cache_hits_total",
			Help: "Dashboard responses served from the Redis cache.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			alertsCreatedTotal,
			alertEmailsSent,
			alertEmailsFailed,
			dashboardCacheHits,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for served requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// AlertsCreated exposes the per-type counter for rule-engine alerts.
func AlertsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return alertsCreatedTotal
}

// AlertEmailsSent exposes the counter for delivered digest emails.
func AlertEmailsSent() prometheus.Counter {
	RegisterMetrics()
	return alertEmailsSent
}

// AlertEmailsFailed exposes the counter for failed digest emails.
func AlertEmailsFailed() prometheus.Counter {
	RegisterMetrics()
	return alertEmailsFailed
}

// DashboardCacheHits exposes the counter for dashboard cache hits.
func DashboardCacheHits() prometheus.Counter {
	RegisterMetrics()
	return dashboardCacheHits
}
