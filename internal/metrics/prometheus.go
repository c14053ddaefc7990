// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var MatchesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "alerts_matches_total",
		Help: "Total number of new (job, rule) matches produced by the matcher",
	},
)

var MatchDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "alerts_match_duration_seconds",
		Help:    "Duration of one matcher pass in seconds",
		Buckets: prometheus.DefBuckets,
	},
)

var NotificationsRecordedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "alerts_notifications_recorded_total",
		Help: "Total number of notification records appended to history",
	},
	[]string{"channel"},
)

var NotificationsDuplicateTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "alerts_notifications_duplicate_total",
		Help: "Total number of notification writes rejected by dedupe key",
	},
)

var PushFailuresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "alerts_push_failures_total",
		Help: "Total number of push deliveries that failed and were dropped",
	},
)

var ProviderRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "alerts_provider_runs_total",
		Help: "Total number of fetch-and-match runs, by job source",
	},
	[]string{"from"},
)

var HttpRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests received",
	},
	[]string{"endpoint", "status", "method"},
)

var HttpRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"endpoint", "method"},
)

// Init registers every collector with the default registry. Call once from main.
func Init() {
	prometheus.MustRegister(MatchesTotal)
	prometheus.MustRegister(MatchDuration)
	prometheus.MustRegister(NotificationsRecordedTotal)
	prometheus.MustRegister(NotificationsDuplicateTotal)
	prometheus.MustRegister(PushFailuresTotal)
	prometheus.MustRegister(ProviderRunsTotal)
	prometheus.MustRegister(HttpRequestsTotal)
	prometheus.MustRegister(HttpRequestDuration)
}
