// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Intent metrics
	IntentsCreated     *prometheus.CounterVec
	IntentsRejected    *prometheus.CounterVec
	ActiveIntentsGauge prometheus.Gauge

	// Settlement metrics
	SettlementChecks   *prometheus.CounterVec
	SettlementScanSize prometheus.Histogram
	SettlementLatency  prometheus.Histogram

	// Claim metrics
	ClaimJobsQueued prometheus.Counter

	// Watcher metrics
	WatcherNotifications prometheus.Counter
	WatcherMatches       prometheus.Counter

	// Ledger metrics
	RPCFailovers   *prometheus.CounterVec
	RPCCallLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "presale_gateway"
	}

	return &Metrics{
		// Intent metrics
		IntentsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "created_total",
			Help:      "Total number of payment intents created by kind",
		}, []string{"kind"}),
		IntentsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "rejected_total",
			Help:      "Total number of intent requests rejected by reason",
		}, []string{"reason"}),
		ActiveIntentsGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "active",
			Help:      "Number of unexpired intents currently stored",
		}),

		// Settlement metrics
		SettlementChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "checks_total",
			Help:      "Total number of settlement checks by outcome",
		}, []string{"outcome"}),
		SettlementScanSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "scan_transactions",
			Help:      "Number of transactions inspected per settlement scan",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		SettlementLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "check_latency_seconds",
			Help:      "Settlement check latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Claim metrics
		ClaimJobsQueued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "claim",
			Name:      "jobs_queued_total",
			Help:      "Total number of claim jobs queued",
		}),

		// Watcher metrics
		WatcherNotifications: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "notifications_total",
			Help:      "Total number of log notifications received",
		}),
		WatcherMatches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "reference_matches_total",
			Help:      "Total number of notifications carrying a known reference tag",
		}),

		// Ledger metrics
		RPCFailovers: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rpc_failovers_total",
			Help:      "Total number of endpoint failovers by RPC method",
		}, []string{"method"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rpc_call_latency_seconds",
			Help:      "Chain RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"operation"}),

		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_latency_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordIntentCreated increments the intents created counter.
func RecordIntentCreated(kind string) {
	DefaultMetrics.IntentsCreated.WithLabelValues(kind).Inc()
}

// RecordIntentRejected increments the intents rejected counter.
func RecordIntentRejected(reason string) {
	DefaultMetrics.IntentsRejected.WithLabelValues(reason).Inc()
}

// RecordSettlementCheck records a settlement check outcome
// (settled, pending, unknown_ref, error).
func RecordSettlementCheck(outcome string) {
	DefaultMetrics.SettlementChecks.WithLabelValues(outcome).Inc()
}

// RecordSettlementScan records scan size and latency for one check.
func RecordSettlementScan(transactions int, seconds float64) {
	DefaultMetrics.SettlementScanSize.Observe(float64(transactions))
	DefaultMetrics.SettlementLatency.Observe(seconds)
}

// RecordClaimJobQueued increments the claim jobs queued counter.
func RecordClaimJobQueued() {
	DefaultMetrics.ClaimJobsQueued.Inc()
}

// RecordWatcherNotification increments the watcher notifications counter.
func RecordWatcherNotification() {
	DefaultMetrics.WatcherNotifications.Inc()
}

// RecordWatcherMatch increments the watcher reference match counter.
func RecordWatcherMatch() {
	DefaultMetrics.WatcherMatches.Inc()
}

// RecordRPCFailover increments the endpoint failover counter.
func RecordRPCFailover(method string) {
	DefaultMetrics.RPCFailovers.WithLabelValues(method).Inc()
}

// RecordRPCLatency records chain RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(route, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, status).Inc()
	DefaultMetrics.HTTPRequestLatency.WithLabelValues(route).Observe(seconds)
}
