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
	// Validation pipeline metrics
	ValidationsTotal    *prometheus.CounterVec
	PhaseDuration       *prometheus.HistogramVec
	TradesReconstructed prometheus.Counter
	ReportsGenerated    prometheus.Counter

	// Monte Carlo metrics
	MonteCarloIterations prometheus.Counter
	RobustVerdicts       *prometheus.CounterVec

	// Walk-forward metrics
	FoldsExecuted    prometheus.Counter
	BacktestDuration prometheus.Histogram

	// HTTP metrics
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ea_stress_lab"
	}

	return &Metrics{
		ValidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "validations_total",
			Help:      "Total number of validation runs by status",
		}, []string{"status"}),
		PhaseDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "phase_duration_seconds",
			Help:      "Pipeline phase execution duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"phase"}),
		TradesReconstructed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "trades_reconstructed_total",
			Help:      "Total number of round-trip trades reconstructed",
		}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of validation reports generated",
		}),

		MonteCarloIterations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "montecarlo",
			Name:      "iterations_total",
			Help:      "Total number of Monte Carlo iterations executed",
		}),
		RobustVerdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "montecarlo",
			Name:      "verdicts_total",
			Help:      "Total number of robustness verdicts by outcome",
		}, []string{"verdict"}),

		FoldsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "walkforward",
			Name:      "folds_executed_total",
			Help:      "Total number of walk-forward folds executed",
		}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "walkforward",
			Name:      "backtest_duration_seconds",
			Help:      "Single backtest execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 900},
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		HTTPRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_latency_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordValidation records a completed validation run.
func RecordValidation(status string) {
	DefaultMetrics.ValidationsTotal.WithLabelValues(status).Inc()
}

// RecordPhase records one pipeline phase's duration.
func RecordPhase(phase string, seconds float64) {
	DefaultMetrics.PhaseDuration.WithLabelValues(phase).Observe(seconds)
}

// RecordTradesReconstructed adds to the reconstructed trade counter.
func RecordTradesReconstructed(n int) {
	DefaultMetrics.TradesReconstructed.Add(float64(n))
}

// RecordMonteCarlo records an iteration batch and its verdict.
func RecordMonteCarlo(iterations int, robust bool) {
	DefaultMetrics.MonteCarloIterations.Add(float64(iterations))
	verdict := "not_robust"
	if robust {
		verdict = "robust"
	}
	DefaultMetrics.RobustVerdicts.WithLabelValues(verdict).Inc()
}

// RecordReportGenerated increments the report counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordFold records one executed walk-forward fold.
func RecordFold() {
	DefaultMetrics.FoldsExecuted.Inc()
}

// RecordBacktestDuration records a single backtest's wall time.
func RecordBacktestDuration(seconds float64) {
	DefaultMetrics.BacktestDuration.Observe(seconds)
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, path, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(method, path, status).Inc()
	DefaultMetrics.HTTPRequestLatency.WithLabelValues(method, path).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
