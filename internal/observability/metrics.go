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
	// Backtest metrics
	BacktestsRun     *prometheus.CounterVec
	BacktestErrors   *prometheus.CounterVec
	BacktestDuration *prometheus.HistogramVec
	TradesClosed     prometheus.Counter

	// Monte Carlo metrics
	SimulationsRun     prometheus.Counter
	SimulationsFailed  prometheus.Counter
	SimulationDuration prometheus.Histogram

	// Portfolio metrics
	OptimizationsRun   *prometheus.CounterVec
	OptimizerFallbacks prometheus.Counter

	// Pipeline metrics
	PipelineRunsTotal  *prometheus.CounterVec
	PipelineDuration   *prometheus.HistogramVec
	InstrumentsSkipped *prometheus.CounterVec
	ReportsGenerated   prometheus.Counter
	LastSuccessfulRun  prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dividend_strategy_lab"
	}

	return &Metrics{
		BacktestsRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtests run by strategy type",
		}, []string{"strategy"}),
		BacktestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "errors_total",
			Help:      "Total number of failed backtests by strategy type",
		}, []string{"strategy"}),
		BacktestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),
		TradesClosed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_closed_total",
			Help:      "Total number of round-trip trades closed",
		}),

		SimulationsRun: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "montecarlo",
			Name:      "simulations_total",
			Help:      "Total number of Monte Carlo simulations completed",
		}),
		SimulationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "montecarlo",
			Name:      "simulations_failed_total",
			Help:      "Total number of Monte Carlo simulations that failed",
		}),
		SimulationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "montecarlo",
			Name:      "run_duration_seconds",
			Help:      "Full Monte Carlo run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),

		OptimizationsRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "optimizations_total",
			Help:      "Total number of portfolio optimizations by method",
		}, []string{"method"}),
		OptimizerFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "equal_weight_fallbacks_total",
			Help:      "Total number of optimizations that fell back to equal weights",
		}),

		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"phase"}),
		InstrumentsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "instruments_skipped_total",
			Help:      "Total number of instruments skipped by reason",
		}, []string{"reason"}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful pipeline run",
		}),

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

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBacktest records one backtest run with its duration.
func RecordBacktest(strategy string, seconds float64, err error) {
	DefaultMetrics.BacktestsRun.WithLabelValues(strategy).Inc()
	DefaultMetrics.BacktestDuration.WithLabelValues(strategy).Observe(seconds)
	if err != nil {
		DefaultMetrics.BacktestErrors.WithLabelValues(strategy).Inc()
	}
}

// RecordTradesClosed adds to the closed-trade counter.
func RecordTradesClosed(n int) {
	DefaultMetrics.TradesClosed.Add(float64(n))
}

// RecordSimulationRun records completed and failed simulation counts plus
// total wall time for the run.
func RecordSimulationRun(completed, failed int, seconds float64) {
	DefaultMetrics.SimulationsRun.Add(float64(completed))
	DefaultMetrics.SimulationsFailed.Add(float64(failed))
	DefaultMetrics.SimulationDuration.Observe(seconds)
}

// RecordOptimization records one optimization run; fellBack marks an
// equal-weight fallback.
func RecordOptimization(method string, fellBack bool) {
	DefaultMetrics.OptimizationsRun.WithLabelValues(method).Inc()
	if fellBack {
		DefaultMetrics.OptimizerFallbacks.Inc()
	}
}

// RecordInstrumentSkipped records an instrument skipped by the pipeline.
func RecordInstrumentSkipped(reason string) {
	DefaultMetrics.InstrumentsSkipped.WithLabelValues(reason).Inc()
}

// RecordPipelinePhase records the duration of one pipeline phase.
func RecordPipelinePhase(phase string, seconds float64) {
	DefaultMetrics.PipelineDuration.WithLabelValues(phase).Observe(seconds)
}

// RecordPipelineRun records a completed pipeline run.
func RecordPipelineRun(status string, unixTime float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		DefaultMetrics.LastSuccessfulRun.Set(unixTime)
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
