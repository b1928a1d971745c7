package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "swapstation_"

	resultSuccess = "success"
	resultError   = "error"

	outcomeSuccess  = "success"
	outcomePartial  = "partial"
	outcomeFailure  = "failure"
	outcomeRejected = "rejected"
)

var (
	registerOnce sync.Once

	ingestOutcomes *prometheus.CounterVec
	ingestRejects  *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	storeWriteFailures *prometheus.CounterVec

	publishTotal   *prometheus.CounterVec
	publishLatency *prometheus.HistogramVec
	dispatchTotal  *prometheus.CounterVec

	queryTotal   *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec

	simulatorTicks prometheus.Counter
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestOutcomes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_outcomes_total",
				Help: "Total ingested records by outcome",
			},
			[]string{"outcome"},
		)
		ingestRejects = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_rejects_total",
				Help: "Total validation rejections by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		)

		storeWriteFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_write_failures_total",
				Help: "Total failed store writes by store",
			},
			[]string{"store"},
		)

		publishTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "publish_total",
				Help: "Total transport publishes by result",
			},
			[]string{"result"},
		)
		publishLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "publish_latency_seconds",
				Help:    "Transport publish latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		dispatchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dispatch_total",
				Help: "Total transport deliveries by result",
			},
			[]string{"result"},
		)

		queryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "query_total",
				Help: "Total query operations by operation and result",
			},
			[]string{"operation", "result"},
		)
		queryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "query_latency_seconds",
				Help:    "Query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "result"},
		)

		simulatorTicks = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "simulator_ticks_total",
				Help: "Total completed simulation ticks",
			},
		)

		prometheus.MustRegister(
			ingestOutcomes,
			ingestRejects,
			ingestLatency,
			storeWriteFailures,
			publishTotal,
			publishLatency,
			dispatchTotal,
			queryTotal,
			queryLatency,
			simulatorTicks,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records one pipeline invocation by outcome.
func ObserveIngest(outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = outcomeSuccess
	}
	if ingestOutcomes != nil {
		ingestOutcomes.WithLabelValues(outcome).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

// IncIngestReject increments the rejection counter for a reason.
func IncIngestReject(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestRejects != nil {
		ingestRejects.WithLabelValues(reason).Inc()
	}
}

// IncStoreWriteFailure increments the per-store write failure counter.
// Diverging state/archive counts reveal partial-success states.
func IncStoreWriteFailure(store string) {
	if store == "" {
		store = "unknown"
	}
	if storeWriteFailures != nil {
		storeWriteFailures.WithLabelValues(store).Inc()
	}
}

// ObservePublish records a transport publish attempt.
func ObservePublish(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if publishTotal != nil {
		publishTotal.WithLabelValues(result).Inc()
	}
	if publishLatency != nil {
		publishLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncDispatched records one transport delivery attempt.
func IncDispatched(result string) {
	if result == "" {
		result = resultSuccess
	}
	if dispatchTotal != nil {
		dispatchTotal.WithLabelValues(result).Inc()
	}
}

// ObserveQuery records a query-service operation.
func ObserveQuery(operation, result string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if queryTotal != nil {
		queryTotal.WithLabelValues(operation, result).Inc()
	}
	if queryLatency != nil {
		queryLatency.WithLabelValues(operation, result).Observe(duration.Seconds())
	}
}

// IncSimulatorTick counts one completed simulation tick.
func IncSimulatorTick() {
	if simulatorTicks != nil {
		simulatorTicks.Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	OutcomeSuccess  = outcomeSuccess
	OutcomePartial  = outcomePartial
	OutcomeFailure  = outcomeFailure
	OutcomeRejected = outcomeRejected
)
