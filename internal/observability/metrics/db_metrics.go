package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "outbox_pending",
			Help: "Pending telemetry outbox records",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM telemetry_outbox WHERE status = 'pending'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "outbox_dlq_count",
			Help: "Dead letter records",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM telemetry_dead_letters")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "station_states",
			Help: "Rows in the fast state store",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM station_states")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
