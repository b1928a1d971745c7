package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"swapstation-cloud/internal/eventing"
	eventingrepo "swapstation-cloud/internal/eventing/infrastructure/postgres"
	"swapstation-cloud/internal/observability/metrics"
	"swapstation-cloud/internal/telemetry/application"
	telemetry "swapstation-cloud/internal/telemetry/domain"
	telemetrypostgres "swapstation-cloud/internal/telemetry/infrastructure/postgres"
	"swapstation-cloud/internal/telemetry/interfaces"
	stationhttp "swapstation-cloud/internal/telemetry/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)

	stateStore := telemetrypostgres.NewStateStore(db)
	archiveStore := telemetrypostgres.NewArchiveStore(db)

	pipeline, err := application.NewPipeline(stateStore, archiveStore, logger)
	if err != nil {
		logger.Fatalf("pipeline error: %v", err)
	}
	queries, err := application.NewQueryService(stateStore, application.WithPageSize(cfg.QueryPageSize))
	if err != nil {
		logger.Fatalf("query service error: %v", err)
	}

	registry := eventing.NewRegistry()
	registry.Register(telemetry.RawRecord{})

	bus := eventing.NewInMemoryBus()
	consumer, err := interfaces.NewTelemetryConsumer(pipeline, logger)
	if err != nil {
		logger.Fatalf("telemetry consumer error: %v", err)
	}
	bus.Subscribe(eventing.EventTypeOf[telemetry.RawRecord](), consumer.HandleEvent)

	outboxStore := eventingrepo.NewOutboxStore(db)
	dlqStore := eventingrepo.NewDLQStore(db)
	dispatcher := eventing.NewDispatcher(bus, outboxStore, registry, dlqStore, logger)
	go dispatcher.Run(context.Background(), cfg.DispatchInterval, cfg.DispatchBatch)

	stationsHandler, err := stationhttp.NewStationsHandler(queries, logger)
	if err != nil {
		logger.Fatalf("stations handler error: %v", err)
	}
	ingestHandler, err := stationhttp.NewIngestHandler(pipeline, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}
	exportHandler, err := stationhttp.NewFleetExportHandler(queries, logger)
	if err != nil {
		logger.Fatalf("fleet export handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/stations", stationsHandler)
	mux.Handle("/stations/", stationsHandler)
	mux.Handle("/ingest/telemetry", ingestHandler)
	mux.Handle("/exports/stations.csv", exportHandler)
	mux.Handle("/exports/stations.xlsx", exportHandler)
	mux.Handle("/exports/stations.pdf", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/", stationhttp.NotFoundHandler())

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL      string
	HTTPAddr         string
	QueryPageSize    int
	DispatchInterval time.Duration
	DispatchBatch    int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:      getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:         getenvDefault("HTTP_ADDR", ":8080"),
		QueryPageSize:    getenvIntDefault("QUERY_PAGE_SIZE", 100),
		DispatchInterval: getenvDuration("DISPATCH_INTERVAL", time.Second),
		DispatchBatch:    getenvIntDefault("DISPATCH_BATCH", 100),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
