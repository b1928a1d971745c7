package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swapstation-cloud/internal/eventing"
	eventingrepo "swapstation-cloud/internal/eventing/infrastructure/postgres"
	"swapstation-cloud/internal/observability/metrics"
	"swapstation-cloud/internal/simulation"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	logger := log.New(os.Stdout, "simulator ", log.LstdFlags)

	numStations := flag.Int("stations", 0, "number of simulated stations (overrides config)")
	interval := flag.Duration("interval", 0, "tick interval (overrides config)")
	flag.Parse()

	cfg, err := simulation.LoadConfig()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	if *numStations > 0 {
		cfg.StationIDs = cfg.StationIDs[:0]
		for i := 1; i <= *numStations; i++ {
			cfg.StationIDs = append(cfg.StationIDs, fmt.Sprintf("station-%02d", i))
		}
		cfg.StationCount = *numStations
	}
	if *interval > 0 {
		cfg.Interval = *interval
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = os.Getenv("PG_DSN")
	}
	if dsn == "" {
		logger.Fatal("DATABASE_URL or PG_DSN is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)

	metricsAddr := os.Getenv("SIMULATOR_METRICS_ADDR")
	if metricsAddr == "" {
		metricsAddr = ":9091"
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		logger.Printf("metrics listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			logger.Printf("metrics server: %v", err)
		}
	}()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	stations := make([]*simulation.Station, 0, len(cfg.StationIDs))
	for _, id := range cfg.StationIDs {
		stations = append(stations, simulation.NewStation(id, rng))
	}

	outboxStore := eventingrepo.NewOutboxStore(db)
	publisher, err := eventing.NewPublisher(outboxStore, logger)
	if err != nil {
		logger.Fatalf("publisher error: %v", err)
	}

	driver, err := simulation.NewDriver(stations, publisher, logger,
		simulation.WithInterval(cfg.Interval),
		simulation.WithTopicPrefix(cfg.TopicPrefix),
	)
	if err != nil {
		logger.Fatalf("driver error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("driver error: %v", err)
	}
}
