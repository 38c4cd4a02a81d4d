// Command analytics runs the standalone analytics service.
//
// It consumes snippet query and index events from Kafka, aggregates them in
// memory, snapshots the aggregate to PostgreSQL on an interval and serves it
// at GET /api/v1/analytics. On start it resumes from the latest snapshot.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	port := flag.Int("port", 8081, "HTTP port (overrides server.port)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Server.Port = *port

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checker := health.NewChecker()
	agg := analytics.NewAggregator()

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, analytics snapshots disabled", "error", err)
	} else {
		defer db.Close()
		store := aggregator.NewStore(db)
		if err := store.Migrate(ctx); err != nil {
			slog.Error("failed to migrate analytics store", "error", err)
			os.Exit(1)
		}
		latest, err := store.LatestSnapshot(ctx)
		if err != nil {
			slog.Warn("could not load latest snapshot", "error", err)
		} else if latest != nil {
			agg.Restore(*latest)
			slog.Info("analytics restored from snapshot", "total_queries", latest.TotalQueries)
		}
		interval := cfg.Analytics.SnapshotInterval
		if interval <= 0 {
			interval = time.Minute
		}
		store.StartPeriodicSave(ctx, agg, interval)
		checker.Register("postgres", health.PingCheck(db.Ping, false))
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(agg))
	go func() {
		if err := agg.Run(ctx, consumer); err != nil {
			slog.Error("aggregator error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started", "topic", consumer.Topic())
	checker.Register("aggregator", health.ReadyCheck(func() bool { return ctx.Err() == nil }, "shutting down"))

	analyticsHandler := analytics.NewHandler(agg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("analytics service stopped")
}
