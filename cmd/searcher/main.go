// Command searcher loads one document, builds the snippet engine over it and
// serves snippet queries over HTTP and JSON-over-TCP RPC.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
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
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/analytics/collector"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/grpc"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/tracing"
)

// eventSink is a started analytics tracker that must be closed on exit.
type eventSink interface {
	analytics.Tracker
	Start(ctx context.Context)
	Close()
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting snippet service", "port", cfg.Server.Port, "rpc_port", cfg.RPC.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}
	checker := health.NewChecker()

	var db *postgres.Client
	var querier loader.Querier
	if cfg.Document.Source == "postgres" {
		db, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		querier = db.DB
		checker.Register("postgres", health.PingCheck(db.Ping, false))
	}

	docLoader, err := loader.New(cfg.Document, querier)
	if err != nil {
		slog.Error("invalid document source", "error", err)
		os.Exit(1)
	}
	text, source, err := docLoader.Load(ctx)
	if err != nil {
		slog.Error("failed to load document", "error", err)
		os.Exit(1)
	}
	engine, err := indexer.NewEngine(text, cfg.Indexer)
	if err != nil {
		slog.Error("failed to build snippet engine", "source", source, "error", err)
		os.Exit(1)
	}
	stats := engine.Stats()
	m.IndexSentences.Set(float64(stats.Sentences))
	m.IndexTerms.Set(float64(stats.Terms))
	m.IndexCharacters.Set(float64(stats.Characters))
	m.IndexBuildSeconds.Set(stats.BuildDuration.Seconds())
	checker.Register("snippet_engine", health.ReadyCheck(func() bool { return engine.SentenceCount() > 0 }, "no sentences indexed"))

	exec := executor.New(engine, cfg.Snippet, executor.WithMetrics(m))

	var snippetCache *cache.SnippetCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, snippet caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
				OnStateChange: func(name string, from, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			snippetCache = cache.New(redisClient, cfg.Redis, engine.Fingerprint(),
				cache.WithMetrics(m),
				cache.WithBreaker(breaker),
			)
			checker.Register("redis", health.PingCheck(redisClient.Ping, false))
			slog.Info("snippet cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	aggregator := analytics.NewAggregator()
	var sink eventSink
	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		if cfg.Analytics.BatchSize > 1 {
			sink = collector.NewBatchCollector(producer, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval, m)
		} else {
			sink = analytics.NewCollector(producer, cfg.Analytics.BufferSize, m)
		}
		sink.Start(ctx)
		slog.Info("analytics publishing enabled", "topic", producer.Topic(), "batch_size", cfg.Analytics.BatchSize)
	}
	var tracker analytics.Tracker = aggregator
	if sink != nil {
		tracker = analytics.Multi(aggregator, sink)
	}
	tracker.Track(analytics.IndexEvent{
		Type:        analytics.EventIndexBuilt,
		Fingerprint: stats.Fingerprint,
		Source:      source,
		Sentences:   stats.Sentences,
		Terms:       stats.Terms,
		Characters:  stats.Characters,
		BuildMs:     stats.BuildDuration.Milliseconds(),
		Timestamp:   time.Now().UTC(),
	})

	h := handler.New(exec, engine,
		handler.WithCache(snippetCache),
		handler.WithTracker(tracker),
		handler.WithMetrics(m),
		handler.WithSampler(tracing.NewSampler(cfg.Tracing.Enabled, cfg.Tracing.SampleRate)),
	)
	analyticsH := analytics.NewHandler(aggregator)

	var rpcServer *grpc.Server
	if cfg.RPC.Port > 0 {
		rpcServer = grpc.NewServer(grpc.WithRequestTimeout(cfg.Server.WriteTimeout))
		h.RegisterRPC(rpcServer)
		go func() {
			if err := rpcServer.Serve(fmt.Sprintf(":%d", cfg.RPC.Port)); err != nil {
				slog.Error("rpc server error", "error", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/snippet", h.SnippetHTTP)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("snippet service listening",
		"addr", server.Addr,
		"source", source,
		"fingerprint", stats.Fingerprint,
		"sentences", stats.Sentences,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	// ListenAndServe returns as soon as Shutdown starts; handlers may still be
	// tracking events until Shutdown returns.
	stop()
	<-shutdownDone
	if rpcServer != nil {
		rpcServer.Stop()
	}
	if sink != nil {
		sink.Close()
	}
	slog.Info("snippet service stopped")
}
