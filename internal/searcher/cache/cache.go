package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/resilience"
)

const keyPrefix = "snippet:"

// Store is the part of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Stats reports cache effectiveness since start.
type Stats struct {
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	Errors       int64   `json:"errors"`
	HitRate      float64 `json:"hit_rate"`
	BreakerState string  `json:"breaker_state"`
	Namespace    string  `json:"namespace"`
}

// SnippetCache stores snippet results in Redis keyed by document fingerprint
// and normalized query. Concurrent misses for the same key are computed
// once. Redis failures degrade to computing every query.
type SnippetCache struct {
	store     Store
	ttl       time.Duration
	namespace string
	group     singleflight.Group
	breaker   *resilience.CircuitBreaker
	metrics   *metrics.Metrics
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
	errors    atomic.Int64
}

type Option func(*SnippetCache)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *SnippetCache) {
		c.metrics = m
	}
}

func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *SnippetCache) {
		c.breaker = cb
	}
}

// New creates a cache for the document identified by fingerprint.
func New(store Store, cfg config.RedisConfig, fingerprint string, opts ...Option) *SnippetCache {
	c := &SnippetCache{
		store:     store,
		ttl:       cfg.CacheTTL,
		namespace: keyPrefix + fingerprint + ":",
		logger:    slog.Default().With("component", "snippet-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{})
	}
	return c
}

func (c *SnippetCache) Get(ctx context.Context, query string) (*executor.SnippetResult, bool) {
	key := c.buildKey(query)
	var data string
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.errors.Add(1)
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	if data == "" {
		c.miss()
		return nil, false
	}
	var result executor.SnippetResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.errors.Add(1)
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "query", query, "key", key)
	return &result, true
}

func (c *SnippetCache) Set(ctx context.Context, query string, result *executor.SnippetResult) {
	key := c.buildKey(query)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.errors.Add(1)
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for query or computes, stores and
// returns it. The second result reports a cache hit. The returned result
// always carries query as typed by the caller.
func (c *SnippetCache) GetOrCompute(
	ctx context.Context,
	query string,
	computeFn func() (*executor.SnippetResult, error),
) (*executor.SnippetResult, bool, error) {
	if result, ok := c.Get(ctx, query); ok {
		result.Query = query
		return result, true, nil
	}
	key := c.buildKey(query)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	out := *val.(*executor.SnippetResult)
	out.Query = query
	return &out, false, nil
}

// Invalidate drops every cached snippet, for all documents.
func (c *SnippetCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating snippet cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *SnippetCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Hits:         hits,
		Misses:       misses,
		Errors:       c.errors.Load(),
		HitRate:      rate,
		BreakerState: c.breaker.GetState().String(),
		Namespace:    c.namespace,
	}
}

func (c *SnippetCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *SnippetCache) buildKey(query string) string {
	hash := sha256.Sum256([]byte(normalizeQuery(query)))
	return fmt.Sprintf("%s%x", c.namespace, hash[:16])
}

// normalizeQuery maps queries that produce the same snippet to the same
// string: the terms sorted, repeats kept. Word order does not matter because
// terms are reordered by occurrence before scoring, but every repetition adds
// weight.
func normalizeQuery(query string) string {
	if query == "" {
		return "empty"
	}
	terms := tokenizer.Tokenize(query)
	sort.Strings(terms)
	return "q:" + strings.Join(terms, ",")
}
