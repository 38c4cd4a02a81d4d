// Package handler exposes the snippet executor over HTTP and RPC. Both
// transports go through Service.Snippet so caching, metrics, tracing and
// analytics behave the same whichever way a query arrives.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/tracing"
)

const (
	defaultTopTerms = 10
	maxTopTerms     = 100
)

type SnippetExecutor interface {
	Query(ctx context.Context, query string) (*executor.SnippetResult, error)
}

// IndexInfo is the read-only view of the engine the stats endpoints need.
type IndexInfo interface {
	Stats() indexer.Stats
	TopTerms(n int) []index.TermEntry
}

// Response is a snippet result plus how it was produced.
type Response struct {
	*executor.SnippetResult
	CacheHit  bool             `json:"cache_hit"`
	LatencyUS int64            `json:"latency_us"`
	Trace     *tracing.Summary `json:"trace,omitempty"`
}

// IndexStatsResponse is returned by GET /api/v1/index/stats.
type IndexStatsResponse struct {
	indexer.Stats
	BuildMs  int64      `json:"build_ms"`
	TopTerms []TermStat `json:"top_terms"`
}

type TermStat struct {
	Term        string `json:"term"`
	Occurrences int    `json:"occurrences"`
	Sentences   int    `json:"sentences"`
}

type Handler struct {
	executor SnippetExecutor
	index    IndexInfo
	cache    *cache.SnippetCache
	tracker  analytics.Tracker
	metrics  *metrics.Metrics
	sampler  tracing.Sampler
	logger   *slog.Logger
}

type Option func(*Handler)

func WithCache(c *cache.SnippetCache) Option {
	return func(h *Handler) { h.cache = c }
}

func WithTracker(t analytics.Tracker) Option {
	return func(h *Handler) { h.tracker = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithSampler enables span trees for a share of requests. Requests that ask
// for a trace always get one.
func WithSampler(s tracing.Sampler) Option {
	return func(h *Handler) { h.sampler = s }
}

func New(exec SnippetExecutor, idx IndexInfo, opts ...Option) *Handler {
	h := &Handler{
		executor: exec,
		index:    idx,
		logger:   slog.Default().With("component", "snippet-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Snippet answers query, from the cache when possible. source names the
// transport in analytics events.
func (h *Handler) Snippet(ctx context.Context, query, source string, trace bool) (*Response, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	var root *tracing.Span
	if trace || h.sampler.Sample() {
		traceID := middleware.GetRequestID(ctx)
		if traceID == "" {
			traceID = tracing.NewTraceID()
		}
		ctx, root = tracing.StartSpan(ctx, "snippet", traceID)
		root.SetAttr("source", source)
	}

	compute := func() (*executor.SnippetResult, error) {
		return h.executor.Query(ctx, query)
	}
	var (
		result   *executor.SnippetResult
		cacheHit bool
		err      error
	)
	cacheStatus := "disabled"
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, query, compute)
		cacheStatus = "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
	} else {
		result, err = compute()
	}
	if err != nil {
		log.Error("snippet query failed", "query", query, "error", err)
		return nil, err
	}

	latency := time.Since(start)
	if h.metrics != nil {
		h.metrics.SnippetLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	}
	if h.tracker != nil {
		h.tracker.Track(analytics.QueryEvent{
			Type:         analytics.QueryEventType(string(result.ResultType), cacheHit),
			Query:        query,
			Terms:        result.Terms,
			UnknownTerms: result.Unknown,
			Candidates:   result.Candidates,
			Sentences:    len(result.Sentences),
			LatencyUS:    latency.Microseconds(),
			CacheHit:     cacheHit,
			Fingerprint:  result.Fingerprint,
			Source:       source,
			Timestamp:    time.Now().UTC(),
			RequestID:    middleware.GetRequestID(ctx),
		})
	}
	log.Info("snippet served",
		"query", query,
		"result_type", result.ResultType,
		"sentences", len(result.Sentences),
		"cache", cacheStatus,
		"latency_us", latency.Microseconds(),
	)

	resp := &Response{SnippetResult: result, CacheHit: cacheHit, LatencyUS: latency.Microseconds()}
	if root != nil {
		root.SetAttr("cache", cacheStatus)
		root.End()
		root.Log(log)
		if trace {
			summary := root.Summary()
			resp.Trace = &summary
		}
	}
	return resp, nil
}

// SnippetHTTP handles GET /api/v1/snippet?q=...[&trace=1].
func (h *Handler) SnippetHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	trace, _ := strconv.ParseBool(r.URL.Query().Get("trace"))
	resp, err := h.Snippet(r.Context(), r.URL.Query().Get("q"), "http", trace)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), "snippet query failed")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// IndexStats reports the engine's size and its most frequent terms.
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		h.writeError(w, http.StatusServiceUnavailable, apperrors.ErrEngineNotReady.Error())
		return
	}
	top := defaultTopTerms
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "top must be a non-negative integer")
			return
		}
		top = min(n, maxTopTerms)
	}
	h.writeJSON(w, http.StatusOK, h.indexStats(top))
}

func (h *Handler) indexStats(top int) IndexStatsResponse {
	stats := h.index.Stats()
	resp := IndexStatsResponse{
		Stats:    stats,
		BuildMs:  stats.BuildDuration.Milliseconds(),
		TopTerms: []TermStat{},
	}
	for _, entry := range h.index.TopTerms(top) {
		resp.TopTerms = append(resp.TopTerms, TermStat{
			Term:        entry.Term,
			Occurrences: entry.Occurrences,
			Sentences:   len(entry.Postings),
		})
	}
	return resp
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Stats())
}

// CacheInvalidate drops every cached snippet. POST only.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
