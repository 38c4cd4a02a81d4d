package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/kafka"
)

const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalQueries     int64       `json:"total_queries"`
	CacheHits        int64       `json:"cache_hits"`
	CacheMisses      int64       `json:"cache_misses"`
	NoMatchCount     int64       `json:"no_match_count"`
	EmptyQueryCount  int64       `json:"empty_query_count"`
	IndexBuilds      int64       `json:"index_builds"`
	LastFingerprint  string      `json:"last_fingerprint,omitempty"`
	AvgLatencyUS     float64     `json:"avg_latency_us"`
	P50LatencyUS     int64       `json:"p50_latency_us"`
	P95LatencyUS     int64       `json:"p95_latency_us"`
	P99LatencyUS     int64       `json:"p99_latency_us"`
	TopQueries       []TermCount `json:"top_queries"`
	NoMatchQueries   []TermCount `json:"no_match_queries"`
	TopTerms         []TermCount `json:"top_terms"`
	UnknownTerms     []TermCount `json:"unknown_terms"`
	QueriesPerMinute float64     `json:"queries_per_minute"`
}

// TermCount pairs a query or term with how often it was seen.
type TermCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Aggregator folds query and index events into running statistics. Events
// arrive either from Kafka through HandleEvent or directly through Track.
type Aggregator struct {
	mu              sync.RWMutex
	totalQueries    int64
	cacheHits       int64
	cacheMisses     int64
	noMatches       int64
	emptyQueries    int64
	indexBuilds     int64
	lastFingerprint string
	latencies       []int64
	queryCounts     map[string]int64
	noMatchQueries  map[string]int64
	termCounts      map[string]int64
	unknownTerms    map[string]int64
	startTime       time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:      make([]int64, 0, 1024),
		queryCounts:    make(map[string]int64),
		noMatchQueries: make(map[string]int64),
		termCounts:     make(map[string]int64),
		unknownTerms:   make(map[string]int64),
		startTime:      time.Now(),
		logger:         slog.Default().With("component", "analytics-aggregator"),
	}
}

// Run consumes events from consumer until ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context, consumer *kafka.Consumer) error {
	if consumer == nil {
		return errors.New("analytics aggregator: no consumer")
	}
	a.logger.Info("analytics aggregator starting")
	return consumer.Start(ctx)
}

// HandleEvent decodes Kafka messages into events for agg. Undecodable
// messages are logged and skipped so they do not block the partition.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		env, err := kafka.DecodeJSON[envelope](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		switch env.Type {
		case EventIndexBuilt:
			event, err := kafka.DecodeJSON[IndexEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode index event", "error", err)
				return nil
			}
			agg.recordIndexEvent(event)
		case EventSnippet, EventCacheHit, EventNoMatch, EventEmptyQuery:
			event, err := kafka.DecodeJSON[QueryEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode query event", "error", err)
				return nil
			}
			agg.recordQueryEvent(event)
		default:
			agg.logger.Warn("unknown analytics event type", "type", env.Type)
		}
		return nil
	}
}

// Track records event in-process.
func (a *Aggregator) Track(event any) {
	switch e := event.(type) {
	case QueryEvent:
		a.recordQueryEvent(e)
	case *QueryEvent:
		a.recordQueryEvent(*e)
	case IndexEvent:
		a.recordIndexEvent(e)
	case *IndexEvent:
		a.recordIndexEvent(*e)
	default:
		a.logger.Warn("ignoring unsupported analytics event", "type", fmt.Sprintf("%T", event))
	}
}

func (a *Aggregator) recordQueryEvent(event QueryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalQueries++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	switch event.Type {
	case EventNoMatch:
		a.noMatches++
		a.noMatchQueries[event.Query]++
	case EventEmptyQuery:
		a.emptyQueries++
	}

	if len(a.latencies) >= maxLatencySamples {
		keep := maxLatencySamples / 2
		copy(a.latencies, a.latencies[len(a.latencies)-keep:])
		a.latencies = a.latencies[:keep]
	}
	a.latencies = append(a.latencies, event.LatencyUS)
	if event.Type != EventEmptyQuery {
		a.queryCounts[event.Query]++
	}
	for _, term := range event.Terms {
		a.termCounts[term]++
	}
	for _, term := range event.UnknownTerms {
		a.unknownTerms[term]++
	}
}

func (a *Aggregator) recordIndexEvent(event IndexEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.indexBuilds++
	a.lastFingerprint = event.Fingerprint
}

// Restore seeds the counters from a previously saved snapshot. Latency
// samples are not carried over.
func (a *Aggregator) Restore(stats AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalQueries += stats.TotalQueries
	a.cacheHits += stats.CacheHits
	a.cacheMisses += stats.CacheMisses
	a.noMatches += stats.NoMatchCount
	a.emptyQueries += stats.EmptyQueryCount
	a.indexBuilds += stats.IndexBuilds
	if a.lastFingerprint == "" {
		a.lastFingerprint = stats.LastFingerprint
	}
	merge := func(dst map[string]int64, src []TermCount) {
		for _, tc := range src {
			dst[tc.Value] += tc.Count
		}
	}
	merge(a.queryCounts, stats.TopQueries)
	merge(a.noMatchQueries, stats.NoMatchQueries)
	merge(a.termCounts, stats.TopTerms)
	merge(a.unknownTerms, stats.UnknownTerms)
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalQueries:    a.totalQueries,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		NoMatchCount:    a.noMatches,
		EmptyQueryCount: a.emptyQueries,
		IndexBuilds:     a.indexBuilds,
		LastFingerprint: a.lastFingerprint,
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyUS = float64(sum) / float64(len(sorted))
		stats.P50LatencyUS = percentile(sorted, 50)
		stats.P95LatencyUS = percentile(sorted, 95)
		stats.P99LatencyUS = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.NoMatchQueries = topN(a.noMatchQueries, 10)
	stats.TopTerms = topN(a.termCounts, 10)
	stats.UnknownTerms = topN(a.unknownTerms, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalQueries) / elapsed
	}

	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []TermCount {
	result := make([]TermCount, 0, len(counts))
	for value, count := range counts {
		result = append(result, TermCount{Value: value, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Value < result[j].Value
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
