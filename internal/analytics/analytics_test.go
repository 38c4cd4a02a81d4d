package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/kafka"
)

func TestAggregatorRecordsQueries(t *testing.T) {
	agg := NewAggregator()
	agg.Track(QueryEvent{Type: EventSnippet, Query: "cats", Terms: []string{"cats"}, LatencyUS: 100})
	agg.Track(QueryEvent{Type: EventCacheHit, Query: "cats", Terms: []string{"cats"}, LatencyUS: 10, CacheHit: true})
	agg.Track(&QueryEvent{Type: EventNoMatch, Query: "zebra", UnknownTerms: []string{"zebra"}, LatencyUS: 50})
	agg.Track(QueryEvent{Type: EventEmptyQuery, LatencyUS: 1})
	agg.Track(IndexEvent{Type: EventIndexBuilt, Fingerprint: "abc"})
	agg.Track("not an event")

	stats := agg.Stats()
	assert.Equal(t, int64(4), stats.TotalQueries)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(3), stats.CacheMisses)
	assert.Equal(t, int64(1), stats.NoMatchCount)
	assert.Equal(t, int64(1), stats.EmptyQueryCount)
	assert.Equal(t, int64(1), stats.IndexBuilds)
	assert.Equal(t, "abc", stats.LastFingerprint)
	assert.Equal(t, []TermCount{{"cats", 2}, {"zebra", 1}}, stats.TopQueries)
	assert.Equal(t, []TermCount{{"zebra", 1}}, stats.NoMatchQueries)
	assert.Equal(t, []TermCount{{"cats", 2}}, stats.TopTerms)
	assert.Equal(t, []TermCount{{"zebra", 1}}, stats.UnknownTerms)
	assert.InDelta(t, 40.25, stats.AvgLatencyUS, 1e-9)
	assert.Equal(t, int64(50), stats.P50LatencyUS)
	assert.Equal(t, int64(100), stats.P99LatencyUS)
}

func TestAggregatorBoundsLatencySamples(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < maxLatencySamples+10; i++ {
		agg.Track(QueryEvent{Type: EventSnippet, Query: "q", LatencyUS: int64(i)})
	}
	agg.mu.RLock()
	n := len(agg.latencies)
	last := agg.latencies[n-1]
	agg.mu.RUnlock()
	assert.LessOrEqual(t, n, maxLatencySamples)
	assert.Equal(t, int64(maxLatencySamples+9), last)
}

func TestAggregatorRestore(t *testing.T) {
	agg := NewAggregator()
	agg.Track(QueryEvent{Type: EventSnippet, Query: "cats"})
	agg.Restore(AggregatedStats{
		TotalQueries: 10,
		IndexBuilds:  2,
		TopQueries:   []TermCount{{"cats", 4}, {"dogs", 6}},
	})
	stats := agg.Stats()
	assert.Equal(t, int64(11), stats.TotalQueries)
	assert.Equal(t, int64(2), stats.IndexBuilds)
	assert.Equal(t, []TermCount{{"dogs", 6}, {"cats", 5}}, stats.TopQueries)
}

func TestHandleEvent(t *testing.T) {
	agg := NewAggregator()
	handle := HandleEvent(agg)
	ctx := context.Background()

	query, err := json.Marshal(QueryEvent{Type: EventNoMatch, Query: "zebra"})
	require.NoError(t, err)
	index, err := json.Marshal(IndexEvent{Type: EventIndexBuilt, Fingerprint: "f00d"})
	require.NoError(t, err)

	require.NoError(t, handle(ctx, nil, query))
	require.NoError(t, handle(ctx, nil, index))
	require.NoError(t, handle(ctx, nil, []byte("{not json")))
	require.NoError(t, handle(ctx, nil, []byte(`{"type":"mystery"}`)))

	stats := agg.Stats()
	assert.Equal(t, int64(1), stats.TotalQueries)
	assert.Equal(t, int64(1), stats.NoMatchCount)
	assert.Equal(t, int64(1), stats.IndexBuilds)
	assert.Equal(t, "f00d", stats.LastFingerprint)
}

func TestQueryEventType(t *testing.T) {
	assert.Equal(t, EventCacheHit, QueryEventType("no_match", true))
	assert.Equal(t, EventNoMatch, QueryEventType("no_match", false))
	assert.Equal(t, EventEmptyQuery, QueryEventType("empty_query", false))
	assert.Equal(t, EventSnippet, QueryEventType("snippet", false))
}

func TestKeyOf(t *testing.T) {
	assert.Equal(t, "abc", KeyOf(QueryEvent{Fingerprint: "abc"}))
	assert.Equal(t, "analytics", KeyOf(QueryEvent{}))
	assert.Equal(t, "analytics", KeyOf(42))
}

type recordingTracker struct{ events []any }

func (r *recordingTracker) Track(event any) { r.events = append(r.events, event) }

func TestMulti(t *testing.T) {
	a, b := &recordingTracker{}, &recordingTracker{}
	m := Multi(a, nil, b)
	m.Track("x")
	assert.Equal(t, []any{"x"}, a.events)
	assert.Equal(t, []any{"x"}, b.events)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) published() []kafka.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kafka.Event(nil), f.events...)
}

func TestCollectorPublishes(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 10, nil)
	c.Start(context.Background())

	c.Track(QueryEvent{Type: EventSnippet, Query: "cats", Fingerprint: "abc"})
	c.Track(IndexEvent{Type: EventIndexBuilt})
	c.Close()

	events := pub.published()
	require.Len(t, events, 2)
	assert.Equal(t, "abc", events[0].Key)
	assert.Equal(t, "analytics", events[1].Key)
}

func TestCollectorDropsWhenFull(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 1, nil)
	c.Track(QueryEvent{Query: "a"})
	c.Track(QueryEvent{Query: "b"})
	c.Start(context.Background())
	c.Close()
	assert.Len(t, pub.published(), 1)
}

func TestCollectorDropsAfterClose(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 10, nil)
	c.Start(context.Background())
	c.Track(QueryEvent{Query: "a"})
	c.Close()

	assert.NotPanics(t, func() {
		c.Track(QueryEvent{Query: "late"})
		c.Close()
	})
	assert.Len(t, pub.published(), 1)
}

func TestCollectorConcurrentTrackAndClose(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 1000, nil)
	c.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Track(QueryEvent{Query: "q"})
			}
		}()
	}
	c.Close()
	wg.Wait()
	assert.LessOrEqual(t, len(pub.published()), 800)
}

func TestCollectorSurvivesPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	c := NewCollector(pub, 10, nil)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	c.Track(QueryEvent{Query: "a"})
	time.Sleep(10 * time.Millisecond)
	cancel()
	c.Close()
	assert.Empty(t, pub.published())
}

func TestHandlerStats(t *testing.T) {
	agg := NewAggregator()
	agg.Track(QueryEvent{Type: EventSnippet, Query: "cats"})
	h := NewHandler(agg)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var stats AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.TotalQueries)

	rec = httptest.NewRecorder()
	NewHandler(nil).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
