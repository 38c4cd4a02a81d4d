package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/tracing"
)

func newExecutor(t testing.TB, text string, opts ...Option) *Executor {
	t.Helper()
	cfg := config.Default()
	engine, err := indexer.NewEngine(text, cfg.Indexer)
	require.NoError(t, err)
	return New(engine, cfg.Snippet, opts...)
}

func TestQueryCatsAndDogs(t *testing.T) {
	e := newExecutor(t, "Cats sleep. Dogs run fast. Cats and dogs play.")

	result, err := e.Query(context.Background(), "cats dogs")
	require.NoError(t, err)
	assert.Equal(t, ResultSnippet, result.ResultType)
	assert.Equal(t, []string{"cats", "dogs"}, result.Terms)
	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, "Cats sleep. ... Dogs run fast. ... Cats and dogs play.", result.Snippet)

	require.Len(t, result.Sentences, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{result.Sentences[0].Sentence, result.Sentences[1].Sentence, result.Sentences[2].Sentence})
	assert.Greater(t, result.Sentences[2].Weight, result.Sentences[1].Weight)
	assert.Greater(t, result.Sentences[1].Weight, result.Sentences[0].Weight)
	assert.Equal(t, "cats", result.Sentences[2].Term)
}

func TestQueryKeepsTopThree(t *testing.T) {
	text := "Alpha one. Alpha two. Beta three. Alpha alpha four. Gamma five. Alpha six."
	e := newExecutor(t, text)
	result, err := e.Query(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Len(t, result.Sentences, 3)
	assert.Equal(t, 4, result.Candidates)
	for i := 1; i < len(result.Sentences); i++ {
		assert.Greater(t, result.Sentences[i].Sentence, result.Sentences[i-1].Sentence)
	}
	assert.Equal(t, "Alpha one. ... Alpha two. ... Alpha alpha four.", result.Snippet)
}

func TestQueryRepeatedTermAddsWeight(t *testing.T) {
	e := newExecutor(t, "Fish swim. Dogs run. Birds fly. Cats nap.")

	result, err := e.Query(context.Background(), "cats cats dogs birds fish")
	require.NoError(t, err)
	assert.Equal(t, []string{"birds", "cats", "cats", "dogs", "fish"}, result.Terms)
	assert.Equal(t, "Fish swim. ... Birds fly. ... Cats nap.", result.Snippet)

	require.Len(t, result.Sentences, 3)
	assert.Equal(t, "cats", result.Sentences[2].Term)
	assert.Greater(t, result.Sentences[2].Weight, result.Sentences[0].Weight)

	single, err := e.Query(context.Background(), "cats dogs birds fish")
	require.NoError(t, err)
	assert.Equal(t, "Fish swim. ... Dogs run. ... Birds fly.", single.Snippet)
}

func TestSnippetSingleSentence(t *testing.T) {
	e := newExecutor(t, "hello world")
	assert.Equal(t, "hello world", e.Snippet(context.Background(), "world"))
}

func TestSnippetMessages(t *testing.T) {
	e := newExecutor(t, "Cats sleep. Dogs run fast.")
	ctx := context.Background()

	assert.Equal(t, "Empty query", e.Snippet(ctx, ""))
	assert.Equal(t, "Nothing was found for your query", e.Snippet(ctx, "zebra"))
	assert.Equal(t, "Nothing was found for your query", e.Snippet(ctx, "cats!"))

	result, err := e.Query(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, ResultNoMatch, result.ResultType)
	assert.Equal(t, "Nothing was found for your query", result.Snippet)

	result, err = e.Query(ctx, "zebra")
	require.NoError(t, err)
	assert.Equal(t, ResultNoMatch, result.ResultType)
	assert.Equal(t, []string{"zebra"}, result.Unknown)
	assert.Empty(t, result.Sentences)
}

func TestSnippetIsIdempotent(t *testing.T) {
	e := newExecutor(t, "Cats sleep. Dogs run fast. Cats and dogs play. Birds sing while cats watch.")
	ctx := context.Background()
	first := e.Snippet(ctx, "cats birds")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Snippet(ctx, "cats birds"))
	}
	assert.Equal(t, first, e.Snippet(ctx, "birds cats"))
}

func TestExecuteNilPlan(t *testing.T) {
	e := newExecutor(t, "hello world")
	_, err := e.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestQueryWithoutEngine(t *testing.T) {
	e := New(nil, config.Default().Snippet)
	_, err := e.Query(context.Background(), "cats")
	assert.ErrorIs(t, err, apperrors.ErrEngineNotReady)
}

func TestQueryCancelled(t *testing.T) {
	e := newExecutor(t, "Cats sleep. Dogs run fast.")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Query(ctx, "cats")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueryRecordsSpans(t *testing.T) {
	e := newExecutor(t, "Cats sleep. Dogs run fast. Cats and dogs play.")
	ctx, root := tracing.StartSpan(context.Background(), "snippet", "trace")
	_, err := e.Query(ctx, "cats")
	require.NoError(t, err)
	root.End()

	names := make([]string, 0)
	for _, child := range root.Summary().Children {
		names = append(names, child.Name)
	}
	assert.Equal(t, []string{"tokenize", "candidates", "rank", "assemble"}, names)
}

func TestQueryRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	e := newExecutor(t, "Cats sleep. Dogs run fast.", WithMetrics(m))
	ctx := context.Background()

	e.Snippet(ctx, "cats")
	e.Snippet(ctx, "zebra")
	e.Snippet(ctx, "")

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := make(map[string]float64)
	for _, f := range families {
		if f.GetName() != "snippet_queries_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			counts[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{"snippet": 1, "no_match": 1, "empty_query": 1}, counts)
}

func BenchmarkSnippet(b *testing.B) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs! How vexingly quick daft zebras jump. ", 500)
	e := newExecutor(b, text)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			e.Snippet(ctx, "quick zebras liquor")
		}
	})
}
