package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/searcher/snippet"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/tracing"
)

type ResultType string

const (
	ResultSnippet    ResultType = "snippet"
	ResultNoMatch    ResultType = "no_match"
	ResultEmptyQuery ResultType = "empty_query"
)

// ScoredSentence is one sentence chosen for a snippet.
type ScoredSentence struct {
	Sentence int     `json:"sentence"`
	Term     string  `json:"term"`
	Weight   float64 `json:"weight"`
	Text     string  `json:"text"`
}

// SnippetResult is the full answer to one query. For no_match and
// empty_query results Snippet holds the configured message.
type SnippetResult struct {
	Query       string           `json:"query"`
	Terms       []string         `json:"terms"`
	Unknown     []string         `json:"unknown_terms,omitempty"`
	Candidates  int              `json:"candidates"`
	Sentences   []ScoredSentence `json:"sentences"`
	Snippet     string           `json:"snippet"`
	ResultType  ResultType       `json:"result_type"`
	Fingerprint string           `json:"fingerprint"`
}

type Executor struct {
	engine  *indexer.Engine
	cfg     config.SnippetConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Executor)

// WithMetrics records query outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

func New(engine *indexer.Engine, cfg config.SnippetConfig, opts ...Option) *Executor {
	e := &Executor{
		engine: engine,
		cfg:    cfg,
		logger: slog.Default().With("component", "snippet-executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the engine queries run against.
func (e *Executor) Engine() *indexer.Engine {
	return e.engine
}

// Plan reduces query to the terms that will be scored.
func (e *Executor) Plan(ctx context.Context, query string) (*parser.QueryPlan, error) {
	_, span := tracing.StartChildSpan(ctx, "tokenize")
	defer span.End()
	plan, err := parser.Parse(query, e.engine, e.cfg.MaxTokens)
	if err != nil {
		return nil, err
	}
	span.SetAttr("terms", len(plan.Terms))
	span.SetAttr("unknown", len(plan.Unknown))
	return plan, nil
}

// Execute runs a parsed plan: candidate selection, scoring, top-k and
// assembly. A plan without terms or without candidates yields a no_match
// result, not an error.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan) (*SnippetResult, error) {
	if e.engine == nil {
		return nil, apperrors.ErrEngineNotReady
	}
	if plan == nil {
		return nil, fmt.Errorf("executing snippet query: nil plan: %w", apperrors.ErrInvalidInput)
	}
	result := &SnippetResult{
		Query:       plan.RawQuery,
		Terms:       plan.Terms,
		Unknown:     plan.Unknown,
		Sentences:   []ScoredSentence{},
		Fingerprint: e.engine.Fingerprint(),
	}
	if len(plan.Terms) == 0 {
		return e.noMatch(result), nil
	}

	_, span := tracing.StartChildSpan(ctx, "candidates")
	candidates := FeasibleSentences(plan.Terms, e.engine, e.cfg.CandidateLimit())
	span.SetAttr("count", len(candidates))
	span.End()
	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		return e.noMatch(result), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("executing snippet query: %w", err)
	}

	_, span = tracing.StartChildSpan(ctx, "rank")
	ranked := ranker.Rank(candidates, plan.Terms, e.engine, e.engine.BenchmarkLength(), e.cfg.MaxSentences)
	span.SetAttr("kept", len(ranked))
	span.End()

	_, span = tracing.StartChildSpan(ctx, "assemble")
	text, texts := snippet.Assemble(ranked, e.engine, e.cfg.Separator)
	for i, r := range ranked {
		result.Sentences = append(result.Sentences, ScoredSentence{
			Sentence: r.Sentence,
			Term:     r.Term,
			Weight:   ranker.Round(r.Weight),
			Text:     texts[i],
		})
	}
	result.Snippet = text
	result.ResultType = ResultSnippet
	span.End()

	return result, nil
}

// Query plans and executes query. An empty query produces an empty_query
// result carrying the configured message.
func (e *Executor) Query(ctx context.Context, query string) (*SnippetResult, error) {
	if e.engine == nil {
		return nil, apperrors.ErrEngineNotReady
	}
	log := logger.FromContext(ctx)
	plan, err := e.Plan(ctx, query)
	if errors.Is(err, apperrors.ErrEmptyQuery) {
		e.record(&SnippetResult{ResultType: ResultEmptyQuery}, nil)
		return &SnippetResult{
			Query:       query,
			Terms:       []string{},
			Sentences:   []ScoredSentence{},
			Snippet:     e.cfg.Messages.EmptyQuery,
			ResultType:  ResultEmptyQuery,
			Fingerprint: e.engine.Fingerprint(),
		}, nil
	}
	if err != nil {
		e.record(nil, err)
		return nil, fmt.Errorf("planning snippet query: %w", err)
	}
	result, err := e.Execute(ctx, plan)
	e.record(result, err)
	if err != nil {
		return nil, err
	}
	log.Debug("snippet query executed",
		"query", query,
		"terms", plan.Terms,
		"unknown", plan.Unknown,
		"truncated", plan.Truncated,
		"candidates", result.Candidates,
		"sentences", len(result.Sentences),
		"result_type", result.ResultType,
	)
	if e.metrics != nil {
		e.metrics.QueryTermsDropped.Add(float64(len(plan.Unknown) + len(plan.Truncated)))
	}
	return result, nil
}

// Snippet returns only the snippet text for query, or the configured
// message when there is nothing to show.
func (e *Executor) Snippet(ctx context.Context, query string) string {
	result, err := e.Query(ctx, query)
	if err != nil {
		logger.FromContext(ctx).Warn("snippet query failed", "query", query, "error", err)
		return e.cfg.Messages.NoMatch
	}
	return result.Snippet
}

func (e *Executor) noMatch(result *SnippetResult) *SnippetResult {
	result.ResultType = ResultNoMatch
	result.Snippet = e.cfg.Messages.NoMatch
	return result
}

func (e *Executor) record(result *SnippetResult, err error) {
	if e.metrics == nil {
		return
	}
	if err != nil {
		e.metrics.SnippetQueriesTotal.WithLabelValues("error").Inc()
		return
	}
	e.metrics.SnippetQueriesTotal.WithLabelValues(string(result.ResultType)).Inc()
	if result.ResultType != ResultEmptyQuery {
		e.metrics.CandidateSentences.Observe(float64(result.Candidates))
		e.metrics.SnippetSentences.Observe(float64(len(result.Sentences)))
	}
}
