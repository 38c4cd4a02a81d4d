package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer/segmenter"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/errors"
)

// Engine owns one indexed document. Everything it holds is built by
// NewEngine and never changes afterwards, so an Engine can be shared by any
// number of goroutines.
type Engine struct {
	doc         []rune
	offsets     []int
	index       *index.TermIndex
	cfg         config.IndexerConfig
	logger      *slog.Logger
	fingerprint string
	builtAt     time.Time
	buildTime   time.Duration
}

// Stats describes a built engine.
type Stats struct {
	Sentences     int           `json:"sentences"`
	Terms         int           `json:"terms"`
	Characters    int           `json:"characters"`
	Fingerprint   string        `json:"fingerprint"`
	BuiltAt       time.Time     `json:"built_at"`
	BuildDuration time.Duration `json:"build_duration_ns"`
}

type builder struct {
	doc     []rune
	offsets []int
	index   *index.TermIndex
}

func (b *builder) Word(start, end, sentence int) {
	if start >= end {
		return
	}
	term, ok := tokenizer.Normalize(string(b.doc[start:end]))
	if !ok {
		return
	}
	b.index.Add(term, sentence)
}

func (b *builder) Sentence(start int) {
	b.offsets = append(b.offsets, start)
}

// NewEngine segments and indexes text. It fails for an empty document so
// that a half-usable engine is never returned.
func NewEngine(text string, cfg config.IndexerConfig) (*Engine, error) {
	if text == "" {
		return nil, fmt.Errorf("building snippet engine: %w", apperrors.ErrEmptyDocument)
	}
	if cfg.BenchmarkLength < 1 {
		return nil, fmt.Errorf("building snippet engine: benchmark length %d: %w", cfg.BenchmarkLength, apperrors.ErrInvalidInput)
	}
	start := time.Now()
	b := &builder{
		doc:   []rune(text),
		index: index.NewTermIndex(),
	}
	segmenter.Segment(b.doc, b)

	sum := sha256.Sum256([]byte(text))
	e := &Engine{
		doc:         b.doc,
		offsets:     b.offsets,
		index:       b.index,
		cfg:         cfg,
		logger:      slog.Default().With("component", "indexer"),
		fingerprint: hex.EncodeToString(sum[:8]),
		builtAt:     time.Now(),
		buildTime:   time.Since(start),
	}
	e.logger.Info("document indexed",
		"sentences", len(e.offsets),
		"terms", e.index.Terms(),
		"characters", len(e.doc),
		"fingerprint", e.fingerprint,
		"duration", e.buildTime,
	)
	return e, nil
}

// DocumentLength is the number of characters (runes) in the document.
func (e *Engine) DocumentLength() int {
	return len(e.doc)
}

func (e *Engine) SentenceCount() int {
	return len(e.offsets)
}

// SentenceBounds returns the half-open rune range of sentence n. Sentences
// past the end of the table resolve to the document end.
func (e *Engine) SentenceBounds(n int) (int, int) {
	if n < 0 || n >= len(e.offsets) {
		return len(e.doc), len(e.doc)
	}
	end := len(e.doc)
	if n+1 < len(e.offsets) {
		end = e.offsets[n+1]
	}
	return e.offsets[n], end
}

// SentenceLength is the character length of sentence n, trailing
// punctuation and whitespace included.
func (e *Engine) SentenceLength(n int) int {
	start, end := e.SentenceBounds(n)
	return end - start
}

// Sentence returns the raw text of sentence n.
func (e *Engine) Sentence(n int) string {
	start, end := e.SentenceBounds(n)
	return string(e.doc[start:end])
}

// Offsets returns a copy of the sentence offset table.
func (e *Engine) Offsets() []int {
	out := make([]int, len(e.offsets))
	copy(out, e.offsets)
	return out
}

func (e *Engine) Postings(term string) index.PostingList {
	return e.index.Postings(term)
}

func (e *Engine) Occurrences(term string) int {
	return e.index.Occurrences(term)
}

func (e *Engine) Frequency(term string, sentence int) int {
	return e.index.Frequency(term, sentence)
}

// BenchmarkLength is the sentence length that receives no length penalty.
func (e *Engine) BenchmarkLength() int {
	return e.cfg.BenchmarkLength
}

// Fingerprint identifies the indexed text. Caches key their entries by it so
// that a new document never serves stale snippets.
func (e *Engine) Fingerprint() string {
	return e.fingerprint
}

func (e *Engine) Snapshot() []index.TermEntry {
	return e.index.Snapshot()
}

func (e *Engine) TopTerms(n int) []index.TermEntry {
	return e.index.TopTerms(n)
}

func (e *Engine) Stats() Stats {
	return Stats{
		Sentences:     len(e.offsets),
		Terms:         e.index.Terms(),
		Characters:    len(e.doc),
		Fingerprint:   e.fingerprint,
		BuiltAt:       e.builtAt,
		BuildDuration: e.buildTime,
	}
}
