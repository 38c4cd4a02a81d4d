package parser

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/errors"
)

// Vocabulary answers how often a term occurs in the indexed document. A
// count of zero means the term is unknown.
type Vocabulary interface {
	Occurrences(term string) int
}

// QueryPlan is a query reduced to the terms worth scoring.
type QueryPlan struct {
	RawQuery string
	// Terms are known terms, rarest first, at most maxTerms of them.
	Terms []string
	// Unknown lists query words that normalized to a term but do not occur
	// in the document.
	Unknown []string
	// Truncated lists known terms cut by the term limit.
	Truncated []string
}

// Parse tokenizes query against vocab and keeps the maxTerms rarest terms.
// It returns ErrEmptyQuery only for the empty string. A plan with no terms is
// valid and means nothing in the document can match.
func Parse(query string, vocab Vocabulary, maxTerms int) (*QueryPlan, error) {
	known, unknown, err := Tokenize(query, vocab)
	if err != nil {
		return nil, err
	}
	sorted := SortAndTruncate(known, vocab, -1)
	terms := sorted
	if maxTerms >= 0 && len(sorted) > maxTerms {
		terms = sorted[:maxTerms]
	}
	return &QueryPlan{
		RawQuery:  query,
		Terms:     terms,
		Unknown:   unknown,
		Truncated: sorted[len(terms):],
	}, nil
}

// Tokenize splits query into terms and partitions them into those the
// vocabulary knows and those it does not. Repeated words are kept, each
// repetition weighs its sentence again. Query order is preserved in both.
func Tokenize(query string, vocab Vocabulary) (known, unknown []string, err error) {
	if query == "" {
		return nil, nil, fmt.Errorf("tokenizing query: %w", apperrors.ErrEmptyQuery)
	}
	known = make([]string, 0)
	for _, term := range tokenizer.Tokenize(query) {
		if vocab.Occurrences(term) == 0 {
			unknown = append(unknown, term)
			continue
		}
		known = append(known, term)
	}
	return known, unknown, nil
}

// SortAndTruncate orders terms by ascending document occurrence count, so
// the most distinctive terms come first, and keeps the first maxCount. Equal
// counts are ordered lexicographically. terms is sorted in place.
func SortAndTruncate(terms []string, vocab Vocabulary, maxCount int) []string {
	sort.SliceStable(terms, func(i, j int) bool {
		oi, oj := vocab.Occurrences(terms[i]), vocab.Occurrences(terms[j])
		if oi != oj {
			return oi < oj
		}
		return terms[i] < terms[j]
	})
	if maxCount >= 0 && len(terms) > maxCount {
		return terms[:maxCount]
	}
	return terms
}
