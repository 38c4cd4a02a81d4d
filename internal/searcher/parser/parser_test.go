package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/errors"
)

type vocab map[string]int

func (v vocab) Occurrences(term string) int { return v[term] }

var testVocab = vocab{
	"cats":  2,
	"dogs":  2,
	"sleep": 1,
	"run":   1,
	"fast":  1,
	"and":   9,
	"play":  1,
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		max       int
		terms     []string
		unknown   []string
		truncated []string
	}{
		{
			name:      "rarest first",
			query:     "and cats sleep",
			max:       5,
			terms:     []string{"sleep", "cats", "and"},
			truncated: []string{},
		},
		{
			name:      "ties are lexicographic",
			query:     "Dogs CATS",
			max:       5,
			terms:     []string{"cats", "dogs"},
			truncated: []string{},
		},
		{
			name:      "unknown and punctuated words dropped",
			query:     "cats birds dogs!",
			max:       5,
			terms:     []string{"cats"},
			unknown:   []string{"birds"},
			truncated: []string{},
		},
		{
			name:      "repeated words are kept",
			query:     "cats sleep Cats",
			max:       5,
			terms:     []string{"sleep", "cats", "cats"},
			truncated: []string{},
		},
		{
			name:      "repeats fill term slots",
			query:     "cats sleep sleep sleep sleep sleep sleep",
			max:       5,
			terms:     []string{"sleep", "sleep", "sleep", "sleep", "sleep"},
			truncated: []string{"sleep", "cats"},
		},
		{
			name:      "truncated",
			query:     "and play run fast sleep cats dogs",
			max:       5,
			terms:     []string{"fast", "play", "run", "sleep", "cats"},
			truncated: []string{"dogs", "and"},
		},
		{
			name:      "nothing known",
			query:     "zebra",
			max:       5,
			terms:     []string{},
			unknown:   []string{"zebra"},
			truncated: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Parse(tt.query, testVocab, tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.query, plan.RawQuery)
			assert.Equal(t, tt.terms, plan.Terms)
			assert.Equal(t, tt.unknown, plan.Unknown)
			assert.Equal(t, tt.truncated, plan.Truncated)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("", testVocab, 5)
	assert.ErrorIs(t, err, apperrors.ErrEmptyQuery)
}

func TestParseBlankHasNoTerms(t *testing.T) {
	for _, q := range []string{"   ", "\t\n"} {
		plan, err := Parse(q, testVocab, 5)
		require.NoError(t, err, "query %q", q)
		assert.Empty(t, plan.Terms)
		assert.Empty(t, plan.Unknown)
	}
}

func TestParseIsOrderIndependent(t *testing.T) {
	a, err := Parse("sleep cats run", testVocab, 2)
	require.NoError(t, err)
	b, err := Parse("run cats sleep", testVocab, 2)
	require.NoError(t, err)
	assert.Equal(t, a.Terms, b.Terms)
}

func TestSortAndTruncate(t *testing.T) {
	terms := []string{"and", "dogs", "cats"}
	assert.Equal(t, []string{"cats", "dogs"}, SortAndTruncate(terms, testVocab, 2))
	assert.Equal(t, []string{}, SortAndTruncate([]string{}, testVocab, 5))
}
