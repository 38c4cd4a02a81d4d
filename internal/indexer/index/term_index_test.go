package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermIndexAdd(t *testing.T) {
	idx := NewTermIndex()
	idx.Add("cats", 0)
	idx.Add("cats", 0)
	idx.Add("dogs", 1)
	idx.Add("cats", 2)

	assert.Equal(t, PostingList{{Sentence: 0, Frequency: 2}, {Sentence: 2, Frequency: 1}}, idx.Postings("cats"))
	assert.Equal(t, PostingList{{Sentence: 1, Frequency: 1}}, idx.Postings("dogs"))
	assert.Equal(t, 3, idx.Occurrences("cats"))
	assert.Equal(t, 1, idx.Occurrences("dogs"))
	assert.Equal(t, 0, idx.Occurrences("birds"))
	assert.Positive(t, idx.Occurrences("cats"))
	assert.Zero(t, idx.Occurrences("birds"))
	assert.Nil(t, idx.Postings("birds"))
	assert.Equal(t, 2, idx.Terms())
}

func TestPostingListFrequency(t *testing.T) {
	pl := PostingList{
		{Sentence: 1, Frequency: 4},
		{Sentence: 3, Frequency: 1},
		{Sentence: 7, Frequency: 2},
	}
	tests := []struct {
		sentence int
		want     int
	}{
		{0, 0},
		{1, 4},
		{2, 0},
		{3, 1},
		{6, 0},
		{7, 2},
		{8, 0},
		{-1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pl.Frequency(tt.sentence), "sentence %d", tt.sentence)
	}
	assert.Equal(t, 0, PostingList(nil).Frequency(0))
}

func TestPostingListSearch(t *testing.T) {
	pl := PostingList{{Sentence: 2}, {Sentence: 4}, {Sentence: 9}}
	assert.Equal(t, 0, pl.Search(0))
	assert.Equal(t, 0, pl.Search(2))
	assert.Equal(t, 1, pl.Search(3))
	assert.Equal(t, 2, pl.Search(9))
	assert.Equal(t, 3, pl.Search(10))
}

func TestSnapshotInvariants(t *testing.T) {
	idx := NewTermIndex()
	words := []struct {
		term     string
		sentence int
	}{
		{"a", 0}, {"b", 0}, {"a", 0}, {"c", 1}, {"a", 1}, {"b", 3}, {"b", 3}, {"a", 5},
	}
	for _, w := range words {
		idx.Add(w.term, w.sentence)
	}

	snap := idx.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{snap[0].Term, snap[1].Term, snap[2].Term})
	for _, e := range snap {
		assert.Equal(t, e.Occurrences, e.Postings.Total(), "term %s", e.Term)
		for i := 1; i < len(e.Postings); i++ {
			assert.Greater(t, e.Postings[i].Sentence, e.Postings[i-1].Sentence, "term %s", e.Term)
		}
	}
}

func TestTopTerms(t *testing.T) {
	idx := NewTermIndex()
	for _, term := range []string{"x", "y", "y", "z", "z", "z", "w", "w"} {
		idx.Add(term, 0)
	}
	top := idx.TopTerms(3)
	require.Len(t, top, 3)
	assert.Equal(t, "z", top[0].Term)
	assert.Equal(t, "w", top[1].Term)
	assert.Equal(t, "y", top[2].Term)
	assert.Len(t, idx.TopTerms(10), 4)
}
