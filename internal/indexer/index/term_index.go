package index

import "sort"

// TermIndex maps each term to its posting list and to its total number of
// occurrences in the document. It is filled once by the indexer and read
// concurrently afterwards; Add must not be called once the index is shared.
type TermIndex struct {
	postings    map[string]PostingList
	occurrences map[string]int
}

func NewTermIndex() *TermIndex {
	return &TermIndex{
		postings:    make(map[string]PostingList),
		occurrences: make(map[string]int),
	}
}

// Add records one occurrence of term in sentence. Sentences must be passed in
// non-decreasing order so that each posting list stays sorted.
func (t *TermIndex) Add(term string, sentence int) {
	t.occurrences[term]++
	pl := t.postings[term]
	if last := len(pl) - 1; last >= 0 && pl[last].Sentence == sentence {
		pl[last].Frequency++
		return
	}
	t.postings[term] = append(pl, Entry{Sentence: sentence, Frequency: 1})
}

// Postings returns the entries for term. The slice is shared with the index
// and must not be modified.
func (t *TermIndex) Postings(term string) PostingList {
	return t.postings[term]
}

// Occurrences returns how many times term occurs in the whole document.
func (t *TermIndex) Occurrences(term string) int {
	return t.occurrences[term]
}

// Frequency returns how many times term occurs in sentence.
func (t *TermIndex) Frequency(term string, sentence int) int {
	return t.postings[term].Frequency(sentence)
}

// Terms returns the vocabulary size.
func (t *TermIndex) Terms() int {
	return len(t.occurrences)
}

// Snapshot returns every term with its postings, sorted by term.
func (t *TermIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(t.postings))
	for term, pl := range t.postings {
		entries = append(entries, TermEntry{
			Term:        term,
			Occurrences: t.occurrences[term],
			Postings:    pl,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// TopTerms returns the n most frequent terms, ties broken by term.
func (t *TermIndex) TopTerms(n int) []TermEntry {
	entries := t.Snapshot()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Occurrences > entries[j].Occurrences
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
