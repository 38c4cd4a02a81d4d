package index

import "sort"

// Entry records how many times a term occurs in one sentence.
type Entry struct {
	Sentence  int `json:"sentence"`
	Frequency int `json:"frequency"`
}

// PostingList holds a term's entries in ascending sentence order with at most
// one entry per sentence.
type PostingList []Entry

// Search returns the index of the leftmost entry whose sentence number is
// greater than or equal to sentence, or len(pl) if there is none.
func (pl PostingList) Search(sentence int) int {
	return sort.Search(len(pl), func(i int) bool {
		return pl[i].Sentence >= sentence
	})
}

// Frequency returns the term frequency recorded for sentence, or 0 when the
// term does not occur there.
func (pl PostingList) Frequency(sentence int) int {
	if len(pl) == 0 || sentence < pl[0].Sentence || sentence > pl[len(pl)-1].Sentence {
		return 0
	}
	i := pl.Search(sentence)
	if i < len(pl) && pl[i].Sentence == sentence {
		return pl[i].Frequency
	}
	return 0
}

// Total sums the frequencies of every entry.
func (pl PostingList) Total() int {
	total := 0
	for _, e := range pl {
		total += e.Frequency
	}
	return total
}

// TermEntry is one row of an index snapshot.
type TermEntry struct {
	Term        string      `json:"term"`
	Occurrences int         `json:"occurrences"`
	Postings    PostingList `json:"postings"`
}
