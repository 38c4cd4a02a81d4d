package executor

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer/index"
)

// PostingSource looks up a term's posting list.
type PostingSource interface {
	Postings(term string) index.PostingList
}

// FeasibleSentences unions the first limit sentences of every term's posting
// list and returns them in ascending order.
func FeasibleSentences(terms []string, src PostingSource, limit int) []int {
	seen := make(map[int]struct{})
	for _, term := range terms {
		postings := src.Postings(term)
		if limit >= 0 && len(postings) > limit {
			postings = postings[:limit]
		}
		for _, p := range postings {
			seen[p.Sentence] = struct{}{}
		}
	}
	sentences := make([]int, 0, len(seen))
	for s := range seen {
		sentences = append(sentences, s)
	}
	sort.Ints(sentences)
	return sentences
}
