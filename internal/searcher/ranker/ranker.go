package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer/index"
)

// Corpus is the read-only view of an indexed document that scoring needs.
type Corpus interface {
	DocumentLength() int
	Occurrences(term string) int
	Postings(term string) index.PostingList
	SentenceLength(n int) int
}

// WeighingResult is the score of one sentence for one query.
type WeighingResult struct {
	// Term is the first query term found in the sentence.
	Term string `json:"term"`
	// Entry is the position of the sentence in Term's posting list, or -1
	// when no query term occurs in it.
	Entry    int     `json:"-"`
	Sentence int     `json:"sentence"`
	Weight   float64 `json:"weight"`
}

// Score weighs sentence against terms. Each term contributes its frequency in
// the sentence times documentLength / occurrences; the sum is divided by a
// penalty that grows with the log distance between the sentence length and
// benchmark.
func Score(sentence int, terms []string, c Corpus, benchmark int) WeighingResult {
	result := WeighingResult{Sentence: sentence, Entry: -1}
	docLen := float64(c.DocumentLength())
	for _, term := range terms {
		occ := c.Occurrences(term)
		if occ == 0 {
			continue
		}
		postings := c.Postings(term)
		i := postings.Search(sentence)
		if i >= len(postings) || postings[i].Sentence != sentence {
			continue
		}
		if result.Entry < 0 {
			result.Term = term
			result.Entry = i
		}
		idf := docLen / float64(occ)
		result.Weight += float64(postings[i].Frequency) * idf
	}
	result.Weight /= LengthPenalty(c.SentenceLength(sentence), benchmark)
	return result
}

// LengthPenalty is 1 + |ln(benchmark) - ln(length)|. Empty sentences get the
// penalty of a one-character sentence.
func LengthPenalty(length, benchmark int) float64 {
	if length < 1 {
		length = 1
	}
	return 1 + math.Abs(math.Log(float64(benchmark))-math.Log(float64(length)))
}

// Rank scores every candidate and returns the best limit results by weight,
// equal weights ordered by sentence number.
func Rank(candidates []int, terms []string, c Corpus, benchmark, limit int) []WeighingResult {
	results := make([]WeighingResult, 0, len(candidates))
	for _, sentence := range candidates {
		results = append(results, Score(sentence, terms, c, benchmark))
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Weight != results[j].Weight {
			return results[i].Weight > results[j].Weight
		}
		return results[i].Sentence < results[j].Sentence
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// InDocumentOrder sorts results by ascending sentence number in place and
// returns them.
func InDocumentOrder(results []WeighingResult) []WeighingResult {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Sentence < results[j].Sentence
	})
	return results
}

// Round trims a weight to four decimals for display.
func Round(weight float64) float64 {
	return math.Round(weight*10000) / 10000
}
