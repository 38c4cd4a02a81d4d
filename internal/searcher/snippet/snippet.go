// Package snippet turns ranked sentences back into text.
package snippet

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/searcher/ranker"
)

// SentenceSource returns the raw text of a sentence by number.
type SentenceSource interface {
	Sentence(n int) string
}

// Assemble joins the text of results in document order with separator and
// also returns the text of each sentence. Surrounding whitespace of each
// sentence is dropped. results is reordered in place. An empty result set
// yields an empty string.
func Assemble(results []ranker.WeighingResult, src SentenceSource, separator string) (string, []string) {
	parts := Sentences(results, src)
	return strings.Join(parts, separator), parts
}

// Sentences returns the trimmed text of each result in document order.
func Sentences(results []ranker.WeighingResult, src SentenceSource) []string {
	ranker.InDocumentOrder(results)
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, strings.TrimSpace(src.Sentence(r.Sentence)))
	}
	return parts
}
