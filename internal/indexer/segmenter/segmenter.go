// Package segmenter splits a document into sentences and words in a single
// left-to-right scan. It reports boundaries through a Visitor and keeps no
// state of its own, so the same document always yields the same callbacks.
package segmenter

import (
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer/tokenizer"
)

// Visitor receives boundaries in document order.
//
// Word is called with the half-open rune span [start, end) of a candidate
// word and the sentence it belongs to. Spans may be empty or contain
// punctuation; filtering them is the visitor's job.
//
// Sentence is called with the starting offset of every sentence, beginning
// with offset 0 for sentence 0.
type Visitor interface {
	Word(start, end, sentence int)
	Sentence(start int)
}

// IsSentenceMark reports whether r ends a sentence on its own.
func IsSentenceMark(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

// IsWordBreak reports whether r ends a word without ending a sentence.
func IsWordBreak(r rune) bool {
	switch r {
	case ' ', ',', ':', ';':
		return true
	}
	return unicode.IsSpace(r)
}

// Segment scans doc and returns the number of sentences it found. A sentence
// ends at '.', '?', '!' or at two consecutive newlines; the next one starts
// at the first letter or digit after the mark. A boundary that would start at
// the end of the document is not reported, so offsets stay strictly
// increasing.
func Segment(doc []rune, v Visitor) int {
	n := len(doc)
	sentence := 0
	wordStart := 0
	v.Sentence(0)

	var prev rune
	for pos := 0; pos < n; pos++ {
		cur := doc[pos]
		switch {
		case IsSentenceMark(cur) || (cur == '\n' && prev == '\n'):
			v.Word(wordStart, pos, sentence)
			next := pos + 1
			for next < n && !tokenizer.IsAlnumRune(doc[next]) {
				next++
			}
			if next >= n {
				return sentence + 1
			}
			sentence++
			v.Sentence(next)
			wordStart = next
			pos = next - 1
			cur = 0
		case IsWordBreak(cur):
			v.Word(wordStart, pos, sentence)
			wordStart = pos + 1
		}
		prev = cur
	}
	if wordStart < n {
		v.Word(wordStart, n, sentence)
	}
	return sentence + 1
}
