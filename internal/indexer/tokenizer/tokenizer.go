// Package tokenizer holds the stateless text helpers shared by indexing and
// query processing. A term is a lowercased, trimmed word made only of letters
// and digits; anything else is not indexable.
package tokenizer

import (
	"strings"
	"unicode"
)

// Trim removes surrounding whitespace.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// Lowercase folds s to lower case.
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// IsAlnumRune reports whether r is a letter or a digit.
func IsAlnumRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsAlnum reports whether s is non-empty and every rune in it is a letter or
// a digit.
func IsAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsAlnumRune(r) {
			return false
		}
	}
	return true
}

// Normalize turns a raw word into a term. The second result is false when
// the word is empty after trimming or contains a non-alphanumeric rune.
func Normalize(word string) (string, bool) {
	word = Trim(word)
	if !IsAlnum(word) {
		return "", false
	}
	return Lowercase(word), true
}

// Tokenize lowercases text, splits it on whitespace and returns the words
// that normalize to terms, in their original order. Words carrying
// punctuation are dropped rather than stripped.
func Tokenize(text string) []string {
	words := strings.Fields(Lowercase(text))
	terms := make([]string, 0, len(words))
	for _, word := range words {
		term, ok := Normalize(word)
		if !ok {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}
