package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAlnum(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"cats", true},
		{"Привет", true},
		{"route66", true},
		{"", false},
		{"don't", false},
		{"end.", false},
		{"two words", false},
		{"a-b", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAlnum(tt.in), "IsAlnum(%q)", tt.in)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"lowercases", "Cats", "cats", true},
		{"trims", "  Dogs\t", "dogs", true},
		{"cyrillic", "ПривЕт", "привет", true},
		{"empty", "", "", false},
		{"blank", "   ", "", false},
		{"punctuation", "dogs,", "", false},
		{"inner space", "new york", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "Cats Dogs", []string{"cats", "dogs"}},
		{"extra whitespace", "  cats \t\n dogs  ", []string{"cats", "dogs"}},
		{"drops punctuated words", "cats, dogs play!", []string{"dogs"}},
		{"keeps duplicates", "cats cats", []string{"cats", "cats"}},
		{"nothing usable", "?? !!", []string{}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}
