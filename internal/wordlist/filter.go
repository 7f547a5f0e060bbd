package wordlist

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/verte-zerg/typespeed/internal/model"
)

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForDifficulty returns the word filter of a difficulty tier.
func FilterForDifficulty(d model.Difficulty) FilterFunc {
	switch d {
	case model.DifficultyEasy:
		return func(w string) bool { return lowerASCII(w) && len(w) <= 5 }
	case model.DifficultyMedium:
		return func(w string) bool { return lowerASCII(w) && len(w) >= 4 && len(w) <= 9 }
	default:
		return func(w string) bool {
			return w != "" && utf8.ValidString(w) && !strings.ContainsFunc(w, unicode.IsSpace)
		}
	}
}

// Filter keeps the words accepted by keep, preserving order.
func Filter(words []string, keep FilterFunc) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}

func lowerASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}
