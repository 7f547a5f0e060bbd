package stats

import (
	"sort"
)

// MissedChar is a target character and how often it was mistyped.
type MissedChar struct {
	Char  rune
	Count int
}

// TopMissed returns the n most frequently mistyped characters.
func TopMissed(mistakes map[rune]int, n int) []MissedChar {
	if n <= 0 || len(mistakes) == 0 {
		return nil
	}
	items := make([]MissedChar, 0, len(mistakes))
	for ch, count := range mistakes {
		if count <= 0 {
			continue
		}
		items = append(items, MissedChar{Char: ch, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Char < items[j].Char
		}
		return items[i].Count > items[j].Count
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// CharLabel returns a printable label for a target character.
func CharLabel(ch rune) string {
	if ch == ' ' {
		return "<space>"
	}
	return string(ch)
}
