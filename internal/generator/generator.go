// Package generator builds typing text sequences.
package generator

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/typespeed/internal/model"
)

// DefaultWordCount is the number of words drawn for one test.
const DefaultWordCount = 60

// Preset holds the decoration rules of a difficulty tier.
type Preset struct {
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
}

var presets = map[model.Difficulty]Preset{
	model.DifficultyEasy:   {},
	model.DifficultyMedium: {CapsPct: 0.10, PunctPct: 0.10, PunctSet: []rune(".,")},
	model.DifficultyHard:   {CapsPct: 0.30, PunctPct: 0.25, PunctSet: []rune(`.,;:!?'"-`)},
}

// PresetFor returns the decoration rules of a difficulty; unknown tiers get none.
func PresetFor(d model.Difficulty) Preset {
	return presets[d]
}

// Generator produces randomized typing text.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate selects words uniformly and applies caps/punctuation rules.
func (g *Generator) Generate(words []string, count int, p Preset) []string {
	if len(words) == 0 || count <= 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		word = applyCaps(g.rnd, word, p.CapsPct)
		word = applyPunct(g.rnd, word, p.PunctPct, p.PunctSet)
		result = append(result, word)
	}
	return result
}

// Text joins count generated words for a difficulty into one target text.
func (g *Generator) Text(d model.Difficulty, words []string, count int) string {
	return strings.Join(g.Generate(words, count, PresetFor(d)), " ")
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
