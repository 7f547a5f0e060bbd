// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty selects the source text pool for a test.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the supported tiers in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is one of the supported tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// ParseDifficulty normalizes and validates a difficulty name.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q (expected easy, medium or hard)", s)
	}
	return d, nil
}

// CharStatus is the display state of one target character.
type CharStatus int

const (
	StatusUpcoming CharStatus = iota
	StatusCurrent
	StatusCorrect
	StatusIncorrect
)

func (s CharStatus) String() string {
	switch s {
	case StatusUpcoming:
		return "upcoming"
	case StatusCurrent:
		return "current"
	case StatusCorrect:
		return "correct"
	case StatusIncorrect:
		return "incorrect"
	default:
		return fmt.Sprintf("CharStatus(%d)", int(s))
	}
}

// CharacterState pairs a target character with its status.
type CharacterState struct {
	Char   rune
	Status CharStatus
}

// TypingStats are the live metrics of a session.
type TypingStats struct {
	WPM            int
	CPM            int
	Accuracy       int
	TimeRemaining  int
	CorrectChars   int
	IncorrectChars int
	TotalChars     int
}

// NewTestResult is the payload for creating a result.
type NewTestResult struct {
	Username            string     `json:"username"`
	WPM                 float64    `json:"wpm"`
	CPM                 float64    `json:"cpm"`
	Accuracy            float64    `json:"accuracy"`
	TotalTime           int        `json:"total_time"`
	Difficulty          Difficulty `json:"difficulty"`
	TotalCharacters     int        `json:"total_characters"`
	CorrectCharacters   int        `json:"correct_characters"`
	IncorrectCharacters int        `json:"incorrect_characters"`
	TestText            string     `json:"test_text,omitempty"`
}

// TestResult is a persisted test result.
type TestResult struct {
	ID                  int64      `json:"id"`
	Username            string     `json:"username"`
	WPM                 float64    `json:"wpm"`
	CPM                 float64    `json:"cpm"`
	Accuracy            float64    `json:"accuracy"`
	TotalTime           int        `json:"total_time"`
	Difficulty          Difficulty `json:"difficulty"`
	TotalCharacters     int        `json:"total_characters"`
	CorrectCharacters   int        `json:"correct_characters"`
	IncorrectCharacters int        `json:"incorrect_characters"`
	TestText            string     `json:"test_text,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// ResultFilter narrows a result listing.
type ResultFilter struct {
	Username   string
	Difficulty Difficulty
	StartDate  *time.Time
	EndDate    *time.Time
}

// Pagination describes a returned page.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// ResultPage is one page of results.
type ResultPage struct {
	Data       []TestResult `json:"data"`
	Pagination Pagination   `json:"pagination"`
}

// DifficultyBreakdown counts tests per difficulty.
type DifficultyBreakdown struct {
	Easy   int64 `json:"easy"`
	Medium int64 `json:"medium"`
	Hard   int64 `json:"hard"`
}

// Improvement compares the latest window of tests against the one before it.
type Improvement struct {
	WPMChange      float64 `json:"wpm_change"`
	AccuracyChange float64 `json:"accuracy_change"`
}

// UserStats aggregates all results of one user.
type UserStats struct {
	TotalTests          int64               `json:"total_tests"`
	AvgWPM              float64             `json:"avg_wpm"`
	AvgAccuracy         float64             `json:"avg_accuracy"`
	BestWPM             float64             `json:"best_wpm"`
	BestAccuracy        float64             `json:"best_accuracy"`
	TotalTime           int64               `json:"total_time"`
	DifficultyBreakdown DifficultyBreakdown `json:"difficulty_breakdown"`
	Improvement         Improvement         `json:"improvement"`
}

// ResultAggregate is the raw aggregate row for one user.
type ResultAggregate struct {
	Count        int64
	SumWPM       float64
	SumAccuracy  float64
	MaxWPM       float64
	MaxAccuracy  float64
	SumTotalTime int64
	Easy         int64
	Medium       int64
	Hard         int64
}

// MetricPoint is the wpm/accuracy pair of one result, used for trends.
type MetricPoint struct {
	WPM      float64
	Accuracy float64
}

// PracticeConfig defines typing test settings.
type PracticeConfig struct {
	Duration   time.Duration
	Difficulty Difficulty
	Words      int
	Username   string
	WordFile   string
	Server     string
	Token      string
}
