package results

import (
	"fmt"
	"regexp"

	"github.com/verte-zerg/typespeed/internal/errors"
	"github.com/verte-zerg/typespeed/internal/model"
)

const (
	MaxWPM      = 500
	MaxCPM      = 2500
	MaxAccuracy = 100

	DefaultListLimit        = 50
	MaxListLimit            = 1000
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// ValidUsername reports whether name is 3-20 letters, digits or underscores.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

type fieldErrors []errors.FieldError

func (f *fieldErrors) add(field, format string, args ...any) {
	*f = append(*f, errors.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (f fieldErrors) err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("%s", message), errors.WithFields(f))
}

func inRange(v, lo, hi float64) bool {
	// NaN fails both comparisons.
	return v >= lo && v <= hi
}

func validateNewResult(in model.NewTestResult) error {
	var fe fieldErrors
	if !ValidUsername(in.Username) {
		fe.add("username", "must be 3-20 letters, digits or underscores")
	}
	if !inRange(in.WPM, 0, MaxWPM) {
		fe.add("wpm", "must be between 0 and %d", MaxWPM)
	}
	if !inRange(in.CPM, 0, MaxCPM) {
		fe.add("cpm", "must be between 0 and %d", MaxCPM)
	}
	if !inRange(in.Accuracy, 0, MaxAccuracy) {
		fe.add("accuracy", "must be between 0 and %d", MaxAccuracy)
	}
	if in.TotalTime < 1 {
		fe.add("total_time", "must be at least 1")
	}
	if !in.Difficulty.Valid() {
		fe.add("difficulty", "must be one of easy, medium, hard")
	}
	if in.TotalCharacters < 1 {
		fe.add("total_characters", "must be at least 1")
	}
	if in.CorrectCharacters < 0 {
		fe.add("correct_characters", "must not be negative")
	}
	if in.IncorrectCharacters < 0 {
		fe.add("incorrect_characters", "must not be negative")
	}
	if in.TotalCharacters >= 1 && in.CorrectCharacters >= 0 && in.IncorrectCharacters >= 0 &&
		in.CorrectCharacters+in.IncorrectCharacters > in.TotalCharacters {
		fe.add("total_characters", "must be at least correct_characters + incorrect_characters")
	}
	return fe.err("invalid test result")
}

func normalizeList(req ListRequest) (ListRequest, error) {
	var fe fieldErrors
	if req.Username == "" {
		fe.add("username", "is required")
	}
	if req.Difficulty != "" && !req.Difficulty.Valid() {
		fe.add("difficulty", "must be one of easy, medium, hard")
	}
	switch {
	case req.Limit == 0:
		req.Limit = DefaultListLimit
	case req.Limit < 1 || req.Limit > MaxListLimit:
		fe.add("limit", "must be between 1 and %d", MaxListLimit)
	}
	if req.Offset < 0 {
		fe.add("offset", "must not be negative")
	}
	return req, fe.err("invalid list query")
}

func normalizeLeaderboard(req LeaderboardRequest) (LeaderboardRequest, error) {
	var fe fieldErrors
	if req.Difficulty != "" && !req.Difficulty.Valid() {
		fe.add("difficulty", "must be one of easy, medium, hard")
	}
	switch {
	case req.Limit == 0:
		req.Limit = DefaultLeaderboardLimit
	case req.Limit < 0:
		fe.add("limit", "must not be negative")
	case req.Limit > MaxLeaderboardLimit:
		req.Limit = MaxLeaderboardLimit
	}
	return req, fe.err("invalid leaderboard query")
}
