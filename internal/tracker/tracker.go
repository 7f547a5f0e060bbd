// Package tracker implements the live state of a timed typing test.
//
// A Session is driven by discrete events: typed runes, backspaces and
// one-second ticks. Every event recomputes the per-character states and the
// derived metrics from the typed prefix, so the session never keeps history
// beyond the prefix itself. A Session is not safe for concurrent use; the
// host event loop is its only writer.
package tracker

import (
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/typespeed/internal/model"
	"github.com/verte-zerg/typespeed/internal/stats"
)

// State is the lifecycle phase of a session.
type State int

const (
	Idle State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TickInterval is the countdown granularity.
const TickInterval = time.Second

// AllowedDurations are the test lengths a session can be configured with.
var AllowedDurations = []time.Duration{1 * time.Minute, 3 * time.Minute, 5 * time.Minute}

var (
	ErrEmptyText       = errors.New("target text is empty")
	ErrInvalidDuration = errors.New("invalid test duration")
)

// ValidDuration reports whether d is one of AllowedDurations.
func ValidDuration(d time.Duration) bool {
	for _, allowed := range AllowedDurations {
		if d == allowed {
			return true
		}
	}
	return false
}

// Session tracks one typing test.
type Session struct {
	target     []rune
	input      []rune
	duration   time.Duration
	remaining  int
	difficulty model.Difficulty
	state      State

	chars []model.CharacterState
	stats model.TypingStats
}

// New creates an idle session for the target text.
func New(text string, duration time.Duration, difficulty model.Difficulty) (*Session, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if !ValidDuration(duration) {
		return nil, fmt.Errorf("%w: %s (allowed: 1m, 3m, 5m)", ErrInvalidDuration, duration)
	}
	if !difficulty.Valid() {
		return nil, fmt.Errorf("invalid difficulty %q", difficulty)
	}
	s := &Session{
		duration:   duration,
		difficulty: difficulty,
	}
	s.reset([]rune(text))
	return s, nil
}

// Start moves an idle session to running without typing.
func (s *Session) Start() {
	if s.state == Idle {
		s.state = Running
	}
}

// Type appends one rune to the typed prefix. It reports false when the rune
// was not accepted: the session is complete or the prefix already covers the
// whole target.
func (s *Session) Type(r rune) bool {
	if s.state == Completed || len(s.input) >= len(s.target) {
		return false
	}
	s.Start()
	s.input = append(s.input, r)
	s.update()
	return true
}

// SetInput replaces the typed prefix, truncating it to the target length.
func (s *Session) SetInput(value string) {
	if s.state == Completed {
		return
	}
	runes := []rune(value)
	if len(runes) > len(s.target) {
		runes = runes[:len(s.target)]
	}
	if len(runes) > 0 {
		s.Start()
	}
	s.input = append(s.input[:0], runes...)
	s.update()
}

// Backspace removes the last typed rune.
func (s *Session) Backspace() bool {
	if s.state == Completed || len(s.input) == 0 {
		return false
	}
	s.input = s.input[:len(s.input)-1]
	s.update()
	return true
}

// Tick advances the countdown by one interval while running.
func (s *Session) Tick() {
	if s.state != Running {
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	s.recompute()
	if s.remaining == 0 {
		s.state = Completed
	}
}

// Retake resets the session to idle with a full clock. An empty text keeps
// the current target.
func (s *Session) Retake(text string) {
	target := s.target
	if text != "" {
		target = []rune(text)
	}
	s.reset(target)
}

// State returns the lifecycle phase.
func (s *Session) State() State {
	return s.state
}

// Target returns the target text.
func (s *Session) Target() string {
	return string(s.target)
}

// Input returns the typed prefix.
func (s *Session) Input() string {
	return string(s.input)
}

// Difficulty returns the configured difficulty.
func (s *Session) Difficulty() model.Difficulty {
	return s.difficulty
}

// Duration returns the configured test length.
func (s *Session) Duration() time.Duration {
	return s.duration
}

// Characters returns a copy of the per-character states.
func (s *Session) Characters() []model.CharacterState {
	out := make([]model.CharacterState, len(s.chars))
	copy(out, s.chars)
	return out
}

// Stats returns the current metrics.
func (s *Session) Stats() model.TypingStats {
	return s.stats
}

// Elapsed returns the time consumed on the countdown.
func (s *Session) Elapsed() time.Duration {
	return time.Duration(s.durationSeconds()-s.remaining) * TickInterval
}

// Mistakes counts mistyped positions in the prefix per expected character.
func (s *Session) Mistakes() map[rune]int {
	out := map[rune]int{}
	for i, r := range s.input {
		if r != s.target[i] {
			out[s.target[i]]++
		}
	}
	return out
}

// Result returns the payload to persist once the session is complete. It
// reports false while the session is still active or when nothing was typed.
func (s *Session) Result(username string) (model.NewTestResult, bool) {
	if s.state != Completed || s.stats.TotalChars == 0 {
		return model.NewTestResult{}, false
	}
	totalTime := int(s.Elapsed() / time.Second)
	if totalTime < 1 {
		totalTime = 1
	}
	return model.NewTestResult{
		Username:            username,
		WPM:                 float64(s.stats.WPM),
		CPM:                 float64(s.stats.CPM),
		Accuracy:            float64(s.stats.Accuracy),
		TotalTime:           totalTime,
		Difficulty:          s.difficulty,
		TotalCharacters:     s.stats.TotalChars,
		CorrectCharacters:   s.stats.CorrectChars,
		IncorrectCharacters: s.stats.IncorrectChars,
		TestText:            string(s.target),
	}, true
}

func (s *Session) reset(target []rune) {
	s.target = target
	s.input = nil
	s.remaining = s.durationSeconds()
	s.state = Idle
	s.recompute()
}

func (s *Session) durationSeconds() int {
	return int(s.duration / TickInterval)
}

// update recomputes after an input change and completes the session once the
// prefix covers the whole target.
func (s *Session) update() {
	s.recompute()
	if len(s.input) == len(s.target) {
		s.state = Completed
	}
}

func (s *Session) recompute() {
	s.chars = CharacterStates(s.target, s.input)
	correct, incorrect := 0, 0
	for _, ch := range s.chars {
		switch ch.Status {
		case model.StatusCorrect:
			correct++
		case model.StatusIncorrect:
			incorrect++
		}
	}
	total := len(s.input)
	wpm, cpm, acc := stats.SessionMetrics(correct, total, s.Elapsed())
	s.stats = model.TypingStats{
		WPM:            wpm,
		CPM:            cpm,
		Accuracy:       acc,
		TimeRemaining:  s.remaining,
		CorrectChars:   correct,
		IncorrectChars: incorrect,
		TotalChars:     total,
	}
}

// CharacterStates evaluates every target rune against the typed prefix.
// Positions inside the prefix are correct or incorrect, the position right
// after it is current, everything else is upcoming.
func CharacterStates(target, input []rune) []model.CharacterState {
	out := make([]model.CharacterState, len(target))
	for i, r := range target {
		status := model.StatusUpcoming
		switch {
		case i < len(input) && input[i] == r:
			status = model.StatusCorrect
		case i < len(input):
			status = model.StatusIncorrect
		case i == len(input):
			status = model.StatusCurrent
		}
		out[i] = model.CharacterState{Char: r, Status: status}
	}
	return out
}
