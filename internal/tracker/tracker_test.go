package tracker

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/typespeed/internal/model"
)

func newSession(t *testing.T, text string) *Session {
	t.Helper()
	s, err := New(text, time.Minute, model.DifficultyEasy)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func typeString(s *Session, text string) {
	for _, r := range text {
		s.Type(r)
	}
}

func statuses(s *Session) []model.CharStatus {
	chars := s.Characters()
	out := make([]model.CharStatus, len(chars))
	for i, ch := range chars {
		out[i] = ch.Status
	}
	return out
}

func TestNewValidates(t *testing.T) {
	if _, err := New("", time.Minute, model.DifficultyEasy); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if _, err := New("abc", 2*time.Minute, model.DifficultyEasy); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := New("abc", time.Minute, "extreme"); err == nil {
		t.Fatalf("expected invalid difficulty to fail")
	}
}

func TestIdleSessionState(t *testing.T) {
	s := newSession(t, "cat")
	if s.State() != Idle {
		t.Fatalf("expected idle, got %s", s.State())
	}
	want := []model.CharStatus{model.StatusCurrent, model.StatusUpcoming, model.StatusUpcoming}
	if got := statuses(s); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected statuses: %v", got)
	}
	st := s.Stats()
	if st.TimeRemaining != 60 || st.TotalChars != 0 || st.Accuracy != 0 || st.WPM != 0 {
		t.Fatalf("unexpected idle stats: %+v", st)
	}
	s.Tick()
	if s.Stats().TimeRemaining != 60 {
		t.Fatalf("tick must not run the clock while idle")
	}
}

func TestTypingScenarioWithMistake(t *testing.T) {
	s := newSession(t, "cat")
	typeString(s, "cx")

	want := []model.CharStatus{model.StatusCorrect, model.StatusIncorrect, model.StatusCurrent}
	if got := statuses(s); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected statuses: %v", got)
	}
	st := s.Stats()
	if st.CorrectChars != 1 || st.IncorrectChars != 1 || st.TotalChars != 2 || st.Accuracy != 50 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if s.State() != Running {
		t.Fatalf("expected running, got %s", s.State())
	}
}

func TestTypingFullTextCompletes(t *testing.T) {
	s := newSession(t, "cat")
	typeString(s, "cxt")

	want := []model.CharStatus{model.StatusCorrect, model.StatusIncorrect, model.StatusCorrect}
	if got := statuses(s); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected statuses: %v", got)
	}
	if s.State() != Completed {
		t.Fatalf("expected completed, got %s", s.State())
	}
	if s.Stats().TimeRemaining != 60 {
		t.Fatalf("completion by length must not depend on the clock")
	}
	if s.Type('x') {
		t.Fatalf("expected typing after completion to be rejected")
	}
}

func TestPrefixInvariants(t *testing.T) {
	target := "the quick brown fox"
	typed := "thw quick brpwn fix and more text past the end"
	s := newSession(t, target)
	for i, r := range typed {
		s.Type(r)
		st := s.Stats()
		if st.CorrectChars+st.IncorrectChars != st.TotalChars {
			t.Fatalf("step %d: counts do not add up: %+v", i, st)
		}
		if st.TotalChars > len([]rune(target)) {
			t.Fatalf("step %d: prefix longer than target: %+v", i, st)
		}
		current := 0
		for j, ch := range s.Characters() {
			if ch.Status == model.StatusCurrent {
				current++
				if j != st.TotalChars {
					t.Fatalf("step %d: current at %d, prefix length %d", i, j, st.TotalChars)
				}
			}
			if j < st.TotalChars && (ch.Status == model.StatusUpcoming || ch.Status == model.StatusCurrent) {
				t.Fatalf("step %d: typed position %d is %s", i, j, ch.Status)
			}
			if j > st.TotalChars && ch.Status != model.StatusUpcoming {
				t.Fatalf("step %d: untyped position %d is %s", i, j, ch.Status)
			}
		}
		if st.TotalChars < len([]rune(target)) && current != 1 {
			t.Fatalf("step %d: expected exactly one current, got %d", i, current)
		}
		if st.TotalChars == len([]rune(target)) && current != 0 {
			t.Fatalf("step %d: expected no current after completion, got %d", i, current)
		}
	}
	if s.Stats().TotalChars != len([]rune(target)) {
		t.Fatalf("expected prefix to stop at target length")
	}
}

func TestSetInputTruncates(t *testing.T) {
	s := newSession(t, "héllo")
	s.SetInput("hé")
	if s.Input() != "hé" || s.State() != Running {
		t.Fatalf("unexpected state after partial input: %q %s", s.Input(), s.State())
	}
	s.SetInput("héllo world")
	if s.Input() != "héllo" {
		t.Fatalf("expected truncation to target length, got %q", s.Input())
	}
	if s.State() != Completed {
		t.Fatalf("expected completed, got %s", s.State())
	}
}

func TestBackspaceInvertsType(t *testing.T) {
	s := newSession(t, "typing")
	typeString(s, "ty")
	s.Tick()
	s.Tick()
	before := s.Stats()
	beforeChars := s.Characters()

	for _, r := range []rune{'p', 'x'} {
		if !s.Type(r) {
			t.Fatalf("expected %q to be accepted", r)
		}
		if !s.Backspace() {
			t.Fatalf("expected backspace to be accepted")
		}
		if got := s.Stats(); got != before {
			t.Fatalf("stats differ after type+backspace of %q: %+v vs %+v", r, got, before)
		}
		if got := s.Characters(); !reflect.DeepEqual(got, beforeChars) {
			t.Fatalf("characters differ after type+backspace of %q", r)
		}
	}
}

func TestBackspaceOnEmptyPrefix(t *testing.T) {
	s := newSession(t, "ab")
	if s.Backspace() {
		t.Fatalf("expected backspace on empty prefix to be ignored")
	}
}

func TestCountdownCompletes(t *testing.T) {
	s := newSession(t, "a long target text")
	typeString(s, "a lo")
	for i := 0; i < 59; i++ {
		s.Tick()
	}
	if s.State() != Running {
		t.Fatalf("expected running with one second left, got %s", s.State())
	}
	s.Tick()
	if s.State() != Completed {
		t.Fatalf("expected countdown to complete the session, got %s", s.State())
	}
	st := s.Stats()
	if st.TimeRemaining != 0 || st.TotalChars != 4 {
		t.Fatalf("unexpected final stats: %+v", st)
	}
	s.Tick()
	if s.Stats().TimeRemaining != 0 {
		t.Fatalf("clock must stop after completion")
	}
}

func TestSpeedMetrics(t *testing.T) {
	s := newSession(t, "aaaaaaaaaaaaaaaaaaaa")
	typeString(s, "aaaaaaaaaa")
	if st := s.Stats(); st.WPM != 0 || st.CPM != 0 {
		t.Fatalf("expected zero speed before the first tick, got %+v", st)
	}
	for i := 0; i < 30; i++ {
		s.Tick()
	}
	st := s.Stats()
	// 10 correct chars in 30s: 20 cpm, 4 wpm.
	if st.CPM != 20 || st.WPM != 4 || st.Accuracy != 100 {
		t.Fatalf("unexpected speed metrics: %+v", st)
	}
	if s.Elapsed() != 30*time.Second {
		t.Fatalf("unexpected elapsed %s", s.Elapsed())
	}
}

func TestResultPayload(t *testing.T) {
	s, err := New("go fast", 3*time.Minute, model.DifficultyHard)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok := s.Result("alice"); ok {
		t.Fatalf("expected no result before completion")
	}
	typeString(s, "go f")
	for i := 0; i < 6; i++ {
		s.Tick()
	}
	typeString(s, "ast")
	res, ok := s.Result("alice")
	if !ok {
		t.Fatalf("expected result after completion")
	}
	want := model.NewTestResult{
		Username:            "alice",
		WPM:                 14,
		CPM:                 70,
		Accuracy:            100,
		TotalTime:           6,
		Difficulty:          model.DifficultyHard,
		TotalCharacters:     7,
		CorrectCharacters:   7,
		IncorrectCharacters: 0,
		TestText:            "go fast",
	}
	if res != want {
		t.Fatalf("unexpected result:\n got %+v\nwant %+v", res, want)
	}
}

func TestResultMinimumTime(t *testing.T) {
	s := newSession(t, "ab")
	typeString(s, "ab")
	res, ok := s.Result("bob")
	if !ok {
		t.Fatalf("expected result")
	}
	if res.TotalTime != 1 {
		t.Fatalf("expected total time clamped to 1, got %d", res.TotalTime)
	}
}

func TestResultEmptySession(t *testing.T) {
	s := newSession(t, "abc")
	s.Start()
	for i := 0; i < 60; i++ {
		s.Tick()
	}
	if s.State() != Completed {
		t.Fatalf("expected completed")
	}
	if _, ok := s.Result("bob"); ok {
		t.Fatalf("expected no result for an empty session")
	}
}

func TestRetake(t *testing.T) {
	s := newSession(t, "abc")
	typeString(s, "abc")
	s.Retake("")
	if s.State() != Idle || s.Input() != "" || s.Target() != "abc" {
		t.Fatalf("unexpected state after retake: %s %q %q", s.State(), s.Input(), s.Target())
	}
	if s.Stats().TimeRemaining != 60 || s.Stats().TotalChars != 0 {
		t.Fatalf("unexpected stats after retake: %+v", s.Stats())
	}
	s.Retake("xyz")
	if s.Target() != "xyz" {
		t.Fatalf("expected new target, got %q", s.Target())
	}
	if got := statuses(s); got[0] != model.StatusCurrent {
		t.Fatalf("expected first char current after retake")
	}
}

func TestMistakes(t *testing.T) {
	s := newSession(t, "aab b")
	typeString(s, "axcXb")
	got := s.Mistakes()
	want := map[rune]int{'a': 1, 'b': 1, ' ': 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected mistakes: %v", got)
	}
}
