package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/typespeed/internal/model"
)

func TestSessionMetrics(t *testing.T) {
	wpm, cpm, acc := SessionMetrics(250, 260, time.Minute)
	if wpm != 50 || cpm != 250 || acc != 96 {
		t.Fatalf("unexpected metrics: wpm=%d cpm=%d acc=%d", wpm, cpm, acc)
	}
}

func TestSessionMetricsZeroes(t *testing.T) {
	wpm, cpm, acc := SessionMetrics(0, 0, 0)
	if wpm != 0 || cpm != 0 || acc != 0 {
		t.Fatalf("expected zero metrics, got %d %d %d", wpm, cpm, acc)
	}
	wpm, cpm, acc = SessionMetrics(1, 2, 0)
	if wpm != 0 || cpm != 0 {
		t.Fatalf("expected zero speed without elapsed time, got %d %d", wpm, cpm)
	}
	if acc != 50 {
		t.Fatalf("expected accuracy 50, got %d", acc)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSparklineFlat(t *testing.T) {
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if got := Sparkline([]float64{0, 10}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
}

func TestRenderLeaderboard(t *testing.T) {
	var buf bytes.Buffer
	err := RenderLeaderboard(&buf, []model.TestResult{
		{Username: "alice", Difficulty: model.DifficultyHard, WPM: 90, Accuracy: 98},
		{Username: "bob", Difficulty: model.DifficultyHard, WPM: 80, Accuracy: 99},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "1 alice") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := map[int64]string{45: "45s", 125: "2m05s", 3720: "1h02m"}
	for in, want := range cases {
		if got := formatSeconds(in); got != want {
			t.Fatalf("formatSeconds(%d) = %q, want %q", in, got, want)
		}
	}
}
