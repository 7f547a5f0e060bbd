package statsui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typespeed/internal/model"
)

type fakeSource struct {
	stats   *model.UserStats
	results []model.TestResult
	board   []model.TestResult
	err     error

	lastFilter model.ResultFilter
	lastBoard  model.Difficulty
}

func (f *fakeSource) UserStats(context.Context, string) (*model.UserStats, error) {
	return f.stats, f.err
}

func (f *fakeSource) ListResults(_ context.Context, filter model.ResultFilter, limit, _ int) (*model.ResultPage, error) {
	f.lastFilter = filter
	data := f.results
	if limit < len(data) {
		data = data[:limit]
	}
	return &model.ResultPage{Data: data}, nil
}

func (f *fakeSource) Leaderboard(_ context.Context, d model.Difficulty, _ int) ([]model.TestResult, error) {
	f.lastBoard = d
	return f.board, nil
}

func sampleSource() *fakeSource {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &fakeSource{
		stats: &model.UserStats{
			TotalTests:  3,
			AvgWPM:      50,
			BestWPM:     60,
			AvgAccuracy: 95.5,
			Improvement: model.Improvement{WPMChange: 4.25},
			DifficultyBreakdown: model.DifficultyBreakdown{
				Medium: 3,
			},
		},
		// newest first, as the service returns them
		results: []model.TestResult{
			{ID: 3, Username: "alice", WPM: 60, Difficulty: model.DifficultyMedium, CreatedAt: base.Add(2 * time.Hour)},
			{ID: 2, Username: "alice", WPM: 50, Difficulty: model.DifficultyMedium, CreatedAt: base.Add(time.Hour)},
			{ID: 1, Username: "alice", WPM: 40, Difficulty: model.DifficultyMedium, CreatedAt: base},
		},
		board: []model.TestResult{
			{ID: 9, Username: "bob", WPM: 80, Difficulty: model.DifficultyHard, CreatedAt: base},
			{ID: 3, Username: "alice", WPM: 60, Difficulty: model.DifficultyMedium, CreatedAt: base},
		},
	}
}

func TestOverviewShowsCards(t *testing.T) {
	m := NewModel(sampleSource(), Config{Username: "alice"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	view := m.View()
	for _, want := range []string{"Overview", "Avg WPM", "50.00", "+4.25 WPM", "Medium 3", "WPM trend:"} {
		if !strings.Contains(view, want) {
			t.Fatalf("overview missing %q:\n%s", want, view)
		}
	}
}

func TestOverviewWithoutResults(t *testing.T) {
	m := NewModel(&fakeSource{}, Config{Username: "nobody"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(m.View(), "No results found for nobody.") {
		t.Fatalf("expected empty notice")
	}
}

func TestHistoryIsNewestFirst(t *testing.T) {
	rows := historyRows([]model.TestResult{
		{WPM: 40, Difficulty: model.DifficultyEasy},
		{WPM: 60, Difficulty: model.DifficultyEasy},
	})
	if len(rows) != 2 || rows[0][2] != "60" || rows[1][2] != "40" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestRankingMarksUser(t *testing.T) {
	rows := rankingRows(sampleSource().board, "alice")
	if rows[0][1] != "bob" || rows[1][1] != "* alice" || rows[1][0] != "2" {
		t.Fatalf("unexpected ranking rows: %v", rows)
	}
}

func TestTabNavigation(t *testing.T) {
	m := NewModel(sampleSource(), Config{Username: "alice"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabHistory || !m.history.Focused() {
		t.Fatalf("expected history tab to be focused")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !strings.Contains(m.View(), "bob") {
		t.Fatalf("expected leaderboard rows in view")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabOverview {
		t.Fatalf("expected navigation to wrap around")
	}
}

func TestFilterAppliesDifficulty(t *testing.T) {
	src := sampleSource()
	m := NewModel(src, Config{Username: "alice"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filterInputs[0].SetValue("Hard")
	m.filterInputs[1].SetValue("2")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected filter to close: %s", m.filterError)
	}
	if src.lastFilter.Difficulty != model.DifficultyHard || src.lastBoard != model.DifficultyHard {
		t.Fatalf("expected hard filter, got %q/%q", src.lastFilter.Difficulty, src.lastBoard)
	}
	if len(m.report.Recent) != 2 {
		t.Fatalf("expected last=2 to limit results, got %d", len(m.report.Recent))
	}
}

func TestFilterRejectsInvalidInput(t *testing.T) {
	m := NewModel(sampleSource(), Config{Username: "alice"})
	m.startFilter()
	m.filterInputs[0].SetValue("extreme")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("expected invalid difficulty to keep the form open")
	}
	m.filterInputs[0].SetValue("")
	m.filterInputs[2].SetValue("0")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.filterError, "curve window") {
		t.Fatalf("unexpected error: %q", m.filterError)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filterMode {
		t.Fatalf("expected esc to cancel")
	}
}

func TestLoadErrorShownInFooter(t *testing.T) {
	m := NewModel(&fakeSource{err: errors.New("server unreachable")}, Config{Username: "alice"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(m.View(), "server unreachable") {
		t.Fatalf("expected error in view")
	}
}

func TestCurveWindowSteps(t *testing.T) {
	if nextCurveWindow(1) != 5 || nextCurveWindow(5) != 10 || nextCurveWindow(7) != 10 {
		t.Fatalf("unexpected next window")
	}
	if prevCurveWindow(5) != 1 || prevCurveWindow(10) != 5 || prevCurveWindow(12) != 10 {
		t.Fatalf("unexpected prev window")
	}
}
