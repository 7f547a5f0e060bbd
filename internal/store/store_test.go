package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/typespeed/internal/model"
)

func openTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	st, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	})
	return st, &now
}

func sample(username string, difficulty model.Difficulty, wpm, accuracy float64) model.NewTestResult {
	return model.NewTestResult{
		Username:            username,
		WPM:                 wpm,
		CPM:                 wpm * 5,
		Accuracy:            accuracy,
		TotalTime:           60,
		Difficulty:          difficulty,
		TotalCharacters:     300,
		CorrectCharacters:   290,
		IncorrectCharacters: 10,
		TestText:            "the quick brown fox",
	}
}

func TestInsertAndListResults(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	first, err := st.InsertResult(ctx, sample("alice", model.DifficultyEasy, 50, 95))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID == 0 || first.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at, got %+v", first)
	}
	second, err := st.InsertResult(ctx, sample("alice", model.DifficultyHard, 70, 90))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := st.InsertResult(ctx, sample("bob", model.DifficultyEasy, 40, 99)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := st.ListResults(ctx, model.ResultFilter{Username: "alice"}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("expected newest first, got ids %d, %d", got[0].ID, got[1].ID)
	}
	if !got[1].CreatedAt.Equal(first.CreatedAt) || got[1].TestText != "the quick brown fox" {
		t.Fatalf("round trip mismatch: %+v vs %+v", got[1], first)
	}

	total, err := st.CountResults(ctx, model.ResultFilter{Username: "alice", Difficulty: model.DifficultyHard})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 hard result, got %d", total)
	}
}

func TestListResultsDateRangeAndPaging(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	var created []*model.TestResult
	for i := 0; i < 5; i++ {
		res, err := st.InsertResult(ctx, sample("carol", model.DifficultyMedium, float64(40+i), 95))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		created = append(created, res)
	}

	start := created[1].CreatedAt
	end := created[3].CreatedAt
	got, err := st.ListResults(ctx, model.ResultFilter{Username: "carol", StartDate: &start, EndDate: &end}, 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != created[3].ID || got[2].ID != created[1].ID {
		t.Fatalf("unexpected date range result: %+v", got)
	}

	page, err := st.ListResults(ctx, model.ResultFilter{Username: "carol"}, 2, 4)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 1 || page[0].ID != created[0].ID {
		t.Fatalf("unexpected last page: %+v", page)
	}

	empty, err := st.ListResults(ctx, model.ResultFilter{Username: "nobody"}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestAggregateUser(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	agg, err := st.AggregateUser(ctx, "dave")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.Count != 0 || agg.SumWPM != 0 {
		t.Fatalf("expected zero aggregate, got %+v", agg)
	}

	for _, in := range []model.NewTestResult{
		sample("dave", model.DifficultyEasy, 50, 90),
		sample("dave", model.DifficultyEasy, 60, 100),
		sample("dave", model.DifficultyHard, 70, 80),
		sample("erin", model.DifficultyHard, 200, 100),
	} {
		if _, err := st.InsertResult(ctx, in); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	agg, err = st.AggregateUser(ctx, "dave")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	want := model.ResultAggregate{
		Count:        3,
		SumWPM:       180,
		SumAccuracy:  270,
		MaxWPM:       70,
		MaxAccuracy:  100,
		SumTotalTime: 180,
		Easy:         2,
		Medium:       0,
		Hard:         1,
	}
	if agg != want {
		t.Fatalf("unexpected aggregate:\n got %+v\nwant %+v", agg, want)
	}
}

func TestRecentMetrics(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		if _, err := st.InsertResult(ctx, sample("frank", model.DifficultyEasy, float64(i*10), 90)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	points, err := st.RecentMetrics(ctx, "frank", 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(points) != 3 || points[0].WPM != 50 || points[2].WPM != 30 {
		t.Fatalf("unexpected recent metrics: %+v", points)
	}
}

func TestLeaderboard(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	for _, in := range []model.NewTestResult{
		sample("a_user", model.DifficultyHard, 80, 90),
		sample("b_user", model.DifficultyHard, 80, 95),
		sample("c_user", model.DifficultyEasy, 120, 99),
		sample("d_user", model.DifficultyHard, 60, 100),
	} {
		if _, err := st.InsertResult(ctx, in); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	hard, err := st.Leaderboard(ctx, model.DifficultyHard, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	names := []string{}
	for _, r := range hard {
		names = append(names, r.Username)
	}
	if len(names) != 3 || names[0] != "b_user" || names[1] != "a_user" || names[2] != "d_user" {
		t.Fatalf("unexpected hard leaderboard: %v", names)
	}

	all, err := st.Leaderboard(ctx, "", 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(all) != 2 || all[0].Username != "c_user" {
		t.Fatalf("unexpected overall leaderboard: %+v", all)
	}
}

func TestDeleteByUsername(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := st.InsertResult(ctx, sample("gina", model.DifficultyEasy, 50, 90)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if _, err := st.InsertResult(ctx, sample("hank", model.DifficultyEasy, 50, 90)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := st.DeleteByUsername(ctx, "gina")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deleted, got %d", n)
	}
	n, err = st.DeleteByUsername(ctx, "gina")
	if err != nil || n != 0 {
		t.Fatalf("expected no rows on second delete, got %d, %v", n, err)
	}
	total, err := st.CountResults(ctx, model.ResultFilter{Username: "hank"})
	if err != nil || total != 1 {
		t.Fatalf("other users must be untouched: %d, %v", total, err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Fatalf("expected unknown driver to fail")
	}
}
