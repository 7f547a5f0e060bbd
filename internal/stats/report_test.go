package stats

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/typespeed/internal/model"
)

type fakeQuerier struct {
	stats   *model.UserStats
	results []model.TestResult
	limit   int
}

func (f *fakeQuerier) UserStats(context.Context, string) (*model.UserStats, error) {
	return f.stats, nil
}

func (f *fakeQuerier) ListResults(_ context.Context, _ model.ResultFilter, limit, _ int) (*model.ResultPage, error) {
	f.limit = limit
	data := f.results
	if len(data) > limit {
		data = data[:limit]
	}
	return &model.ResultPage{Data: data}, nil
}

func TestBuildReport(t *testing.T) {
	base := time.Unix(0, 0)
	q := &fakeQuerier{
		stats: &model.UserStats{TotalTests: 3},
		results: []model.TestResult{
			{ID: 3, WPM: 50, CreatedAt: base.Add(2 * time.Minute)},
			{ID: 2, WPM: 60, CreatedAt: base.Add(time.Minute)},
			{ID: 1, WPM: 40, CreatedAt: base},
		},
	}
	report, err := BuildReport(context.Background(), q, model.ResultFilter{Username: "alice"}, 2)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if q.limit != 2 {
		t.Fatalf("expected limit 2, got %d", q.limit)
	}
	if len(report.Recent) != 2 {
		t.Fatalf("expected 2 recent results, got %d", len(report.Recent))
	}
	if report.Recent[0].ID != 2 || report.Recent[1].ID != 3 {
		t.Fatalf("expected oldest first, got %+v", report.Recent)
	}
}

func TestBuildReportNoData(t *testing.T) {
	q := &fakeQuerier{}
	report, err := BuildReport(context.Background(), q, model.ResultFilter{Username: "bob"}, 10)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.Stats != nil || report.Recent != nil {
		t.Fatalf("expected empty report, got %+v", report)
	}
	var buf bytes.Buffer
	if err := RenderUserStats(&buf, "bob", report.Stats); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No results found for bob") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
