package stats

import (
	"context"

	"github.com/verte-zerg/typespeed/internal/model"
)

// Querier reads results for reporting.
type Querier interface {
	UserStats(ctx context.Context, username string) (*model.UserStats, error)
	ListResults(ctx context.Context, filter model.ResultFilter, limit, offset int) (*model.ResultPage, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Username string
	Stats    *model.UserStats
	// Recent holds the latest results, oldest first.
	Recent []model.TestResult
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, q Querier, filter model.ResultFilter, last int) (Report, error) {
	st, err := q.UserStats(ctx, filter.Username)
	if err != nil {
		return Report{}, err
	}
	report := Report{Username: filter.Username, Stats: st}
	if st == nil || last <= 0 {
		return report, nil
	}
	page, err := q.ListResults(ctx, filter, last, 0)
	if err != nil {
		return Report{}, err
	}
	report.Recent = reverse(page.Data)
	return report, nil
}

func reverse(results []model.TestResult) []model.TestResult {
	out := make([]model.TestResult, len(results))
	for i, r := range results {
		out[len(results)-1-i] = r
	}
	return out
}
