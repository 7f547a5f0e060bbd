// Package results implements the query service over stored test results:
// creation with validation, paginated listing, per-user statistics and the
// leaderboard.
package results

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/verte-zerg/typespeed/internal/errors"
	"github.com/verte-zerg/typespeed/internal/logger"
	"github.com/verte-zerg/typespeed/internal/metrics"
	"github.com/verte-zerg/typespeed/internal/model"
)

// TrendWindow is the number of results on each side of the trend comparison.
const TrendWindow = 10

type Store interface {
	InsertResult(ctx context.Context, in model.NewTestResult) (*model.TestResult, error)
	ListResults(ctx context.Context, filter model.ResultFilter, limit, offset int) ([]model.TestResult, error)
	CountResults(ctx context.Context, filter model.ResultFilter) (int64, error)
	AggregateUser(ctx context.Context, username string) (model.ResultAggregate, error)
	RecentMetrics(ctx context.Context, username string, limit int) ([]model.MetricPoint, error)
	Leaderboard(ctx context.Context, difficulty model.Difficulty, limit int) ([]model.TestResult, error)
	DeleteByUsername(ctx context.Context, username string) (int64, error)
}

// LeaderboardCache is an optional read-through cache for leaderboards.
type LeaderboardCache interface {
	Key(ctx context.Context, difficulty model.Difficulty, limit int) (string, error)
	Get(ctx context.Context, key string) ([]model.TestResult, bool, error)
	Set(ctx context.Context, key string, results []model.TestResult) error
	Invalidate(ctx context.Context) error
}

type Config struct {
	Store   Store
	Cache   LeaderboardCache
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

type Service struct {
	store   Store
	cache   LeaderboardCache
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewService(c Config) *Service {
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:   c.Store,
		cache:   c.Cache,
		metrics: c.Metrics,
		log:     log,
	}
}

type ListRequest struct {
	model.ResultFilter
	Limit  int
	Offset int
}

type LeaderboardRequest struct {
	Difficulty model.Difficulty
	Limit      int
}

// Create validates and stores one completed test.
func (s *Service) Create(ctx context.Context, in model.NewTestResult) (*model.TestResult, error) {
	if err := validateNewResult(in); err != nil {
		return nil, err
	}
	res, err := s.store.InsertResult(ctx, in)
	if err != nil {
		return nil, errors.Internal(err)
	}
	s.metrics.ResultCreated(string(res.Difficulty))
	s.invalidateLeaderboard(ctx)
	s.log.Info("result created", "id", res.ID, "username", res.Username, "wpm", res.WPM, "difficulty", res.Difficulty)
	return res, nil
}

// List returns one page of a user's results, newest first.
func (s *Service) List(ctx context.Context, req ListRequest) (*model.ResultPage, error) {
	req, err := normalizeList(req)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountResults(ctx, req.ResultFilter)
	if err != nil {
		return nil, errors.Internal(err)
	}
	data, err := s.store.ListResults(ctx, req.ResultFilter, req.Limit, req.Offset)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if data == nil {
		data = []model.TestResult{}
	}
	return &model.ResultPage{
		Data: data,
		Pagination: model.Pagination{
			Total:   total,
			Limit:   req.Limit,
			Offset:  req.Offset,
			HasMore: int64(req.Offset+req.Limit) < total,
		},
	}, nil
}

// ListResults is List with positional arguments.
func (s *Service) ListResults(ctx context.Context, filter model.ResultFilter, limit, offset int) (*model.ResultPage, error) {
	return s.List(ctx, ListRequest{ResultFilter: filter, Limit: limit, Offset: offset})
}

// UserStats aggregates all results of a user. It returns nil without an
// error when the user has no results.
func (s *Service) UserStats(ctx context.Context, username string) (*model.UserStats, error) {
	if username == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithField("username", "is required"))
	}
	agg, err := s.store.AggregateUser(ctx, username)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if agg.Count == 0 {
		return nil, nil
	}
	recent, err := s.store.RecentMetrics(ctx, username, 2*TrendWindow)
	if err != nil {
		return nil, errors.Internal(err)
	}

	count := decimal.NewFromInt(agg.Count)
	return &model.UserStats{
		TotalTests:   agg.Count,
		AvgWPM:       round2(decimal.NewFromFloat(agg.SumWPM).Div(count)),
		AvgAccuracy:  round2(decimal.NewFromFloat(agg.SumAccuracy).Div(count)),
		BestWPM:      agg.MaxWPM,
		BestAccuracy: agg.MaxAccuracy,
		TotalTime:    agg.SumTotalTime,
		DifficultyBreakdown: model.DifficultyBreakdown{
			Easy:   agg.Easy,
			Medium: agg.Medium,
			Hard:   agg.Hard,
		},
		Improvement: improvement(recent),
	}, nil
}

// improvement compares the mean of the newest window against the window
// before it. recent is ordered newest first. Without a full previous window
// both deltas are zero.
func improvement(recent []model.MetricPoint) model.Improvement {
	if len(recent) < 2*TrendWindow {
		return model.Improvement{}
	}
	mean := func(points []model.MetricPoint) (wpm, acc decimal.Decimal) {
		for _, p := range points {
			wpm = wpm.Add(decimal.NewFromFloat(p.WPM))
			acc = acc.Add(decimal.NewFromFloat(p.Accuracy))
		}
		n := decimal.NewFromInt(int64(len(points)))
		return wpm.Div(n), acc.Div(n)
	}
	latestWPM, latestAcc := mean(recent[:TrendWindow])
	prevWPM, prevAcc := mean(recent[TrendWindow : 2*TrendWindow])
	return model.Improvement{
		WPMChange:      round2(latestWPM.Sub(prevWPM)),
		AccuracyChange: round2(latestAcc.Sub(prevAcc)),
	}
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Leaderboard ranks results by wpm then accuracy.
func (s *Service) Leaderboard(ctx context.Context, req LeaderboardRequest) ([]model.TestResult, error) {
	req, err := normalizeLeaderboard(req)
	if err != nil {
		return nil, err
	}
	var key string
	if s.cache != nil {
		k, err := s.cache.Key(ctx, req.Difficulty, req.Limit)
		if err != nil {
			s.log.Warn("leaderboard cache key failed", "error", err)
		} else {
			key = k
			cached, ok, err := s.cache.Get(ctx, key)
			if err != nil {
				s.log.Warn("leaderboard cache get failed", "error", err)
			}
			s.metrics.CacheLookup(ok)
			if ok {
				return cached, nil
			}
		}
	}
	results, err := s.store.Leaderboard(ctx, req.Difficulty, req.Limit)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if key != "" {
		if err := s.cache.Set(ctx, key, results); err != nil {
			s.log.Warn("leaderboard cache set failed", "error", err)
		}
	}
	return results, nil
}

// DeleteUserResults removes all results of a user and returns the count.
func (s *Service) DeleteUserResults(ctx context.Context, username string) (int64, error) {
	if username == "" {
		return 0, errors.New(errors.CodeInvalidArgument, errors.WithField("username", "is required"))
	}
	n, err := s.store.DeleteByUsername(ctx, username)
	if err != nil {
		return 0, errors.Internal(err)
	}
	s.metrics.ResultsDeleted(n)
	if n > 0 {
		s.invalidateLeaderboard(ctx)
	}
	s.log.Info("results deleted", "username", username, "count", n)
	return n, nil
}

func (s *Service) invalidateLeaderboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("leaderboard cache invalidate failed", "error", err)
	}
}
