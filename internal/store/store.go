// Package store handles SQL persistence of test results.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/typespeed/internal/model"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver.
	_ "modernc.org/sqlite"             // SQLite driver.
)

// TimeLayout is the fixed-width UTC layout of stored timestamps. Lexical
// order of formatted values equals time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const resultColumns = `id, username, wpm, cpm, accuracy, total_time, difficulty,
	total_characters, correct_characters, incorrect_characters, test_text, created_at`

// Store wraps SQL access for test results.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Open connects to the database and applies migrations. For SQLite the dsn
// is a file path whose directory is created on demand.
func Open(driver, dsn string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if _, ok := d.(sqliteDialect); ok && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := &Store{db: db, dialect: d, now: time.Now}
	if err := d.configure(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock replaces the time source used for created_at.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	for _, stmt := range s.dialect.schema() {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) q(query string) string {
	return s.dialect.rewrite(query)
}

// InsertResult stores a validated result and returns it with its id and
// creation time assigned.
func (s *Store) InsertResult(ctx context.Context, in model.NewTestResult) (*model.TestResult, error) {
	createdAt := s.now().UTC()
	args := []any{
		in.Username,
		in.WPM,
		in.CPM,
		in.Accuracy,
		in.TotalTime,
		string(in.Difficulty),
		in.TotalCharacters,
		in.CorrectCharacters,
		in.IncorrectCharacters,
		in.TestText,
		createdAt.Format(TimeLayout),
	}
	query := `INSERT INTO test_results (username, wpm, cpm, accuracy, total_time, difficulty,
		total_characters, correct_characters, incorrect_characters, test_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var id int64
	if s.dialect.supportsLastInsertID() {
		res, err := s.db.ExecContext(ctx, s.q(query), args...)
		if err != nil {
			return nil, fmt.Errorf("failed to insert result: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("failed to read result id: %w", err)
		}
	} else {
		if err := s.db.QueryRowContext(ctx, s.q(query+` RETURNING id`), args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to insert result: %w", err)
		}
	}

	return &model.TestResult{
		ID:                  id,
		Username:            in.Username,
		WPM:                 in.WPM,
		CPM:                 in.CPM,
		Accuracy:            in.Accuracy,
		TotalTime:           in.TotalTime,
		Difficulty:          in.Difficulty,
		TotalCharacters:     in.TotalCharacters,
		CorrectCharacters:   in.CorrectCharacters,
		IncorrectCharacters: in.IncorrectCharacters,
		TestText:            in.TestText,
		CreatedAt:           createdAt,
	}, nil
}

func filterClauses(filter model.ResultFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Username != "" {
		clauses = append(clauses, "username = ?")
		args = append(args, filter.Username)
	}
	if filter.Difficulty != "" {
		clauses = append(clauses, "difficulty = ?")
		args = append(args, string(filter.Difficulty))
	}
	if filter.StartDate != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.StartDate.UTC().Format(TimeLayout))
	}
	if filter.EndDate != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, filter.EndDate.UTC().Format(TimeLayout))
	}
	return strings.Join(clauses, " AND "), args
}

// ListResults returns one page of matching results, newest first.
func (s *Store) ListResults(ctx context.Context, filter model.ResultFilter, limit, offset int) ([]model.TestResult, error) {
	where, args := filterClauses(filter)
	query := fmt.Sprintf(`SELECT %s
		FROM test_results
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, resultColumns, where)
	args = append(args, limit, offset)
	return s.queryResults(ctx, query, args...)
}

// CountResults counts all results matching the filter.
func (s *Store) CountResults(ctx context.Context, filter model.ResultFilter) (int64, error) {
	where, args := filterClauses(filter)
	var total int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM test_results WHERE %s`, where)
	if err := s.db.QueryRowContext(ctx, s.q(query), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return total, nil
}

// AggregateUser computes the raw aggregates of one user's results.
func (s *Store) AggregateUser(ctx context.Context, username string) (model.ResultAggregate, error) {
	query := `SELECT COUNT(*),
		COALESCE(SUM(wpm), 0), COALESCE(SUM(accuracy), 0),
		COALESCE(MAX(wpm), 0), COALESCE(MAX(accuracy), 0),
		COALESCE(SUM(total_time), 0),
		COALESCE(SUM(CASE WHEN difficulty = 'easy' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN difficulty = 'medium' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN difficulty = 'hard' THEN 1 ELSE 0 END), 0)
		FROM test_results
		WHERE username = ?`
	var agg model.ResultAggregate
	err := s.db.QueryRowContext(ctx, s.q(query), username).Scan(
		&agg.Count,
		&agg.SumWPM,
		&agg.SumAccuracy,
		&agg.MaxWPM,
		&agg.MaxAccuracy,
		&agg.SumTotalTime,
		&agg.Easy,
		&agg.Medium,
		&agg.Hard,
	)
	if err != nil {
		return model.ResultAggregate{}, fmt.Errorf("failed to aggregate results: %w", err)
	}
	return agg, nil
}

// RecentMetrics returns wpm/accuracy of the user's latest results, newest first.
func (s *Store) RecentMetrics(ctx context.Context, username string, limit int) ([]model.MetricPoint, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT wpm, accuracy
		FROM test_results
		WHERE username = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`), username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent results: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var points []model.MetricPoint
	for rows.Next() {
		var p model.MetricPoint
		if err := rows.Scan(&p.WPM, &p.Accuracy); err != nil {
			return nil, fmt.Errorf("failed to scan recent result: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recent results: %w", err)
	}
	return points, nil
}

// Leaderboard returns the fastest results, optionally for one difficulty.
// Ties on wpm and accuracy go to the earlier result.
func (s *Store) Leaderboard(ctx context.Context, difficulty model.Difficulty, limit int) ([]model.TestResult, error) {
	where, args := filterClauses(model.ResultFilter{Difficulty: difficulty})
	query := fmt.Sprintf(`SELECT %s
		FROM test_results
		WHERE %s
		ORDER BY wpm DESC, accuracy DESC, created_at ASC, id ASC
		LIMIT ?`, resultColumns, where)
	args = append(args, limit)
	return s.queryResults(ctx, query, args...)
}

// DeleteByUsername removes every result of the user and returns the count.
func (s *Store) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM test_results WHERE username = ?`), username)
	if err != nil {
		return 0, fmt.Errorf("failed to delete results: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted results: %w", err)
	}
	return n, nil
}

func (s *Store) queryResults(ctx context.Context, query string, args ...any) ([]model.TestResult, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	results := []model.TestResult{}
	for rows.Next() {
		var r model.TestResult
		var difficulty, createdAt string
		if err := rows.Scan(
			&r.ID,
			&r.Username,
			&r.WPM,
			&r.CPM,
			&r.Accuracy,
			&r.TotalTime,
			&difficulty,
			&r.TotalCharacters,
			&r.CorrectCharacters,
			&r.IncorrectCharacters,
			&r.TestText,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		parsed, err := time.Parse(TimeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
		}
		r.Difficulty = model.Difficulty(difficulty)
		r.CreatedAt = parsed
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return results, nil
}
