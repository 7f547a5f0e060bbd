package store

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialect captures the differences between the supported SQL backends.
// Queries are written with ? placeholders and rewritten per backend.
type dialect interface {
	driverName() string
	rewrite(query string) string
	supportsLastInsertID() bool
	configure(db *sql.DB) error
	schema() []string
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "", DriverSQLite, "sqlite3":
		return sqliteDialect{}, nil
	case DriverPostgres, "postgresql", "pgx":
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

const indexStatements = `CREATE INDEX IF NOT EXISTS idx_test_results_user_created ON test_results(username, created_at);
CREATE INDEX IF NOT EXISTS idx_test_results_difficulty_wpm ON test_results(difficulty, wpm);`

type sqliteDialect struct{}

func (sqliteDialect) driverName() string          { return "sqlite" }
func (sqliteDialect) rewrite(query string) string { return query }
func (sqliteDialect) supportsLastInsertID() bool  { return true }

func (sqliteDialect) configure(db *sql.DB) error {
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}
	return nil
}

func (sqliteDialect) schema() []string {
	return append([]string{
		`CREATE TABLE IF NOT EXISTS test_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			wpm REAL NOT NULL,
			cpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			total_time INTEGER NOT NULL,
			difficulty TEXT NOT NULL,
			total_characters INTEGER NOT NULL,
			correct_characters INTEGER NOT NULL,
			incorrect_characters INTEGER NOT NULL,
			test_text TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
	}, strings.Split(indexStatements, "\n")...)
}

type postgresDialect struct{}

func (postgresDialect) driverName() string          { return "pgx" }
func (postgresDialect) rewrite(query string) string { return rewritePlaceholdersToNumbered(query) }
func (postgresDialect) supportsLastInsertID() bool  { return false }

func (postgresDialect) configure(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (postgresDialect) schema() []string {
	return append([]string{
		`CREATE TABLE IF NOT EXISTS test_results (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL,
			wpm DOUBLE PRECISION NOT NULL,
			cpm DOUBLE PRECISION NOT NULL,
			accuracy DOUBLE PRECISION NOT NULL,
			total_time INTEGER NOT NULL,
			difficulty TEXT NOT NULL,
			total_characters INTEGER NOT NULL,
			correct_characters INTEGER NOT NULL,
			incorrect_characters INTEGER NOT NULL,
			test_text TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
	}, strings.Split(indexStatements, "\n")...)
}
