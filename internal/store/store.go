// Package store persists resumes, job applications and tests with sqlx on
// either SQLite or PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"

	"jobpilot/internal/config"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no row matches the lookup, including
	// rows that exist but belong to another owner.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert hits a uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")
	// ErrAlreadyCompleted is returned when completing a test that already
	// has a completion timestamp.
	ErrAlreadyCompleted = errors.New("test already completed")
)

// Store wraps the database handle
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the configured database and applies pool settings
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite3" {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &Store{db: db, driver: cfg.Driver}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the configured driver name
func (s *Store) Driver() string {
	return s.driver
}

var schema = []struct {
	name string
	ddl  string
}{
	{"resumes", `
		CREATE TABLE IF NOT EXISTS resumes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_url TEXT NOT NULL,
			extracted_skills TEXT NOT NULL DEFAULT '[]',
			extracted_experience TEXT NOT NULL DEFAULT '[]',
			extracted_education TEXT NOT NULL DEFAULT '[]',
			summary TEXT NOT NULL DEFAULT '',
			raw_text TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`},
	{"resumes index", `CREATE INDEX IF NOT EXISTS idx_resumes_user ON resumes(user_id, created_at)`},
	{"job_applications", `
		CREATE TABLE IF NOT EXISTS job_applications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			resume_id TEXT REFERENCES resumes(id) ON DELETE SET NULL,
			company_name TEXT NOT NULL,
			role_title TEXT NOT NULL,
			job_url TEXT NOT NULL DEFAULT '',
			job_description TEXT NOT NULL DEFAULT '',
			requirements TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"job_applications index", `CREATE INDEX IF NOT EXISTS idx_job_applications_user ON job_applications(user_id, created_at)`},
	{"tests", `
		CREATE TABLE IF NOT EXISTS tests (
			id TEXT PRIMARY KEY,
			application_id TEXT NOT NULL REFERENCES job_applications(id),
			user_id TEXT NOT NULL,
			test_type TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			time_limit_minutes INTEGER NOT NULL DEFAULT 0,
			questions TEXT NOT NULL,
			answers TEXT,
			score INTEGER,
			max_score INTEGER NOT NULL,
			completed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			UNIQUE(application_id, test_type)
		)`},
}

// Migrate creates the tables if they don't exist
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}

// isUniqueViolation recognizes uniqueness failures from both drivers
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
