package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobpilot/internal/types"

	"github.com/jmoiron/sqlx"
	sqltypes "github.com/jmoiron/sqlx/types"
)

type testRow struct {
	ID            string            `db:"id"`
	ApplicationID string            `db:"application_id"`
	UserID        string            `db:"user_id"`
	TestType      string            `db:"test_type"`
	Title         string            `db:"title"`
	Description   string            `db:"description"`
	TimeLimit     int               `db:"time_limit_minutes"`
	Questions     sqltypes.JSONText `db:"questions"`
	Answers       sql.NullString    `db:"answers"`
	Score         sql.NullInt64     `db:"score"`
	MaxScore      int               `db:"max_score"`
	CompletedAt   sql.NullTime      `db:"completed_at"`
	CreatedAt     time.Time         `db:"created_at"`
}

func (r testRow) toTest() (types.Test, error) {
	t := types.Test{
		ID:            r.ID,
		ApplicationID: r.ApplicationID,
		UserID:        r.UserID,
		TestType:      types.TestType(r.TestType),
		Title:         r.Title,
		Description:   r.Description,
		TimeLimit:     r.TimeLimit,
		MaxScore:      r.MaxScore,
		CreatedAt:     r.CreatedAt.UTC(),
	}
	if err := r.Questions.Unmarshal(&t.Questions); err != nil {
		return t, fmt.Errorf("decode questions of test %s: %w", r.ID, err)
	}
	if r.Answers.Valid {
		if err := json.Unmarshal([]byte(r.Answers.String), &t.Answers); err != nil {
			return t, fmt.Errorf("decode answers of test %s: %w", r.ID, err)
		}
	}
	if r.Score.Valid {
		score := int(r.Score.Int64)
		t.Score = &score
	}
	if r.CompletedAt.Valid {
		completed := r.CompletedAt.Time.UTC()
		t.CompletedAt = &completed
	}
	return t, nil
}

const testColumns = `id, application_id, user_id, test_type, title, description, time_limit_minutes,
	questions, answers, score, max_score, completed_at, created_at`

// GetTest returns the test for (applicationID, testType)
func (s *Store) GetTest(ctx context.Context, applicationID string, testType types.TestType) (*types.Test, error) {
	var row testRow
	query := s.db.Rebind(`SELECT ` + testColumns + ` FROM tests WHERE application_id = ? AND test_type = ?`)
	if err := s.db.GetContext(ctx, &row, query, applicationID, string(testType)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}

	t, err := row.toTest()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// InsertTest inserts a not-yet-completed test. A second insert for the same
// (application, type) pair returns ErrDuplicate.
func (s *Store) InsertTest(ctx context.Context, t *types.Test) error {
	questions, err := json.Marshal(t.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	query := s.db.Rebind(`INSERT INTO tests (id, application_id, user_id, test_type, title, description,
		time_limit_minutes, questions, max_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		t.ID, t.ApplicationID, t.UserID, string(t.TestType), t.Title, t.Description,
		t.TimeLimit, string(questions), t.MaxScore, t.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert test: %w", err)
	}
	return nil
}

// CompleteTest writes answers, score and completion time in one statement.
// It only matches tests that are not yet completed, so a second call
// returns ErrAlreadyCompleted and leaves the stored score untouched.
func (s *Store) CompleteTest(ctx context.Context, testID string, answers types.Answers, score int, completedAt time.Time) error {
	if answers == nil {
		answers = types.Answers{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	query := s.db.Rebind(`UPDATE tests SET answers = ?, score = ?, completed_at = ?
		WHERE id = ? AND completed_at IS NULL`)
	res, err := s.db.ExecContext(ctx, query, string(answersJSON), score, completedAt.UTC(), testID)
	if err != nil {
		return fmt.Errorf("complete test: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete test: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	check := s.db.Rebind(`SELECT COUNT(*) FROM tests WHERE id = ?`)
	if err := s.db.GetContext(ctx, &exists, check, testID); err != nil {
		return fmt.Errorf("complete test: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrAlreadyCompleted
}

// TestsForApplications returns the tests of the given applications keyed by
// application id
func (s *Store) TestsForApplications(ctx context.Context, applicationIDs []string) (map[string][]types.Test, error) {
	result := make(map[string][]types.Test, len(applicationIDs))
	if len(applicationIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT `+testColumns+` FROM tests
		WHERE application_id IN (?) ORDER BY created_at`, applicationIDs)
	if err != nil {
		return nil, fmt.Errorf("build tests query: %w", err)
	}

	var rows []testRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}

	for _, row := range rows {
		t, err := row.toTest()
		if err != nil {
			return nil, err
		}
		result[t.ApplicationID] = append(result[t.ApplicationID], t)
	}
	return result, nil
}
