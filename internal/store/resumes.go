package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobpilot/internal/types"

	sqltypes "github.com/jmoiron/sqlx/types"
)

type resumeRow struct {
	ID         string            `db:"id"`
	UserID     string            `db:"user_id"`
	FileName   string            `db:"file_name"`
	FileURL    string            `db:"file_url"`
	Skills     sqltypes.JSONText `db:"extracted_skills"`
	Experience sqltypes.JSONText `db:"extracted_experience"`
	Education  sqltypes.JSONText `db:"extracted_education"`
	Summary    string            `db:"summary"`
	RawText    string            `db:"raw_text"`
	CreatedAt  time.Time         `db:"created_at"`
}

func (r resumeRow) toResume() (types.Resume, error) {
	res := types.Resume{
		ID:        r.ID,
		UserID:    r.UserID,
		FileName:  r.FileName,
		FileURL:   r.FileURL,
		Summary:   r.Summary,
		RawText:   r.RawText,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if err := r.Skills.Unmarshal(&res.Skills); err != nil {
		return res, fmt.Errorf("decode skills of resume %s: %w", r.ID, err)
	}
	if err := r.Experience.Unmarshal(&res.Experience); err != nil {
		return res, fmt.Errorf("decode experience of resume %s: %w", r.ID, err)
	}
	if err := r.Education.Unmarshal(&res.Education); err != nil {
		return res, fmt.Errorf("decode education of resume %s: %w", r.ID, err)
	}
	return res, nil
}

const resumeColumns = `id, user_id, file_name, file_url, extracted_skills, extracted_experience,
	extracted_education, summary, raw_text, created_at`

// jsonList encodes v, storing nil slices as an empty JSON array
func jsonList[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

// CreateResume inserts a resume record
func (s *Store) CreateResume(ctx context.Context, r *types.Resume) error {
	skills, err := jsonList(r.Skills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}
	experience, err := jsonList(r.Experience)
	if err != nil {
		return fmt.Errorf("encode experience: %w", err)
	}
	education, err := jsonList(r.Education)
	if err != nil {
		return fmt.Errorf("encode education: %w", err)
	}

	query := s.db.Rebind(`INSERT INTO resumes (` + resumeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.UserID, r.FileName, r.FileURL, skills, experience, education,
		r.Summary, r.RawText, r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert resume: %w", err)
	}
	return nil
}

// GetResume returns the resume with id owned by ownerID
func (s *Store) GetResume(ctx context.Context, ownerID, id string) (*types.Resume, error) {
	var row resumeRow
	query := s.db.Rebind(`SELECT ` + resumeColumns + ` FROM resumes WHERE id = ? AND user_id = ?`)
	if err := s.db.GetContext(ctx, &row, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resume: %w", err)
	}
	res, err := row.toResume()
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListResumes returns ownerID's resumes, newest first
func (s *Store) ListResumes(ctx context.Context, ownerID string) ([]types.Resume, error) {
	var rows []resumeRow
	query := s.db.Rebind(`SELECT ` + resumeColumns + ` FROM resumes WHERE user_id = ? ORDER BY created_at DESC`)
	if err := s.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}

	resumes := make([]types.Resume, 0, len(rows))
	for _, row := range rows {
		res, err := row.toResume()
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, res)
	}
	return resumes, nil
}

// DeleteResume removes a resume owned by ownerID
func (s *Store) DeleteResume(ctx context.Context, ownerID, id string) error {
	query := s.db.Rebind(`DELETE FROM resumes WHERE id = ? AND user_id = ?`)
	res, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
