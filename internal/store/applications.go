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

type applicationRow struct {
	ID             string            `db:"id"`
	UserID         string            `db:"user_id"`
	ResumeID       sql.NullString    `db:"resume_id"`
	CompanyName    string            `db:"company_name"`
	RoleTitle      string            `db:"role_title"`
	JobURL         string            `db:"job_url"`
	JobDescription string            `db:"job_description"`
	Requirements   sqltypes.JSONText `db:"requirements"`
	Status         string            `db:"status"`
	CreatedAt      time.Time         `db:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at"`
}

func (r applicationRow) toApplication() (types.JobApplication, error) {
	app := types.JobApplication{
		ID:             r.ID,
		UserID:         r.UserID,
		CompanyName:    r.CompanyName,
		RoleTitle:      r.RoleTitle,
		JobURL:         r.JobURL,
		JobDescription: r.JobDescription,
		Status:         types.ApplicationStatus(r.Status),
		CreatedAt:      r.CreatedAt.UTC(),
	}
	if r.ResumeID.Valid {
		id := r.ResumeID.String
		app.ResumeID = &id
	}
	if err := r.Requirements.Unmarshal(&app.Requirements); err != nil {
		return app, fmt.Errorf("decode requirements of application %s: %w", r.ID, err)
	}
	return app, nil
}

const applicationColumns = `id, user_id, resume_id, company_name, role_title, job_url,
	job_description, requirements, status, created_at, updated_at`

// CreateApplication inserts a new job application
func (s *Store) CreateApplication(ctx context.Context, app *types.JobApplication) error {
	requirements := app.Requirements
	if requirements == nil {
		requirements = []string{}
	}
	reqJSON, err := json.Marshal(requirements)
	if err != nil {
		return fmt.Errorf("encode requirements: %w", err)
	}

	var resumeID sql.NullString
	if app.ResumeID != nil {
		resumeID = sql.NullString{String: *app.ResumeID, Valid: true}
	}

	query := s.db.Rebind(`INSERT INTO job_applications (` + applicationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		app.ID, app.UserID, resumeID, app.CompanyName, app.RoleTitle, app.JobURL,
		app.JobDescription, string(reqJSON), string(app.Status), app.CreatedAt.UTC(), app.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// GetApplication returns the application with id owned by ownerID
func (s *Store) GetApplication(ctx context.Context, ownerID, id string) (*types.JobApplication, error) {
	var row applicationRow
	query := s.db.Rebind(`SELECT ` + applicationColumns + ` FROM job_applications WHERE id = ? AND user_id = ?`)
	if err := s.db.GetContext(ctx, &row, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get application: %w", err)
	}

	app, err := row.toApplication()
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// ListApplications returns ownerID's applications, newest first
func (s *Store) ListApplications(ctx context.Context, ownerID string) ([]types.JobApplication, error) {
	var rows []applicationRow
	query := s.db.Rebind(`SELECT ` + applicationColumns + ` FROM job_applications
		WHERE user_id = ? ORDER BY created_at DESC`)
	if err := s.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	apps := make([]types.JobApplication, 0, len(rows))
	for _, row := range rows {
		app, err := row.toApplication()
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// UpdateApplicationStatus sets the status of an application owned by ownerID
func (s *Store) UpdateApplicationStatus(ctx context.Context, ownerID, id string, status types.ApplicationStatus, at time.Time) error {
	query := s.db.Rebind(`UPDATE job_applications SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`)
	res, err := s.db.ExecContext(ctx, query, string(status), at.UTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
