package lifecycle

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"jobpilot/internal/errors"
	"jobpilot/internal/events"
	"jobpilot/internal/store"
	"jobpilot/internal/types"
)

// ApplicationView is an application together with its tests
type ApplicationView struct {
	types.JobApplication
	Tests []types.Test `json:"tests"`
}

// NewApplication describes the listing a user applies to
type NewApplication struct {
	ResumeID       *string  `json:"resumeId,omitempty"`
	CompanyName    string   `json:"companyName"`
	RoleTitle      string   `json:"roleTitle"`
	JobURL         string   `json:"jobUrl,omitempty"`
	JobDescription string   `json:"jobDescription,omitempty"`
	Requirements   []string `json:"requirements,omitempty"`
}

// ListApplications returns ownerID's applications with their tests, newest
// first
func (m *Manager) ListApplications(ctx context.Context, ownerID string) ([]ApplicationView, error) {
	ctx, cancel := m.withStoreTimeout(ctx)
	defer cancel()

	apps, err := m.repo.ListApplications(ctx, ownerID)
	if err != nil {
		return nil, persistenceFailed("failed to list applications", err)
	}

	ids := make([]string, len(apps))
	for i, app := range apps {
		ids[i] = app.ID
	}
	tests, err := m.repo.TestsForApplications(ctx, ids)
	if err != nil {
		return nil, persistenceFailed("failed to list tests", err)
	}

	views := make([]ApplicationView, len(apps))
	for i, app := range apps {
		views[i] = ApplicationView{JobApplication: app, Tests: tests[app.ID]}
		if views[i].Tests == nil {
			views[i].Tests = []types.Test{}
		}
	}
	return views, nil
}

// checkResume makes sure an attached resume exists and belongs to ownerID
func (m *Manager) checkResume(ctx context.Context, ownerID string, resumeID *string) error {
	if resumeID == nil {
		return nil
	}
	readCtx, cancel := m.withStoreTimeout(ctx)
	defer cancel()
	if _, err := m.repo.GetResume(readCtx, ownerID, *resumeID); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return errors.NewNotFoundError(errors.ErrCodeNotFound, "resume not found", nil).
				WithContext("resume_id", *resumeID)
		}
		return persistenceFailed("failed to load resume", err)
	}
	return nil
}

// CreateApplication records that ownerID applied to a listing. New
// applications start pending.
func (m *Manager) CreateApplication(ctx context.Context, ownerID string, req NewApplication) (*types.JobApplication, error) {
	company := strings.TrimSpace(req.CompanyName)
	role := strings.TrimSpace(req.RoleTitle)
	if company == "" || role == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "company name and role title are required", nil)
	}
	if ownerID == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "owner is required", nil)
	}
	resumeID := req.ResumeID
	if resumeID != nil && strings.TrimSpace(*resumeID) == "" {
		resumeID = nil
	}
	if err := m.checkResume(ctx, ownerID, resumeID); err != nil {
		return nil, err
	}

	app := &types.JobApplication{
		ID:             m.newID(),
		UserID:         ownerID,
		ResumeID:       resumeID,
		CompanyName:    company,
		RoleTitle:      role,
		JobURL:         req.JobURL,
		JobDescription: req.JobDescription,
		Requirements:   flattenRequirements(req.Requirements),
		Status:         types.StatusPending,
		CreatedAt:      m.now(),
	}

	writeCtx, cancel := m.withStoreTimeout(ctx)
	err := m.repo.CreateApplication(writeCtx, app)
	cancel()
	if err != nil {
		return nil, persistenceFailed("failed to save application", err)
	}

	m.logger.Info("Created application", "application_id", app.ID, "company", app.CompanyName, "role", app.RoleTitle)
	m.publish(ctx, events.ApplicationEvent{
		Type:          events.TypeApplicationCreated,
		ApplicationID: app.ID,
		UserID:        ownerID,
		Status:        string(app.Status),
		OccurredAt:    app.CreatedAt,
	})
	return app, nil
}

// UpdateStatus sets a status decided outside the test flow. test_taken can
// only be reached by submitting a test.
func (m *Manager) UpdateStatus(ctx context.Context, ownerID, applicationID string, status types.ApplicationStatus) error {
	switch status {
	case types.StatusPending, types.StatusApplied, types.StatusAccepted, types.StatusRejected:
	default:
		return errors.NewValidationError(errors.ErrCodeInvalidStatus,
			fmt.Sprintf("status %q cannot be set directly", status), nil)
	}

	at := m.now()
	writeCtx, cancel := m.withStoreTimeout(ctx)
	err := m.repo.UpdateApplicationStatus(writeCtx, ownerID, applicationID, status, at)
	cancel()
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return errors.NewNotFoundError(errors.ErrCodeNotFound, "application not found", nil).
				WithContext("application_id", applicationID)
		}
		return persistenceFailed("failed to update application status", err)
	}

	m.publish(ctx, events.ApplicationEvent{
		Type:          events.TypeStatusChanged,
		ApplicationID: applicationID,
		UserID:        ownerID,
		Status:        string(status),
		OccurredAt:    at,
	})
	return nil
}
