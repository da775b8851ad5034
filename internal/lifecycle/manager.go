// Package lifecycle manages job applications and the tests taken for them:
// acquiring a test exactly once per application and type, staging answers,
// scoring a submission and moving the application to test_taken.
package lifecycle

import (
	"context"
	stderrors "errors"
	"time"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/events"
	"jobpilot/internal/store"
	"jobpilot/internal/types"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Repository is the persistence the manager depends on. *store.Store
// implements it.
type Repository interface {
	CreateApplication(ctx context.Context, app *types.JobApplication) error
	GetApplication(ctx context.Context, ownerID, id string) (*types.JobApplication, error)
	ListApplications(ctx context.Context, ownerID string) ([]types.JobApplication, error)
	UpdateApplicationStatus(ctx context.Context, ownerID, id string, status types.ApplicationStatus, at time.Time) error

	GetTest(ctx context.Context, applicationID string, testType types.TestType) (*types.Test, error)
	InsertTest(ctx context.Context, t *types.Test) error
	CompleteTest(ctx context.Context, testID string, answers types.Answers, score int, completedAt time.Time) error
	TestsForApplications(ctx context.Context, applicationIDs []string) (map[string][]types.Test, error)

	GetResume(ctx context.Context, ownerID, id string) (*types.Resume, error)
}

// TestGenerator produces a question set for a role
type TestGenerator interface {
	GenerateTest(ctx context.Context, input *types.GenerateTestInput) (*types.GeneratedTest, error)
}

// Manager implements the application lifecycle operations
type Manager struct {
	repo      Repository
	generator TestGenerator
	publisher events.Publisher
	logger    *errors.Logger

	generateTimeout time.Duration
	storeTimeout    time.Duration

	now   func() time.Time
	newID func() string

	acquiring singleflight.Group
}

// Option customizes a Manager
type Option func(*Manager)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator replaces the id source
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// NewManager creates a lifecycle manager. A nil publisher disables events.
func NewManager(repo Repository, generator TestGenerator, publisher events.Publisher,
	cfg config.LifecycleConfig, logger *errors.Logger, opts ...Option) *Manager {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	m := &Manager{
		repo:            repo,
		generator:       generator,
		publisher:       publisher,
		logger:          logger,
		generateTimeout: cfg.GenerateTimeout,
		storeTimeout:    cfg.StoreTimeout,
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// withStoreTimeout bounds a single storage call
func (m *Manager) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.storeTimeout)
}

func (m *Manager) loadApplication(ctx context.Context, ownerID, applicationID string) (*types.JobApplication, error) {
	ctx, cancel := m.withStoreTimeout(ctx)
	defer cancel()

	app, err := m.repo.GetApplication(ctx, ownerID, applicationID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError(errors.ErrCodeNotFound, "application not found", nil).
				WithContext("application_id", applicationID)
		}
		return nil, persistenceFailed("failed to load application", err)
	}
	return app, nil
}

func (m *Manager) publish(ctx context.Context, event events.ApplicationEvent) {
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.LogError(err, "Failed to publish application event",
			"event_type", event.Type, "application_id", event.ApplicationID)
	}
}

func persistenceFailed(message string, cause error) *errors.AppError {
	return errors.NewStorageError(errors.ErrCodePersistenceFailed, message, cause)
}
