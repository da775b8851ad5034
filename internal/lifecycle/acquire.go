package lifecycle

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"

	"jobpilot/internal/errors"
	"jobpilot/internal/store"
	"jobpilot/internal/types"
)

// Mode tells the caller whether a test can still be answered
type Mode string

const (
	ModeInProgress Mode = "in_progress"
	ModeReview     Mode = "review"
)

// TestView is the result of AcquireTest
type TestView struct {
	Mode Mode        `json:"mode"`
	Test *types.Test `json:"test"`
}

// Session returns a staging handle for answering the test. Sessions of
// review-mode views carry the persisted answers and reject new ones.
func (v *TestView) Session() *TestSession {
	return newSession(v.Test, v.Mode == ModeReview)
}

// AcquireTest returns the test for (applicationID, testType), generating and
// persisting it on first use. At most one test is ever stored per pair:
// concurrent callers in this process share one generation, and an insert
// that loses the race against another process re-reads the winner's row.
func (m *Manager) AcquireTest(ctx context.Context, ownerID, applicationID string, testType types.TestType) (*TestView, error) {
	if !testType.Valid() {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown test type %q", testType), nil)
	}

	app, err := m.loadApplication(ctx, ownerID, applicationID)
	if err != nil {
		return nil, err
	}

	key := app.ID + "/" + string(testType)
	result, err, shared := m.acquiring.Do(key, func() (any, error) {
		// detached so one caller's cancellation doesn't fail the others
		return m.acquire(context.WithoutCancel(ctx), app, testType)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.logger.Debug("Shared in-flight test acquisition", "application_id", app.ID, "test_type", testType)
	}

	test := *result.(*types.Test)
	mode := ModeInProgress
	if test.Completed() {
		mode = ModeReview
	}
	return &TestView{Mode: mode, Test: &test}, nil
}

func (m *Manager) acquire(ctx context.Context, app *types.JobApplication, testType types.TestType) (*types.Test, error) {
	existing, err := m.findTest(ctx, app.ID, testType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	generated, err := m.generate(ctx, app, testType)
	if err != nil {
		return nil, err
	}

	test := &types.Test{
		ID:            m.newID(),
		ApplicationID: app.ID,
		UserID:        app.UserID,
		TestType:      testType,
		Title:         generated.Title,
		Description:   generated.Description,
		TimeLimit:     generated.TimeLimitMinutes,
		Questions:     generated.Questions,
		MaxScore:      len(generated.Questions),
		CreatedAt:     m.now(),
	}

	insertCtx, cancel := m.withStoreTimeout(ctx)
	err = m.repo.InsertTest(insertCtx, test)
	cancel()
	if err == nil {
		m.logger.Info("Created test", "application_id", app.ID, "test_type", testType,
			"test_id", test.ID, "questions", len(test.Questions))
		return test, nil
	}
	if !stderrors.Is(err, store.ErrDuplicate) {
		return nil, persistenceFailed("failed to save generated test", err)
	}

	m.logger.Info("Test created concurrently, using stored copy", "application_id", app.ID, "test_type", testType)
	winner, err := m.findTest(ctx, app.ID, testType)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, persistenceFailed("test vanished after conflicting insert", nil)
	}
	return winner, nil
}

// findTest returns nil without error when no test exists yet
func (m *Manager) findTest(ctx context.Context, applicationID string, testType types.TestType) (*types.Test, error) {
	ctx, cancel := m.withStoreTimeout(ctx)
	defer cancel()

	test, err := m.repo.GetTest(ctx, applicationID, testType)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, persistenceFailed("failed to load test", err)
	}
	return test, nil
}

func (m *Manager) generate(ctx context.Context, app *types.JobApplication, testType types.TestType) (*types.GeneratedTest, error) {
	if m.generateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.generateTimeout)
		defer cancel()
	}

	generated, err := m.generator.GenerateTest(ctx, &types.GenerateTestInput{
		Role:         app.RoleTitle,
		Company:      app.CompanyName,
		Requirements: flattenRequirements(app.Requirements),
		TestType:     testType,
	})
	if err != nil {
		m.logger.LogError(err, "Test generation failed", "application_id", app.ID, "test_type", testType)
		return nil, errors.NewAIError(errors.ErrCodeGenerationFailed, "could not generate test", err)
	}
	if err := validateGenerated(generated, testType); err != nil {
		m.logger.LogError(err, "Generated test rejected", "application_id", app.ID, "test_type", testType)
		return nil, errors.NewAIError(errors.ErrCodeGenerationFailed, "generated test is malformed", err)
	}
	return generated, nil
}

// validateGenerated rejects question sets that could never be answered or
// scored
func validateGenerated(g *types.GeneratedTest, testType types.TestType) error {
	if g == nil || len(g.Questions) == 0 {
		return stderrors.New("response has no questions")
	}
	seen := make(map[int]bool, len(g.Questions))
	for _, q := range g.Questions {
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %d", q.ID)
		}
		seen[q.ID] = true
		if testType == types.TestTypeQuiz {
			if err := validateQuizQuestion(q); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateQuizQuestion(q types.Question) error {
	if len(q.Options) == 0 {
		return fmt.Errorf("question %d has no options", q.ID)
	}
	if q.CorrectAnswer == "" {
		return fmt.Errorf("question %d has no correct answer", q.ID)
	}
	if !slices.ContainsFunc(q.Options, func(o types.Option) bool { return o.ID == q.CorrectAnswer }) {
		return fmt.Errorf("question %d: correct answer %q is not an option", q.ID, q.CorrectAnswer)
	}
	return nil
}

// flattenRequirements drops blank entries and splits multi-line ones
func flattenRequirements(reqs []string) []string {
	flat := make([]string, 0, len(reqs))
	for _, r := range reqs {
		for _, line := range strings.Split(r, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				flat = append(flat, line)
			}
		}
	}
	return flat
}
