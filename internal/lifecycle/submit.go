package lifecycle

import (
	"context"
	stderrors "errors"
	"sort"

	"jobpilot/internal/errors"
	"jobpilot/internal/events"
	"jobpilot/internal/store"
	"jobpilot/internal/types"
)

// SubmitResult is returned from a successful submission
type SubmitResult struct {
	TestID     string `json:"testId"`
	Score      int    `json:"score"`
	MaxScore   int    `json:"maxScore"`
	Percentage int    `json:"percentage"`
	Grade      string `json:"grade"`
	// StatusStale is set when the test was saved but the application
	// status could not be moved to test_taken.
	StatusStale bool `json:"statusStale,omitempty"`
}

// SubmitTest scores answers, completes the test and marks the application
// test_taken. A test can be completed once; later submissions fail with
// ALREADY_COMPLETED and leave the stored score untouched.
func (m *Manager) SubmitTest(ctx context.Context, ownerID, applicationID string, testType types.TestType, answers types.Answers) (*SubmitResult, error) {
	app, err := m.loadApplication(ctx, ownerID, applicationID)
	if err != nil {
		return nil, err
	}

	test, err := m.findTest(ctx, app.ID, testType)
	if err != nil {
		return nil, err
	}
	if test == nil {
		return nil, errors.NewNotFoundError(errors.ErrCodeNotFound, "test not found", nil).
			WithContext("application_id", app.ID).
			WithContext("test_type", string(testType))
	}
	if test.Completed() {
		return nil, alreadyCompleted(test.ID)
	}

	session := newSession(test, false)
	for _, id := range sortedIDs(answers) {
		if err := session.RecordAnswer(id, answers[id]); err != nil {
			return nil, err
		}
	}
	return m.Submit(ctx, ownerID, session)
}

// Submit completes the test staged in session. The session must come from
// an in-progress TestView of an application owned by ownerID.
func (m *Manager) Submit(ctx context.Context, ownerID string, session *TestSession) (*SubmitResult, error) {
	if session.readOnly {
		return nil, alreadyCompleted(session.test.ID)
	}

	test := session.test
	if test.UserID != ownerID {
		return nil, errors.NewNotFoundError(errors.ErrCodeNotFound, "test not found", nil).
			WithContext("test_id", test.ID)
	}
	answers := session.Answers()
	score := Score(test, answers)
	completedAt := m.now()

	writeCtx, cancel := m.withStoreTimeout(ctx)
	err := m.repo.CompleteTest(writeCtx, test.ID, answers, score, completedAt)
	cancel()
	if err != nil {
		switch {
		case stderrors.Is(err, store.ErrAlreadyCompleted):
			return nil, alreadyCompleted(test.ID)
		case stderrors.Is(err, store.ErrNotFound):
			return nil, errors.NewNotFoundError(errors.ErrCodeNotFound, "test not found", nil).
				WithContext("test_id", test.ID)
		default:
			return nil, persistenceFailed("failed to save test result", err)
		}
	}

	result := &SubmitResult{
		TestID:     test.ID,
		Score:      score,
		MaxScore:   test.MaxScore,
		Percentage: Percentage(score, test.MaxScore),
		Grade:      Grade(score, test.MaxScore),
	}

	statusCtx, cancel := m.withStoreTimeout(ctx)
	err = m.repo.UpdateApplicationStatus(statusCtx, ownerID, test.ApplicationID, types.StatusTestTaken, completedAt)
	cancel()
	if err != nil {
		// the completed test stands; the status is reported stale instead
		result.StatusStale = true
		m.logger.LogError(err, "Test completed but application status not updated",
			"application_id", test.ApplicationID, "test_id", test.ID)
	}

	m.logger.Info("Test submitted", "application_id", test.ApplicationID, "test_type", test.TestType,
		"score", score, "max_score", test.MaxScore)

	status := string(types.StatusTestTaken)
	if result.StatusStale {
		status = ""
	}
	m.publish(ctx, events.ApplicationEvent{
		Type:          events.TypeTestCompleted,
		ApplicationID: test.ApplicationID,
		UserID:        ownerID,
		Status:        status,
		TestType:      string(test.TestType),
		Score:         &score,
		MaxScore:      test.MaxScore,
		OccurredAt:    completedAt,
	})

	return result, nil
}

func alreadyCompleted(testID string) *errors.AppError {
	return errors.NewConflictError(errors.ErrCodeAlreadyCompleted, "test already completed", nil).
		WithContext("test_id", testID)
}

func sortedIDs(answers types.Answers) []int {
	ids := make([]int, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
