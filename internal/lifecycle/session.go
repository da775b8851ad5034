package lifecycle

import (
	"fmt"
	"maps"

	"jobpilot/internal/errors"
	"jobpilot/internal/types"
)

// TestSession stages answers for a test until submission. Nothing is
// persisted until the answers are passed to SubmitTest.
type TestSession struct {
	test     *types.Test
	answers  types.Answers
	readOnly bool
}

func newSession(test *types.Test, readOnly bool) *TestSession {
	answers := make(types.Answers, len(test.Answers))
	if readOnly {
		maps.Copy(answers, test.Answers)
	}
	return &TestSession{test: test, answers: answers, readOnly: readOnly}
}

// Test returns the test being answered
func (s *TestSession) Test() *types.Test {
	return s.test
}

// RecordAnswer sets the answer for questionID, replacing any earlier one
func (s *TestSession) RecordAnswer(questionID int, answer string) error {
	if s.readOnly {
		return errors.NewConflictError(errors.ErrCodeAlreadyCompleted, "test already completed", nil).
			WithContext("test_id", s.test.ID)
	}
	if !hasQuestion(s.test, questionID) {
		return errors.NewValidationError(errors.ErrCodeInvalidQuestion,
			fmt.Sprintf("question %d does not belong to this test", questionID), nil).
			WithContext("test_id", s.test.ID)
	}
	s.answers[questionID] = answer
	return nil
}

// Answers returns a copy of the staged answers
func (s *TestSession) Answers() types.Answers {
	return maps.Clone(s.answers)
}

// Answered reports whether questionID has a staged answer
func (s *TestSession) Answered(questionID int) bool {
	_, ok := s.answers[questionID]
	return ok
}

func hasQuestion(test *types.Test, questionID int) bool {
	for _, q := range test.Questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}
