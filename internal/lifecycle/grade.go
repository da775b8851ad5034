package lifecycle

import (
	"math"

	"jobpilot/internal/types"
)

// Score computes the score of answers against test. Quiz answers earn a
// point when they exactly match the correct option id. Coding answers earn
// a point per answered question; their content is not evaluated.
func Score(test *types.Test, answers types.Answers) int {
	score := 0
	for _, q := range test.Questions {
		answer, ok := answers[q.ID]
		if !ok {
			continue
		}
		switch test.TestType {
		case types.TestTypeQuiz:
			if answer == q.CorrectAnswer {
				score++
			}
		case types.TestTypeCoding:
			score++
		}
	}
	return score
}

// Percentage returns score as a rounded percentage of maxScore
func Percentage(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(maxScore) * 100))
}

// Grade returns the label shown next to a result
func Grade(score, maxScore int) string {
	switch p := Percentage(score, maxScore); {
	case p >= 80:
		return "Excellent!"
	case p >= 70:
		return "Good Job!"
	case p >= 50:
		return "Keep Practicing"
	default:
		return "Needs Improvement"
	}
}
