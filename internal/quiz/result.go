package quiz

import (
	"math"
	"time"
)

const PassPercentage = 60

type QuizAnswer struct {
	QuestionID     int64 `json:"questionId"`
	SelectedAnswer int   `json:"selectedAnswer"`
	IsCorrect      bool  `json:"isCorrect"`
	TimeSpent      int64 `json:"timeSpent"`
}

type QuizResult struct {
	Student        Student      `json:"student"`
	Answers        []QuizAnswer `json:"answers"`
	TotalQuestions int          `json:"totalQuestions"`
	CorrectAnswers int          `json:"correctAnswers"`
	Score          int          `json:"score"`
	Percentage     int          `json:"percentage"`
	TimeSpent      int64        `json:"timeSpent"`
	Date           time.Time    `json:"date"`
	Passed         bool         `json:"passed"`
}

// Score builds the final result. Unanswered questions count as wrong since
// the percentage is always taken against totalQuestions.
func Score(student Student, answers []QuizAnswer, totalQuestions int, elapsed time.Duration, at time.Time) QuizResult {
	correct := 0
	for _, answer := range answers {
		if answer.IsCorrect {
			correct++
		}
	}

	percentage := 0
	if totalQuestions > 0 {
		percentage = int(math.Round(100 * float64(correct) / float64(totalQuestions)))
	}

	recorded := make([]QuizAnswer, len(answers))
	copy(recorded, answers)

	return QuizResult{
		Student:        student,
		Answers:        recorded,
		TotalQuestions: totalQuestions,
		CorrectAnswers: correct,
		Score:          correct,
		Percentage:     percentage,
		TimeSpent:      elapsed.Milliseconds(),
		Date:           at.UTC(),
		Passed:         percentage >= PassPercentage,
	}
}
