package httpapi

import (
	"time"

	"blockchain-quiz/internal/quiz"
)

type startSessionRequest struct {
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
}

type selectAnswerRequest struct {
	Option *int `json:"option"`
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// questionView is a drawn question as players see it. The answer key is
// only filled in while the answer is being revealed.
type questionView struct {
	ID            int64    `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

type sessionView struct {
	SessionID        string                `json:"sessionId"`
	Student          quiz.Student          `json:"student"`
	State            quiz.State            `json:"state"`
	QuestionIndex    int                   `json:"questionIndex"`
	TotalQuestions   int                   `json:"totalQuestions"`
	Question         *questionView         `json:"question,omitempty"`
	SelectedAnswer   *int                  `json:"selectedAnswer"`
	LastAnswer       *quiz.QuizAnswer      `json:"lastAnswer,omitempty"`
	Answered         int                   `json:"answered"`
	RemainingSeconds int                   `json:"remainingSeconds"`
	Reason           quiz.CompletionReason `json:"completionReason,omitempty"`
}

type leaderboardEntry struct {
	Rank       int       `json:"rank"`
	Name       string    `json:"name"`
	RollNumber string    `json:"rollNumber"`
	Score      int       `json:"score"`
	Total      int       `json:"totalQuestions"`
	Percentage int       `json:"percentage"`
	Passed     bool      `json:"passed"`
	Date       time.Time `json:"date"`
}

type leaderboardResponse struct {
	Leaderboard []leaderboardEntry `json:"leaderboard"`
}

type questionsResponse struct {
	Questions []quiz.AdminQuestion `json:"questions"`
}

type importResponse struct {
	Imported  int                  `json:"imported"`
	Questions []quiz.AdminQuestion `json:"questions"`
}

type banksResponse struct {
	Banks []quiz.QuestionBank `json:"banks"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func toSessionView(student quiz.Student, snap quiz.Snapshot) sessionView {
	view := sessionView{
		SessionID:        snap.SessionID,
		Student:          student,
		State:            snap.State,
		QuestionIndex:    snap.QuestionIndex,
		TotalQuestions:   snap.TotalQuestions,
		SelectedAnswer:   snap.SelectedAnswer,
		LastAnswer:       snap.LastAnswer,
		Answered:         snap.Answered,
		RemainingSeconds: snap.RemainingSeconds,
		Reason:           snap.Reason,
	}
	if q := snap.Question; q != nil {
		view.Question = &questionView{
			ID:       q.ID,
			Question: q.Question,
			Options:  append([]string(nil), q.Options...),
		}
		if snap.State == quiz.StateShowingResult {
			correct := q.CorrectAnswer
			view.Question.CorrectAnswer = &correct
			view.Question.Explanation = q.Explanation
		}
	}
	return view
}

func toLeaderboard(results []quiz.QuizResult) []leaderboardEntry {
	entries := make([]leaderboardEntry, 0, len(results))
	for idx, result := range results {
		entries = append(entries, leaderboardEntry{
			Rank:       idx + 1,
			Name:       result.Student.Name,
			RollNumber: result.Student.RollNumber,
			Score:      result.Score,
			Total:      result.TotalQuestions,
			Percentage: result.Percentage,
			Passed:     result.Passed,
			Date:       result.Date,
		})
	}
	return entries
}
