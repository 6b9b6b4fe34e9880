package quiz

import (
	"context"
	"errors"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionClosed     = errors.New("session closed")
	ErrInvalidTransition = errors.New("invalid transition for current session state")
	ErrNoAnswerSelected  = errors.New("no answer selected")
	ErrInvalidOption     = errors.New("answer index out of range")
	ErrTimeUp            = errors.New("time is up")
	ErrNoQuestions       = errors.New("no questions available")

	// ErrStorageWrite marks a rejected persistence write (quota, I/O).
	ErrStorageWrite = errors.New("storage write failed")
	// ErrImport marks an uploaded question payload that could not be applied.
	ErrImport         = errors.New("import failed")
	ErrQuestionSource = errors.New("question source unavailable")
	ErrValidation     = errors.New("validation failed")
)

type QuestionRepository interface {
	List(ctx context.Context) []AdminQuestion
	Add(ctx context.Context, draft QuestionDraft) (AdminQuestion, error)
	AddAll(ctx context.Context, drafts []QuestionDraft) ([]AdminQuestion, error)
	Update(ctx context.Context, id int64, patch QuestionPatch) error
	Delete(ctx context.Context, id int64) error
	DrawRandom(ctx context.Context, count int) []Question
	ImportFrom(data []byte) ([]AdminQuestion, error)
}

type ResultRepository interface {
	Append(ctx context.Context, result QuizResult) error
	Leaderboard(ctx context.Context, topN int) []QuizResult
	All(ctx context.Context) []QuizResult
}

type BankRepository interface {
	List(ctx context.Context) []QuestionBank
	Create(ctx context.Context, draft BankDraft) (QuestionBank, error)
	Delete(ctx context.Context, id string) error
}

type ResultPublisher interface {
	Publish(ctx context.Context, result QuizResult) error
}

// QuestionSource supplies ready-made drafts from outside the store.
type QuestionSource interface {
	FetchDrafts(ctx context.Context, amount int) ([]QuestionDraft, error)
}
