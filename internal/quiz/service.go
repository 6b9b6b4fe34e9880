package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultQuestionCount   = 8
	DefaultLeaderboardSize = 5

	resultWriteTimeout = 10 * time.Second
)

type ServiceConfig struct {
	QuestionCount   int
	LeaderboardSize int
	Session         SessionConfig
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		QuestionCount:   DefaultQuestionCount,
		LeaderboardSize: DefaultLeaderboardSize,
		Session:         DefaultSessionConfig(),
	}
}

type Service struct {
	questions QuestionRepository
	results   ResultRepository
	publisher ResultPublisher
	cfg       ServiceConfig
	log       *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(questions QuestionRepository, results ResultRepository, publisher ResultPublisher, cfg ServiceConfig, log *slog.Logger) *Service {
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = DefaultQuestionCount
	}
	if cfg.LeaderboardSize <= 0 {
		cfg.LeaderboardSize = DefaultLeaderboardSize
	}
	cfg.Session = cfg.Session.withDefaults()
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		questions: questions,
		results:   results,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		sessions:  make(map[string]*Session),
	}
}

func (s *Service) Login(name, rollNumber string) (Student, error) {
	return NewStudent(name, rollNumber)
}

// StartQuiz draws a fresh question set for the student and starts the
// countdown. The finished result is stored and published when the session
// completes, whether by the last answer or by timeout.
func (s *Service) StartQuiz(ctx context.Context, student Student) (*Session, error) {
	if err := validateStruct(student); err != nil {
		return nil, err
	}

	questions := s.questions.DrawRandom(ctx, s.cfg.QuestionCount)
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	id := uuid.NewString()
	session, err := NewSession(id, student, questions, s.cfg.Session, func(result QuizResult) {
		s.recordResult(id, result)
	})
	if err != nil {
		return nil, err
	}

	s.registerSession(session)
	session.Start()

	s.log.Info("quiz started",
		slog.String("session", id),
		slog.String("roll", student.RollNumber),
		slog.Int("questions", len(questions)),
	)
	return session, nil
}

func (s *Service) Session(id string) (*Session, error) {
	session, ok := s.lookupSession(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// EndSession tears a session down. A session that has not completed yields
// no result.
func (s *Service) EndSession(id string) error {
	session, ok := s.removeSession(id)
	if !ok {
		return ErrSessionNotFound
	}
	session.Close()
	return nil
}

// SweepSessions drops sessions that completed more than maxAge ago, and any
// whose deadline passed more than maxAge ago.
func (s *Service) SweepSessions(maxAge time.Duration) int {
	cutoff := s.cfg.Session.Now().Add(-maxAge)
	stale := s.staleSessions(func(session *Session) bool {
		if completedAt := session.CompletedAt(); !completedAt.IsZero() {
			return completedAt.Before(cutoff)
		}
		return session.StartedAt().Add(s.cfg.Session.Duration).Before(cutoff)
	})

	for _, session := range stale {
		session.Close()
	}
	if len(stale) > 0 {
		s.log.Debug("swept sessions", slog.Int("count", len(stale)))
	}
	return len(stale)
}

func (s *Service) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) Leaderboard(ctx context.Context, limit int) []QuizResult {
	if limit <= 0 {
		limit = s.cfg.LeaderboardSize
	}
	return s.results.Leaderboard(ctx, limit)
}

func (s *Service) Results(ctx context.Context) []QuizResult {
	return s.results.All(ctx)
}

func (s *Service) ListQuestions(ctx context.Context) []AdminQuestion {
	return s.questions.List(ctx)
}

func (s *Service) AddQuestion(ctx context.Context, draft QuestionDraft) (AdminQuestion, error) {
	return s.questions.Add(ctx, draft)
}

func (s *Service) UpdateQuestion(ctx context.Context, id int64, patch QuestionPatch) error {
	return s.questions.Update(ctx, id, patch)
}

func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	return s.questions.Delete(ctx, id)
}

// ImportQuestions parses an uploaded payload and adds every record as a new
// question in one write. Nothing is stored if any record is rejected.
func (s *Service) ImportQuestions(ctx context.Context, data []byte) ([]AdminQuestion, error) {
	imported, err := s.questions.ImportFrom(data)
	if err != nil {
		return nil, err
	}

	drafts := make([]QuestionDraft, 0, len(imported))
	for _, question := range imported {
		drafts = append(drafts, question.Draft())
	}

	added, err := s.questions.AddAll(ctx, drafts)
	if err != nil {
		return nil, err
	}
	s.log.Info("questions imported", slog.Int("count", len(added)))
	return added, nil
}

// SeedQuestions pulls up to amount drafts from source and stores them in one
// write.
func (s *Service) SeedQuestions(ctx context.Context, source QuestionSource, amount int) ([]AdminQuestion, error) {
	drafts, err := source.FetchDrafts(ctx, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuestionSource, err)
	}
	if len(drafts) == 0 {
		return []AdminQuestion{}, nil
	}

	added, err := s.questions.AddAll(ctx, drafts)
	if err != nil {
		return nil, err
	}
	s.log.Info("questions seeded", slog.Int("count", len(added)))
	return added, nil
}

func (s *Service) recordResult(sessionID string, result QuizResult) {
	ctx, cancel := context.WithTimeout(context.Background(), resultWriteTimeout)
	defer cancel()

	logger := s.log.With(
		slog.String("session", sessionID),
		slog.String("roll", result.Student.RollNumber),
	)

	if err := s.results.Append(ctx, result); err != nil {
		logger.Error("store quiz result", slog.Any("err", err))
	} else {
		logger.Info("quiz completed",
			slog.Int("score", result.Score),
			slog.Int("percentage", result.Percentage),
			slog.Bool("passed", result.Passed),
		)
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, result); err != nil {
		logger.Warn("publish quiz result", slog.Any("err", err))
	}
}

// WrapStorageWrite tags a failed persistence write so callers can match it
// with errors.Is(err, ErrStorageWrite) while keeping the cause in the text.
func WrapStorageWrite(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageWrite, err)
}
