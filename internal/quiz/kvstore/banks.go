package kvstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"blockchain-quiz/internal/kv"
	"blockchain-quiz/internal/quiz"
)

var _ quiz.BankRepository = (*BankStore)(nil)

type BankStore struct {
	store kv.Store
	log   *slog.Logger
	now   func() time.Time

	mu sync.Mutex
}

func NewBankStore(store kv.Store, log *slog.Logger) *BankStore {
	return &BankStore{
		store: store,
		log:   orDefaultLogger(log).With(slog.String("repo", "banks")),
		now:   time.Now,
	}
}

func (s *BankStore) List(ctx context.Context) []quiz.QuestionBank {
	s.mu.Lock()
	defer s.mu.Unlock()

	banks := readJSON[quiz.QuestionBank](ctx, s.store, s.log, KeyQuestionBanks)
	if banks == nil {
		return []quiz.QuestionBank{}
	}
	return banks
}

func (s *BankStore) Create(ctx context.Context, draft quiz.BankDraft) (quiz.QuestionBank, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return quiz.QuestionBank{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	bank := quiz.QuestionBank{
		ID:          uuid.NewString(),
		Name:        draft.Name,
		Description: draft.Description,
		Questions:   []quiz.AdminQuestion{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	banks, err := loadForUpdate[quiz.QuestionBank](ctx, s.store, s.log, KeyQuestionBanks)
	if err != nil {
		return quiz.QuestionBank{}, err
	}
	if err := saveJSON(ctx, s.store, s.log, KeyQuestionBanks, append(banks, bank)); err != nil {
		return quiz.QuestionBank{}, err
	}
	return bank, nil
}

// Delete removes the bank. An unknown id is a no-op.
func (s *BankStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	banks, err := loadForUpdate[quiz.QuestionBank](ctx, s.store, s.log, KeyQuestionBanks)
	if err != nil {
		return err
	}
	kept := banks[:0]
	for _, bank := range banks {
		if bank.ID != id {
			kept = append(kept, bank)
		}
	}
	if len(kept) == len(banks) {
		return nil
	}
	return saveJSON(ctx, s.store, s.log, KeyQuestionBanks, kept)
}
