package kvstore

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"blockchain-quiz/internal/export"
	"blockchain-quiz/internal/kv"
	"blockchain-quiz/internal/quiz"
)

var _ quiz.ResultRepository = (*ResultStore)(nil)

// ResultStore appends finished attempts to blockchainQuizResults and keeps a
// running CSV copy under blockchainQuizCSV.
type ResultStore struct {
	store kv.Store
	log   *slog.Logger
	loc   *time.Location

	mu sync.Mutex
}

// NewResultStore renders CSV dates in loc; nil means local time.
func NewResultStore(store kv.Store, loc *time.Location, log *slog.Logger) *ResultStore {
	if loc == nil {
		loc = time.Local
	}
	return &ResultStore{
		store: store,
		log:   orDefaultLogger(log).With(slog.String("repo", "results")),
		loc:   loc,
	}
}

// Append stores the result. A failure to update the CSV copy is logged
// but does not fail the append.
func (s *ResultStore) Append(ctx context.Context, result quiz.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := loadForUpdate[quiz.QuizResult](ctx, s.store, s.log, KeyResults)
	if err != nil {
		return err
	}
	if err := saveJSON(ctx, s.store, s.log, KeyResults, append(results, result)); err != nil {
		return err
	}

	if err := s.appendCSV(ctx, result); err != nil {
		s.log.Warn("csv mirror not updated", slog.Any("err", err))
	}
	return nil
}

func (s *ResultStore) appendCSV(ctx context.Context, result quiz.QuizResult) error {
	existing, ok, err := s.store.Get(ctx, KeyResultsCSV)
	if err != nil {
		return err
	}

	var b strings.Builder
	if !ok || existing == "" {
		b.WriteString(export.ResultsCSVHeader)
		b.WriteByte('\n')
	} else {
		b.WriteString(existing)
	}
	b.WriteString(export.ResultRow(result, s.loc))
	b.WriteByte('\n')

	return s.store.Set(ctx, KeyResultsCSV, b.String())
}

// Leaderboard ranks by percentage, newest first among equal percentages.
func (s *ResultStore) Leaderboard(ctx context.Context, topN int) []quiz.QuizResult {
	if topN <= 0 {
		topN = quiz.DefaultLeaderboardSize
	}

	results := s.All(ctx)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Percentage != results[j].Percentage {
			return results[i].Percentage > results[j].Percentage
		}
		return results[i].Date.After(results[j].Date)
	})

	if len(results) > topN {
		results = results[:topN]
	}
	return results
}

func (s *ResultStore) All(ctx context.Context) []quiz.QuizResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := readJSON[quiz.QuizResult](ctx, s.store, s.log, KeyResults)
	if results == nil {
		return []quiz.QuizResult{}
	}
	return results
}

// CSVMirror returns the raw CSV copy, empty if nothing was recorded.
func (s *ResultStore) CSVMirror(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, _, err := s.store.Get(ctx, KeyResultsCSV)
	if err != nil {
		s.log.Warn("storage read failed", slog.String("key", KeyResultsCSV), slog.Any("err", err))
		return ""
	}
	return raw
}
