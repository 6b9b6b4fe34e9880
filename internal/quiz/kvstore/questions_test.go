package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"blockchain-quiz/internal/kv"
	"blockchain-quiz/internal/quiz"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSQLite(t *testing.T) *kv.SQLite {
	t.Helper()

	store, err := kv.NewSQLite(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type brokenStore struct {
	values map[string]string
	getErr error
	setErr error
}

func (b *brokenStore) Get(_ context.Context, key string) (string, bool, error) {
	if b.getErr != nil {
		return "", false, b.getErr
	}
	value, ok := b.values[key]
	return value, ok, nil
}

func (b *brokenStore) Set(_ context.Context, key, value string) error {
	if b.setErr != nil {
		return b.setErr
	}
	if b.values == nil {
		b.values = make(map[string]string)
	}
	b.values[key] = value
	return nil
}

func (b *brokenStore) Close() error { return nil }

// flakyStore fails the next Get after failNextGet is called.
type flakyStore struct {
	kv.Store
	failGet bool
}

func (f *flakyStore) failNextGet() { f.failGet = true }

func (f *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		f.failGet = false
		return "", false, errors.New("connection reset by peer")
	}
	return f.Store.Get(ctx, key)
}

func draft(text string) quiz.QuestionDraft {
	return quiz.QuestionDraft{
		Question:      text,
		Options:       []string{"Alpha", "Beta", "Gamma", "Delta"},
		CorrectAnswer: 2,
		Explanation:   "Because.",
		Category:      "Blocks",
		Difficulty:    quiz.DifficultyHard,
		Tags:          []string{"a", "b"},
	}
}

func mustAdd(t *testing.T, repo *QuestionRepository, text string) quiz.AdminQuestion {
	t.Helper()

	added, err := repo.Add(context.Background(), draft(text))
	if err != nil {
		t.Fatalf("add %q: %v", text, err)
	}
	return added
}

func TestQuestionRepositoryAddThenList(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository(newTestSQLite(t), discardLogger())

	added := mustAdd(t, repo, "What links blocks together?")
	if added.ID == 0 || added.CreatedAt.IsZero() {
		t.Fatalf("add did not stamp id and time: %+v", added)
	}
	if !added.CreatedAt.Equal(added.UpdatedAt) {
		t.Fatalf("createdAt %v != updatedAt %v", added.CreatedAt, added.UpdatedAt)
	}

	listed := repo.List(ctx)
	if len(listed) != 1 || listed[0].ID != added.ID {
		t.Fatalf("unexpected list: %+v", listed)
	}
	if !reflect.DeepEqual(listed[0].Draft(), draft("What links blocks together?")) {
		t.Fatalf("stored draft differs: %+v", listed[0].Draft())
	}
	if !added.CreatedAt.Equal(listed[0].CreatedAt) {
		t.Fatalf("createdAt changed on reload")
	}
}

func TestQuestionRepositoryAddRejectsInvalidDraft(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository(kv.NewMemory(0), discardLogger())

	bad := draft("Missing an option")
	bad.Options = bad.Options[:3]

	if _, err := repo.Add(ctx, bad); !errors.Is(err, quiz.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if got := repo.List(ctx); len(got) != 0 {
		t.Fatalf("invalid draft was stored: %+v", got)
	}
}

func TestQuestionRepositoryAddAllAssignsDistinctIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository(kv.NewMemory(0), discardLogger())
	frozen := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return frozen }
	repo.ids = quiz.NewIDSequence(repo.now)

	drafts := make([]quiz.QuestionDraft, 0, 20)
	for idx := 0; idx < 20; idx++ {
		drafts = append(drafts, draft(fmt.Sprintf("Question %d", idx)))
	}

	added, err := repo.AddAll(ctx, drafts)
	if err != nil {
		t.Fatalf("AddAll: %v", err)
	}

	seen := make(map[int64]bool)
	for _, question := range added {
		if seen[question.ID] {
			t.Fatalf("duplicate id %d", question.ID)
		}
		seen[question.ID] = true
	}
	if got := len(repo.List(ctx)); got != 20 {
		t.Fatalf("expected 20 stored questions, got %d", got)
	}

	invalid := append(drafts[:1:1], quiz.QuestionDraft{Question: "broken"})
	if _, err := repo.AddAll(ctx, invalid); !errors.Is(err, quiz.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if got := len(repo.List(ctx)); got != 20 {
		t.Fatalf("a rejected batch must not be partially applied, have %d", got)
	}
}

func TestQuestionRepositoryUnknownIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory(0)
	repo := NewQuestionRepository(store, discardLogger())

	mustAdd(t, repo, "Only question")
	before, _, _ := store.Get(ctx, KeyAdminQuestions)

	text := "changed"
	if err := repo.Update(ctx, 42, quiz.QuestionPatch{Question: &text}); err != nil {
		t.Fatalf("update unknown id: %v", err)
	}
	if err := repo.Delete(ctx, 42); err != nil {
		t.Fatalf("delete unknown id: %v", err)
	}

	if after, _, _ := store.Get(ctx, KeyAdminQuestions); after != before {
		t.Fatalf("stored value changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestQuestionRepositoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository(newTestSQLite(t), discardLogger())
	clock := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	first := mustAdd(t, repo, "First")
	second := mustAdd(t, repo, "Second")

	clock = clock.Add(time.Hour)
	text := "  First, edited  "
	answer := 3
	if err := repo.Update(ctx, first.ID, quiz.QuestionPatch{Question: &text, CorrectAnswer: &answer}); err != nil {
		t.Fatalf("update: %v", err)
	}

	bad := 9
	if err := repo.Update(ctx, first.ID, quiz.QuestionPatch{CorrectAnswer: &bad}); !errors.Is(err, quiz.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	listed := repo.List(ctx)
	if len(listed) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(listed))
	}
	edited := listed[0]
	if edited.Question.Question != "First, edited" || edited.CorrectAnswer != 3 || edited.Category != "Blocks" {
		t.Fatalf("patch not merged: %+v", edited)
	}
	if !edited.CreatedAt.Equal(first.CreatedAt) || !edited.UpdatedAt.Equal(clock) {
		t.Fatalf("timestamps: created %v updated %v", edited.CreatedAt, edited.UpdatedAt)
	}

	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if listed = repo.List(ctx); len(listed) != 1 || listed[0].ID != second.ID {
		t.Fatalf("unexpected list after delete: %+v", listed)
	}
}

func TestQuestionRepositoryQuotaLeavesListIntact(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository(kv.NewMemory(600), discardLogger())

	mustAdd(t, repo, "Fits")

	if _, err := repo.Add(ctx, draft(strings.Repeat("too long ", 60))); !errors.Is(err, quiz.ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}

	if listed := repo.List(ctx); len(listed) != 1 || listed[0].Question.Question != "Fits" {
		t.Fatalf("list changed after rejected write: %+v", listed)
	}
}

func TestQuestionRepositoryCorruptValueFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory(0)
	if err := store.Set(ctx, KeyAdminQuestions, "{not json"); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}
	repo := NewQuestionRepository(store, discardLogger())

	if got := repo.List(ctx); len(got) != 0 {
		t.Fatalf("corrupt value should list as empty, got %+v", got)
	}

	drawn := repo.DrawRandom(ctx, 8)
	if len(drawn) != 8 {
		t.Fatalf("expected 8 drawn, got %d", len(drawn))
	}
	defaults := make(map[int64]bool)
	for _, question := range quiz.DefaultQuestions() {
		defaults[question.ID] = true
	}
	for _, question := range drawn {
		if !defaults[question.ID] {
			t.Fatalf("drew non-default question %d", question.ID)
		}
	}

	if _, err := repo.Add(ctx, draft("Replaces the corrupt value")); err != nil {
		t.Fatalf("add over corrupt value: %v", err)
	}
	if got := repo.List(ctx); len(got) != 1 {
		t.Fatalf("expected the new question only, got %d", len(got))
	}
}

func TestQuestionRepositoryReadErrorIsNoData(t *testing.T) {
	repo := NewQuestionRepository(&brokenStore{getErr: errors.New("io")}, discardLogger())

	if got := repo.List(context.Background()); len(got) != 0 {
		t.Fatalf("unreadable store should list as empty, got %+v", got)
	}
	if got := repo.DrawRandom(context.Background(), 3); len(got) != 3 {
		t.Fatalf("expected 3 built-in questions, got %d", len(got))
	}
}

func TestQuestionRepositoryReadFailureAbortsWrites(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: kv.NewMemory(0)}
	repo := NewQuestionRepository(store, discardLogger())

	var stored []quiz.AdminQuestion
	for idx := 0; idx < 3; idx++ {
		stored = append(stored, mustAdd(t, repo, fmt.Sprintf("Kept %d", idx)))
	}

	text := "changed"
	writes := map[string]func() error{
		"add": func() error {
			_, err := repo.Add(ctx, draft("During the outage"))
			return err
		},
		"update": func() error {
			return repo.Update(ctx, stored[0].ID, quiz.QuestionPatch{Question: &text})
		},
		"delete": func() error {
			return repo.Delete(ctx, stored[1].ID)
		},
	}

	for name, write := range writes {
		t.Run(name, func(t *testing.T) {
			store.failNextGet()
			if err := write(); !errors.Is(err, quiz.ErrStorageWrite) {
				t.Fatalf("expected ErrStorageWrite, got %v", err)
			}

			listed := repo.List(ctx)
			if len(listed) != len(stored) {
				t.Fatalf("stored questions changed: have %d, want %d", len(listed), len(stored))
			}
			for idx := range stored {
				if listed[idx].Question.Question != stored[idx].Question.Question {
					t.Fatalf("question %d changed to %q", idx, listed[idx].Question.Question)
				}
			}
		})
	}
}

func TestQuestionRepositoryDrawRandom(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository(kv.NewMemory(0), discardLogger())

	var drafts []quiz.QuestionDraft
	for idx := 0; idx < 6; idx++ {
		drafts = append(drafts, draft(fmt.Sprintf("Pool %d", idx)))
	}
	pool, err := repo.AddAll(ctx, drafts)
	if err != nil {
		t.Fatalf("AddAll: %v", err)
	}

	inPool := make(map[int64]bool)
	for _, question := range pool {
		inPool[question.ID] = true
	}

	orderings := make(map[string]bool)
	for call := 0; call < 50; call++ {
		drawn := repo.DrawRandom(ctx, 4)
		if len(drawn) != 4 {
			t.Fatalf("expected 4 drawn, got %d", len(drawn))
		}

		seen := make(map[int64]bool)
		var key strings.Builder
		for _, question := range drawn {
			if !inPool[question.ID] {
				t.Fatalf("drew question %d from outside the pool", question.ID)
			}
			if seen[question.ID] {
				t.Fatalf("duplicate %d in draw", question.ID)
			}
			seen[question.ID] = true
			fmt.Fprintf(&key, "%d,", question.ID)
		}
		orderings[key.String()] = true
	}
	if len(orderings) < 2 {
		t.Fatalf("50 draws produced a single ordering")
	}

	if got := len(repo.DrawRandom(ctx, 100)); got != 6 {
		t.Fatalf("oversized draw returned %d, want 6", got)
	}
	if got := len(repo.DrawRandom(ctx, 0)); got != 0 {
		t.Fatalf("zero draw returned %d", got)
	}
}

func TestImportFromFillsDefaults(t *testing.T) {
	repo := NewQuestionRepository(kv.NewMemory(0), discardLogger())
	importedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return importedAt }

	payload := `[
		{"question": "Q1", "options": ["a","b","c","d"], "correctAnswer": 1},
		{"id": 1700000000000, "question": "Q2", "options": ["a","b","c","d"], "correctAnswer": 3,
		 "category": "Tokens", "difficulty": "easy", "tags": ["erc20"],
		 "createdAt": "2023-11-14T22:13:20Z", "updatedAt": "2023-11-14T22:13:20Z"}
	]`

	imported, err := repo.ImportFrom([]byte(payload))
	if err != nil {
		t.Fatalf("ImportFrom: %v", err)
	}
	if len(imported) != 2 {
		t.Fatalf("expected 2 records, got %d", len(imported))
	}

	first := imported[0]
	if first.Tags == nil || len(first.Tags) != 0 {
		t.Fatalf("tags should default to an empty list, got %#v", first.Tags)
	}
	if first.Category != quiz.DefaultCategory || first.Difficulty != quiz.DifficultyMedium {
		t.Fatalf("defaults not applied: %+v", first)
	}
	if !first.CreatedAt.Equal(importedAt) || !first.UpdatedAt.Equal(importedAt) || first.ID == 0 {
		t.Fatalf("generated fields not set: %+v", first)
	}

	second := imported[1]
	if second.ID != 1700000000000 || second.Category != "Tokens" {
		t.Fatalf("explicit fields not kept: %+v", second)
	}
	if !second.CreatedAt.Equal(time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)) {
		t.Fatalf("createdAt = %v", second.CreatedAt)
	}
	if !second.UpdatedAt.Equal(importedAt) {
		t.Fatalf("updatedAt must be the import time, got %v", second.UpdatedAt)
	}

	if got := repo.List(context.Background()); len(got) != 0 {
		t.Fatalf("ImportFrom must not persist, found %d", len(got))
	}
}

func TestImportFromRejectsWholePayload(t *testing.T) {
	repo := NewQuestionRepository(kv.NewMemory(0), discardLogger())

	cases := map[string]string{
		"not json":        `{"question"`,
		"not an array":    `{"question": "Q"}`,
		"scalar record":   `[1]`,
		"missing answer":  `[{"question": "Q", "options": ["a","b","c","d"]}]`,
		"three options":   `[{"question": "Q", "options": ["a","b","c"], "correctAnswer": 0}]`,
		"answer too high": `[{"question": "Q", "options": ["a","b","c","d"], "correctAnswer": 0}, {"question": "Q", "options": ["a","b","c","d"], "correctAnswer": 7}]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			imported, err := repo.ImportFrom([]byte(payload))
			if !errors.Is(err, quiz.ErrImport) {
				t.Fatalf("expected ErrImport, got %v", err)
			}
			if imported != nil {
				t.Fatalf("rejected payload returned records: %+v", imported)
			}
		})
	}
}
