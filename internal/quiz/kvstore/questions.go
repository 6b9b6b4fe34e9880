package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"blockchain-quiz/internal/kv"
	"blockchain-quiz/internal/quiz"
)

var _ quiz.QuestionRepository = (*QuestionRepository)(nil)

// QuestionRepository keeps the administrator's question set under
// adminQuestions. Each mutation rewrites the whole list.
type QuestionRepository struct {
	store kv.Store
	ids   *quiz.IDSequence
	log   *slog.Logger
	now   func() time.Time

	mu sync.Mutex
}

func NewQuestionRepository(store kv.Store, log *slog.Logger) *QuestionRepository {
	return &QuestionRepository{
		store: store,
		ids:   quiz.NewIDSequence(time.Now),
		log:   orDefaultLogger(log).With(slog.String("repo", "questions")),
		now:   time.Now,
	}
}

func (r *QuestionRepository) List(ctx context.Context) []quiz.AdminQuestion {
	r.mu.Lock()
	defer r.mu.Unlock()

	questions, _ := r.load(ctx)
	return questions
}

func (r *QuestionRepository) Add(ctx context.Context, draft quiz.QuestionDraft) (quiz.AdminQuestion, error) {
	added, err := r.AddAll(ctx, []quiz.QuestionDraft{draft})
	if err != nil {
		return quiz.AdminQuestion{}, err
	}
	return added[0], nil
}

// AddAll validates every draft before touching storage and appends them in
// a single write.
func (r *QuestionRepository) AddAll(ctx context.Context, drafts []quiz.QuestionDraft) ([]quiz.AdminQuestion, error) {
	normalized := make([]quiz.QuestionDraft, 0, len(drafts))
	for idx, draft := range drafts {
		draft = draft.Normalize()
		if err := draft.Validate(); err != nil {
			if len(drafts) == 1 {
				return nil, err
			}
			return nil, fmt.Errorf("question %d: %w", idx+1, err)
		}
		normalized = append(normalized, draft)
	}
	if len(normalized) == 0 {
		return []quiz.AdminQuestion{}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	questions, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()
	added := make([]quiz.AdminQuestion, 0, len(normalized))
	for _, draft := range normalized {
		added = append(added, quiz.NewAdminQuestion(r.ids.Next(), draft, now, now))
	}

	if err := r.save(ctx, append(questions, added...)); err != nil {
		return nil, err
	}
	return added, nil
}

// Update merges the patch into the stored question. An unknown id is a
// no-op.
func (r *QuestionRepository) Update(ctx context.Context, id int64, patch quiz.QuestionPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	questions, err := r.load(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(questions, id)
	if idx < 0 {
		return nil
	}

	current := questions[idx]
	merged := patch.Apply(current.Draft()).Normalize()
	if err := merged.Validate(); err != nil {
		return err
	}

	questions[idx] = quiz.NewAdminQuestion(id, merged, current.CreatedAt, r.now().UTC())
	return r.save(ctx, questions)
}

// Delete removes the question. An unknown id is a no-op.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	questions, err := r.load(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(questions, id)
	if idx < 0 {
		return nil
	}
	return r.save(ctx, append(questions[:idx], questions[idx+1:]...))
}

// DrawRandom shuffles the authored questions, or the built-in set when none
// are stored, and returns up to count of them.
func (r *QuestionRepository) DrawRandom(ctx context.Context, count int) []quiz.Question {
	source := quiz.ToQuestions(r.List(ctx))
	if len(source) == 0 {
		source = quiz.DefaultQuestions()
	}

	rand.Shuffle(len(source), func(i, j int) {
		source[i], source[j] = source[j], source[i]
	})

	if count < 0 {
		count = 0
	}
	if count > len(source) {
		count = len(source)
	}
	return source[:count]
}

type importRecord struct {
	ID            any             `json:"id"`
	Question      string          `json:"question"`
	Options       []string        `json:"options"`
	CorrectAnswer *int            `json:"correctAnswer"`
	Explanation   string          `json:"explanation"`
	Category      string          `json:"category"`
	Difficulty    quiz.Difficulty `json:"difficulty"`
	Tags          []string        `json:"tags"`
	CreatedAt     string          `json:"createdAt"`
}

// ImportFrom parses an exported or hand-written question file. It does not
// persist anything. A single bad record rejects the whole payload.
func (r *QuestionRepository) ImportFrom(data []byte) ([]quiz.AdminQuestion, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON array: %v", quiz.ErrImport, err)
	}

	now := r.now().UTC()
	out := make([]quiz.AdminQuestion, 0, len(raw))
	for idx, item := range raw {
		var record importRecord
		if trimmed := strings.TrimSpace(string(item)); !strings.HasPrefix(trimmed, "{") {
			return nil, fmt.Errorf("%w: record %d is not an object", quiz.ErrImport, idx+1)
		}
		if err := json.Unmarshal(item, &record); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", quiz.ErrImport, idx+1, err)
		}
		if record.CorrectAnswer == nil {
			return nil, fmt.Errorf("%w: record %d: correctAnswer is required", quiz.ErrImport, idx+1)
		}

		draft := quiz.QuestionDraft{
			Question:      record.Question,
			Options:       record.Options,
			CorrectAnswer: *record.CorrectAnswer,
			Explanation:   record.Explanation,
			Category:      record.Category,
			Difficulty:    record.Difficulty,
			Tags:          record.Tags,
		}.Normalize()
		if err := draft.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", quiz.ErrImport, idx+1, err)
		}

		createdAt := now
		if parsed, err := time.Parse(time.RFC3339, record.CreatedAt); err == nil {
			createdAt = parsed.UTC()
		}
		out = append(out, quiz.NewAdminQuestion(r.importedID(record.ID), draft, createdAt, now))
	}
	return out, nil
}

func (r *QuestionRepository) importedID(value any) int64 {
	if number, ok := value.(float64); ok && number >= 1 && number == math.Trunc(number) && number < math.MaxInt64 {
		return int64(number)
	}
	return r.ids.Next()
}

func (r *QuestionRepository) load(ctx context.Context) ([]quiz.AdminQuestion, error) {
	questions, err := loadForUpdate[quiz.AdminQuestion](ctx, r.store, r.log, KeyAdminQuestions)
	for _, question := range questions {
		r.ids.Observe(question.ID)
	}
	return questions, err
}

func (r *QuestionRepository) save(ctx context.Context, questions []quiz.AdminQuestion) error {
	return saveJSON(ctx, r.store, r.log, KeyAdminQuestions, questions)
}

func indexOf(questions []quiz.AdminQuestion, id int64) int {
	for idx := range questions {
		if questions[idx].ID == id {
			return idx
		}
	}
	return -1
}
