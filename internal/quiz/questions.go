package quiz

import (
	"strings"
	"time"
)

const (
	OptionCount     = 4
	DefaultCategory = "General"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is the shape used during a quiz draw.
type Question struct {
	ID            int64    `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// AdminQuestion is a Question with authoring metadata. Field order follows
// the persisted and exported JSON layout.
type AdminQuestion struct {
	Question
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	Tags       []string   `json:"tags"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// QuestionDraft is what an administrator submits; id and timestamps are
// assigned by the repository.
type QuestionDraft struct {
	Question      string     `json:"question" validate:"required"`
	Options       []string   `json:"options" validate:"len=4,dive,required"`
	CorrectAnswer int        `json:"correctAnswer" validate:"min=0,max=3"`
	Explanation   string     `json:"explanation,omitempty"`
	Category      string     `json:"category"`
	Difficulty    Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Tags          []string   `json:"tags"`
}

// QuestionPatch holds the fields of an update; nil means unchanged.
type QuestionPatch struct {
	Question      *string     `json:"question,omitempty"`
	Options       []string    `json:"options,omitempty"`
	CorrectAnswer *int        `json:"correctAnswer,omitempty"`
	Explanation   *string     `json:"explanation,omitempty"`
	Category      *string     `json:"category,omitempty"`
	Difficulty    *Difficulty `json:"difficulty,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
}

// Normalize trims text fields, drops empty tags and fills the category and
// difficulty defaults.
func (d QuestionDraft) Normalize() QuestionDraft {
	out := d
	out.Question = strings.TrimSpace(d.Question)
	out.Explanation = strings.TrimSpace(d.Explanation)
	out.Category = strings.TrimSpace(d.Category)
	if out.Category == "" {
		out.Category = DefaultCategory
	}
	if out.Difficulty == "" {
		out.Difficulty = DifficultyMedium
	}

	if d.Options != nil {
		out.Options = make([]string, len(d.Options))
		for idx, option := range d.Options {
			out.Options[idx] = strings.TrimSpace(option)
		}
	}

	out.Tags = make([]string, 0, len(d.Tags))
	for _, tag := range d.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out.Tags = append(out.Tags, tag)
		}
	}
	return out
}

func (d QuestionDraft) Validate() error {
	return validateStruct(d)
}

func (q AdminQuestion) Draft() QuestionDraft {
	return QuestionDraft{
		Question:      q.Question.Question,
		Options:       append([]string(nil), q.Options...),
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		Category:      q.Category,
		Difficulty:    q.Difficulty,
		Tags:          append([]string(nil), q.Tags...),
	}
}

// Apply merges the patch over a draft.
func (p QuestionPatch) Apply(d QuestionDraft) QuestionDraft {
	if p.Question != nil {
		d.Question = *p.Question
	}
	if p.Options != nil {
		d.Options = append([]string(nil), p.Options...)
	}
	if p.CorrectAnswer != nil {
		d.CorrectAnswer = *p.CorrectAnswer
	}
	if p.Explanation != nil {
		d.Explanation = *p.Explanation
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Difficulty != nil {
		d.Difficulty = *p.Difficulty
	}
	if p.Tags != nil {
		d.Tags = append([]string(nil), p.Tags...)
	}
	return d
}

// NewAdminQuestion stamps a validated draft with its id and timestamps.
func NewAdminQuestion(id int64, d QuestionDraft, createdAt, updatedAt time.Time) AdminQuestion {
	return AdminQuestion{
		Question: Question{
			ID:            id,
			Question:      d.Question,
			Options:       d.Options,
			CorrectAnswer: d.CorrectAnswer,
			Explanation:   d.Explanation,
		},
		Category:   d.Category,
		Difficulty: d.Difficulty,
		Tags:       d.Tags,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

// ToQuestions drops the admin-only fields.
func ToQuestions(items []AdminQuestion) []Question {
	questions := make([]Question, 0, len(items))
	for _, item := range items {
		question := item.Question
		question.Options = append([]string(nil), item.Options...)
		questions = append(questions, question)
	}
	return questions
}
