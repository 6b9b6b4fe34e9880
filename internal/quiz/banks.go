package quiz

import (
	"strings"
	"time"
)

// QuestionBank groups authored questions under a name. Banks are stored and
// listed but never drawn from.
type QuestionBank struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Questions   []AdminQuestion `json:"questions"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type BankDraft struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
}

func (d BankDraft) Normalize() BankDraft {
	return BankDraft{
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
	}
}

func (d BankDraft) Validate() error {
	return validateStruct(d)
}
