package quiz

import "strings"

type Student struct {
	Name       string `json:"name" validate:"required,min=2"`
	RollNumber string `json:"rollNumber" validate:"required,min=3"`
}

// NewStudent captures login input. The roll number is case-normalized to
// uppercase; the student is immutable once a session starts.
func NewStudent(name, rollNumber string) (Student, error) {
	student := Student{
		Name:       strings.TrimSpace(name),
		RollNumber: strings.ToUpper(strings.TrimSpace(rollNumber)),
	}
	if err := validateStruct(student); err != nil {
		return Student{}, err
	}
	return student, nil
}
