package exam

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Exam is a scheduled assessment for a subject.
type Exam struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"` // e.g. "End of Term 1"
	SubjectID string    `json:"subject_id"`
	ClassID   string    `json:"class_id"`
	Date      time.Time `json:"date"` // UTC
	MaxMarks  int       `json:"max_marks"`
	Published bool      `json:"published"` // students only see published results
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Result is one student's score for an Exam.
type Result struct {
	ID        string    `json:"id"`
	ExamID    string    `json:"exam_id"`
	StudentID string    `json:"student_id"`
	Marks     float64   `json:"marks"`
	Grade     string    `json:"grade"`
	EnteredBy string    `json:"entered_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NewExam struct {
	Name      string    `json:"name" validate:"required"`
	SubjectID string    `json:"subject_id" validate:"required,uuid4"`
	ClassID   string    `json:"class_id" validate:"required,uuid4"`
	Date      time.Time `json:"date" validate:"required"`
	MaxMarks  int       `json:"max_marks" validate:"required,min=1"`
}

func (ne *NewExam) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	return validate.Struct(ne)
}

type UpdateExam struct {
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	MaxMarks  int       `json:"max_marks" validate:"omitempty,min=1"`
	Published *bool     `json:"published"`
}

func (ue *UpdateExam) Validate(validate *validator.Validate) error {
	ue.Name = core.CleanString(ue.Name)
	return validate.Struct(ue)
}

type NewResult struct {
	StudentID string  `json:"student_id" validate:"required,uuid4"`
	Marks     float64 `json:"marks" validate:"gte=0"`
}

// NewResults enters a batch of scores for one exam.
type NewResults struct {
	Results []NewResult `json:"results" validate:"required,min=1,dive"`
}

func (nr *NewResults) Validate(validate *validator.Validate) error {
	if err := validate.Struct(nr); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(nr.Results))
	for _, res := range nr.Results {
		if _, ok := seen[res.StudentID]; ok {
			return core.NewValidationError(ErrDuplicateStudent,
				core.FieldError{Field: "results", Error: ErrDuplicateStudent.Error()})
		}
		seen[res.StudentID] = struct{}{}
	}
	return nil
}

type QueryFilter struct {
	ClassID   string    `query:"class_id"`
	SubjectID string    `query:"subject_id"`
	Published *bool     `query:"published"`
	DateFrom  time.Time `query:"date_from"`
	DateTo    time.Time `query:"date_to"`
}

type ResultFilter struct {
	ExamID    string `query:"exam_id"`
	StudentID string `query:"student_id"`
}

// Grade bands, in percent of MaxMarks.
var gradeBands = []struct {
	min   float64
	grade string
}{
	{80, "A"},
	{70, "B"},
	{60, "C"},
	{50, "D"},
	{40, "E"},
}

// GradeFor maps a score to its letter grade.
func GradeFor(marks float64, maxMarks int) string {
	pct := marks / float64(maxMarks) * 100
	for _, band := range gradeBands {
		if pct >= band.min {
			return band.grade
		}
	}
	return "F"
}
