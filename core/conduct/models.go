package conduct

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Kinds
const (
	KindMerit   = "merit"
	KindDemerit = "demerit"
)

// Entry is a single conduct observation (merit or demerit) against a student.
type Entry struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	ReporterID  string    `json:"reporter_id"`
	Kind        string    `json:"kind"`
	Category    string    `json:"category"` // e.g. "punctuality", "uniform"
	Points      int       `json:"points"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`       // UTC
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type NewEntry struct {
	StudentID   string    `json:"student_id" validate:"required,uuid4"`
	Kind        string    `json:"kind" validate:"required,oneof=merit demerit"`
	Category    string    `json:"category" validate:"required"`
	Points      int       `json:"points" validate:"required,min=1,max=100"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.Category = core.CleanString(ne.Category, true /* lower */)
	ne.Description = core.CleanString(ne.Description)
	return validate.Struct(ne)
}

type UpdateEntry struct {
	Category    string `json:"category"`
	Points      int    `json:"points" validate:"omitempty,min=1,max=100"`
	Description string `json:"description"`
}

func (ue *UpdateEntry) Validate(validate *validator.Validate) error {
	ue.Category = core.CleanString(ue.Category, true /* lower */)
	ue.Description = core.CleanString(ue.Description)
	return validate.Struct(ue)
}

type QueryFilter struct {
	StudentID  string    `query:"student_id"`
	ReporterID string    `query:"reporter_id"`
	Kind       string    `query:"kind"`
	Category   string    `query:"category"`
	DateFrom   time.Time `query:"date_from"`
	DateTo     time.Time `query:"date_to"`
}

func (qf *QueryFilter) Clean() {
	qf.Category = core.CleanString(qf.Category, true /* lower */)
}

// Summary aggregates a student's conduct points.
type Summary struct {
	StudentID string `json:"student_id"`
	Merits    int    `json:"merits"`   // total merit points
	Demerits  int    `json:"demerits"` // total demerit points
	Balance   int    `json:"balance"`  // merits - demerits
}
