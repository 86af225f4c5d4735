package attendance

import (
	"sort"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

var AllStatuses = []string{StatusAbsent, StatusExcused, StatusLate, StatusPresent} // sorted

var (
	statusTag  = "attstatus"
	statusText = "invalid attendance status"
)

// RegisterValidators registers the attendance domain's custom validators on the app validator.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

func statusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	idx := sort.SearchStrings(AllStatuses, status)
	return idx < len(AllStatuses) && AllStatuses[idx] == status
}

// Record is one student's attendance mark for a class on a given day.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ClassID   string    `json:"class_id"`
	Date      time.Time `json:"date"` // UTC, truncated to day
	Status    string    `json:"status"`
	Remark    string    `json:"remark,omitempty"`
	TakenBy   string    `json:"taken_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewRecord is one student's mark within a NewSheet.
type NewRecord struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	Status    string `json:"status" validate:"required,attstatus"`
	Remark    string `json:"remark"`
}

// NewSheet records a whole class's attendance for one day in a single call.
type NewSheet struct {
	ClassID string      `json:"class_id" validate:"required,uuid4"`
	Date    time.Time   `json:"date" validate:"required"`
	Records []NewRecord `json:"records" validate:"required,min=1,dive"`
}

func (ns *NewSheet) Validate(validate *validator.Validate) error {
	for i := range ns.Records {
		ns.Records[i].Remark = core.CleanString(ns.Records[i].Remark)
	}
	if err := validate.Struct(ns); err != nil {
		return err
	}
	// a student may only appear once per sheet
	seen := make(map[string]struct{}, len(ns.Records))
	for _, rec := range ns.Records {
		if _, ok := seen[rec.StudentID]; ok {
			return core.NewValidationError(ErrDuplicateStudent,
				core.FieldError{Field: "records", Error: ErrDuplicateStudent.Error()})
		}
		seen[rec.StudentID] = struct{}{}
	}
	return nil
}

type UpdateRecord struct {
	Status string `json:"status" validate:"omitempty,attstatus"`
	Remark string `json:"remark"`
}

func (ur *UpdateRecord) Validate(validate *validator.Validate) error {
	ur.Remark = core.CleanString(ur.Remark)
	return validate.Struct(ur)
}

type QueryFilter struct {
	StudentID string    `query:"student_id"`
	ClassID   string    `query:"class_id"`
	Status    string    `query:"status"`
	DateFrom  time.Time `query:"date_from"`
	DateTo    time.Time `query:"date_to"`
}

// Summary aggregates a student's attendance over a period.
type Summary struct {
	StudentID  string  `json:"student_id"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Late       int     `json:"late"`
	Excused    int     `json:"excused"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"` // attended (present + late) over total
}
