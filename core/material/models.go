package material

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Material is a study resource (notes, past paper...) shared with a class.
type Material struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ClassID     string    `json:"class_id"`
	SubjectID   string    `json:"subject_id,omitempty"`
	FileURL     string    `json:"file_url"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type NewMaterial struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	ClassID     string `json:"class_id" validate:"required,uuid4"`
	SubjectID   string `json:"subject_id" validate:"omitempty,uuid4"`
	FileURL     string `json:"file_url" validate:"required,url"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	return validate.Struct(nm)
}

type UpdateMaterial struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	FileURL     string `json:"file_url" validate:"omitempty,url"`
}

func (um *UpdateMaterial) Validate(validate *validator.Validate) error {
	um.Title = core.CleanString(um.Title)
	um.Description = core.CleanString(um.Description)
	return validate.Struct(um)
}

type QueryFilter struct {
	Search     string `query:"search"`
	ClassID    string `query:"class_id"`
	SubjectID  string `query:"subject_id"`
	UploadedBy string `query:"uploaded_by"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
