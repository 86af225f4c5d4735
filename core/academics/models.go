package academics

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Class is a homeroom group of students, e.g. "Form 2 Blue".
type Class struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	GradeLevel int       `json:"grade_level"`
	TeacherID  string    `json:"teacher_id"` // homeroom teacher
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// Subject is a taught course attached to a Class.
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	ClassID   string    `json:"class_id"`
	TeacherID string    `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type NewClass struct {
	Name       string `json:"name" validate:"required"`
	GradeLevel int    `json:"grade_level" validate:"required,min=1,max=14"`
	TeacherID  string `json:"teacher_id" validate:"omitempty,uuid4"`
}

func (nc *NewClass) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nc.Name = core.CleanString(nc.Name)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckClassUniqueness(ctx, nc.Name)
}

type UpdateClass struct {
	Name       string `json:"name"`
	GradeLevel int    `json:"grade_level" validate:"omitempty,min=1,max=14"`
	TeacherID  string `json:"teacher_id" validate:"omitempty,uuid4"`
}

func (uc *UpdateClass) Validate(ctx context.Context, validate *validator.Validate, orig Class, svc Service) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if uc.GradeLevel == 0 {
		uc.GradeLevel = orig.GradeLevel
	}
	if err := validate.Struct(uc); err != nil {
		return err
	}
	if uc.Name != orig.Name {
		return svc.CheckClassUniqueness(ctx, uc.Name)
	}
	return nil
}

type NewSubject struct {
	Name      string `json:"name" validate:"required"`
	Code      string `json:"code" validate:"required,min=2,alphanum_"`
	ClassID   string `json:"class_id" validate:"required,uuid4"`
	TeacherID string `json:"teacher_id" validate:"omitempty,uuid4"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code, true /* lower */)
	return validate.Struct(ns)
}

type UpdateSubject struct {
	Name      string `json:"name"`
	Code      string `json:"code" validate:"omitempty,min=2,alphanum_"`
	TeacherID string `json:"teacher_id" validate:"omitempty,uuid4"`
}

func (us *UpdateSubject) Validate(validate *validator.Validate, orig Subject) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	code := core.CleanString(us.Code, true /* lower */)
	if code != "" {
		us.Code = code
	} else {
		us.Code = orig.Code
	}
	return validate.Struct(us)
}

type ClassFilter struct {
	Search     string `query:"search"`
	GradeLevel int    `query:"grade_level"`
	TeacherID  string `query:"teacher_id"`
}

func (f *ClassFilter) Clean() {
	f.Search = core.CleanString(f.Search)
}

type SubjectFilter struct {
	Search    string `query:"search"`
	ClassID   string `query:"class_id"`
	TeacherID string `query:"teacher_id"`
}

func (f *SubjectFilter) Clean() {
	f.Search = core.CleanString(f.Search)
}
