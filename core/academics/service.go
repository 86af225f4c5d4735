package academics

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrClassNotFound   = errors.New("class not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrClassExists     = errors.New("a class with this name already exists")
)

type (
	Repository interface {
		CheckClassUniqueness(ctx context.Context, name string) error
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		QueryClasses(ctx context.Context, filter *ClassFilter, ordering ...core.DBOrdering) ([]Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		DeleteClassesByID(ctx context.Context, ids ...string) (int, error)

		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		QuerySubjects(ctx context.Context, filter *SubjectFilter, ordering ...core.DBOrdering) ([]Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		DeleteSubjectsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service interface {
		CheckClassUniqueness(ctx context.Context, name string) error
		CreateClass(ctx context.Context, nc NewClass) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		QueryClasses(ctx context.Context, filter *ClassFilter, ordering ...core.DBOrdering) ([]Class, error)
		UpdateClass(ctx context.Context, id string, uc UpdateClass) (Class, error)
		DeleteClasses(ctx context.Context, ids ...string) error

		CreateSubject(ctx context.Context, ns NewSubject) (Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		QuerySubjects(ctx context.Context, filter *SubjectFilter, ordering ...core.DBOrdering) ([]Subject, error)
		UpdateSubject(ctx context.Context, id string, us UpdateSubject) (Subject, error)
		DeleteSubjects(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckClassUniqueness(ctx context.Context, name string) error {
	if err := svc.repo.CheckClassUniqueness(ctx, name); err != nil {
		if errors.Cause(err) == ErrClassExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Name:       nc.Name,
		GradeLevel: nc.GradeLevel,
		TeacherID:  nc.TeacherID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *service) GetClass(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *service) QueryClasses(ctx context.Context, filter *ClassFilter, ordering ...core.DBOrdering) ([]Class, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryClasses(ctx, filter, ordering...)
}

func (svc *service) UpdateClass(ctx context.Context, id string, uc UpdateClass) (Class, error) {
	cls, err := svc.repo.GetClass(ctx, id)
	if err != nil {
		return Class{}, err
	}
	cls.Name = uc.Name
	cls.GradeLevel = uc.GradeLevel
	if uc.TeacherID != "" {
		cls.TeacherID = uc.TeacherID
	}
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *service) DeleteClasses(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteClassesByID(ctx, ids...)
	return err
}

func (svc *service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	if _, err := svc.repo.GetClass(ctx, ns.ClassID); err != nil {
		if errors.Cause(err) == ErrClassNotFound {
			return Subject{}, core.NewValidationError(err, core.FieldError{Field: "class_id", Error: err.Error()})
		}
		return Subject{}, err
	}
	now := time.Now().UTC()
	sub := Subject{
		Name:      ns.Name,
		Code:      ns.Code,
		ClassID:   ns.ClassID,
		TeacherID: ns.TeacherID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *service) QuerySubjects(ctx context.Context, filter *SubjectFilter, ordering ...core.DBOrdering) ([]Subject, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QuerySubjects(ctx, filter, ordering...)
}

func (svc *service) UpdateSubject(ctx context.Context, id string, us UpdateSubject) (Subject, error) {
	sub, err := svc.repo.GetSubject(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	sub.Name = us.Name
	sub.Code = us.Code
	if us.TeacherID != "" {
		sub.TeacherID = us.TeacherID
	}
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubject(ctx, sub)
}

func (svc *service) DeleteSubjects(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteSubjectsByID(ctx, ids...)
	return err
}
