package exam

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound         = errors.New("exam not found")
	ErrResultNotFound   = errors.New("exam result not found")
	ErrResultExists     = errors.New("a result for this student already exists")
	ErrDuplicateStudent = errors.New("a student appears more than once")
)

type (
	Repository interface {
		CreateExam(ctx context.Context, ex Exam) (Exam, error)
		GetExam(ctx context.Context, id string) (Exam, error)
		QueryExams(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Exam, error)
		UpdateExam(ctx context.Context, ex Exam) (Exam, error)
		DeleteExamsByID(ctx context.Context, ids ...string) (int, error)

		// CreateResults inserts all results or none; ErrResultExists if any
		// (exam, student) pair already has one.
		CreateResults(ctx context.Context, results []Result) ([]Result, error)
		QueryResults(ctx context.Context, filter *ResultFilter, ordering ...core.DBOrdering) ([]Result, error)
		UpdateResult(ctx context.Context, res Result) (Result, error)
	}

	Service interface {
		Create(ctx context.Context, ne NewExam) (Exam, error)
		Get(ctx context.Context, id string) (Exam, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Exam, error)
		Update(ctx context.Context, id string, ue UpdateExam) (Exam, error)
		Delete(ctx context.Context, ids ...string) error
		EnterResults(ctx context.Context, examID string, nr NewResults, enteredBy string) ([]Result, error)
		QueryResults(ctx context.Context, filter *ResultFilter, ordering ...core.DBOrdering) ([]Result, error)
		// StudentResults only returns results of published exams.
		StudentResults(ctx context.Context, studentID string) ([]Result, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ne NewExam) (Exam, error) {
	now := time.Now().UTC()
	ex := Exam{
		Name:      ne.Name,
		SubjectID: ne.SubjectID,
		ClassID:   ne.ClassID,
		Date:      ne.Date.UTC(),
		MaxMarks:  ne.MaxMarks,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateExam(ctx, ex)
}

func (svc *service) Get(ctx context.Context, id string) (Exam, error) {
	return svc.repo.GetExam(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Exam, error) {
	return svc.repo.QueryExams(ctx, filter, ordering...)
}

func (svc *service) Update(ctx context.Context, id string, ue UpdateExam) (Exam, error) {
	ex, err := svc.repo.GetExam(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if ue.Name != "" {
		ex.Name = ue.Name
	}
	if !ue.Date.IsZero() {
		ex.Date = ue.Date.UTC()
	}
	if ue.MaxMarks != 0 {
		ex.MaxMarks = ue.MaxMarks
	}
	if ue.Published != nil {
		ex.Published = *ue.Published
	}
	ex.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateExam(ctx, ex)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteExamsByID(ctx, ids...)
	return err
}

func (svc *service) EnterResults(ctx context.Context, examID string, nr NewResults, enteredBy string) ([]Result, error) {
	ex, err := svc.repo.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	results := make([]Result, 0, len(nr.Results))
	for _, res := range nr.Results {
		if res.Marks > float64(ex.MaxMarks) {
			return nil, core.NewValidationError(nil, core.FieldError{
				Field: "results",
				Error: fmt.Sprintf("marks for student %s exceed the exam maximum of %d", res.StudentID, ex.MaxMarks),
			})
		}
		results = append(results, Result{
			ExamID:    ex.ID,
			StudentID: res.StudentID,
			Marks:     res.Marks,
			Grade:     GradeFor(res.Marks, ex.MaxMarks),
			EnteredBy: enteredBy,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	results, err = svc.repo.CreateResults(ctx, results)
	if err != nil {
		if errors.Cause(err) == ErrResultExists {
			return nil, core.NewValidationError(err, core.FieldError{Field: "results", Error: err.Error()})
		}
		return nil, err
	}
	return results, nil
}

func (svc *service) QueryResults(ctx context.Context, filter *ResultFilter, ordering ...core.DBOrdering) ([]Result, error) {
	return svc.repo.QueryResults(ctx, filter, ordering...)
}

func (svc *service) StudentResults(ctx context.Context, studentID string) ([]Result, error) {
	results, err := svc.repo.QueryResults(ctx, &ResultFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}

	published := make([]Result, 0, len(results))
	exams := make(map[string]bool) // examID -> published
	for _, res := range results {
		isPub, ok := exams[res.ExamID]
		if !ok {
			ex, err := svc.repo.GetExam(ctx, res.ExamID)
			if err != nil {
				return nil, err
			}
			isPub = ex.Published
			exams[res.ExamID] = isPub
		}
		if isPub {
			published = append(published, res)
		}
	}
	return published, nil
}
