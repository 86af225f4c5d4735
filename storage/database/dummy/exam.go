package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/exam"
)

type examRepository struct {
	exams   *examTable
	results *examResultTable
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{exams: db.exam, results: db.examResult}
}

func (repo *examRepository) CreateExam(_ context.Context, ex exam.Exam) (exam.Exam, error) {
	repo.exams.Lock()
	defer repo.exams.Unlock()

	ex.ID = uuid.New().String()
	repo.exams.table[ex.ID] = &ex
	return ex, nil
}

func (repo *examRepository) GetExam(_ context.Context, id string) (exam.Exam, error) {
	repo.exams.RLock()
	defer repo.exams.RUnlock()

	if ex, ok := repo.exams.table[id]; ok {
		return *ex, nil
	}
	return exam.Exam{}, exam.ErrNotFound
}

func (repo *examRepository) QueryExams(_ context.Context, filter *exam.QueryFilter, _ ...core.DBOrdering) ([]exam.Exam, error) {
	repo.exams.RLock()
	defer repo.exams.RUnlock()

	exams := make([]exam.Exam, 0, len(repo.exams.table))
	for _, ex := range repo.exams.table {
		if filter != nil {
			if filter.ClassID != "" && ex.ClassID != filter.ClassID {
				continue
			}
			if filter.SubjectID != "" && ex.SubjectID != filter.SubjectID {
				continue
			}
			if filter.Published != nil && ex.Published != *filter.Published {
				continue
			}
			if !filter.DateFrom.IsZero() && ex.Date.Before(filter.DateFrom.UTC()) {
				continue
			}
			if !filter.DateTo.IsZero() && ex.Date.After(filter.DateTo.UTC()) {
				continue
			}
		}
		exams = append(exams, *ex)
	}
	return exams, nil
}

func (repo *examRepository) UpdateExam(_ context.Context, ex exam.Exam) (exam.Exam, error) {
	repo.exams.Lock()
	defer repo.exams.Unlock()

	if _, ok := repo.exams.table[ex.ID]; !ok {
		return exam.Exam{}, exam.ErrNotFound
	}
	repo.exams.table[ex.ID] = &ex
	return ex, nil
}

func (repo *examRepository) DeleteExamsByID(_ context.Context, ids ...string) (int, error) {
	repo.exams.Lock()
	defer repo.exams.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.exams.table[id]; ok {
			delete(repo.exams.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *examRepository) CreateResults(_ context.Context, results []exam.Result) ([]exam.Result, error) {
	repo.results.Lock()
	defer repo.results.Unlock()

	// all or none: check the whole batch before inserting
	for _, res := range results {
		for _, existing := range repo.results.table {
			if existing.ExamID == res.ExamID && existing.StudentID == res.StudentID {
				return nil, exam.ErrResultExists
			}
		}
	}
	for i := range results {
		results[i].ID = uuid.New().String()
		res := results[i]
		repo.results.table[res.ID] = &res
	}
	return results, nil
}

func (repo *examRepository) QueryResults(_ context.Context, filter *exam.ResultFilter, _ ...core.DBOrdering) ([]exam.Result, error) {
	repo.results.RLock()
	defer repo.results.RUnlock()

	results := make([]exam.Result, 0, len(repo.results.table))
	for _, res := range repo.results.table {
		if filter != nil {
			if filter.ExamID != "" && res.ExamID != filter.ExamID {
				continue
			}
			if filter.StudentID != "" && res.StudentID != filter.StudentID {
				continue
			}
		}
		results = append(results, *res)
	}
	return results, nil
}

func (repo *examRepository) UpdateResult(_ context.Context, res exam.Result) (exam.Result, error) {
	repo.results.Lock()
	defer repo.results.Unlock()

	if _, ok := repo.results.table[res.ID]; !ok {
		return exam.Result{}, exam.ErrResultNotFound
	}
	repo.results.table[res.ID] = &res
	return res, nil
}
