package dummydb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/academics"
)

type academicsRepository struct {
	classes  *classTable
	subjects *subjectTable
}

var _ academics.Repository = (*academicsRepository)(nil) // interface compliance check

func NewAcademicsRepository(db *DB) academics.Repository {
	return &academicsRepository{classes: db.class, subjects: db.subject}
}

func (repo *academicsRepository) CheckClassUniqueness(_ context.Context, name string) error {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	for _, cls := range repo.classes.table {
		if strings.EqualFold(cls.Name, name) {
			return academics.ErrClassExists
		}
	}
	return nil
}

func (repo *academicsRepository) CreateClass(_ context.Context, cls academics.Class) (academics.Class, error) {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	cls.ID = uuid.New().String()
	repo.classes.table[cls.ID] = &cls
	return cls, nil
}

func (repo *academicsRepository) GetClass(_ context.Context, id string) (academics.Class, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	if cls, ok := repo.classes.table[id]; ok {
		return *cls, nil
	}
	return academics.Class{}, academics.ErrClassNotFound
}

func (repo *academicsRepository) QueryClasses(_ context.Context, filter *academics.ClassFilter, _ ...core.DBOrdering) ([]academics.Class, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	classes := make([]academics.Class, 0, len(repo.classes.table))
	for _, cls := range repo.classes.table {
		if filter != nil {
			if filter.Search != "" && !strings.Contains(strings.ToLower(cls.Name), strings.ToLower(filter.Search)) {
				continue
			}
			if filter.GradeLevel > 0 && cls.GradeLevel != filter.GradeLevel {
				continue
			}
			if filter.TeacherID != "" && cls.TeacherID != filter.TeacherID {
				continue
			}
		}
		classes = append(classes, *cls)
	}
	return classes, nil
}

func (repo *academicsRepository) UpdateClass(_ context.Context, cls academics.Class) (academics.Class, error) {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	if _, ok := repo.classes.table[cls.ID]; !ok {
		return academics.Class{}, academics.ErrClassNotFound
	}
	repo.classes.table[cls.ID] = &cls
	return cls, nil
}

func (repo *academicsRepository) DeleteClassesByID(_ context.Context, ids ...string) (int, error) {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.classes.table[id]; ok {
			delete(repo.classes.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *academicsRepository) CreateSubject(_ context.Context, sub academics.Subject) (academics.Subject, error) {
	repo.subjects.Lock()
	defer repo.subjects.Unlock()

	sub.ID = uuid.New().String()
	repo.subjects.table[sub.ID] = &sub
	return sub, nil
}

func (repo *academicsRepository) GetSubject(_ context.Context, id string) (academics.Subject, error) {
	repo.subjects.RLock()
	defer repo.subjects.RUnlock()

	if sub, ok := repo.subjects.table[id]; ok {
		return *sub, nil
	}
	return academics.Subject{}, academics.ErrSubjectNotFound
}

func (repo *academicsRepository) QuerySubjects(_ context.Context, filter *academics.SubjectFilter, _ ...core.DBOrdering) ([]academics.Subject, error) {
	repo.subjects.RLock()
	defer repo.subjects.RUnlock()

	subjects := make([]academics.Subject, 0, len(repo.subjects.table))
	for _, sub := range repo.subjects.table {
		if filter != nil {
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(sub.Name), search) &&
					!strings.Contains(strings.ToLower(sub.Code), search) {
					continue
				}
			}
			if filter.ClassID != "" && sub.ClassID != filter.ClassID {
				continue
			}
			if filter.TeacherID != "" && sub.TeacherID != filter.TeacherID {
				continue
			}
		}
		subjects = append(subjects, *sub)
	}
	return subjects, nil
}

func (repo *academicsRepository) UpdateSubject(_ context.Context, sub academics.Subject) (academics.Subject, error) {
	repo.subjects.Lock()
	defer repo.subjects.Unlock()

	if _, ok := repo.subjects.table[sub.ID]; !ok {
		return academics.Subject{}, academics.ErrSubjectNotFound
	}
	repo.subjects.table[sub.ID] = &sub
	return sub, nil
}

func (repo *academicsRepository) DeleteSubjectsByID(_ context.Context, ids ...string) (int, error) {
	repo.subjects.Lock()
	defer repo.subjects.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.subjects.table[id]; ok {
			delete(repo.subjects.table, id)
			cnt++
		}
	}
	return cnt, nil
}
