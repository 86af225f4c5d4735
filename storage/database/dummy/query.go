package dummydb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/query"
)

type queryRepository struct {
	db *queryTable
}

var _ query.Repository = (*queryRepository)(nil) // interface compliance check

func NewQueryRepository(db *DB) query.Repository {
	return &queryRepository{db: db.query}
}

func (repo *queryRepository) CreateQuery(_ context.Context, qry query.Query) (query.Query, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	qry.ID = uuid.New().String()
	repo.db.table[qry.ID] = &qry
	return qry, nil
}

func (repo *queryRepository) GetQuery(_ context.Context, id string) (query.Query, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if qry, ok := repo.db.table[id]; ok {
		return *qry, nil
	}
	return query.Query{}, query.ErrNotFound
}

func (repo *queryRepository) QueryQueries(_ context.Context, filter *query.QueryFilter, _ ...core.DBOrdering) ([]query.Query, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	queries := make([]query.Query, 0, len(repo.db.table))
	for _, qry := range repo.db.table {
		if filter != nil {
			if filter.StudentID != "" && qry.StudentID != filter.StudentID {
				continue
			}
			if filter.SubjectID != "" && qry.SubjectID != filter.SubjectID {
				continue
			}
			if filter.Status != "" && qry.Status != filter.Status {
				continue
			}
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(qry.Title), search) &&
					!strings.Contains(strings.ToLower(qry.Body), search) {
					continue
				}
			}
		}
		queries = append(queries, *qry)
	}
	return queries, nil
}

func (repo *queryRepository) UpdateQuery(_ context.Context, qry query.Query) (query.Query, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[qry.ID]; !ok {
		return query.Query{}, query.ErrNotFound
	}
	repo.db.table[qry.ID] = &qry
	return qry, nil
}

func (repo *queryRepository) DeleteQueriesByID(_ context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}
