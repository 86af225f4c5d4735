package dummydb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/conduct"
)

type conductRepository struct {
	db *conductTable
}

var _ conduct.Repository = (*conductRepository)(nil) // interface compliance check

func NewConductRepository(db *DB) conduct.Repository {
	return &conductRepository{db: db.conduct}
}

func (repo *conductRepository) CreateEntry(_ context.Context, ent conduct.Entry) (conduct.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ent.ID = uuid.New().String()
	repo.db.table[ent.ID] = &ent
	return ent, nil
}

func (repo *conductRepository) GetEntry(_ context.Context, id string) (conduct.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ent, ok := repo.db.table[id]; ok {
		return *ent, nil
	}
	return conduct.Entry{}, conduct.ErrNotFound
}

func (repo *conductRepository) QueryEntries(_ context.Context, filter *conduct.QueryFilter, _ ...core.DBOrdering) ([]conduct.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]conduct.Entry, 0, len(repo.db.table))
	for _, ent := range repo.db.table {
		if filter != nil {
			if filter.StudentID != "" && ent.StudentID != filter.StudentID {
				continue
			}
			if filter.ReporterID != "" && ent.ReporterID != filter.ReporterID {
				continue
			}
			if filter.Kind != "" && ent.Kind != filter.Kind {
				continue
			}
			if filter.Category != "" && !strings.EqualFold(ent.Category, filter.Category) {
				continue
			}
			if !filter.DateFrom.IsZero() && ent.Date.Before(filter.DateFrom.UTC()) {
				continue
			}
			if !filter.DateTo.IsZero() && ent.Date.After(filter.DateTo.UTC()) {
				continue
			}
		}
		entries = append(entries, *ent)
	}
	return entries, nil
}

func (repo *conductRepository) UpdateEntry(_ context.Context, ent conduct.Entry) (conduct.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[ent.ID]; !ok {
		return conduct.Entry{}, conduct.ErrNotFound
	}
	repo.db.table[ent.ID] = &ent
	return ent, nil
}

func (repo *conductRepository) DeleteEntriesByID(_ context.Context, ids ...string) (int, error) {
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
