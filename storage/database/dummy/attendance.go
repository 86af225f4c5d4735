package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) CreateRecords(_ context.Context, recs []attendance.Record) ([]attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// all or none: check the whole sheet before inserting
	for _, rec := range recs {
		for _, existing := range repo.db.table {
			if existing.StudentID == rec.StudentID &&
				existing.ClassID == rec.ClassID &&
				existing.Date.Equal(rec.Date) {
				return nil, attendance.ErrAlreadyRecorded
			}
		}
	}
	for i := range recs {
		recs[i].ID = uuid.New().String()
		rec := recs[i]
		repo.db.table[rec.ID] = &rec
	}
	return recs, nil
}

func (repo *attendanceRepository) GetRecord(_ context.Context, id string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter *attendance.QueryFilter, _ ...core.DBOrdering) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		if filter != nil {
			if filter.StudentID != "" && rec.StudentID != filter.StudentID {
				continue
			}
			if filter.ClassID != "" && rec.ClassID != filter.ClassID {
				continue
			}
			if filter.Status != "" && rec.Status != filter.Status {
				continue
			}
			if !filter.DateFrom.IsZero() && rec.Date.Before(filter.DateFrom.UTC()) {
				continue
			}
			if !filter.DateTo.IsZero() && rec.Date.After(filter.DateTo.UTC()) {
				continue
			}
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

func (repo *attendanceRepository) UpdateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[rec.ID]; !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) DeleteRecordsByID(_ context.Context, ids ...string) (int, error) {
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
