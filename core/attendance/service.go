package attendance

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound         = errors.New("attendance record not found")
	ErrAlreadyRecorded  = errors.New("attendance already recorded for this student on this date")
	ErrDuplicateStudent = errors.New("a student appears more than once")
)

type (
	Repository interface {
		// CreateRecords inserts all records or none; ErrAlreadyRecorded if any
		// (student, class, date) triple is already marked.
		CreateRecords(ctx context.Context, recs []Record) ([]Record, error)
		GetRecord(ctx context.Context, id string) (Record, error)
		QueryRecords(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Record, error)
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
		DeleteRecordsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service interface {
		RecordSheet(ctx context.Context, sheet NewSheet, takenBy string) ([]Record, error)
		Get(ctx context.Context, id string) (Record, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Record, error)
		Update(ctx context.Context, id string, ur UpdateRecord) (Record, error)
		Delete(ctx context.Context, ids ...string) error
		Summarize(ctx context.Context, studentID string, from, to time.Time) (Summary, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) RecordSheet(ctx context.Context, sheet NewSheet, takenBy string) ([]Record, error) {
	now := time.Now().UTC()
	date := sheet.Date.UTC().Truncate(24 * time.Hour)

	recs := make([]Record, 0, len(sheet.Records))
	for _, nr := range sheet.Records {
		recs = append(recs, Record{
			StudentID: nr.StudentID,
			ClassID:   sheet.ClassID,
			Date:      date,
			Status:    nr.Status,
			Remark:    nr.Remark,
			TakenBy:   takenBy,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	recs, err := svc.repo.CreateRecords(ctx, recs)
	if err != nil {
		if errors.Cause(err) == ErrAlreadyRecorded {
			return nil, core.NewValidationError(err, core.FieldError{Field: "records", Error: err.Error()})
		}
		return nil, err
	}
	return recs, nil
}

func (svc *service) Get(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecord(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter, ordering...)
}

func (svc *service) Update(ctx context.Context, id string, ur UpdateRecord) (Record, error) {
	rec, err := svc.repo.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if ur.Status != "" {
		rec.Status = ur.Status
	}
	if ur.Remark != "" {
		rec.Remark = ur.Remark
	}
	rec.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRecord(ctx, rec)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteRecordsByID(ctx, ids...)
	return err
}

func (svc *service) Summarize(ctx context.Context, studentID string, from, to time.Time) (Summary, error) {
	recs, err := svc.repo.QueryRecords(ctx, &QueryFilter{StudentID: studentID, DateFrom: from, DateTo: to})
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{StudentID: studentID}
	for _, rec := range recs {
		switch rec.Status {
		case StatusPresent:
			sum.Present++
		case StatusAbsent:
			sum.Absent++
		case StatusLate:
			sum.Late++
		case StatusExcused:
			sum.Excused++
		}
	}
	sum.Total = len(recs)
	if sum.Total > 0 {
		pct := float64(sum.Present+sum.Late) / float64(sum.Total) * 100
		sum.Percentage = math.Round(pct*100) / 100
	}
	return sum, nil
}
