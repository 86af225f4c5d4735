package conduct

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var ErrNotFound = errors.New("conduct entry not found")

type (
	Repository interface {
		CreateEntry(ctx context.Context, ent Entry) (Entry, error)
		GetEntry(ctx context.Context, id string) (Entry, error)
		QueryEntries(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Entry, error)
		UpdateEntry(ctx context.Context, ent Entry) (Entry, error)
		DeleteEntriesByID(ctx context.Context, ids ...string) (int, error)
	}

	Service interface {
		Create(ctx context.Context, ne NewEntry, reporterID string) (Entry, error)
		Get(ctx context.Context, id string) (Entry, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Entry, error)
		Update(ctx context.Context, id string, ue UpdateEntry) (Entry, error)
		Delete(ctx context.Context, ids ...string) error
		Summarize(ctx context.Context, studentID string) (Summary, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ne NewEntry, reporterID string) (Entry, error) {
	now := time.Now().UTC()
	date := ne.Date.UTC()
	if ne.Date.IsZero() {
		date = now
	}
	ent := Entry{
		StudentID:   ne.StudentID,
		ReporterID:  reporterID,
		Kind:        ne.Kind,
		Category:    ne.Category,
		Points:      ne.Points,
		Description: ne.Description,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateEntry(ctx, ent)
}

func (svc *service) Get(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntry(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Entry, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryEntries(ctx, filter, ordering...)
}

func (svc *service) Update(ctx context.Context, id string, ue UpdateEntry) (Entry, error) {
	ent, err := svc.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if ue.Category != "" {
		ent.Category = ue.Category
	}
	if ue.Points != 0 {
		ent.Points = ue.Points
	}
	if ue.Description != "" {
		ent.Description = ue.Description
	}
	ent.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEntry(ctx, ent)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteEntriesByID(ctx, ids...)
	return err
}

func (svc *service) Summarize(ctx context.Context, studentID string) (Summary, error) {
	ents, err := svc.repo.QueryEntries(ctx, &QueryFilter{StudentID: studentID})
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{StudentID: studentID}
	for _, ent := range ents {
		switch ent.Kind {
		case KindMerit:
			sum.Merits += ent.Points
		case KindDemerit:
			sum.Demerits += ent.Points
		}
	}
	sum.Balance = sum.Merits - sum.Demerits
	return sum, nil
}
