package event

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound        = errors.New("event not found")
	ErrEndsBeforeStart = errors.New("event cannot end before it starts")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event) (Event, error)
		GetEvent(ctx context.Context, id string) (Event, error)
		QueryEvents(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Event, error)
		UpdateEvent(ctx context.Context, evt Event) (Event, error)
		DeleteEventsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service interface {
		Create(ctx context.Context, ne NewEvent, createdBy string) (Event, error)
		Get(ctx context.Context, id string) (Event, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Event, error)
		// QueryVisible filters events down to those whose audience includes any of roles.
		QueryVisible(ctx context.Context, filter *QueryFilter, roles []string) ([]Event, error)
		Update(ctx context.Context, id string, ue UpdateEvent) (Event, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ne NewEvent, createdBy string) (Event, error) {
	now := time.Now().UTC()
	evt := Event{
		Title:       ne.Title,
		Description: ne.Description,
		Venue:       ne.Venue,
		StartsAt:    ne.StartsAt.UTC(),
		Audience:    ne.Audience,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !ne.EndsAt.IsZero() {
		evt.EndsAt = ne.EndsAt.UTC()
	}
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *service) Get(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEvent(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Event, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryEvents(ctx, filter, ordering...)
}

func (svc *service) QueryVisible(ctx context.Context, filter *QueryFilter, roles []string) ([]Event, error) {
	events, err := svc.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	visible := make([]Event, 0, len(events))
	for _, evt := range events {
		if evt.VisibleTo(roles) {
			visible = append(visible, evt)
		}
	}
	return visible, nil
}

func (svc *service) Update(ctx context.Context, id string, ue UpdateEvent) (Event, error) {
	evt, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if ue.Title != "" {
		evt.Title = ue.Title
	}
	if ue.Description != "" {
		evt.Description = ue.Description
	}
	if ue.Venue != "" {
		evt.Venue = ue.Venue
	}
	if !ue.StartsAt.IsZero() {
		evt.StartsAt = ue.StartsAt.UTC()
	}
	if !ue.EndsAt.IsZero() {
		evt.EndsAt = ue.EndsAt.UTC()
	}
	if ue.Audience != nil {
		evt.Audience = ue.Audience
	}
	evt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEvent(ctx, evt)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteEventsByID(ctx, ids...)
	return err
}
