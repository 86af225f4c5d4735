package dummydb

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/event"
)

type eventRepository struct {
	db *eventTable
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) event.Repository {
	return &eventRepository{db: db.event}
}

func (repo *eventRepository) CreateEvent(_ context.Context, evt event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	evt.ID = uuid.New().String()
	repo.db.table[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) GetEvent(_ context.Context, id string) (event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if evt, ok := repo.db.table[id]; ok {
		return *evt, nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) QueryEvents(_ context.Context, filter *event.QueryFilter, _ ...core.DBOrdering) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	now := time.Now().UTC()
	events := make([]event.Event, 0, len(repo.db.table))
	for _, evt := range repo.db.table {
		if filter != nil {
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(evt.Title), search) &&
					!strings.Contains(strings.ToLower(evt.Description), search) &&
					!strings.Contains(strings.ToLower(evt.Venue), search) {
					continue
				}
			}
			if !filter.From.IsZero() && evt.StartsAt.Before(filter.From.UTC()) {
				continue
			}
			if !filter.To.IsZero() && evt.StartsAt.After(filter.To.UTC()) {
				continue
			}
			if filter.Upcoming && evt.StartsAt.Before(now) {
				continue
			}
		}
		events = append(events, *evt)
	}
	return events, nil
}

func (repo *eventRepository) UpdateEvent(_ context.Context, evt event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[evt.ID]; !ok {
		return event.Event{}, event.ErrNotFound
	}
	repo.db.table[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) DeleteEventsByID(_ context.Context, ids ...string) (int, error) {
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
