package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/event"
)

type eventRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Venue       sql.NullString `db:"venue"`
	StartsAt    time.Time      `db:"starts_at"`
	EndsAt      sql.NullTime   `db:"ends_at"`
	Audience    pq.StringArray `db:"audience"`
	CreatedBy   sql.NullString `db:"created_by"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}

func (row eventRow) event() event.Event {
	return event.Event{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description.String,
		Venue:       row.Venue.String,
		StartsAt:    row.StartsAt,
		EndsAt:      row.EndsAt.Time,
		Audience:    row.Audience,
		CreatedBy:   row.CreatedBy.String,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

func newEventRow(evt event.Event) eventRow {
	return eventRow{
		ID:          evt.ID,
		Title:       evt.Title,
		Description: nullString(evt.Description),
		Venue:       nullString(evt.Venue),
		StartsAt:    evt.StartsAt,
		EndsAt:      sql.NullTime{Time: evt.EndsAt, Valid: !evt.EndsAt.IsZero()},
		Audience:    evt.Audience,
		CreatedBy:   nullString(evt.CreatedBy),
		CreatedAt:   sql.NullTime{Time: evt.CreatedAt, Valid: !evt.CreatedAt.IsZero()},
		UpdatedAt:   sql.NullTime{Time: evt.UpdatedAt, Valid: !evt.UpdatedAt.IsZero()},
	}
}

type eventRepository struct {
	db *sqlx.DB
}

var _ event.Repository = (*eventRepository)(nil)

func NewEventRepository(db *sqlx.DB) event.Repository {
	return &eventRepository{db: db}
}

const selectEvent = `
SELECT id, title, description, venue, starts_at, ends_at, audience, created_by, created_at, updated_at
FROM event`

func (repo *eventRepository) CreateEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	evt.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
INSERT INTO event (id, title, description, venue, starts_at, ends_at, audience, created_by, created_at, updated_at)
VALUES (:id, :title, :description, :venue, :starts_at, :ends_at, :audience, :created_by, :created_at, :updated_at)`,
		newEventRow(evt))
	if err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo *eventRepository) GetEvent(ctx context.Context, id string) (event.Event, error) {
	var row eventRow
	q := sqlx.Rebind(sqlx.DOLLAR, selectEvent+` WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, errors.Wrap(err, "getting event")
	}
	return row.event(), nil
}

func (repo *eventRepository) QueryEvents(ctx context.Context, filter *event.QueryFilter, ordering ...core.DBOrdering) ([]event.Event, error) {
	qb := newQueryBuilder(selectEvent)
	if filter != nil {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			qb.where("(title ILIKE ? OR description ILIKE ? OR venue ILIKE ?)", pat, pat, pat)
		}
		if !filter.From.IsZero() {
			qb.where("starts_at >= ?", filter.From)
		}
		if !filter.To.IsZero() {
			qb.where("starts_at <= ?", filter.To)
		}
		if filter.Upcoming {
			qb.where("starts_at >= ?", time.Now().UTC())
		}
	}
	qb.orderBy(ordering, "starts_at ASC")

	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, qb.query(), qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	events := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.event())
	}
	return events, nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	res, err := repo.db.NamedExecContext(ctx, `
UPDATE event
SET title = :title, description = :description, venue = :venue, starts_at = :starts_at,
    ends_at = :ends_at, audience = :audience, updated_at = :updated_at
WHERE id = :id`, newEventRow(evt))
	if err != nil {
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return event.Event{}, event.ErrNotFound
	}
	return evt, nil
}

func (repo *eventRepository) DeleteEventsByID(ctx context.Context, ids ...string) (int, error) {
	return deleteByID(ctx, repo.db, "event", ids)
}
