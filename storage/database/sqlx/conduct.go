package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/conduct"
)

type conductRow struct {
	ID          string         `db:"id"`
	StudentID   string         `db:"student_id"`
	ReporterID  sql.NullString `db:"reporter_id"`
	Kind        string         `db:"kind"`
	Category    string         `db:"category"`
	Points      int            `db:"points"`
	Description sql.NullString `db:"description"`
	Date        sql.NullTime   `db:"date"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}

func (row conductRow) entry() conduct.Entry {
	return conduct.Entry{
		ID:          row.ID,
		StudentID:   row.StudentID,
		ReporterID:  row.ReporterID.String,
		Kind:        row.Kind,
		Category:    row.Category,
		Points:      row.Points,
		Description: row.Description.String,
		Date:        row.Date.Time,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

func newConductRow(ent conduct.Entry) conductRow {
	return conductRow{
		ID:          ent.ID,
		StudentID:   ent.StudentID,
		ReporterID:  nullString(ent.ReporterID),
		Kind:        ent.Kind,
		Category:    ent.Category,
		Points:      ent.Points,
		Description: nullString(ent.Description),
		Date:        sql.NullTime{Time: ent.Date, Valid: !ent.Date.IsZero()},
		CreatedAt:   sql.NullTime{Time: ent.CreatedAt, Valid: !ent.CreatedAt.IsZero()},
		UpdatedAt:   sql.NullTime{Time: ent.UpdatedAt, Valid: !ent.UpdatedAt.IsZero()},
	}
}

type conductRepository struct {
	db *sqlx.DB
}

var _ conduct.Repository = (*conductRepository)(nil)

func NewConductRepository(db *sqlx.DB) conduct.Repository {
	return &conductRepository{db: db}
}

const selectConduct = `
SELECT id, student_id, reporter_id, kind, category, points, description, date, created_at, updated_at
FROM conduct_entry`

func (repo *conductRepository) CreateEntry(ctx context.Context, ent conduct.Entry) (conduct.Entry, error) {
	ent.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
INSERT INTO conduct_entry (id, student_id, reporter_id, kind, category, points, description, date, created_at, updated_at)
VALUES (:id, :student_id, :reporter_id, :kind, :category, :points, :description, :date, :created_at, :updated_at)`,
		newConductRow(ent))
	if err != nil {
		return conduct.Entry{}, errors.Wrap(err, "inserting conduct entry")
	}
	return ent, nil
}

func (repo *conductRepository) GetEntry(ctx context.Context, id string) (conduct.Entry, error) {
	var row conductRow
	q := sqlx.Rebind(sqlx.DOLLAR, selectConduct+` WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return conduct.Entry{}, conduct.ErrNotFound
		}
		return conduct.Entry{}, errors.Wrap(err, "getting conduct entry")
	}
	return row.entry(), nil
}

func (repo *conductRepository) QueryEntries(ctx context.Context, filter *conduct.QueryFilter, ordering ...core.DBOrdering) ([]conduct.Entry, error) {
	qb := newQueryBuilder(selectConduct)
	if filter != nil {
		if filter.StudentID != "" {
			qb.where("student_id = ?", filter.StudentID)
		}
		if filter.ReporterID != "" {
			qb.where("reporter_id = ?", filter.ReporterID)
		}
		if filter.Kind != "" {
			qb.where("kind = ?", filter.Kind)
		}
		if filter.Category != "" {
			qb.where("lower(category) = lower(?)", filter.Category)
		}
		if !filter.DateFrom.IsZero() {
			qb.where("date >= ?", filter.DateFrom)
		}
		if !filter.DateTo.IsZero() {
			qb.where("date <= ?", filter.DateTo)
		}
	}
	qb.orderBy(ordering, "date DESC")

	var rows []conductRow
	if err := repo.db.SelectContext(ctx, &rows, qb.query(), qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying conduct entries")
	}
	entries := make([]conduct.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries, nil
}

func (repo *conductRepository) UpdateEntry(ctx context.Context, ent conduct.Entry) (conduct.Entry, error) {
	res, err := repo.db.NamedExecContext(ctx, `
UPDATE conduct_entry
SET kind = :kind, category = :category, points = :points, description = :description, date = :date, updated_at = :updated_at
WHERE id = :id`, newConductRow(ent))
	if err != nil {
		return conduct.Entry{}, errors.Wrap(err, "updating conduct entry")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return conduct.Entry{}, conduct.ErrNotFound
	}
	return ent, nil
}

func (repo *conductRepository) DeleteEntriesByID(ctx context.Context, ids ...string) (int, error) {
	return deleteByID(ctx, repo.db, "conduct_entry", ids)
}
