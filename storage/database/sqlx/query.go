package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/query"
)

type queryRow struct {
	ID         string         `db:"id"`
	StudentID  string         `db:"student_id"`
	SubjectID  sql.NullString `db:"subject_id"`
	Title      string         `db:"title"`
	Body       string         `db:"body"`
	Status     string         `db:"status"`
	Answer     sql.NullString `db:"answer"`
	AnsweredBy sql.NullString `db:"answered_by"`
	AnsweredAt sql.NullTime   `db:"answered_at"`
	CreatedAt  sql.NullTime   `db:"created_at"`
	UpdatedAt  sql.NullTime   `db:"updated_at"`
}

func (row queryRow) query() query.Query {
	return query.Query{
		ID:         row.ID,
		StudentID:  row.StudentID,
		SubjectID:  row.SubjectID.String,
		Title:      row.Title,
		Body:       row.Body,
		Status:     row.Status,
		Answer:     row.Answer.String,
		AnsweredBy: row.AnsweredBy.String,
		AnsweredAt: row.AnsweredAt.Time,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

func newQueryRow(qry query.Query) queryRow {
	return queryRow{
		ID:         qry.ID,
		StudentID:  qry.StudentID,
		SubjectID:  nullString(qry.SubjectID),
		Title:      qry.Title,
		Body:       qry.Body,
		Status:     qry.Status,
		Answer:     nullString(qry.Answer),
		AnsweredBy: nullString(qry.AnsweredBy),
		AnsweredAt: sql.NullTime{Time: qry.AnsweredAt, Valid: !qry.AnsweredAt.IsZero()},
		CreatedAt:  sql.NullTime{Time: qry.CreatedAt, Valid: !qry.CreatedAt.IsZero()},
		UpdatedAt:  sql.NullTime{Time: qry.UpdatedAt, Valid: !qry.UpdatedAt.IsZero()},
	}
}

type queryRepository struct {
	db *sqlx.DB
}

var _ query.Repository = (*queryRepository)(nil)

func NewQueryRepository(db *sqlx.DB) query.Repository {
	return &queryRepository{db: db}
}

const selectQuery = `
SELECT id, student_id, subject_id, title, body, status, answer, answered_by, answered_at, created_at, updated_at
FROM student_query`

func (repo *queryRepository) CreateQuery(ctx context.Context, qry query.Query) (query.Query, error) {
	qry.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
INSERT INTO student_query (id, student_id, subject_id, title, body, status, answer, answered_by, answered_at, created_at, updated_at)
VALUES (:id, :student_id, :subject_id, :title, :body, :status, :answer, :answered_by, :answered_at, :created_at, :updated_at)`,
		newQueryRow(qry))
	if err != nil {
		return query.Query{}, errors.Wrap(err, "inserting student query")
	}
	return qry, nil
}

func (repo *queryRepository) GetQuery(ctx context.Context, id string) (query.Query, error) {
	var row queryRow
	q := sqlx.Rebind(sqlx.DOLLAR, selectQuery+` WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return query.Query{}, query.ErrNotFound
		}
		return query.Query{}, errors.Wrap(err, "getting student query")
	}
	return row.query(), nil
}

func (repo *queryRepository) QueryQueries(ctx context.Context, filter *query.QueryFilter, ordering ...core.DBOrdering) ([]query.Query, error) {
	qb := newQueryBuilder(selectQuery)
	if filter != nil {
		if filter.StudentID != "" {
			qb.where("student_id = ?", filter.StudentID)
		}
		if filter.SubjectID != "" {
			qb.where("subject_id = ?", filter.SubjectID)
		}
		if filter.Status != "" {
			qb.where("status = ?", filter.Status)
		}
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			qb.where("(title ILIKE ? OR body ILIKE ?)", pat, pat)
		}
	}
	qb.orderBy(ordering, "created_at DESC")

	var rows []queryRow
	if err := repo.db.SelectContext(ctx, &rows, qb.query(), qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying student queries")
	}
	queries := make([]query.Query, 0, len(rows))
	for _, row := range rows {
		queries = append(queries, row.query())
	}
	return queries, nil
}

func (repo *queryRepository) UpdateQuery(ctx context.Context, qry query.Query) (query.Query, error) {
	res, err := repo.db.NamedExecContext(ctx, `
UPDATE student_query
SET title = :title, body = :body, status = :status, answer = :answer,
    answered_by = :answered_by, answered_at = :answered_at, updated_at = :updated_at
WHERE id = :id`, newQueryRow(qry))
	if err != nil {
		return query.Query{}, errors.Wrap(err, "updating student query")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return query.Query{}, query.ErrNotFound
	}
	return qry, nil
}

func (repo *queryRepository) DeleteQueriesByID(ctx context.Context, ids ...string) (int, error) {
	return deleteByID(ctx, repo.db, "student_query", ids)
}
