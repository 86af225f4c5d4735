package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/exam"
)

type examRow struct {
	ID        string       `db:"id"`
	Name      string       `db:"name"`
	SubjectID string       `db:"subject_id"`
	ClassID   string       `db:"class_id"`
	Date      sql.NullTime `db:"date"`
	MaxMarks  int          `db:"max_marks"`
	Published bool         `db:"published"`
	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}

func (row examRow) exam() exam.Exam {
	return exam.Exam{
		ID:        row.ID,
		Name:      row.Name,
		SubjectID: row.SubjectID,
		ClassID:   row.ClassID,
		Date:      row.Date.Time,
		MaxMarks:  row.MaxMarks,
		Published: row.Published,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func newExamRow(ex exam.Exam) examRow {
	return examRow{
		ID:        ex.ID,
		Name:      ex.Name,
		SubjectID: ex.SubjectID,
		ClassID:   ex.ClassID,
		Date:      sql.NullTime{Time: ex.Date, Valid: !ex.Date.IsZero()},
		MaxMarks:  ex.MaxMarks,
		Published: ex.Published,
		CreatedAt: sql.NullTime{Time: ex.CreatedAt, Valid: !ex.CreatedAt.IsZero()},
		UpdatedAt: sql.NullTime{Time: ex.UpdatedAt, Valid: !ex.UpdatedAt.IsZero()},
	}
}

type resultRow struct {
	ID        string         `db:"id"`
	ExamID    string         `db:"exam_id"`
	StudentID string         `db:"student_id"`
	Marks     float64        `db:"marks"`
	Grade     string         `db:"grade"`
	EnteredBy sql.NullString `db:"entered_by"`
	CreatedAt sql.NullTime   `db:"created_at"`
	UpdatedAt sql.NullTime   `db:"updated_at"`
}

func (row resultRow) result() exam.Result {
	return exam.Result{
		ID:        row.ID,
		ExamID:    row.ExamID,
		StudentID: row.StudentID,
		Marks:     row.Marks,
		Grade:     row.Grade,
		EnteredBy: row.EnteredBy.String,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func newResultRow(res exam.Result) resultRow {
	return resultRow{
		ID:        res.ID,
		ExamID:    res.ExamID,
		StudentID: res.StudentID,
		Marks:     res.Marks,
		Grade:     res.Grade,
		EnteredBy: nullString(res.EnteredBy),
		CreatedAt: sql.NullTime{Time: res.CreatedAt, Valid: !res.CreatedAt.IsZero()},
		UpdatedAt: sql.NullTime{Time: res.UpdatedAt, Valid: !res.UpdatedAt.IsZero()},
	}
}

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *sqlx.DB) exam.Repository {
	return &examRepository{db: db}
}

const (
	selectExam = `
SELECT id, name, subject_id, class_id, date, max_marks, published, created_at, updated_at
FROM exam`
	selectResult = `
SELECT id, exam_id, student_id, marks, grade, entered_by, created_at, updated_at
FROM exam_result`
)

func (repo *examRepository) CreateExam(ctx context.Context, ex exam.Exam) (exam.Exam, error) {
	ex.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
INSERT INTO exam (id, name, subject_id, class_id, date, max_marks, published, created_at, updated_at)
VALUES (:id, :name, :subject_id, :class_id, :date, :max_marks, :published, :created_at, :updated_at)`,
		newExamRow(ex))
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "inserting exam")
	}
	return ex, nil
}

func (repo *examRepository) GetExam(ctx context.Context, id string) (exam.Exam, error) {
	var row examRow
	q := sqlx.Rebind(sqlx.DOLLAR, selectExam+` WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return exam.Exam{}, exam.ErrNotFound
		}
		return exam.Exam{}, errors.Wrap(err, "getting exam")
	}
	return row.exam(), nil
}

func (repo *examRepository) QueryExams(ctx context.Context, filter *exam.QueryFilter, ordering ...core.DBOrdering) ([]exam.Exam, error) {
	qb := newQueryBuilder(selectExam)
	if filter != nil {
		if filter.ClassID != "" {
			qb.where("class_id = ?", filter.ClassID)
		}
		if filter.SubjectID != "" {
			qb.where("subject_id = ?", filter.SubjectID)
		}
		if filter.Published != nil {
			qb.where("published = ?", *filter.Published)
		}
		if !filter.DateFrom.IsZero() {
			qb.where("date >= ?", filter.DateFrom)
		}
		if !filter.DateTo.IsZero() {
			qb.where("date <= ?", filter.DateTo)
		}
	}
	qb.orderBy(ordering, "date DESC")

	var rows []examRow
	if err := repo.db.SelectContext(ctx, &rows, qb.query(), qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}
	exams := make([]exam.Exam, 0, len(rows))
	for _, row := range rows {
		exams = append(exams, row.exam())
	}
	return exams, nil
}

func (repo *examRepository) UpdateExam(ctx context.Context, ex exam.Exam) (exam.Exam, error) {
	res, err := repo.db.NamedExecContext(ctx, `
UPDATE exam
SET name = :name, date = :date, max_marks = :max_marks, published = :published, updated_at = :updated_at
WHERE id = :id`, newExamRow(ex))
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "updating exam")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return exam.Exam{}, exam.ErrNotFound
	}
	return ex, nil
}

func (repo *examRepository) DeleteExamsByID(ctx context.Context, ids ...string) (int, error) {
	return deleteByID(ctx, repo.db, "exam", ids)
}

func (repo *examRepository) CreateResults(ctx context.Context, results []exam.Result) ([]exam.Result, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback() // nolint:errcheck

	for i := range results {
		results[i].ID = uuid.New().String()
		if _, err = tx.NamedExecContext(ctx, `
INSERT INTO exam_result (id, exam_id, student_id, marks, grade, entered_by, created_at, updated_at)
VALUES (:id, :exam_id, :student_id, :marks, :grade, :entered_by, :created_at, :updated_at)`,
			newResultRow(results[i]),
		); err != nil {
			if isUniqueViolation(err) {
				return nil, exam.ErrResultExists
			}
			return nil, errors.Wrap(err, "inserting exam result")
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing exam results")
	}
	return results, nil
}

func (repo *examRepository) QueryResults(ctx context.Context, filter *exam.ResultFilter, ordering ...core.DBOrdering) ([]exam.Result, error) {
	qb := newQueryBuilder(selectResult)
	if filter != nil {
		if filter.ExamID != "" {
			qb.where("exam_id = ?", filter.ExamID)
		}
		if filter.StudentID != "" {
			qb.where("student_id = ?", filter.StudentID)
		}
	}
	qb.orderBy(ordering, "created_at ASC")

	var rows []resultRow
	if err := repo.db.SelectContext(ctx, &rows, qb.query(), qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying exam results")
	}
	results := make([]exam.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.result())
	}
	return results, nil
}

func (repo *examRepository) UpdateResult(ctx context.Context, res exam.Result) (exam.Result, error) {
	r, err := repo.db.NamedExecContext(ctx, `
UPDATE exam_result
SET marks = :marks, grade = :grade, updated_at = :updated_at
WHERE id = :id`, newResultRow(res))
	if err != nil {
		return exam.Result{}, errors.Wrap(err, "updating exam result")
	}
	if cnt, _ := r.RowsAffected(); cnt == 0 {
		return exam.Result{}, exam.ErrResultNotFound
	}
	return res, nil
}
