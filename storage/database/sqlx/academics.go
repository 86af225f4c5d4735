package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/academics"
)

type classRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	GradeLevel int            `db:"grade_level"`
	TeacherID  sql.NullString `db:"teacher_id"`
	CreatedAt  sql.NullTime   `db:"created_at"`
	UpdatedAt  sql.NullTime   `db:"updated_at"`
}

func (row classRow) class() academics.Class {
	return academics.Class{
		ID:         row.ID,
		Name:       row.Name,
		GradeLevel: row.GradeLevel,
		TeacherID:  row.TeacherID.String,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

func newClassRow(cls academics.Class) classRow {
	return classRow{
		ID:         cls.ID,
		Name:       cls.Name,
		GradeLevel: cls.GradeLevel,
		TeacherID:  nullString(cls.TeacherID),
		CreatedAt:  sql.NullTime{Time: cls.CreatedAt, Valid: !cls.CreatedAt.IsZero()},
		UpdatedAt:  sql.NullTime{Time: cls.UpdatedAt, Valid: !cls.UpdatedAt.IsZero()},
	}
}

type subjectRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Code      string         `db:"code"`
	ClassID   string         `db:"class_id"`
	TeacherID sql.NullString `db:"teacher_id"`
	CreatedAt sql.NullTime   `db:"created_at"`
	UpdatedAt sql.NullTime   `db:"updated_at"`
}

func (row subjectRow) subject() academics.Subject {
	return academics.Subject{
		ID:        row.ID,
		Name:      row.Name,
		Code:      row.Code,
		ClassID:   row.ClassID,
		TeacherID: row.TeacherID.String,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func newSubjectRow(sub academics.Subject) subjectRow {
	return subjectRow{
		ID:        sub.ID,
		Name:      sub.Name,
		Code:      sub.Code,
		ClassID:   sub.ClassID,
		TeacherID: nullString(sub.TeacherID),
		CreatedAt: sql.NullTime{Time: sub.CreatedAt, Valid: !sub.CreatedAt.IsZero()},
		UpdatedAt: sql.NullTime{Time: sub.UpdatedAt, Valid: !sub.UpdatedAt.IsZero()},
	}
}

type academicsRepository struct {
	db *sqlx.DB
}

var _ academics.Repository = (*academicsRepository)(nil)

func NewAcademicsRepository(db *sqlx.DB) academics.Repository {
	return &academicsRepository{db: db}
}

const (
	selectClass   = `SELECT id, name, grade_level, teacher_id, created_at, updated_at FROM class`
	selectSubject = `SELECT id, name, code, class_id, teacher_id, created_at, updated_at FROM subject`
)

func (repo *academicsRepository) CheckClassUniqueness(ctx context.Context, name string) error {
	var count int
	q := sqlx.Rebind(sqlx.DOLLAR, `SELECT COUNT(*) FROM class WHERE lower(name) = lower(?)`)
	if err := repo.db.GetContext(ctx, &count, q, name); err != nil {
		return errors.Wrap(err, "counting classes")
	}
	if count > 0 {
		return academics.ErrClassExists
	}
	return nil
}

func (repo *academicsRepository) CreateClass(ctx context.Context, cls academics.Class) (academics.Class, error) {
	cls.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
INSERT INTO class (id, name, grade_level, teacher_id, created_at, updated_at)
VALUES (:id, :name, :grade_level, :teacher_id, :created_at, :updated_at)`, newClassRow(cls))
	if err != nil {
		if isUniqueViolation(err) {
			return academics.Class{}, academics.ErrClassExists
		}
		return academics.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo *academicsRepository) GetClass(ctx context.Context, id string) (academics.Class, error) {
	var row classRow
	q := sqlx.Rebind(sqlx.DOLLAR, selectClass+` WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return academics.Class{}, academics.ErrClassNotFound
		}
		return academics.Class{}, errors.Wrap(err, "getting class")
	}
	return row.class(), nil
}

func (repo *academicsRepository) QueryClasses(ctx context.Context, filter *academics.ClassFilter, ordering ...core.DBOrdering) ([]academics.Class, error) {
	qb := newQueryBuilder(selectClass)
	if filter != nil {
		if filter.Search != "" {
			qb.where("name ILIKE ?", "%"+filter.Search+"%")
		}
		if filter.GradeLevel > 0 {
			qb.where("grade_level = ?", filter.GradeLevel)
		}
		if filter.TeacherID != "" {
			qb.where("teacher_id = ?", filter.TeacherID)
		}
	}
	qb.orderBy(ordering, "grade_level ASC, name ASC")

	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, qb.query(), qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]academics.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.class())
	}
	return classes, nil
}

func (repo *academicsRepository) UpdateClass(ctx context.Context, cls academics.Class) (academics.Class, error) {
	res, err := repo.db.NamedExecContext(ctx, `
UPDATE class
SET name = :name, grade_level = :grade_level, teacher_id = :teacher_id, updated_at = :updated_at
WHERE id = :id`, newClassRow(cls))
	if err != nil {
		if isUniqueViolation(err) {
			return academics.Class{}, academics.ErrClassExists
		}
		return academics.Class{}, errors.Wrap(err, "updating class")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return academics.Class{}, academics.ErrClassNotFound
	}
	return cls, nil
}

func (repo *academicsRepository) DeleteClassesByID(ctx context.Context, ids ...string) (int, error) {
	return deleteByID(ctx, repo.db, "class", ids)
}

func (repo *academicsRepository) CreateSubject(ctx context.Context, sub academics.Subject) (academics.Subject, error) {
	sub.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
INSERT INTO subject (id, name, code, class_id, teacher_id, created_at, updated_at)
VALUES (:id, :name, :code, :class_id, :teacher_id, :created_at, :updated_at)`, newSubjectRow(sub))
	if err != nil {
		return academics.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo *academicsRepository) GetSubject(ctx context.Context, id string) (academics.Subject, error) {
	var row subjectRow
	q := sqlx.Rebind(sqlx.DOLLAR, selectSubject+` WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return academics.Subject{}, academics.ErrSubjectNotFound
		}
		return academics.Subject{}, errors.Wrap(err, "getting subject")
	}
	return row.subject(), nil
}

func (repo *academicsRepository) QuerySubjects(ctx context.Context, filter *academics.SubjectFilter, ordering ...core.DBOrdering) ([]academics.Subject, error) {
	qb := newQueryBuilder(selectSubject)
	if filter != nil {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			qb.where("(name ILIKE ? OR code ILIKE ?)", pat, pat)
		}
		if filter.ClassID != "" {
			qb.where("class_id = ?", filter.ClassID)
		}
		if filter.TeacherID != "" {
			qb.where("teacher_id = ?", filter.TeacherID)
		}
	}
	qb.orderBy(ordering, "name ASC")

	var rows []subjectRow
	if err := repo.db.SelectContext(ctx, &rows, qb.query(), qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]academics.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, row.subject())
	}
	return subjects, nil
}

func (repo *academicsRepository) UpdateSubject(ctx context.Context, sub academics.Subject) (academics.Subject, error) {
	res, err := repo.db.NamedExecContext(ctx, `
UPDATE subject
SET name = :name, code = :code, teacher_id = :teacher_id, updated_at = :updated_at
WHERE id = :id`, newSubjectRow(sub))
	if err != nil {
		return academics.Subject{}, errors.Wrap(err, "updating subject")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return academics.Subject{}, academics.ErrSubjectNotFound
	}
	return sub, nil
}

func (repo *academicsRepository) DeleteSubjectsByID(ctx context.Context, ids ...string) (int, error) {
	return deleteByID(ctx, repo.db, "subject", ids)
}
