package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRow struct {
	ID        string         `db:"id"`
	StudentID string         `db:"student_id"`
	ClassID   string         `db:"class_id"`
	Date      sql.NullTime   `db:"date"`
	Status    string         `db:"status"`
	Remark    sql.NullString `db:"remark"`
	TakenBy   sql.NullString `db:"taken_by"`
	CreatedAt sql.NullTime   `db:"created_at"`
	UpdatedAt sql.NullTime   `db:"updated_at"`
}

func (row attendanceRow) record() attendance.Record {
	return attendance.Record{
		ID:        row.ID,
		StudentID: row.StudentID,
		ClassID:   row.ClassID,
		Date:      row.Date.Time,
		Status:    row.Status,
		Remark:    row.Remark.String,
		TakenBy:   row.TakenBy.String,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func newAttendanceRow(rec attendance.Record) attendanceRow {
	return attendanceRow{
		ID:        rec.ID,
		StudentID: rec.StudentID,
		ClassID:   rec.ClassID,
		Date:      sql.NullTime{Time: rec.Date, Valid: !rec.Date.IsZero()},
		Status:    rec.Status,
		Remark:    nullString(rec.Remark),
		TakenBy:   nullString(rec.TakenBy),
		CreatedAt: sql.NullTime{Time: rec.CreatedAt, Valid: !rec.CreatedAt.IsZero()},
		UpdatedAt: sql.NullTime{Time: rec.UpdatedAt, Valid: !rec.UpdatedAt.IsZero()},
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

const selectAttendance = `
SELECT id, student_id, class_id, date, status, remark, taken_by, created_at, updated_at
FROM attendance_record`

func (repo *attendanceRepository) CreateRecords(ctx context.Context, recs []attendance.Record) ([]attendance.Record, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback() // nolint:errcheck

	for i := range recs {
		recs[i].ID = uuid.New().String()
		if _, err = tx.NamedExecContext(ctx, `
INSERT INTO attendance_record (id, student_id, class_id, date, status, remark, taken_by, created_at, updated_at)
VALUES (:id, :student_id, :class_id, :date, :status, :remark, :taken_by, :created_at, :updated_at)`,
			newAttendanceRow(recs[i]),
		); err != nil {
			if isUniqueViolation(err) {
				return nil, attendance.ErrAlreadyRecorded
			}
			return nil, errors.Wrap(err, "inserting attendance record")
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing attendance records")
	}
	return recs, nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, id string) (attendance.Record, error) {
	var row attendanceRow
	q := sqlx.Rebind(sqlx.DOLLAR, selectAttendance+` WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance record")
	}
	return row.record(), nil
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter *attendance.QueryFilter, ordering ...core.DBOrdering) ([]attendance.Record, error) {
	qb := newQueryBuilder(selectAttendance)
	if filter != nil {
		if filter.StudentID != "" {
			qb.where("student_id = ?", filter.StudentID)
		}
		if filter.ClassID != "" {
			qb.where("class_id = ?", filter.ClassID)
		}
		if filter.Status != "" {
			qb.where("status = ?", filter.Status)
		}
		if !filter.DateFrom.IsZero() {
			qb.where("date >= ?", filter.DateFrom)
		}
		if !filter.DateTo.IsZero() {
			qb.where("date <= ?", filter.DateTo)
		}
	}
	qb.orderBy(ordering, "date DESC")

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, qb.query(), qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	res, err := repo.db.NamedExecContext(ctx, `
UPDATE attendance_record
SET status = :status, remark = :remark, updated_at = :updated_at
WHERE id = :id`, newAttendanceRow(rec))
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return rec, nil
}

func (repo *attendanceRepository) DeleteRecordsByID(ctx context.Context, ids ...string) (int, error) {
	return deleteByID(ctx, repo.db, "attendance_record", ids)
}
