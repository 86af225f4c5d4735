package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trezcool/darasa/core"
)

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a postgres unique constraint error.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

// queryBuilder accumulates WHERE conditions and ordering for a base SELECT.
// Conditions use `?` bindvars; the final query is rebound to postgres `$n`.
type queryBuilder struct {
	base  string
	conds []string
	args  []interface{}
	order []string
}

func newQueryBuilder(base string) *queryBuilder {
	return &queryBuilder{base: base}
}

func (qb *queryBuilder) where(cond string, args ...interface{}) {
	qb.conds = append(qb.conds, cond)
	qb.args = append(qb.args, args...)
}

func (qb *queryBuilder) orderBy(ordering []core.DBOrdering, def string) {
	if len(ordering) == 0 {
		if def != "" {
			qb.order = append(qb.order, def)
		}
		return
	}
	for _, ord := range ordering {
		qb.order = append(qb.order, ord.String())
	}
}

func (qb *queryBuilder) query() string {
	q := qb.base
	if len(qb.conds) > 0 {
		q += " WHERE " + strings.Join(qb.conds, " AND ")
	}
	if len(qb.order) > 0 {
		q += " ORDER BY " + strings.Join(qb.order, ", ")
	}
	return sqlx.Rebind(sqlx.DOLLAR, q)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func deleteByID(ctx context.Context, db *sqlx.DB, table string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(`DELETE FROM `+table+` WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, db.Rebind(q), args...)
	if err != nil {
		return 0, err
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
