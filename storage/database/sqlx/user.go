// Package sqlxrepos implements the domain repositories on top of PostgreSQL
// using sqlx struct scanning.
package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         sql.NullString `db:"name"`
	Username     sql.NullString `db:"username"`
	Email        sql.NullString `db:"email"`
	IsActive     sql.NullBool   `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    sql.NullTime   `db:"created_at"`
	UpdatedAt    sql.NullTime   `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (row userRow) user() user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name.String,
		Username:     row.Username.String,
		Email:        row.Email.String,
		Roles:        row.Roles,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
		LastLogin:    row.LastLogin.Time,
	}
	if row.IsActive.Valid {
		usr.SetActive(row.IsActive.Bool)
	}
	return usr
}

func newUserRow(usr user.User) userRow {
	row := userRow{
		ID:           usr.ID,
		Name:         nullString(usr.Name),
		Username:     nullString(usr.Username),
		Email:        nullString(usr.Email),
		Roles:        usr.Roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    sql.NullTime{Time: usr.CreatedAt, Valid: !usr.CreatedAt.IsZero()},
		UpdatedAt:    sql.NullTime{Time: usr.UpdatedAt, Valid: !usr.UpdatedAt.IsZero()},
		LastLogin:    sql.NullTime{Time: usr.LastLogin, Valid: !usr.LastLogin.IsZero()},
	}
	if usr.IsActive != nil {
		row.IsActive = sql.NullBool{Bool: *usr.IsActive, Valid: true}
	}
	return row
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

const selectUser = `
SELECT id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login
FROM "user"`

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	check := func(field, value string, dupErr error) error {
		if value == "" {
			return nil
		}
		qb := newQueryBuilder(`SELECT COUNT(*) FROM "user"`)
		qb.where("lower("+field+") = lower(?)", value)
		if len(exclIDs) > 0 {
			q, args, err := sqlx.In("id NOT IN (?)", exclIDs)
			if err != nil {
				return errors.Wrap(err, "building exclusion clause")
			}
			qb.where(q, args...)
		}
		var count int
		if err := repo.db.GetContext(ctx, &count, qb.query(), qb.args...); err != nil {
			return errors.Wrap(err, "counting users")
		}
		if count > 0 {
			return dupErr
		}
		return nil
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := newUserRow(usr)
	_, err := repo.db.NamedExecContext(ctx, `
INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login)
VALUES (:id, :name, :username, :email, :is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	qb := newQueryBuilder(selectUser)
	switch {
	case filter.ID != "":
		qb.where("id = ?", filter.ID)
	case filter.Username != "":
		qb.where("lower(username) = lower(?)", filter.Username)
	case filter.Email != "":
		qb.where("lower(email) = lower(?)", filter.Email)
	case len(filter.UsernameOrEmail) > 0:
		uname := filter.UsernameOrEmail[0]
		email := uname
		if len(filter.UsernameOrEmail) > 1 {
			email = filter.UsernameOrEmail[1]
		}
		qb.where("(lower(username) = lower(?) OR lower(email) = lower(?))", uname, email)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, qb.query(), qb.args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.user(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	qb := newQueryBuilder(selectUser)
	if filter != nil && !filter.IsEmpty() {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			qb.where("(name ILIKE ? OR username ILIKE ? OR email ILIKE ?)", pat, pat, pat)
		}
		for _, role := range filter.Roles {
			qb.where("EXISTS (SELECT 1 FROM unnest(roles) AS r WHERE r LIKE ?)", role+"%")
		}
		if filter.IsActive != nil {
			qb.where("is_active = ?", *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			qb.where("created_at >= ?", filter.CreatedFrom)
		}
		if !filter.CreatedTo.IsZero() {
			qb.where("created_at <= ?", filter.CreatedTo)
		}
	}
	qb.orderBy(ordering, "created_at ASC")

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, qb.query(), qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := newUserRow(usr)
	res, err := repo.db.NamedExecContext(ctx, `
UPDATE "user"
SET name = :name, username = :username, email = :email, is_active = :is_active, roles = :roles,
    password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
WHERE id = :id`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	updated, err := repo.UpdateUser(ctx, usr)
	if errors.Cause(err) == user.ErrNotFound {
		return repo.CreateUser(ctx, usr)
	}
	return updated, err
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) (int, error) {
	return deleteByID(ctx, repo.db, `"user"`, ids)
}
