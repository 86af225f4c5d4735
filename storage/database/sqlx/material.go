package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/material"
)

type materialRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	ClassID     string         `db:"class_id"`
	SubjectID   sql.NullString `db:"subject_id"`
	FileURL     string         `db:"file_url"`
	UploadedBy  sql.NullString `db:"uploaded_by"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}

func (row materialRow) material() material.Material {
	return material.Material{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description.String,
		ClassID:     row.ClassID,
		SubjectID:   row.SubjectID.String,
		FileURL:     row.FileURL,
		UploadedBy:  row.UploadedBy.String,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

func newMaterialRow(mat material.Material) materialRow {
	return materialRow{
		ID:          mat.ID,
		Title:       mat.Title,
		Description: nullString(mat.Description),
		ClassID:     mat.ClassID,
		SubjectID:   nullString(mat.SubjectID),
		FileURL:     mat.FileURL,
		UploadedBy:  nullString(mat.UploadedBy),
		CreatedAt:   sql.NullTime{Time: mat.CreatedAt, Valid: !mat.CreatedAt.IsZero()},
		UpdatedAt:   sql.NullTime{Time: mat.UpdatedAt, Valid: !mat.UpdatedAt.IsZero()},
	}
}

type materialRepository struct {
	db *sqlx.DB
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *sqlx.DB) material.Repository {
	return &materialRepository{db: db}
}

const selectMaterial = `
SELECT id, title, description, class_id, subject_id, file_url, uploaded_by, created_at, updated_at
FROM study_material`

func (repo *materialRepository) CreateMaterial(ctx context.Context, mat material.Material) (material.Material, error) {
	mat.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
INSERT INTO study_material (id, title, description, class_id, subject_id, file_url, uploaded_by, created_at, updated_at)
VALUES (:id, :title, :description, :class_id, :subject_id, :file_url, :uploaded_by, :created_at, :updated_at)`,
		newMaterialRow(mat))
	if err != nil {
		return material.Material{}, errors.Wrap(err, "inserting study material")
	}
	return mat, nil
}

func (repo *materialRepository) GetMaterial(ctx context.Context, id string) (material.Material, error) {
	var row materialRow
	q := sqlx.Rebind(sqlx.DOLLAR, selectMaterial+` WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return material.Material{}, material.ErrNotFound
		}
		return material.Material{}, errors.Wrap(err, "getting study material")
	}
	return row.material(), nil
}

func (repo *materialRepository) QueryMaterials(ctx context.Context, filter *material.QueryFilter, ordering ...core.DBOrdering) ([]material.Material, error) {
	qb := newQueryBuilder(selectMaterial)
	if filter != nil {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			qb.where("(title ILIKE ? OR description ILIKE ?)", pat, pat)
		}
		if filter.ClassID != "" {
			qb.where("class_id = ?", filter.ClassID)
		}
		if filter.SubjectID != "" {
			qb.where("subject_id = ?", filter.SubjectID)
		}
		if filter.UploadedBy != "" {
			qb.where("uploaded_by = ?", filter.UploadedBy)
		}
	}
	qb.orderBy(ordering, "created_at DESC")

	var rows []materialRow
	if err := repo.db.SelectContext(ctx, &rows, qb.query(), qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying study materials")
	}
	mats := make([]material.Material, 0, len(rows))
	for _, row := range rows {
		mats = append(mats, row.material())
	}
	return mats, nil
}

func (repo *materialRepository) UpdateMaterial(ctx context.Context, mat material.Material) (material.Material, error) {
	res, err := repo.db.NamedExecContext(ctx, `
UPDATE study_material
SET title = :title, description = :description, subject_id = :subject_id, file_url = :file_url, updated_at = :updated_at
WHERE id = :id`, newMaterialRow(mat))
	if err != nil {
		return material.Material{}, errors.Wrap(err, "updating study material")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return material.Material{}, material.ErrNotFound
	}
	return mat, nil
}

func (repo *materialRepository) DeleteMaterialsByID(ctx context.Context, ids ...string) (int, error) {
	return deleteByID(ctx, repo.db, "study_material", ids)
}
