package dummydb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/material"
)

type materialRepository struct {
	db *materialTable
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *DB) material.Repository {
	return &materialRepository{db: db.material}
}

func (repo *materialRepository) CreateMaterial(_ context.Context, mat material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	mat.ID = uuid.New().String()
	repo.db.table[mat.ID] = &mat
	return mat, nil
}

func (repo *materialRepository) GetMaterial(_ context.Context, id string) (material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mat, ok := repo.db.table[id]; ok {
		return *mat, nil
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) QueryMaterials(_ context.Context, filter *material.QueryFilter, _ ...core.DBOrdering) ([]material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	mats := make([]material.Material, 0, len(repo.db.table))
	for _, mat := range repo.db.table {
		if filter != nil {
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(mat.Title), search) &&
					!strings.Contains(strings.ToLower(mat.Description), search) {
					continue
				}
			}
			if filter.ClassID != "" && mat.ClassID != filter.ClassID {
				continue
			}
			if filter.SubjectID != "" && mat.SubjectID != filter.SubjectID {
				continue
			}
			if filter.UploadedBy != "" && mat.UploadedBy != filter.UploadedBy {
				continue
			}
		}
		mats = append(mats, *mat)
	}
	return mats, nil
}

func (repo *materialRepository) UpdateMaterial(_ context.Context, mat material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[mat.ID]; !ok {
		return material.Material{}, material.ErrNotFound
	}
	repo.db.table[mat.ID] = &mat
	return mat, nil
}

func (repo *materialRepository) DeleteMaterialsByID(_ context.Context, ids ...string) (int, error) {
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
