package material

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var ErrNotFound = errors.New("study material not found")

type (
	Repository interface {
		CreateMaterial(ctx context.Context, mat Material) (Material, error)
		GetMaterial(ctx context.Context, id string) (Material, error)
		QueryMaterials(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Material, error)
		UpdateMaterial(ctx context.Context, mat Material) (Material, error)
		DeleteMaterialsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service interface {
		Create(ctx context.Context, nm NewMaterial, uploadedBy string) (Material, error)
		Get(ctx context.Context, id string) (Material, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Material, error)
		Update(ctx context.Context, id string, um UpdateMaterial) (Material, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nm NewMaterial, uploadedBy string) (Material, error) {
	now := time.Now().UTC()
	mat := Material{
		Title:       nm.Title,
		Description: nm.Description,
		ClassID:     nm.ClassID,
		SubjectID:   nm.SubjectID,
		FileURL:     nm.FileURL,
		UploadedBy:  uploadedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateMaterial(ctx, mat)
}

func (svc *service) Get(ctx context.Context, id string) (Material, error) {
	return svc.repo.GetMaterial(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Material, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryMaterials(ctx, filter, ordering...)
}

func (svc *service) Update(ctx context.Context, id string, um UpdateMaterial) (Material, error) {
	mat, err := svc.repo.GetMaterial(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if um.Title != "" {
		mat.Title = um.Title
	}
	if um.Description != "" {
		mat.Description = um.Description
	}
	if um.FileURL != "" {
		mat.FileURL = um.FileURL
	}
	mat.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMaterial(ctx, mat)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteMaterialsByID(ctx, ids...)
	return err
}
