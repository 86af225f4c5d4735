package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/material"
)

type materialApi struct {
	svc      material.Service
	validate *validator.Validate
}

func registerMaterialAPI(g *echo.Group, gate echo.MiddlewareFunc, svc material.Service, validate *validator.Validate) {
	api := materialApi{
		svc:      svc,
		validate: validate,
	}

	mg := g.Group("/materials", gate)
	mg.POST("", api.create, staffMiddleware())
	mg.GET("", api.query)
	mg.GET("/:id", api.retrieve)
	mg.PUT("/:id", api.update, staffMiddleware())
	mg.DELETE("/:id", api.destroy, staffMiddleware())
}

// Handlers

func (api *materialApi) create(ctx echo.Context) error {
	var data material.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	mat, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "creating study material")
	}
	return ctx.JSON(http.StatusCreated, mat)
}

func (api *materialApi) query(ctx echo.Context) error {
	filter := new(material.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []material.Material{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	mats, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying study materials")
	}
	if mats == nil {
		mats = []material.Material{}
	}
	return ctx.JSON(http.StatusOK, mats)
}

func (api *materialApi) retrieve(ctx echo.Context) error {
	mat, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == material.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting study material")
	}
	return ctx.JSON(http.StatusOK, mat)
}

func (api *materialApi) update(ctx echo.Context) error {
	var data material.UpdateMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMaterial")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mat, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == material.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating study material")
	}
	return ctx.JSON(http.StatusOK, mat)
}

func (api *materialApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting study material")
	}
	return ctx.NoContent(http.StatusNoContent)
}
