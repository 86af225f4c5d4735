package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/academics"
)

type academicsApi struct {
	svc      academics.Service
	validate *validator.Validate
}

func registerAcademicsAPI(g *echo.Group, gate echo.MiddlewareFunc, svc academics.Service, validate *validator.Validate) {
	api := academicsApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/classes", gate)
	cg.GET("", api.queryClasses)
	cg.POST("", api.createClass, adminMiddleware())
	cg.GET("/:id", api.retrieveClass)
	cg.PUT("/:id", api.updateClass, adminMiddleware())
	cg.DELETE("/:id", api.destroyClass, adminMiddleware())

	sg := g.Group("/subjects", gate)
	sg.GET("", api.querySubjects)
	sg.POST("", api.createSubject, adminMiddleware())
	sg.GET("/:id", api.retrieveSubject)
	sg.PUT("/:id", api.updateSubject, adminMiddleware())
	sg.DELETE("/:id", api.destroySubject, adminMiddleware())
}

// Class handlers

func (api *academicsApi) createClass(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	var data academics.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(rctx, api.validate, api.svc); err != nil {
		return err
	}

	cls, err := api.svc.CreateClass(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *academicsApi) queryClasses(ctx echo.Context) error {
	filter := new(academics.ClassFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []academics.Class{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	classes, err := api.svc.QueryClasses(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []academics.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *academicsApi) retrieveClass(ctx echo.Context) error {
	cls, err := api.svc.GetClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == academics.ErrClassNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *academicsApi) updateClass(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	cls, err := api.svc.GetClass(rctx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == academics.ErrClassNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting class")
	}

	var data academics.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(rctx, api.validate, cls, api.svc); err != nil {
		return err
	}

	cls, err = api.svc.UpdateClass(rctx, cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *academicsApi) destroyClass(ctx echo.Context) error {
	if err := api.svc.DeleteClasses(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Subject handlers

func (api *academicsApi) createSubject(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	var data academics.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.CreateSubject(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *academicsApi) querySubjects(ctx echo.Context) error {
	filter := new(academics.SubjectFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []academics.Subject{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	subjects, err := api.svc.QuerySubjects(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []academics.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *academicsApi) retrieveSubject(ctx echo.Context) error {
	sub, err := api.svc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == academics.ErrSubjectNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *academicsApi) updateSubject(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	sub, err := api.svc.GetSubject(rctx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == academics.ErrSubjectNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting subject")
	}

	var data academics.UpdateSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err := data.Validate(api.validate, sub); err != nil {
		return err
	}

	sub, err = api.svc.UpdateSubject(rctx, sub.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *academicsApi) destroySubject(ctx echo.Context) error {
	if err := api.svc.DeleteSubjects(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}
