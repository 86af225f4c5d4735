package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/query"
)

type queryApi struct {
	svc      query.Service
	validate *validator.Validate
}

func registerQueryAPI(g *echo.Group, gate echo.MiddlewareFunc, svc query.Service, validate *validator.Validate) {
	api := queryApi{
		svc:      svc,
		validate: validate,
	}

	qg := g.Group("/queries", gate)
	qg.POST("", api.create)
	qg.GET("", api.query)
	qg.GET("/:id", api.retrieve)
	qg.POST("/:id/answer", api.answer, staffMiddleware())
	qg.DELETE("/:id", api.destroy, adminMiddleware())
}

// Handlers

func (api *queryApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsStudent() {
		return errHttpForbidden
	}

	var data query.NewQuery
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuery")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	qry, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "creating query")
	}
	return ctx.JSON(http.StatusCreated, qry)
}

// query lists student queries; students are pinned to their own.
func (api *queryApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(query.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []query.Query{})
	}
	if !(ctxUsr.IsTeacher() || ctxUsr.IsAdmin()) {
		filter.StudentID = ctxUsr.ID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	queries, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying student queries")
	}
	if queries == nil {
		queries = []query.Query{}
	}
	return ctx.JSON(http.StatusOK, queries)
}

func (api *queryApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	qry, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == query.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting query")
	}
	// students may only see their own queries
	if qry.StudentID != ctxUsr.ID && !(ctxUsr.IsTeacher() || ctxUsr.IsAdmin()) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, qry)
}

func (api *queryApi) answer(ctx echo.Context) error {
	var data query.Answer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Answer")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	qry, err := api.svc.Answer(ctx.Request().Context(), ctx.Param("id"), data.Body, ctxUsr.ID)
	if err != nil {
		if errors.Cause(err) == query.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "answering query")
	}
	return ctx.JSON(http.StatusOK, qry)
}

func (api *queryApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting query")
	}
	return ctx.NoContent(http.StatusNoContent)
}
