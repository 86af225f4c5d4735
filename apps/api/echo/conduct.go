package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/conduct"
)

type conductApi struct {
	svc      conduct.Service
	validate *validator.Validate
}

func registerConductAPI(g *echo.Group, gate echo.MiddlewareFunc, svc conduct.Service, validate *validator.Validate) {
	api := conductApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/conduct", gate)
	cg.POST("", api.create, staffMiddleware())
	cg.GET("", api.query)
	cg.GET("/summary", api.summary)
	cg.GET("/:id", api.retrieve, staffMiddleware())
	cg.PUT("/:id", api.update, staffMiddleware())
	cg.DELETE("/:id", api.destroy, adminMiddleware())
}

// Handlers

func (api *conductApi) create(ctx echo.Context) error {
	var data conduct.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ent, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "creating conduct entry")
	}
	return ctx.JSON(http.StatusCreated, ent)
}

// query lists conduct entries; students are pinned to their own.
func (api *conductApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(conduct.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []conduct.Entry{})
	}
	if !(ctxUsr.IsTeacher() || ctxUsr.IsAdmin()) {
		filter.StudentID = ctxUsr.ID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	entries, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying conduct entries")
	}
	if entries == nil {
		entries = []conduct.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *conductApi) summary(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	studentID := ctx.QueryParam("student_id")
	if studentID == "" {
		studentID = ctxUsr.ID
	}
	if studentID != ctxUsr.ID && !(ctxUsr.IsTeacher() || ctxUsr.IsAdmin()) {
		return errHttpForbidden
	}

	sum, err := api.svc.Summarize(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "summarizing conduct")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *conductApi) retrieve(ctx echo.Context) error {
	ent, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == conduct.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting conduct entry")
	}
	return ctx.JSON(http.StatusOK, ent)
}

func (api *conductApi) update(ctx echo.Context) error {
	var data conduct.UpdateEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ent, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == conduct.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating conduct entry")
	}
	return ctx.JSON(http.StatusOK, ent)
}

func (api *conductApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting conduct entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
