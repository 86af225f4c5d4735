package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/exam"
)

type examApi struct {
	svc      exam.Service
	validate *validator.Validate
}

func registerExamAPI(g *echo.Group, gate echo.MiddlewareFunc, svc exam.Service, validate *validator.Validate) {
	api := examApi{
		svc:      svc,
		validate: validate,
	}

	eg := g.Group("/exams", gate)
	eg.POST("", api.create, staffMiddleware())
	eg.GET("", api.query)
	eg.GET("/results", api.studentResults)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.update, staffMiddleware())
	eg.DELETE("/:id", api.destroy, adminMiddleware())
	eg.POST("/:id/results", api.enterResults, staffMiddleware())
	eg.GET("/:id/results", api.queryResults, staffMiddleware())
}

// Handlers

func (api *examApi) create(ctx echo.Context) error {
	var data exam.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ex, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating exam")
	}
	return ctx.JSON(http.StatusCreated, ex)
}

// query lists exams; students only see published ones.
func (api *examApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(exam.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []exam.Exam{})
	}
	if !(ctxUsr.IsTeacher() || ctxUsr.IsAdmin()) {
		published := true
		filter.Published = &published
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	exams, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	if exams == nil {
		exams = []exam.Exam{}
	}
	return ctx.JSON(http.StatusOK, exams)
}

// studentResults returns a student's published results; students may only
// request their own.
func (api *examApi) studentResults(ctx echo.Context) error {
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

	results, err := api.svc.StudentResults(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "getting student results")
	}
	if results == nil {
		results = []exam.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *examApi) retrieve(ctx echo.Context) error {
	ex, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == exam.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting exam")
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ex.Published && !(ctxUsr.IsTeacher() || ctxUsr.IsAdmin()) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, ex)
}

func (api *examApi) update(ctx echo.Context) error {
	var data exam.UpdateExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ex, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == exam.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating exam")
	}
	return ctx.JSON(http.StatusOK, ex)
}

func (api *examApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting exam")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *examApi) enterResults(ctx echo.Context) error {
	var data exam.NewResults
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResults")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	results, err := api.svc.EnterResults(ctx.Request().Context(), ctx.Param("id"), data, ctxUsr.ID)
	if err != nil {
		if errors.Cause(err) == exam.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "entering exam results")
	}
	return ctx.JSON(http.StatusCreated, results)
}

func (api *examApi) queryResults(ctx echo.Context) error {
	filter := &exam.ResultFilter{ExamID: ctx.Param("id")}
	if studentID := ctx.QueryParam("student_id"); studentID != "" {
		filter.StudentID = studentID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	results, err := api.svc.QueryResults(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying exam results")
	}
	if results == nil {
		results = []exam.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}
