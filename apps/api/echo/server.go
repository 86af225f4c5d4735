package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/academics"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/conduct"
	"github.com/trezcool/darasa/core/event"
	"github.com/trezcool/darasa/core/exam"
	"github.com/trezcool/darasa/core/material"
	"github.com/trezcool/darasa/core/query"
	"github.com/trezcool/darasa/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Shutdown   chan os.Signal

		UserSvc       user.Service
		AcademicsSvc  academics.Service
		AttendanceSvc attendance.Service
		ConductSvc    conduct.Service
		ExamSvc       exam.Service
		MaterialSvc   material.Service
		QuerySvc      query.Service
		EventSvc      event.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	auth := newJWTAuth(conf, s.opts.Logger)
	gate := auth.Gate()

	registerUserAPI(v1, gate, auth, s.opts.UserSvc, s.opts.Validate)
	registerAcademicsAPI(v1, gate, s.opts.AcademicsSvc, s.opts.Validate)
	registerAttendanceAPI(v1, gate, s.opts.AttendanceSvc, s.opts.Validate)
	registerConductAPI(v1, gate, s.opts.ConductSvc, s.opts.Validate)
	registerExamAPI(v1, gate, s.opts.ExamSvc, s.opts.Validate)
	registerMaterialAPI(v1, gate, s.opts.MaterialSvc, s.opts.Validate)
	registerQueryAPI(v1, gate, s.opts.QuerySvc, s.opts.Validate)
	registerEventAPI(v1, gate, s.opts.EventSvc, s.opts.Validate)
}

// signalShutdown lets the error handler request a graceful stop.
func (s *server) signalShutdown() {
	if s.opts.Shutdown != nil {
		s.opts.Shutdown <- syscall.SIGTERM
	}
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
