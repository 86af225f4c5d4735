package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/academics"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/conduct"
	"github.com/trezcool/darasa/core/event"
	"github.com/trezcool/darasa/core/exam"
	"github.com/trezcool/darasa/core/material"
	"github.com/trezcool/darasa/core/query"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

const shutdownTimeout = 5 * time.Second

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig(core.Getwd())
	if err != nil {
		std.Fatalf("loading configuration: %v", err)
	}

	var logger core.Logger
	if conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, conf)
		logger.Enable(!conf.Debug)
	} else {
		logger = logsvc.NewConsoleLogger(std)
	}

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()
	sqlxDB := sqlx.NewDb(db, conf.Database.Engine)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(sqlxDB), mailSvc, conf)

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)
	attendance.RegisterValidators(validate, translator)

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Address:    net.JoinHostPort(conf.Server.Host, fmt.Sprintf("%d", conf.Server.Port)),
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			Shutdown:   shutdown,

			UserSvc:       usrSvc,
			AcademicsSvc:  academics.NewService(sqlxrepos.NewAcademicsRepository(sqlxDB)),
			AttendanceSvc: attendance.NewService(sqlxrepos.NewAttendanceRepository(sqlxDB)),
			ConductSvc:    conduct.NewService(sqlxrepos.NewConductRepository(sqlxDB)),
			ExamSvc:       exam.NewService(sqlxrepos.NewExamRepository(sqlxDB)),
			MaterialSvc:   material.NewService(sqlxrepos.NewMaterialRepository(sqlxDB)),
			QuerySvc:      query.NewService(sqlxrepos.NewQueryRepository(sqlxDB), usrSvc, mailSvc),
			EventSvc:      event.NewService(sqlxrepos.NewEventRepository(sqlxDB)),
		},
	)

	go server.Start()

	// block until a shutdown signal comes in, then give outstanding requests
	// a deadline for completion
	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
