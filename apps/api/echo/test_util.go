package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

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
	logger "github.com/trezcool/darasa/services/logger"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

func testCtx() context.Context { return context.Background() }

type httpErr struct {
	Message string `json:"message"`
}

var (
	errMissingToken   = httpErr{Message: "No token, authorization denied"}
	errMalformedToken = httpErr{Message: `Token format invalid, use "Bearer [token]"`}
	errInvalidToken   = httpErr{Message: "Token is not valid"}
)

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func testConfig() *core.Config {
	return &core.Config{
		AppName:          "Darasa",
		Env:              "TEST",
		TestMode:         true,
		SecretKey:        "secret",
		WorkDir:          core.Getwd(),
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Address: "noreply@localhost"},

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,

		Server: core.ServerConfig{
			Host:                      "localhost",
			Port:                      8000,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

type testApp struct {
	server Server
	auth   *jwtAuth
	conf   *core.Config

	usrRepo user.Repository
	usrSvc  user.Service

	academicsSvc  academics.Service
	attendanceSvc attendance.Service
	conductSvc    conduct.Service
	examSvc       exam.Service
	materialSvc   material.Service
	querySvc      query.Service
	eventSvc      event.Service
}

func initApp(t *testing.T) *testApp {
	conf := testConfig()
	user.ConfigureTokenGen(conf.SecretKey, conf.PasswordResetTimeoutDelta)

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("initApp() failed: %v", err)
	}

	lg := logger.NewConsoleLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	lg.Enable(false)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)
	attendance.RegisterValidators(validate, translator)

	usrRepo := dummydb.NewUserRepository(db)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf)

	app := &testApp{
		conf:          conf,
		auth:          newJWTAuth(conf, lg),
		usrRepo:       usrRepo,
		usrSvc:        usrSvc,
		academicsSvc:  academics.NewService(dummydb.NewAcademicsRepository(db)),
		attendanceSvc: attendance.NewService(dummydb.NewAttendanceRepository(db)),
		conductSvc:    conduct.NewService(dummydb.NewConductRepository(db)),
		examSvc:       exam.NewService(dummydb.NewExamRepository(db)),
		materialSvc:   material.NewService(dummydb.NewMaterialRepository(db)),
		eventSvc:      event.NewService(dummydb.NewEventRepository(db)),
	}
	app.querySvc = query.NewService(dummydb.NewQueryRepository(db), usrSvc, mailSvc)

	app.server = NewServer(&Options{
		Address:        "localhost:8000",
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         lg,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        app.usrSvc,
		AcademicsSvc:   app.academicsSvc,
		AttendanceSvc:  app.attendanceSvc,
		ConductSvc:     app.conductSvc,
		ExamSvc:        app.examSvc,
		MaterialSvc:    app.materialSvc,
		QuerySvc:       app.querySvc,
		EventSvc:       app.eventSvc,
	})
	return app
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func createUser(
	t *testing.T,
	app *testApp,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC().Truncate(time.Second)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := app.usrRepo.CreateUser(testCtx(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func getToken(t *testing.T, app *testApp, usr user.User) string {
	token, err := app.auth.GenerateToken(app.auth.userClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
