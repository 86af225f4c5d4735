package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
)

func Test_userApi_query(t *testing.T) {
	app := initApp(t)

	path := func(search string, createdFrom, createdTo time.Time, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		if !createdFrom.IsZero() {
			v.Add("created_from", createdFrom.Format(time.RFC3339))
		}
		if !createdTo.IsZero() {
			v.Add("created_to", createdTo.Format(time.RFC3339))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)
	t3 := now.Add(3 * time.Hour)
	t4 := now.Add(4 * time.Hour)
	t5 := now.Add(5 * time.Hour)

	usr1 := createUser(t, app, "User", "awe", "awe@test.cd", "", nil, true, t1)
	usr2 := createUser(t, app, "King", "user02", "king@test.cd", "", nil, true)
	student := createUser(t, app, "Hero", "hero", "user3@test.cd", "", []string{user.RoleStudent}, true)
	admin := createUser(t, app, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true, t2.Truncate(time.Second))
	principal := createUser(t, app, "Principal", "princip", "princip@test.cd", "", []string{user.RoleAdminPrincipal}, true)
	teacher := createUser(t, app, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true, t3)
	naughty := createUser(t, app, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleStudent}, false)

	adminToken := getToken(t, app, admin)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/v1/users", token: getToken(t, app, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{
			name: "get all", path: "/v1/users", token: adminToken,
			wantData: marchallList(t, teacher, admin, usr1, naughty, principal, student, usr2),
		},
		// filtering
		{name: "search (unknown)", path: path("lol", time.Time{}, time.Time{}, nil), token: adminToken, wantData: empty},
		{
			name: "search=USE", path: path("USE", time.Time{}, time.Time{}, nil),
			token: adminToken, wantData: marchallList(t, usr1, student, usr2),
		},
		{name: "role (unknown)", path: path("", time.Time{}, time.Time{}, nil, "lol"), token: adminToken, wantData: empty},
		{
			name: "role=admin:", path: path("", time.Time{}, time.Time{}, nil, user.RoleAdmin),
			token: adminToken, wantData: marchallList(t, admin, principal),
		},
		{
			name: "role=teacher:,student:", path: path("", time.Time{}, time.Time{}, nil, user.RoleTeacher, user.RoleStudent),
			token: adminToken, wantData: marchallList(t, teacher, naughty, student),
		},
		{
			name: "is_active=true", path: path("", time.Time{}, time.Time{}, bPtr(true)),
			token: adminToken, wantData: marchallList(t, teacher, admin, usr1, principal, student, usr2),
		},
		{name: "is_active=false", path: path("", time.Time{}, time.Time{}, bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{
			name: "created_from", path: path("", t1.UTC(), time.Time{}, nil),
			token: adminToken, wantData: marchallList(t, teacher, admin, usr1),
		},
		{
			name: "created_to", path: path("", time.Time{}, t2, nil),
			token: adminToken, wantData: marchallList(t, admin, usr1, naughty, principal, student, usr2),
		},
		{name: "created_from - created_to (empty)", path: path("", t4, t5, nil), token: adminToken, wantData: empty},
		{name: "created_from - created_to (found)", path: path("", t1, t2, nil), token: adminToken, wantData: marchallList(t, admin, usr1)},
		{name: "all combo (empty)", path: path("USE", t1, t5, bPtr(true), user.RoleAdminPrincipal), token: adminToken, wantData: empty},
		{
			name: "all combo (found)", path: path("tea", t1, t5, bPtr(true), user.RoleTeacher),
			token: adminToken, wantData: marchallList(t, teacher),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_create(t *testing.T) {
	app := initApp(t)

	admin := createUser(t, app, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	adminToken := getToken(t, app, admin)

	reqMsg := "this field is required"
	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", token: getToken(t, app, teacher), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{
			name: "required fields", token: adminToken, body: marchallObj(t, user.NewUser{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{
				"name": reqMsg, "password": "password must contain at least 8 characters", "password_confirm": reqMsg,
				"username": "one of username or email is required", "email": "one of username or email is required",
			}),
		},
		{
			name: "invalid roles", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Hero", Username: "heroine", Password: "LolC@t123", PasswordConfirm: "LolC@t123", Roles: []string{"lol"},
			}),
			wantData: marchallObj(t, echo.Map{"roles": "invalid roles"}),
		},
		{
			name: "duplicate username", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Hero", Username: "teacher", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
			}),
			wantData: marchallObj(t, echo.Map{"username": "a user with this username already exists"}),
		},
		{
			name: "duplicate email", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Hero", Email: "teacher@test.cd", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
			}),
			wantData: marchallObj(t, echo.Map{"email": "a user with this email already exists"}),
		},
		{
			name: "cannot set roles above own max role", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Big Shot", Username: "bigshot", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
				Roles: []string{user.RoleAdminOwner},
			}),
			wantData: marchallObj(t, echo.Map{"roles": errNoPermsToSetRoles}),
		},
		{
			name: "user created", token: adminToken, wantCode: http.StatusCreated,
			body: marchallObj(t, user.NewUser{
				Name: "Hero", Username: "heroine", Email: "hero@test.cd", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
				Roles: []string{user.RoleStudent},
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}

			var usr user.User
			if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
				t.Fatalf("json.Unmarshal() failed! err %v", err)
			}
			if usr.ID == "" {
				t.Error("failed! user created without ID")
			}
			if usr.Username != "heroine" {
				t.Errorf("failed! username = %v; want heroine", usr.Username)
			}
			if !usr.Active() {
				t.Error("failed! new user should be active")
			}
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	app := initApp(t)

	admin := createUser(t, app, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := createUser(t, app, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	other := createUser(t, app, "Other", "other1", "other@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, app, admin)
	studentToken := getToken(t, app, student)

	bPtr := func(b bool) *bool { return &b }
	notFound := marchallObj(t, httpErr{Message: "not found"})
	forbidden := marchallObj(t, httpErr{Message: "permission denied"})

	tests := []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/v1/users/" + student.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "others hidden from non-admins", method: http.MethodGet, path: "/v1/users/" + other.ID,
			token: studentToken, wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "unknown user", method: http.MethodGet, path: "/v1/users/f1f1a1a1-0000-4000-8000-000000000000",
			token: adminToken, wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "self retrieve", method: http.MethodGet, path: "/v1/users/" + student.ID,
			token: studentToken, wantCode: http.StatusOK, wantData: marchallObj(t, student),
		},
		{
			name: "admin retrieve", method: http.MethodGet, path: "/v1/users/" + other.ID,
			token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, other),
		},
		{
			name: "non-admin cannot change own roles", method: http.MethodPut, path: "/v1/users/" + student.ID,
			token: studentToken, body: marchallObj(t, user.UpdateUser{Roles: []string{user.RoleTeacher}}),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "non-admin cannot deactivate themselves", method: http.MethodPut, path: "/v1/users/" + student.ID,
			token: studentToken, body: marchallObj(t, user.UpdateUser{IsActive: bPtr(false)}),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "self update name", method: http.MethodPut, path: "/v1/users/" + student.ID,
			token: studentToken, body: marchallObj(t, user.UpdateUser{Name: "Super Hero"}),
			wantCode: http.StatusOK,
		},
		{
			name: "admin cannot grant roles above own max role", method: http.MethodPut, path: "/v1/users/" + other.ID,
			token: adminToken, body: marchallObj(t, user.UpdateUser{Roles: []string{user.RoleAdminOwner}}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, echo.Map{"roles": errNoPermsToSetRoles}),
		},
		{
			name: "admin update roles", method: http.MethodPut, path: "/v1/users/" + other.ID,
			token: adminToken, body: marchallObj(t, user.UpdateUser{Roles: []string{user.RoleTeacher}}),
			wantCode: http.StatusOK,
		},
		{
			name: "non-admin cannot delete", method: http.MethodDelete, path: "/v1/users/" + student.ID,
			token: studentToken, wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "admin cannot delete themselves", method: http.MethodDelete, path: "/v1/users/" + admin.ID,
			token: adminToken, wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "admin delete", method: http.MethodDelete, path: "/v1/users/" + other.ID,
			token: adminToken, wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}

	if _, err := app.usrRepo.GetUser(testCtx(), user.GetFilter{ID: other.ID}); err == nil {
		t.Error("failed! deleted user still exists")
	}
}

func Test_userApi_destroyMultiple(t *testing.T) {
	app := initApp(t)

	admin := createUser(t, app, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	usr1 := createUser(t, app, "One", "user01", "one@test.cd", "", []string{user.RoleStudent}, true)
	usr2 := createUser(t, app, "Two", "user02", "two@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, app, admin)

	path := func(ids ...string) string {
		v := make(url.Values)
		for _, id := range ids {
			v.Add("id", id)
		}
		return "/v1/users?" + v.Encode()
	}

	tests := []httpTest{
		{name: "no ids is a no-op", path: "/v1/users", token: adminToken, wantCode: http.StatusNoContent},
		{
			name: "cannot delete self", path: path(usr1.ID, admin.ID), token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{name: "delete many", path: path(usr1.ID, usr2.ID), token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}

	if _, err := app.usrRepo.GetUser(testCtx(), user.GetFilter{ID: usr1.ID}); err == nil {
		t.Error("failed! deleted user still exists")
	}
	if _, err := app.usrRepo.GetUser(testCtx(), user.GetFilter{ID: admin.ID}); err != nil {
		t.Error("failed! admin should not have been deleted")
	}
}

func Test_userApi_queryRoles(t *testing.T) {
	app := initApp(t)

	admin := createUser(t, app, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/roles", getToken(t, app, admin))
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)}, rec)
}

func Test_userApi_resetPassword(t *testing.T) {
	app := initApp(t)

	student := createUser(t, app, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	successData := marchallObj(t, SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	pathRegex := regexp.MustCompile("/password-reset/.+/.+")

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"email": "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, user.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, echo.Map{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, user.PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, user.PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: student.Name, Address: student.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				if !extra.emailSent {
					if len(emailsvc.SentMessages) > 0 {
						t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
					}
					return
				}
				if len(emailsvc.SentMessages) != 1 {
					t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
				}
				msg := emailsvc.SentMessages[0]
				if msg.To[0] != extra.to {
					t.Errorf("failed! To = %v; want %v", msg.To[0], extra.to)
				}
				if !strings.Contains(msg.TextContent, extra.to.Name) {
					t.Errorf("failed! text content does not contain recipient's name %q", extra.to.Name)
				}
				if !pathRegex.MatchString(msg.TextContent) {
					t.Errorf("failed! text content does not match pathRegex %v", pathRegex)
				}
				if !pathRegex.MatchString(msg.HTMLContent) {
					t.Errorf("failed! HTML content does not match pathRegex %v", pathRegex)
				}
			}
		})
	}
}

func Test_userApi_confirmPasswordReset(t *testing.T) {
	app := initApp(t)

	student := createUser(t, app, "Hero", "hero", "hero@test.cd", "lol", []string{user.RoleStudent}, true)
	validUID := user.EncodeUID(student)
	validToken := user.MakeToken(student)

	// generate an expired token
	dayLate := app.conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	user.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken := user.MakeToken(student)
	user.NowFunc = time.Now // reset

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"token": reqMsg, "uid": reqMsg, "password": "password must contain at least 8 characters", "password_confirm": reqMsg}),
		},
		{
			name: "invalid pwd: min len", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "lol", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, echo.Map{"password": "password must contain at least 8 characters"}),
		},
		{
			name: "invalid pwd: no whitespace", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "l o loll", PasswordConfirm: "l o loll"}),
			wantData: marchallObj(t, echo.Map{"password": "password must not contain whitespace"}),
		},
		{
			name: "invalid pwd: not all numeric", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "12345678", PasswordConfirm: "12345678"}),
			wantData: marchallObj(t, echo.Map{"password": "password cannot be entirely numeric"}),
		},
		{
			name: "invalid pwd: complexity", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "lol12345", PasswordConfirm: "lol12345"}),
			wantData: marchallObj(t, echo.Map{"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}),
		},
		{
			name: "invalid pwd: too common", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "P@$$w0rd", PasswordConfirm: "P@$$w0rd"}),
			wantData: marchallObj(t, echo.Map{"password": "password is too common"}),
		},
		{
			name: "password_confirm must equal password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "LolC@t123", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, echo.Map{"password_confirm": "password_confirm must be equal to Password"}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol==?", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Message: "invalid token"}),
		},
		{
			name: "user not found", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "OTk5", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Message: "invalid token"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Message: "invalid token"}),
		},
		{
			name: "expired token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: expiredToken, UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Message: "token expired"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := app.usrRepo.GetUser(testCtx(), user.GetFilter{ID: student.ID})
				if err != nil {
					t.Fatalf("GetUser() failed: %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, student.PasswordHash) {
					t.Fatal("failed to update new password")
				}
			}
		})
	}
}
