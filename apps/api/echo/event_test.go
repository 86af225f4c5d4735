package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/event"
	"github.com/trezcool/darasa/core/user"
)

func createEvent(t *testing.T, app *testApp, title string, startsAt time.Time, audience []string, createdBy string) event.Event {
	evt, err := app.eventSvc.Create(testCtx(), event.NewEvent{
		Title:    title,
		StartsAt: startsAt,
		Audience: audience,
	}, createdBy)
	if err != nil {
		t.Fatalf("createEvent() failed: %v", err)
	}
	return evt
}

func Test_eventApi(t *testing.T) {
	app := initApp(t)

	admin := createUser(t, app, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := createUser(t, app, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, app, admin)
	teacherToken := getToken(t, app, teacher)
	studentToken := getToken(t, app, student)

	past := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	soon := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)

	assembly := createEvent(t, app, "Morning assembly", past, nil, admin.ID) // everyone
	sportsDay := createEvent(t, app, "Sports day", soon, []string{user.RoleStudent}, admin.ID)
	staffMeeting := createEvent(t, app, "Staff meeting", soon, []string{user.RoleTeacher, user.RoleAdmin}, admin.ID)

	path := func(search string, upcoming bool) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if upcoming {
			v.Add("upcoming", "true")
		}
		return "/v1/events?" + v.Encode()
	}

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/events",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "students see their audience", method: http.MethodGet, path: "/v1/events", token: studentToken,
			wantCode: http.StatusOK, wantData: marchallList(t, assembly, sportsDay),
		},
		{
			name: "teachers see their audience", method: http.MethodGet, path: "/v1/events", token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, assembly, staffMeeting),
		},
		{
			name: "admins see everything", method: http.MethodGet, path: "/v1/events", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, assembly, sportsDay, staffMeeting),
		},
		{
			name: "upcoming only", method: http.MethodGet, path: path("", true), token: studentToken,
			wantCode: http.StatusOK, wantData: marchallList(t, sportsDay),
		},
		{
			name: "search", method: http.MethodGet, path: path("sports", false), token: studentToken,
			wantCode: http.StatusOK, wantData: marchallList(t, sportsDay),
		},
		{
			name: "retrieve visible", method: http.MethodGet, path: "/v1/events/" + sportsDay.ID, token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, sportsDay),
		},
		{
			name: "events outside the audience are hidden", method: http.MethodGet, path: "/v1/events/" + staffMeeting.ID, token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "not found"}),
		},
		{
			name: "retrieve unknown", method: http.MethodGet, path: "/v1/events/lol", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "not found"}),
		},
		{
			name: "create requires staff", method: http.MethodPost, path: "/v1/events", token: studentToken,
			body:     marchallObj(t, event.NewEvent{Title: "Party", StartsAt: soon}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{
			name: "create required fields", method: http.MethodPost, path: "/v1/events", token: teacherToken,
			body:     marchallObj(t, event.NewEvent{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"title": "this field is required", "starts_at": "this field is required"}),
		},
		{
			name: "create invalid audience", method: http.MethodPost, path: "/v1/events", token: teacherToken,
			body:     marchallObj(t, event.NewEvent{Title: "Gala", StartsAt: soon, Audience: []string{"parent:"}}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"audience": "invalid roles"}),
		},
		{
			name: "create cannot end before it starts", method: http.MethodPost, path: "/v1/events", token: teacherToken,
			body:     marchallObj(t, event.NewEvent{Title: "Gala", StartsAt: soon, EndsAt: soon.Add(-time.Hour)}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"ends_at": "event cannot end before it starts"}),
		},
		{
			name: "update requires staff", method: http.MethodPut, path: "/v1/events/" + sportsDay.ID, token: studentToken,
			body:     marchallObj(t, event.UpdateEvent{Venue: "Main field"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{
			name: "update unknown", method: http.MethodPut, path: "/v1/events/lol", token: teacherToken,
			body:     marchallObj(t, event.UpdateEvent{Venue: "Main field"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "not found"}),
		},
		{
			name: "update cannot end before it starts", method: http.MethodPut, path: "/v1/events/" + sportsDay.ID, token: teacherToken,
			body:     marchallObj(t, event.UpdateEvent{EndsAt: sportsDay.StartsAt.Add(-time.Hour)}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"ends_at": "event cannot end before it starts"}),
		},
		{
			name: "delete requires admin", method: http.MethodDelete, path: "/v1/events/" + assembly.ID, token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/events/" + assembly.ID, token: adminToken, wantCode: http.StatusNoContent},
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

	t.Run("create and reschedule", func(t *testing.T) {
		body := marchallObj(t, event.NewEvent{
			Title:    "Science fair",
			Venue:    "Main hall",
			StartsAt: soon,
			EndsAt:   soon.Add(4 * time.Hour),
			Audience: []string{user.RoleStudent, user.RoleTeacher},
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/events", teacherToken, body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var evt event.Event
		if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if evt.CreatedBy != teacher.ID {
			t.Errorf("failed! created_by = %v; want %v", evt.CreatedBy, teacher.ID)
		}

		newStart := soon.Add(24 * time.Hour)
		body = marchallObj(t, event.UpdateEvent{StartsAt: newStart, EndsAt: newStart.Add(4 * time.Hour)})
		req, rec = newAuthRequest(http.MethodPut, "/v1/events/"+evt.ID, teacherToken, body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated event.Event
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if !updated.StartsAt.Equal(newStart) {
			t.Errorf("failed! starts_at = %v; want %v", updated.StartsAt, newStart)
		}
		if updated.Title != evt.Title || updated.Venue != evt.Venue {
			t.Errorf("failed! unchanged fields were modified: %+v", updated)
		}
	})
}
