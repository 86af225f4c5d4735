package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/conduct"
	"github.com/trezcool/darasa/core/user"
)

func createConductEntry(t *testing.T, app *testApp, studentID, reporterID, kind, category string, points int, date time.Time) conduct.Entry {
	ent, err := app.conductSvc.Create(testCtx(), conduct.NewEntry{
		StudentID: studentID,
		Kind:      kind,
		Category:  category,
		Points:    points,
		Date:      date,
	}, reporterID)
	if err != nil {
		t.Fatalf("createConductEntry() failed: %v", err)
	}
	return ent
}

func Test_conductApi(t *testing.T) {
	app := initApp(t)

	admin := createUser(t, app, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student1 := createUser(t, app, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	student2 := createUser(t, app, "King", "king01", "king@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, app, admin)
	teacherToken := getToken(t, app, teacher)
	studentToken := getToken(t, app, student1)

	day1 := time.Date(2021, 5, 3, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2021, 5, 10, 0, 0, 0, 0, time.UTC)

	merit := createConductEntry(t, app, student1.ID, teacher.ID, conduct.KindMerit, "punctuality", 5, day1)
	demerit := createConductEntry(t, app, student1.ID, teacher.ID, conduct.KindDemerit, "uniform", 2, day2)
	otherMerit := createConductEntry(t, app, student2.ID, admin.ID, conduct.KindMerit, "helpfulness", 3, day1)

	path := func(studentID, kind, category string) string {
		v := make(url.Values)
		if studentID != "" {
			v.Add("student_id", studentID)
		}
		if kind != "" {
			v.Add("kind", kind)
		}
		if category != "" {
			v.Add("category", category)
		}
		return "/v1/conduct?" + v.Encode()
	}

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/conduct",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "students only see their own entries", method: http.MethodGet, path: "/v1/conduct", token: studentToken,
			wantCode: http.StatusOK, wantData: marchallList(t, merit, demerit),
		},
		{
			name: "student filter for others is still pinned", method: http.MethodGet, path: path(student2.ID, "", ""), token: studentToken,
			wantCode: http.StatusOK, wantData: marchallList(t, merit, demerit),
		},
		{
			name: "staff see all", method: http.MethodGet, path: "/v1/conduct", token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, merit, demerit, otherMerit),
		},
		{
			name: "filter by kind", method: http.MethodGet, path: path("", conduct.KindDemerit, ""), token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, demerit),
		},
		{
			name: "filter by category", method: http.MethodGet, path: path("", "", "Punctuality"), token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, merit),
		},
		{
			name: "create requires staff", method: http.MethodPost, path: "/v1/conduct", token: studentToken,
			body:     marchallObj(t, conduct.NewEntry{StudentID: student2.ID, Kind: conduct.KindDemerit, Category: "noise", Points: 1}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{
			name: "create required fields", method: http.MethodPost, path: "/v1/conduct", token: teacherToken,
			body:     marchallObj(t, conduct.NewEntry{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{
				"student_id": "this field is required", "kind": "this field is required",
				"category": "this field is required", "points": "this field is required",
			}),
		},
		{
			name: "create invalid kind", method: http.MethodPost, path: "/v1/conduct", token: teacherToken,
			body:     marchallObj(t, conduct.NewEntry{StudentID: student1.ID, Kind: "lol", Category: "noise", Points: 1}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"kind": "kind must be one of [merit demerit]"}),
		},
		{
			name: "retrieve requires staff", method: http.MethodGet, path: "/v1/conduct/" + merit.ID, token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{
			name: "retrieve", method: http.MethodGet, path: "/v1/conduct/" + merit.ID, token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, merit),
		},
		{
			name: "update", method: http.MethodPut, path: "/v1/conduct/" + demerit.ID, token: teacherToken,
			body:     marchallObj(t, conduct.UpdateEntry{Points: 4, Description: "repeat offence"}),
			wantCode: http.StatusOK,
		},
		{
			name: "delete requires admin", method: http.MethodDelete, path: "/v1/conduct/" + otherMerit.ID, token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/conduct/" + otherMerit.ID, token: adminToken, wantCode: http.StatusNoContent},
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
			if tt.method == http.MethodPut {
				var updated conduct.Entry
				if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
					t.Fatalf("json.Unmarshal() failed: %v", err)
				}
				if updated.Points != 4 || updated.Description != "repeat offence" {
					t.Errorf("failed! unexpected entry %+v", updated)
				}
			}
		})
	}

	t.Run("reporter is the context user", func(t *testing.T) {
		body := marchallObj(t, conduct.NewEntry{StudentID: student2.ID, Kind: conduct.KindDemerit, Category: "Noise", Points: 2})
		req, rec := newAuthRequest(http.MethodPost, "/v1/conduct", teacherToken, body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var ent conduct.Entry
		if err := json.Unmarshal(rec.Body.Bytes(), &ent); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if ent.ReporterID != teacher.ID {
			t.Errorf("failed! reporter_id = %v; want %v", ent.ReporterID, teacher.ID)
		}
		if ent.Category != "noise" {
			t.Errorf("failed! category = %v; want noise (lowercased)", ent.Category)
		}
		if ent.Date.IsZero() {
			t.Error("failed! date should default to now")
		}
	})
}

func Test_conductApi_summary(t *testing.T) {
	app := initApp(t)

	teacher := createUser(t, app, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student1 := createUser(t, app, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	student2 := createUser(t, app, "King", "king01", "king@test.cd", "", []string{user.RoleStudent}, true)

	day := time.Date(2021, 5, 3, 0, 0, 0, 0, time.UTC)
	createConductEntry(t, app, student1.ID, teacher.ID, conduct.KindMerit, "punctuality", 5, day)
	createConductEntry(t, app, student1.ID, teacher.ID, conduct.KindMerit, "helpfulness", 3, day)
	createConductEntry(t, app, student1.ID, teacher.ID, conduct.KindDemerit, "uniform", 2, day)
	createConductEntry(t, app, student2.ID, teacher.ID, conduct.KindDemerit, "noise", 1, day)

	s1Summary := conduct.Summary{StudentID: student1.ID, Merits: 8, Demerits: 2, Balance: 6}

	tests := []httpTest{
		{name: "auth required", path: "/v1/conduct/summary", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student defaults to own summary", path: "/v1/conduct/summary", token: getToken(t, app, student1),
			wantCode: http.StatusOK, wantData: marchallObj(t, s1Summary),
		},
		{
			name: "student cannot see others", path: "/v1/conduct/summary?student_id=" + student2.ID, token: getToken(t, app, student1),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{
			name: "staff can see any student", path: "/v1/conduct/summary?student_id=" + student1.ID, token: getToken(t, app, teacher),
			wantCode: http.StatusOK, wantData: marchallObj(t, s1Summary),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
