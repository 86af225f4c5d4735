package echoapi

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/query"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
)

func createQuery(t *testing.T, app *testApp, studentID, title, body, subjectID string) query.Query {
	qry, err := app.querySvc.Create(testCtx(), query.NewQuery{
		SubjectID: subjectID,
		Title:     title,
		Body:      body,
	}, studentID)
	if err != nil {
		t.Fatalf("createQuery() failed: %v", err)
	}
	return qry
}

func Test_queryApi(t *testing.T) {
	app := initApp(t)

	admin := createUser(t, app, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student1 := createUser(t, app, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	student2 := createUser(t, app, "King", "king01", "king@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, app, admin)
	teacherToken := getToken(t, app, teacher)
	student1Token := getToken(t, app, student1)
	student2Token := getToken(t, app, student2)

	q1 := createQuery(t, app, student1.ID, "Homework deadline", "When is the algebra homework due?", "")
	q2 := createQuery(t, app, student1.ID, "Lab report format", "Which format should the physics lab report use?", "")
	otherQ := createQuery(t, app, student2.ID, "Library hours", "Is the library open on Saturdays?", "")

	path := func(studentID, status, search string) string {
		v := make(url.Values)
		if studentID != "" {
			v.Add("student_id", studentID)
		}
		if status != "" {
			v.Add("status", status)
		}
		if search != "" {
			v.Add("search", search)
		}
		return "/v1/queries?" + v.Encode()
	}

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/queries",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "students only see their own queries", method: http.MethodGet, path: "/v1/queries", token: student1Token,
			wantCode: http.StatusOK, wantData: marchallList(t, q1, q2),
		},
		{
			name: "student filter for others is still pinned", method: http.MethodGet, path: path(student2.ID, "", ""), token: student1Token,
			wantCode: http.StatusOK, wantData: marchallList(t, q1, q2),
		},
		{
			name: "staff see all", method: http.MethodGet, path: "/v1/queries", token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, q1, q2, otherQ),
		},
		{
			name: "staff filter by student", method: http.MethodGet, path: path(student2.ID, "", ""), token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, otherQ),
		},
		{
			name: "search", method: http.MethodGet, path: path("", "", "library"), token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, otherQ),
		},
		{
			name: "filter by status", method: http.MethodGet, path: path("", query.StatusAnswered, ""), token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t),
		},
		{
			name: "create requires a student", method: http.MethodPost, path: "/v1/queries", token: teacherToken,
			body:     marchallObj(t, query.NewQuery{Title: "Hmm", Body: "Can teachers ask too?"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{
			name: "create required fields", method: http.MethodPost, path: "/v1/queries", token: student1Token,
			body:     marchallObj(t, query.NewQuery{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"title": "this field is required", "body": "this field is required"}),
		},
		{
			name: "retrieve own", method: http.MethodGet, path: "/v1/queries/" + q1.ID, token: student1Token,
			wantCode: http.StatusOK, wantData: marchallObj(t, q1),
		},
		{
			name: "others' queries are hidden", method: http.MethodGet, path: "/v1/queries/" + otherQ.ID, token: student1Token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "not found"}),
		},
		{
			name: "staff retrieve any", method: http.MethodGet, path: "/v1/queries/" + otherQ.ID, token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, otherQ),
		},
		{
			name: "answer requires staff", method: http.MethodPost, path: "/v1/queries/" + q1.ID + "/answer", token: student2Token,
			body:     marchallObj(t, query.Answer{Body: "It is due Friday."}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{
			name: "answer required fields", method: http.MethodPost, path: "/v1/queries/" + q1.ID + "/answer", token: teacherToken,
			body:     marchallObj(t, query.Answer{}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, echo.Map{"body": "this field is required"}),
		},
		{
			name: "answer unknown", method: http.MethodPost, path: "/v1/queries/lol/answer", token: teacherToken,
			body:     marchallObj(t, query.Answer{Body: "There is no such question."}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "not found"}),
		},
		{
			name: "delete requires admin", method: http.MethodDelete, path: "/v1/queries/" + otherQ.ID, token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/queries/" + otherQ.ID, token: adminToken, wantCode: http.StatusNoContent},
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

	t.Run("answering notifies the student", func(t *testing.T) {
		emailsvc.ClearSentMessages()

		body := marchallObj(t, query.Answer{Body: "The homework is due on Friday."})
		req, rec := newAuthRequest(http.MethodPost, "/v1/queries/"+q1.ID+"/answer", teacherToken, body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var answered query.Query
		if err := json.Unmarshal(rec.Body.Bytes(), &answered); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if answered.Status != query.StatusAnswered {
			t.Errorf("failed! status = %v; want %v", answered.Status, query.StatusAnswered)
		}
		if answered.AnsweredBy != teacher.ID {
			t.Errorf("failed! answered_by = %v; want %v", answered.AnsweredBy, teacher.ID)
		}
		if answered.Answer != "The homework is due on Friday." {
			t.Errorf("failed! answer = %q", answered.Answer)
		}
		if answered.AnsweredAt.IsZero() {
			t.Error("failed! answered_at should be set")
		}

		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
		}
		msg := emailsvc.SentMessages[0]
		wantTo := mail.Address{Name: student1.Name, Address: student1.Email}
		if len(msg.To) != 1 || msg.To[0] != wantTo {
			t.Errorf("failed! To = %v; want %v", msg.To, wantTo)
		}
		if msg.Subject != "Your query has been answered" {
			t.Errorf("failed! Subject = %q", msg.Subject)
		}
		if !strings.Contains(msg.TextContent, student1.Name) {
			t.Errorf("failed! student name not in body:\n%s", msg.TextContent)
		}
		if !strings.Contains(msg.TextContent, q1.Title) {
			t.Errorf("failed! query title not in body:\n%s", msg.TextContent)
		}
		if !strings.Contains(msg.TextContent, "/queries/"+q1.ID) {
			t.Errorf("failed! query link not in body:\n%s", msg.TextContent)
		}

		// a later answer overwrites the first
		emailsvc.ClearSentMessages()
		body = marchallObj(t, query.Answer{Body: "Correction: it is due Monday."})
		req, rec = newAuthRequest(http.MethodPost, "/v1/queries/"+q1.ID+"/answer", getToken(t, app, admin), body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &answered); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if answered.Answer != "Correction: it is due Monday." || answered.AnsweredBy != admin.ID {
			t.Errorf("failed! unexpected query %+v", answered)
		}
		if len(emailsvc.SentMessages) != 1 {
			t.Errorf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
		}
	})
}
