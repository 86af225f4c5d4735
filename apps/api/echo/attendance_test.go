package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/user"
)

func Test_attendanceApi_recordSheet(t *testing.T) {
	app := initApp(t)

	teacher := createUser(t, app, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student1 := createUser(t, app, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	student2 := createUser(t, app, "King", "king01", "king@test.cd", "", []string{user.RoleStudent}, true)

	teacherToken := getToken(t, app, teacher)
	form1 := createClass(t, app, "Form 1 Blue", 8, teacher.ID)

	date := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)
	sheet := func(classID string, recs ...attendance.NewRecord) []byte {
		return marchallObj(t, attendance.NewSheet{ClassID: classID, Date: date, Records: recs})
	}

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "staff required", token: getToken(t, app, student1),
			body:     sheet(form1.ID, attendance.NewRecord{StudentID: student1.ID, Status: attendance.StatusPresent}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{
			name: "required fields", token: teacherToken, body: marchallObj(t, attendance.NewSheet{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{
				"class_id": "this field is required", "date": "this field is required", "records": "this field is required",
			}),
		},
		{
			name: "invalid status", token: teacherToken,
			body:     sheet(form1.ID, attendance.NewRecord{StudentID: student1.ID, Status: "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"status": "invalid attendance status"}),
		},
		{
			name: "duplicate student in sheet", token: teacherToken,
			body: sheet(form1.ID,
				attendance.NewRecord{StudentID: student1.ID, Status: attendance.StatusPresent},
				attendance.NewRecord{StudentID: student1.ID, Status: attendance.StatusAbsent},
			),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"records": "a student appears more than once"}),
		},
		{
			name: "sheet recorded", token: teacherToken,
			body: sheet(form1.ID,
				attendance.NewRecord{StudentID: student1.ID, Status: attendance.StatusPresent},
				attendance.NewRecord{StudentID: student2.ID, Status: attendance.StatusLate, Remark: "overslept"},
			),
			wantCode: http.StatusCreated,
		},
		{
			name: "already recorded", token: teacherToken,
			body:     sheet(form1.ID, attendance.NewRecord{StudentID: student1.ID, Status: attendance.StatusAbsent}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"records": "attendance already recorded for this student on this date"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/attendance/sheets"

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

			var recs []attendance.Record
			if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if len(recs) != 2 {
				t.Fatalf("failed! len(records) = %d; want 2", len(recs))
			}
			for _, r := range recs {
				if r.TakenBy != teacher.ID {
					t.Errorf("failed! taken_by = %v; want %v", r.TakenBy, teacher.ID)
				}
				if !r.Date.Equal(date) {
					t.Errorf("failed! date = %v; want %v", r.Date, date)
				}
			}
		})
	}
}

func Test_attendanceApi_queryAndUpdate(t *testing.T) {
	app := initApp(t)

	admin := createUser(t, app, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student1 := createUser(t, app, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	student2 := createUser(t, app, "King", "king01", "king@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, app, admin)
	teacherToken := getToken(t, app, teacher)
	studentToken := getToken(t, app, student1)

	form1 := createClass(t, app, "Form 1 Blue", 8, teacher.ID)
	form2 := createClass(t, app, "Form 2 Blue", 9, teacher.ID)

	day1 := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2021, 3, 16, 0, 0, 0, 0, time.UTC)

	recordSheet := func(classID string, date time.Time, recs ...attendance.NewRecord) []attendance.Record {
		created, err := app.attendanceSvc.RecordSheet(testCtx(), attendance.NewSheet{ClassID: classID, Date: date, Records: recs}, teacher.ID)
		if err != nil {
			t.Fatalf("RecordSheet() failed: %v", err)
		}
		return created
	}

	day1Recs := recordSheet(form1.ID, day1,
		attendance.NewRecord{StudentID: student1.ID, Status: attendance.StatusPresent},
		attendance.NewRecord{StudentID: student2.ID, Status: attendance.StatusAbsent},
	)
	day2Recs := recordSheet(form1.ID, day2,
		attendance.NewRecord{StudentID: student1.ID, Status: attendance.StatusLate},
		attendance.NewRecord{StudentID: student2.ID, Status: attendance.StatusExcused},
	)
	otherRecs := recordSheet(form2.ID, day1,
		attendance.NewRecord{StudentID: student2.ID, Status: attendance.StatusPresent},
	)

	findRec := func(recs []attendance.Record, studentID string) attendance.Record {
		for _, r := range recs {
			if r.StudentID == studentID {
				return r
			}
		}
		t.Fatalf("record for student %s not found", studentID)
		return attendance.Record{}
	}
	s1Day1 := findRec(day1Recs, student1.ID)
	s2Day1 := findRec(day1Recs, student2.ID)
	s1Day2 := findRec(day2Recs, student1.ID)
	s2Day2 := findRec(day2Recs, student2.ID)

	path := func(studentID, classID, status string, from, to time.Time) string {
		v := make(url.Values)
		if studentID != "" {
			v.Add("student_id", studentID)
		}
		if classID != "" {
			v.Add("class_id", classID)
		}
		if status != "" {
			v.Add("status", status)
		}
		if !from.IsZero() {
			v.Add("date_from", from.Format(time.RFC3339))
		}
		if !to.IsZero() {
			v.Add("date_to", to.Format(time.RFC3339))
		}
		return "/v1/attendance?" + v.Encode()
	}

	tests := []httpTest{
		{
			name: "staff required", method: http.MethodGet, path: "/v1/attendance", token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{
			name: "get all", method: http.MethodGet, path: "/v1/attendance", token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, s1Day1, s2Day1, s1Day2, s2Day2, otherRecs[0]),
		},
		{
			name: "filter by student", method: http.MethodGet, path: path(student1.ID, "", "", time.Time{}, time.Time{}), token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, s1Day1, s1Day2),
		},
		{
			name: "filter by class", method: http.MethodGet, path: path("", form2.ID, "", time.Time{}, time.Time{}), token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, otherRecs[0]),
		},
		{
			name: "filter by status", method: http.MethodGet, path: path("", "", attendance.StatusAbsent, time.Time{}, time.Time{}), token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, s2Day1),
		},
		{
			name: "filter by date range", method: http.MethodGet, path: path("", "", "", day2, day2), token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, s1Day2, s2Day2),
		},
		{
			name: "retrieve", method: http.MethodGet, path: "/v1/attendance/" + s1Day1.ID, token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, s1Day1),
		},
		{
			name: "retrieve unknown", method: http.MethodGet, path: "/v1/attendance/f1f1a1a1-0000-4000-8000-000000000000", token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "not found"}),
		},
		{
			name: "update invalid status", method: http.MethodPut, path: "/v1/attendance/" + s2Day1.ID, token: teacherToken,
			body:     marchallObj(t, attendance.UpdateRecord{Status: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, echo.Map{"status": "invalid attendance status"}),
		},
		{
			name: "update", method: http.MethodPut, path: "/v1/attendance/" + s2Day1.ID, token: teacherToken,
			body:     marchallObj(t, attendance.UpdateRecord{Status: attendance.StatusExcused, Remark: "sick"}),
			wantCode: http.StatusOK,
		},
		{
			name: "delete requires admin", method: http.MethodDelete, path: "/v1/attendance/" + s2Day2.ID, token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/attendance/" + s2Day2.ID, token: adminToken, wantCode: http.StatusNoContent},
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
				var updated attendance.Record
				if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
					t.Fatalf("json.Unmarshal() failed: %v", err)
				}
				if updated.Status != attendance.StatusExcused || updated.Remark != "sick" {
					t.Errorf("failed! unexpected record %+v", updated)
				}
			}
		})
	}
}

func Test_attendanceApi_summary(t *testing.T) {
	app := initApp(t)

	teacher := createUser(t, app, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student1 := createUser(t, app, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	student2 := createUser(t, app, "King", "king01", "king@test.cd", "", []string{user.RoleStudent}, true)

	form1 := createClass(t, app, "Form 1 Blue", 8, teacher.ID)

	days := []time.Time{
		time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 3, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 3, 17, 0, 0, 0, 0, time.UTC),
	}
	statuses := []string{attendance.StatusPresent, attendance.StatusLate, attendance.StatusAbsent}
	for i, day := range days {
		_, err := app.attendanceSvc.RecordSheet(testCtx(), attendance.NewSheet{
			ClassID: form1.ID,
			Date:    day,
			Records: []attendance.NewRecord{
				{StudentID: student1.ID, Status: statuses[i]},
				{StudentID: student2.ID, Status: attendance.StatusPresent},
			},
		}, teacher.ID)
		if err != nil {
			t.Fatalf("RecordSheet() failed: %v", err)
		}
	}

	// 2 attended (present + late) out of 3
	s1Summary := attendance.Summary{StudentID: student1.ID, Present: 1, Absent: 1, Late: 1, Total: 3, Percentage: 66.67}

	tests := []httpTest{
		{name: "auth required", path: "/v1/attendance/summary", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student defaults to own summary", path: "/v1/attendance/summary", token: getToken(t, app, student1),
			wantCode: http.StatusOK, wantData: marchallObj(t, s1Summary),
		},
		{
			name: "student cannot see others", path: "/v1/attendance/summary?student_id=" + student2.ID, token: getToken(t, app, student1),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "permission denied"}),
		},
		{
			name: "staff can see any student", path: "/v1/attendance/summary?student_id=" + student1.ID, token: getToken(t, app, teacher),
			wantCode: http.StatusOK, wantData: marchallObj(t, s1Summary),
		},
		{
			name: "period narrows the summary",
			path: "/v1/attendance/summary?" + url.Values{
				"student_id": {student1.ID},
				"from":       {days[0].Format(time.RFC3339)},
				"to":         {days[1].Format(time.RFC3339)},
			}.Encode(),
			token:    getToken(t, app, teacher),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, attendance.Summary{StudentID: student1.ID, Present: 1, Late: 1, Total: 2, Percentage: 100}),
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
