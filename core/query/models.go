package query

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Statuses
const (
	StatusOpen     = "open"
	StatusAnswered = "answered"
)

// Query is a question a student raises with their teachers.
type Query struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	SubjectID  string    `json:"subject_id,omitempty"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Status     string    `json:"status"`
	Answer     string    `json:"answer,omitempty"`
	AnsweredBy string    `json:"answered_by,omitempty"`
	AnsweredAt time.Time `json:"answered_at"` // zero until answered
	CreatedAt  time.Time `json:"created_at"`  // UTC
	UpdatedAt  time.Time `json:"updated_at"`  // UTC
}

func (q *Query) IsAnswered() bool {
	return q.Status == StatusAnswered
}

type NewQuery struct {
	SubjectID string `json:"subject_id" validate:"omitempty,uuid4"`
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body" validate:"required"`
}

func (nq *NewQuery) Validate(validate *validator.Validate) error {
	nq.Title = core.CleanString(nq.Title)
	nq.Body = core.CleanString(nq.Body)
	return validate.Struct(nq)
}

type Answer struct {
	Body string `json:"body" validate:"required"`
}

func (a *Answer) Validate(validate *validator.Validate) error {
	a.Body = core.CleanString(a.Body)
	return validate.Struct(a)
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	SubjectID string `query:"subject_id"`
	Status    string `query:"status"`
	Search    string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
