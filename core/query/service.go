package query

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var ErrNotFound = errors.New("query not found")

type (
	Repository interface {
		CreateQuery(ctx context.Context, qry Query) (Query, error)
		GetQuery(ctx context.Context, id string) (Query, error)
		QueryQueries(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Query, error)
		UpdateQuery(ctx context.Context, qry Query) (Query, error)
		DeleteQueriesByID(ctx context.Context, ids ...string) (int, error)
	}

	Service interface {
		Create(ctx context.Context, nq NewQuery, studentID string) (Query, error)
		Get(ctx context.Context, id string) (Query, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Query, error)
		// Answer marks the query answered and notifies the student by email.
		// Re-answering overwrites the previous answer.
		Answer(ctx context.Context, id, body, answeredBy string) (Query, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo    Repository
		usrSvc  user.Service
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, mailSvc core.EmailService) Service {
	return &service{
		repo:    repo,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
	}
}

func (svc *service) Create(ctx context.Context, nq NewQuery, studentID string) (Query, error) {
	now := time.Now().UTC()
	qry := Query{
		StudentID: studentID,
		SubjectID: nq.SubjectID,
		Title:     nq.Title,
		Body:      nq.Body,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateQuery(ctx, qry)
}

func (svc *service) Get(ctx context.Context, id string) (Query, error) {
	return svc.repo.GetQuery(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Query, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryQueries(ctx, filter, ordering...)
}

func (svc *service) Answer(ctx context.Context, id, body, answeredBy string) (Query, error) {
	qry, err := svc.repo.GetQuery(ctx, id)
	if err != nil {
		return Query{}, err
	}

	now := time.Now().UTC()
	qry.Answer = body
	qry.AnsweredBy = answeredBy
	qry.AnsweredAt = now
	qry.Status = StatusAnswered
	qry.UpdatedAt = now

	qry, err = svc.repo.UpdateQuery(ctx, qry)
	if err != nil {
		return Query{}, err
	}

	if student, sErr := svc.usrSvc.GetByID(ctx, qry.StudentID); sErr == nil && student.Email != "" {
		svc.sendAnswerMail(student, qry)
	}
	return qry, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteQueriesByID(ctx, ids...)
	return err
}

func (svc *service) sendAnswerMail(student user.User, qry Query) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      "Your query has been answered",
		TemplateName: "query-answered",
		TemplateData: struct {
			Student user.User
			Query   Query
		}{student, qry},
	})
}
