package event

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Event is a school announcement or calendar entry.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Venue       string    `json:"venue,omitempty"`
	StartsAt    time.Time `json:"starts_at"` // UTC
	EndsAt      time.Time `json:"ends_at"`   // UTC; zero for open-ended events
	Audience    []string  `json:"audience,omitempty"` // role prefixes; empty means everyone
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// VisibleTo reports whether a user with the given roles is part of the audience.
func (e *Event) VisibleTo(roles []string) bool {
	if len(e.Audience) == 0 {
		return true
	}
	for _, aud := range e.Audience {
		for _, role := range roles {
			if len(role) >= len(aud) && role[:len(aud)] == aud {
				return true
			}
		}
	}
	return false
}

type NewEvent struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at"`
	Audience    []string  `json:"audience" validate:"omitempty,allroles"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.Venue = core.CleanString(ne.Venue)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	if !ne.EndsAt.IsZero() && ne.EndsAt.Before(ne.StartsAt) {
		return core.NewValidationError(ErrEndsBeforeStart,
			core.FieldError{Field: "ends_at", Error: ErrEndsBeforeStart.Error()})
	}
	return nil
}

type UpdateEvent struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Audience    []string  `json:"audience" validate:"omitempty,allroles"`
}

func (ue *UpdateEvent) Validate(validate *validator.Validate, orig Event) error {
	ue.Title = core.CleanString(ue.Title)
	ue.Description = core.CleanString(ue.Description)
	ue.Venue = core.CleanString(ue.Venue)
	if err := validate.Struct(ue); err != nil {
		return err
	}

	starts := ue.StartsAt
	if starts.IsZero() {
		starts = orig.StartsAt
	}
	ends := ue.EndsAt
	if ends.IsZero() {
		ends = orig.EndsAt
	}
	if !ends.IsZero() && ends.Before(starts) {
		return core.NewValidationError(ErrEndsBeforeStart,
			core.FieldError{Field: "ends_at", Error: ErrEndsBeforeStart.Error()})
	}
	return nil
}

type QueryFilter struct {
	Search   string    `query:"search"`
	From     time.Time `query:"from"`
	To       time.Time `query:"to"`
	Upcoming bool      `query:"upcoming"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
