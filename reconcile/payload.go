package reconcile

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	goerrors "github.com/goliatone/go-errors"
	"github.com/markawm/acme-github-issues/core"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// IssueEvent is the subset of a GitHub "issues" webhook payload that is reconciled.
type IssueEvent struct {
	Action       string        `json:"action"`
	Installation *Installation `json:"installation" validate:"required"`
	Issue        *Issue        `json:"issue" validate:"required"`
	Repository   *Repository   `json:"repository" validate:"required"`
}

type Installation struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type Issue struct {
	ID        int64  `json:"id" validate:"required"`
	NodeID    string `json:"node_id" validate:"required"`
	URL       string `json:"url"`
	Number    int64  `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	State     string `json:"state"`
	User      User   `json:"user"`
	Assignees []User `json:"assignees"`
	UpdatedAt string `json:"updated_at"`
	CreatedAt string `json:"created_at"`
}

type User struct {
	ID     int64  `json:"id"`
	NodeID string `json:"node_id"`
	Login  string `json:"login"`
}

type Repository struct {
	ID     int64  `json:"id" validate:"required"`
	NodeID string `json:"node_id" validate:"required"`
}

// DecodeIssueEvent parses and validates a webhook body.
func DecodeIssueEvent(body []byte) (IssueEvent, error) {
	var event IssueEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return IssueEvent{}, core.NewValidationError(
			"reconcile: malformed issue payload",
			goerrors.FieldError{Field: "body", Message: err.Error()},
		)
	}
	if err := event.Validate(); err != nil {
		return IssueEvent{}, err
	}
	return event, nil
}

func (e IssueEvent) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return core.NewValidationError("reconcile: invalid issue payload: " + err.Error())
	}
	fields := make([]goerrors.FieldError, 0, len(fieldErrs))
	for _, item := range fieldErrs {
		fields = append(fields, goerrors.FieldError{
			Field:   strings.TrimPrefix(item.Namespace(), "IssueEvent."),
			Message: "failed on " + item.Tag(),
		})
	}
	return core.NewValidationError("reconcile: invalid issue payload", fields...)
}
