package query

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/markawm/acme-github-issues/core"
)

func queryDependencyError(message string) error {
	return core.NewDependencyError(message)
}

func queryValidationError(field string, message string) error {
	return core.NewValidationError("query: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	})
}
