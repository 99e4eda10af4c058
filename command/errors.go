package command

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/markawm/acme-github-issues/core"
)

func commandDependencyError(message string) error {
	return core.NewDependencyError(message)
}

func commandValidationError(field string, message string) error {
	return core.NewValidationError("command: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	})
}

func commandWrapValidation(err error, message string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, message).
		WithTextCode(core.ErrorBadInput)
}
