package transport

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/markawm/acme-github-issues/core"
)

// externalError covers connection failures, timeouts and unreadable bodies. The
// source stays in the chain so callers can match context errors.
func externalError(source error, message string, metadata map[string]any) error {
	return core.NewTransportError(source, message, metadata)
}

func badInputError(source error, message string, metadata map[string]any) error {
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryBadInput)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryBadInput, message)
	}
	return withMetadata(err.WithCode(http.StatusBadRequest).WithTextCode(core.ErrorBadInput), metadata)
}

func internalError(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ErrorInternal)
	return withMetadata(err, metadata)
}

func withMetadata(err *goerrors.Error, metadata map[string]any) error {
	if len(metadata) > 0 {
		return err.WithMetadata(metadata)
	}
	return err
}
