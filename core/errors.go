package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput               = "ISSUES_BAD_INPUT"
	ErrorSigningFailed          = "ISSUES_SIGNING_FAILED"
	ErrorTokenExchangeFailed    = "ISSUES_TOKEN_EXCHANGE_FAILED"
	ErrorConfigFetchFailed      = "ISSUES_CONFIG_FETCH_FAILED"
	ErrorBackendMutationFailed  = "ISSUES_BACKEND_MUTATION_FAILED"
	ErrorTransportFailed        = "ISSUES_TRANSPORT_FAILED"
	ErrorPrivateKeyInvalid      = "ISSUES_PRIVATE_KEY_INVALID"
	ErrorWebhookSignatureFailed = "ISSUES_WEBHOOK_SIGNATURE_INVALID"
	ErrorInternal               = "ISSUES_INTERNAL_ERROR"
)

// NewSigningError reports a key or algorithm problem while minting the app assertion.
func NewSigningError(source error, message string) error {
	if source == nil {
		return goerrors.New(message, goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(ErrorSigningFailed).
			WithSeverity(goerrors.SeverityCritical)
	}
	return goerrors.Wrap(source, goerrors.CategoryInternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorSigningFailed).
		WithSeverity(goerrors.SeverityCritical)
}

func NewTokenExchangeError(account string, status int) error {
	return goerrors.New(
		fmt.Sprintf("tokens: could not retrieve access token (httpErrorCode:%d)", status),
		goerrors.CategoryAuth,
	).
		WithCode(status).
		WithTextCode(ErrorTokenExchangeFailed).
		WithMetadata(map[string]any{
			"account": account,
			"status":  status,
		})
}

func NewConfigFetchError(account string, messages []string) error {
	return goerrors.New("accounts: config query returned errors", goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode(ErrorConfigFetchFailed).
		WithMetadata(map[string]any{
			"account": account,
			"errors":  append([]string(nil), messages...),
		})
}

func NewBackendMutationError(operation string, key string, messages []string) error {
	return goerrors.New(
		fmt.Sprintf("reconcile: %s reported errors", operation),
		goerrors.CategoryOperation,
	).
		WithCode(http.StatusUnprocessableEntity).
		WithTextCode(ErrorBackendMutationFailed).
		WithMetadata(map[string]any{
			"operation": operation,
			"key":       key,
			"errors":    append([]string(nil), messages...),
		})
}

// NewTransportError wraps connection failures, timeouts and malformed upstream responses.
func NewTransportError(source error, message string, metadata map[string]any) error {
	code := http.StatusBadGateway
	if errors.Is(source, context.DeadlineExceeded) {
		code = http.StatusGatewayTimeout
	}
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryExternal)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryExternal, message)
	}
	err = err.WithCode(code).WithTextCode(ErrorTransportFailed)
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

func NewKeyLoadError(source error, message string) error {
	if source == nil {
		return goerrors.New(message, goerrors.CategoryBadInput).
			WithCode(http.StatusBadRequest).
			WithTextCode(ErrorPrivateKeyInvalid)
	}
	return goerrors.Wrap(source, goerrors.CategoryBadInput, message).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorPrivateKeyInvalid)
}

func NewValidationError(message string, fields ...goerrors.FieldError) error {
	return goerrors.NewValidation(message, fields...).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorBadInput)
}

func NewDependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorInternal)
}

// TokenExchangeStatus returns the upstream HTTP status carried by a token exchange failure.
func TokenExchangeStatus(err error) (int, bool) {
	rich, ok := richError(err)
	if !ok || rich.TextCode != ErrorTokenExchangeFailed {
		return 0, false
	}
	if status, ok := rich.Metadata["status"].(int); ok {
		return status, true
	}
	return rich.Code, true
}

func IsSigningError(err error) bool {
	return hasTextCode(err, ErrorSigningFailed)
}

func IsTransportError(err error) bool {
	return hasTextCode(err, ErrorTransportFailed)
}

func IsConfigFetchError(err error) bool {
	return hasTextCode(err, ErrorConfigFetchFailed)
}

func IsBackendMutationError(err error) bool {
	return hasTextCode(err, ErrorBackendMutationFailed)
}

// MapError normalizes any error into the go-errors envelope used at the HTTP edge.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if rich, ok := richError(err); ok {
		return ensureEnvelope(rich)
	}
	return ensureEnvelope(goerrors.MapToError(err, goerrors.DefaultErrorMappers()))
}

func richError(err error) (*goerrors.Error, bool) {
	if err == nil {
		return nil, false
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich == nil {
		return nil, false
	}
	return rich, true
}

func hasTextCode(err error, code string) bool {
	rich, ok := richError(err)
	return ok && rich.TextCode == code
}

func ensureEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryAuth:
		return ErrorTokenExchangeFailed
	case goerrors.CategoryExternal:
		return ErrorTransportFailed
	case goerrors.CategoryOperation:
		return ErrorBackendMutationFailed
	default:
		return ErrorInternal
	}
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryOperation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
