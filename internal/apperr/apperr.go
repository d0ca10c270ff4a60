package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// AuthReason is the server-side cause of an authorization failure
type AuthReason string

const (
	Unauthenticated   AuthReason = "unauthenticated"
	InvalidCredential AuthReason = "invalid_credential"
	Forbidden         AuthReason = "forbidden"
)

// AuthMessage is the only message clients ever see for authorization failures
const AuthMessage = "admin authorization failed"

// ErrNotFound is returned by public lookups when no visible entity matches
var ErrNotFound = errors.New("not found")

// AuthError rejects a request before any side effect. Error() never reveals
// the reason; use Reason for logging.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	return AuthMessage
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func NewAuth(reason AuthReason, err error) *AuthError {
	return &AuthError{Reason: reason, Err: err}
}

// FieldError is a single field-specific validation failure
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

func NewValidation(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// PersistenceError wraps a document store failure. The wrapped error is for
// logs only.
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	return e.Message
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func NewPersistence(msg string, err error) *PersistenceError {
	return &PersistenceError{Message: msg, Err: err}
}

// HTTPStatus maps an error from the service layer to a response status
func HTTPStatus(err error) int {
	var authErr *AuthError
	var validationErr *ValidationError
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
