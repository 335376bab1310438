package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping and logging.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata drives how a code renders over HTTP. DetailsAllowed gates
// whether structured details may leave the process.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var codeMeta = map[Code]Metadata{
	CodeValidation:    {http.StatusBadRequest, false, "validation failed", true},
	CodeUnauthorized:  {http.StatusUnauthorized, false, "authentication required", false},
	CodeForbidden:     {http.StatusForbidden, false, "access denied", false},
	CodeNotFound:      {http.StatusNotFound, false, "resource not found", false},
	CodeConflict:      {http.StatusConflict, false, "conflict detected", false},
	CodeStateConflict: {http.StatusUnprocessableEntity, false, "state transition disallowed", true},
	CodeIdempotency:   {http.StatusConflict, false, "idempotency key reused", true},
	CodeInternal:      {http.StatusInternalServerError, true, "internal server error", false},
	CodeDependency:    {http.StatusServiceUnavailable, true, "dependency unavailable", true},
}

// MetadataFor returns the transport metadata for code, falling back to
// the internal mapping for codes it does not know.
func MetadataFor(code Code) Metadata {
	if meta, ok := codeMeta[code]; ok {
		return meta
	}
	return codeMeta[CodeInternal]
}

// Error is a coded error. The message is operator-facing; whether it
// reaches clients is decided by the responses layer per code.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message on top of cause. A nil cause
// degrades to New.
func Wrap(code Code, cause error, message string) *Error {
	if cause == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: cause}
}

// WithDetails sets structured details and returns the receiver for
// chaining.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the first coded error in err's chain, or nil when the
// chain carries none.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
