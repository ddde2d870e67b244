// Package domain defines core types, request-scoped carriers, and errors for
// the job-board authorization core.
package domain

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AccessDeniedError indicates insufficient permissions.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// Kind enumerates every failure the authorization core can produce.
type Kind int

const (
	KindUnknown Kind = iota
	KindSecretsNotInitialized
	KindSecretMissing
	KindMissingToken
	KindInvalidTokenFormat
	KindMalformedToken
	KindInvalidOrExpired
	KindUnauthenticated
	KindProfileNotFound
	KindStoreError
	KindForbidden
	KindClientConstruction
)

var kindNames = map[Kind]string{
	KindUnknown:               "unknown",
	KindSecretsNotInitialized: "secrets_not_initialized",
	KindSecretMissing:         "secret_missing",
	KindMissingToken:          "missing_token",
	KindInvalidTokenFormat:    "invalid_token_format",
	KindMalformedToken:        "malformed_token",
	KindInvalidOrExpired:      "invalid_or_expired",
	KindUnauthenticated:       "unauthenticated",
	KindProfileNotFound:       "profile_not_found",
	KindStoreError:            "store_error",
	KindForbidden:             "forbidden",
	KindClientConstruction:    "client_construction",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the tagged error returned by the secret store, identity
// verifiers, role resolver, gates, and client factory.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "secrets.get"
	Err  error  // underlying cause; never returned to HTTP callers
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind so that errors.Is(err, &Error{Kind: k})
// works regardless of Op and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// E builds a tagged error.
func E(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// KindOf reports the kind of the outermost tagged error in err's chain.
// Errors that carry no kind report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
