package shared

import (
	"errors"
	"strings"
)

// ErrorKind classifies a structured failure returned by a public operation.
type ErrorKind string

const (
	// KindValidation indicates malformed input, caught before any domain logic runs.
	KindValidation ErrorKind = "VALIDATION"
	// KindNotFound indicates a referenced entity does not exist.
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindDomainViolation indicates a named business rule failed.
	KindDomainViolation ErrorKind = "DOMAIN_INVARIANT_VIOLATION"
	// KindAuthorization indicates the caller lacks the required capability.
	KindAuthorization ErrorKind = "AUTHORIZATION"
	// KindConcurrencyConflict indicates an optimistic concurrency token mismatch;
	// the caller should reload and retry.
	KindConcurrencyConflict ErrorKind = "CONCURRENCY_CONFLICT"
	// KindPersistence indicates an unexpected failure inside a transaction,
	// not attributable to a named rule.
	KindPersistence ErrorKind = "PERSISTENCE"
)

// Error is the structured failure type crossing the public operation boundary.
// Messages holds every independent violation found, not just the first one.
type Error struct {
	Kind     ErrorKind
	Messages []string
	cause    error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + strings.Join(e.Messages, " | ")
}

// Unwrap exposes the underlying cause, if any, for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a structured failure of the given kind.
func NewError(kind ErrorKind, messages ...string) *Error {
	return &Error{Kind: kind, Messages: messages}
}

// WrapError attaches a cause to a structured failure, preserving the chain.
func WrapError(kind ErrorKind, cause error, messages ...string) *Error {
	if len(messages) == 0 && cause != nil {
		messages = []string{cause.Error()}
	}
	return &Error{Kind: kind, Messages: messages, cause: cause}
}

// ValidationFailure collects input-shape violations into one failure.
func ValidationFailure(messages ...string) *Error {
	return NewError(KindValidation, messages...)
}

// NotFound reports a missing entity.
func NotFound(message string) *Error {
	return NewError(KindNotFound, message)
}

// DomainViolation reports one or more named business rule failures.
func DomainViolation(messages ...string) *Error {
	return NewError(KindDomainViolation, messages...)
}

// AuthorizationFailure reports a denied capability check.
func AuthorizationFailure(username, permission string) *Error {
	return NewError(KindAuthorization, "user "+username+" lacks permission "+permission)
}

// KindOf extracts the error kind from any error. Unclassified errors map to
// KindPersistence: an unexpected fault inside the core is never presented as
// a business rule.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
