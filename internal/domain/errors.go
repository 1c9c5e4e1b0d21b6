package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the catalog service.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Error is the single error type returned by the catalog service.
// Message is safe to show to callers; Err is kept for logs only.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFoundError reports a product that does not exist or was removed.
func NotFoundError(id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Product with id #%d not found", id),
		Err:     ErrProductNotFound,
	}
}

// ConflictError reports a unique constraint violation on field.
func ConflictError(field string, cause error) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("Unique constraint failed on the fields: ('%s')", field),
		Err:     cause,
	}
}

// ValidationError reports invalid input.
func ValidationError(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: cause}
}

// InternalError hides cause behind an opaque message.
func InternalError(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal Server Error", Err: cause}
}

// KindOf returns the kind of err. Errors that are not *Error are internal.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// PublicMessage returns the caller-facing message for err.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "Internal Server Error"
}
