// Package apperr defines the error kinds that handlers translate into
// HTTP responses.
package apperr

import "fmt"

type Kind int

const (
	KindValidation Kind = iota + 1
	KindBadRequest
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// Error carries a stable machine-readable Code next to a human Message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and code, so wrapped
// copies of a sentinel still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// Validation reports the first offending field as "field: message".
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: field + ": " + message}
}

func InvalidBody(err error) *Error {
	return &Error{
		Kind:    KindBadRequest,
		Code:    "INVALID_REQUEST_BODY",
		Message: "Malformed JSON or invalid field value in request body",
		Err:     err,
	}
}

// Wrap attaches a cause to a copy of a sentinel.
func Wrap(sentinel *Error, err error) *Error {
	cp := *sentinel
	cp.Err = err
	return &cp
}
