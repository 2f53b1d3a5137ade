package core

import (
	"errors"
	"fmt"

	"swapmeet.ie/marketplace/internal/store"
)

// Error kinds. Match with errors.Is; the API layer maps them to status codes.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("authentication failed")
	ErrUpstream   = errors.New("upstream error")
	ErrParse      = errors.New("malformed model reply")
	ErrStorage    = errors.New("storage error")
)

// ServiceError carries a kind, a client-facing message and the cause.
type ServiceError struct {
	Kind error
	Msg  string
	Err  error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	default:
		return e.Msg + ": " + e.Err.Error()
	}
}

func (e *ServiceError) Is(target error) bool {
	return target == e.Kind
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newError(kind error, err error, format string, args ...any) *ServiceError {
	return &ServiceError{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func validationError(format string, args ...any) error {
	return newError(ErrValidation, nil, format, args...)
}

func notFoundError(format string, args ...any) error {
	return newError(ErrNotFound, nil, format, args...)
}

func storageError(err error, format string, args ...any) error {
	return newError(ErrStorage, err, format, args...)
}

// upstreamError keeps the external API's message verbatim.
func upstreamError(err error) error {
	return &ServiceError{Kind: ErrUpstream, Err: err}
}

// fromStore classifies a store failure for the named document.
func fromStore(err error, kind, id, action string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFoundError("%s with id %s not found", kind, id)
	}
	return storageError(err, "failed to %s", action)
}
