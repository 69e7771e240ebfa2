package service

import (
	"errors"
	"fmt"
	"net/http"

	"cancha/internal/domain"
)

// Kind classifies a service failure for the transport layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindUnavailable
	KindInternal
	KindRateLimited
)

// HTTPStatus maps a kind to its response status. Conflicts are reported as
// 400 like every other rejected booking.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindInternal:
		return http.StatusInternalServerError
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a user-facing failure. Message is safe to return to clients;
// Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
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

const (
	msgStoreUnavailable = "Base de datos no configurada. Define SUPABASE_URL y SUPABASE_KEY o usa el driver sqlite."
	msgInternal         = "Error interno del servidor"
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// storeError classifies a repository failure. notFound is the message used
// for domain.ErrNotFound; fallback is shown for unexpected errors.
func storeError(err error, notFound, fallback string) error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		return &Error{Kind: KindUnavailable, Message: msgStoreUnavailable, Err: err}
	case errors.Is(err, domain.ErrNotFound) && notFound != "":
		return &Error{Kind: KindNotFound, Message: notFound, Err: err}
	default:
		if fallback == "" {
			fallback = msgInternal
		}
		return &Error{Kind: KindInternal, Message: fallback, Err: err}
	}
}

// AsError returns err as a *Error, wrapping unknown errors as internal.
func AsError(err error) *Error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return &Error{Kind: KindInternal, Message: msgInternal, Err: err}
}

// IsKind reports whether err is a service error of kind k.
func IsKind(err error, k Kind) bool {
	var svcErr *Error
	return errors.As(err, &svcErr) && svcErr.Kind == k
}
