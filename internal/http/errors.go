package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/bookdl/internal/model"
)

// Failure classes. A *FetchError matches exactly one of them with errors.Is.
var (
	// ErrTransient means every attempt failed with a retryable error.
	ErrTransient = errors.New("transient network error")

	// ErrPermanent means the request cannot succeed by repeating it.
	ErrPermanent = errors.New("permanent request error")
)

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// FetchError describes the final failure of Client.Fetch.
type FetchError struct {
	// URL is the requested URL.
	URL string

	// Attempts is the number of requests that were sent.
	Attempts int

	// StatusCode is the last HTTP status received, 0 if none.
	StatusCode int

	// Transient is true when the retry budget was exhausted on retryable errors.
	Transient bool

	// Err is the last underlying error.
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v (after %d attempt(s))", e.URL, e.Err, e.Attempts)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches ErrTransient or ErrPermanent according to the failure class.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrTransient:
		return e.Transient
	case ErrPermanent:
		return !e.Transient && !e.canceled()
	default:
		return false
	}
}

func (e *FetchError) canceled() bool {
	return errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded)
}

// FailureKind maps a Fetch error to the pipeline failure taxonomy.
func FailureKind(err error) model.FailureKind {
	var ferr *FetchError
	switch {
	case err == nil:
		return model.KindNone
	case errors.As(err, &ferr) && ferr.Transient:
		return model.KindTransient
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return model.KindCanceled
	default:
		return model.KindPermanent
	}
}
