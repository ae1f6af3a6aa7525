package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/km-arc/go-shopping/framework/container"
	"github.com/km-arc/go-shopping/framework/mainthread"
)

// StatusCoder is implemented by errors that know their HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// StatusError attaches an HTTP status to an error.
type StatusError struct {
	Status int
	Err    error
}

// WithStatus wraps err so StatusOf reports status for it.
func WithStatus(status int, err error) error {
	if err == nil {
		return nil
	}
	return &StatusError{Status: status, Err: err}
}

func (e *StatusError) Error() string   { return e.Err.Error() }
func (e *StatusError) Unwrap() error   { return e.Err }
func (e *StatusError) StatusCode() int { return e.Status }

var statuses = []struct {
	target error
	status int
}{
	{container.ErrModuleNotInitialized, http.StatusServiceUnavailable},
	{mainthread.ErrStopped, http.StatusServiceUnavailable},
	{container.ErrDuplicateInitialization, http.StatusConflict},
	{container.ErrUnsupportedHostContext, http.StatusBadRequest},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
	{context.Canceled, 499},
}

// StatusOf picks the response status for err: the first StatusCoder in its
// chain, then the well-known runtime errors, else 500.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	for _, s := range statuses {
		if errors.Is(err, s.target) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
