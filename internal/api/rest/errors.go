package rest

import (
	"context"
	"errors"
	"net/http"

	domain "github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/service/scheduler"
)

// Error is a failed request: the HTTP status and the message sent back.
type Error struct {
	Code    int
	Message string
}

// badRequest wraps a malformed request body or parameter.
func badRequest(err error) *Error {
	return &Error{Code: http.StatusBadRequest, Message: err.Error()}
}

// toError maps a service error onto an HTTP status.
func toError(err error) *Error {
	code := http.StatusInternalServerError

	switch {
	case domain.IsValidation(err), errors.Is(err, domain.ErrInvalidIndex):
		code = http.StatusBadRequest
	case domain.IsReferential(err):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, scheduler.ErrStopped):
		code = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}

	return &Error{Code: code, Message: err.Error()}
}
