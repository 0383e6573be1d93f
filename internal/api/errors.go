package api

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"garden-care/internal/recurrence"
	"garden-care/internal/service"
)

// errBadRequest marks malformed requests that never reached a service.
var errBadRequest = errors.New("bad request")

// statusFor maps internal errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, recurrence.ErrCycleInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// safeMessage returns the message shown to clients. Server errors are not
// echoed back.
func safeMessage(err error) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusNotFound:
		return "not found"
	case http.StatusConflict:
		if errors.Is(err, recurrence.ErrCycleInProgress) {
			return "a cycle is already running"
		}
		return "task is not pending"
	default:
		return "internal error"
	}
}
