// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Sentinel errors shared by the domain layer.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrDuplicate       = errors.New("duplicate entry")
	ErrValidation      = errors.New("validation failed")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("authentication required")
)

// RateLimitedError signals that a time-windowed action is not yet allowed.
// RetrySeconds is the remaining wait rounded up to whole seconds; zero means
// the window length itself is the only hint available.
type RateLimitedError struct {
	RetrySeconds int64
	Message      string
}

func (e *RateLimitedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.RetrySeconds > 0 {
		return fmt.Sprintf("rate limited, retry in %d seconds", e.RetrySeconds)
	}
	return "rate limited"
}

// RespondError maps domain errors to HTTP responses using RFC7807.
// Duplicate entries deliberately map to 400 rather than 409: the API
// treats uniqueness violations as request-shape problems with a
// specific message.
func RespondError(w http.ResponseWriter, err error) {
	var limited *RateLimitedError
	switch {
	case errors.As(err, &limited):
		if limited.RetrySeconds > 0 {
			w.Header().Set("Retry-After", strconv.FormatInt(limited.RetrySeconds, 10))
		}
		Problem(w, http.StatusTooManyRequests, "Rate Limited", limited.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusBadRequest, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
