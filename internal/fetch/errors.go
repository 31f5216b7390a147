package fetch

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound means the requested movie exists in neither source.
	ErrNotFound = errors.New("movie not found")
	// ErrUnavailable means every source failed to answer.
	ErrUnavailable = errors.New("movies are unavailable right now")
	// ErrInvalidInput rejects malformed parameters before any source is called.
	ErrInvalidInput = errors.New("invalid input")
)

// Message converts err into the string a screen shows.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Movie not found"
	case errors.Is(err, ErrInvalidInput):
		msg := strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": ")
		return "Invalid request: " + msg
	default:
		return "Failed to load movies. Please try again."
	}
}

// Retryable reports whether a retry affordance makes sense for err.
// A logical not-found or a bad request will not change on retry.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidInput)
}
