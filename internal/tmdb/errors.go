package tmdb

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrDecode marks a response body that could not be decoded. It is never retried.
var ErrDecode = errors.New("tmdb: decode response")

// StatusError reports a non-2xx answer from the content service.
type StatusError struct {
	Op         Op
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "tmdb: status error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return fmt.Sprintf("tmdb %s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("tmdb %s: HTTP %d: %s", e.Op, e.StatusCode, msg)
}

// IsNotFound reports whether err carries a 404 from the content service.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// errorBody is the service's error payload.
type errorBody struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       *bool  `json:"success"`
}
