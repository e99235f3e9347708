package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches an APIError whose status is 401 or 403.
	ErrUnauthorized = errors.New("backend rejected credentials")
	ErrNetwork      = errors.New("backend unreachable")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Service    string
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s %s: %d %s", e.Service, e.Method, e.Path, e.StatusCode, msg)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}
