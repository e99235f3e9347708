package backend

import (
	"context"
	"errors"
	"net/http"
	"time"
)

type HealthResult struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	StatusCode int    `json:"statusCode,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CheckHealth requests path on the backend with a short timeout.
func CheckHealth(ctx context.Context, c *Client, path string) HealthResult {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := c.Do(ctx, http.MethodGet, path, nil, nil)
	if err == nil {
		return HealthResult{Name: c.Name, OK: true, StatusCode: http.StatusOK}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return HealthResult{Name: c.Name, OK: false, StatusCode: apiErr.StatusCode, Error: apiErr.Message}
	}
	return HealthResult{Name: c.Name, OK: false, Error: err.Error()}
}
