package httpapi

import (
	"context"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/backend"
)

const serviceName = "storefront"

type HealthHandler struct {
	// Check asks the backend for its health. Nil skips the check.
	Check func(ctx context.Context) backend.HealthResult
}

func (h *HealthHandler) Storefront(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

func (h *HealthHandler) Backend(w http.ResponseWriter, r *http.Request) {
	if h.Check == nil {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": serviceName})
		return
	}

	res := h.Check(r.Context())
	status, code := "ok", http.StatusOK
	if !res.OK {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"service": serviceName,
		"backend": res,
	})
}
