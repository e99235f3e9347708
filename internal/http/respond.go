package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/backend"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, raw json.RawMessage) {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidItem):
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrItemNotInCart):
		middleware.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrEmptyCart):
		middleware.WriteError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrPersist):
		middleware.WriteError(w, r, http.StatusInternalServerError, "failed to save cart")
	default:
		middleware.WriteError(w, r, http.StatusInternalServerError, "cart operation failed")
	}
}

// writeBackendError passes 401 and 403 through so the views can send the user
// to login. Every other backend failure is a bad gateway.
func writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrOrderIDRequired):
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr) && errors.Is(err, backend.ErrUnauthorized):
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		middleware.WriteError(w, r, apiErr.StatusCode, msg)
	case errors.As(err, &apiErr):
		middleware.WriteError(w, r, http.StatusBadGateway,
			fmt.Sprintf("backend returned %d: %s", apiErr.StatusCode, apiErr.Message))
	default:
		middleware.WriteError(w, r, http.StatusBadGateway, "backend request failed: "+err.Error())
	}
}
