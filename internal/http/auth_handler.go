package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/backend"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

type Authenticator interface {
	Login(ctx context.Context, creds backend.Credentials) (backend.LoginResult, error)
}

// TokenStorage is the write side of session local storage.
type TokenStorage interface {
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
}

type AuthHandler struct {
	auth    Authenticator
	storage TokenStorage
	logger  *zap.Logger
}

func NewAuthHandler(auth Authenticator, storage TokenStorage, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, storage: storage, logger: logger}
}

type loginResponse struct {
	Role string          `json:"role,omitempty"`
	User json.RawMessage `json:"user,omitempty"`
}

// Login exchanges credentials for a token and keeps it in the session. The
// token itself never goes back to the browser.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds backend.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}

	sid := middleware.GetSessionID(r.Context())
	if err := h.storage.Set(r.Context(), sid, backend.TokenKeys[0], res.Token); err != nil {
		h.logger.Error("store session token", zap.String("session_id", sid), zap.Error(err))
		middleware.WriteError(w, r, http.StatusInternalServerError, "failed to store session token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Role: res.Role, User: res.User})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sid := middleware.GetSessionID(r.Context())
	for _, key := range backend.TokenKeys {
		if err := h.storage.Delete(r.Context(), sid, key); err != nil {
			h.logger.Error("delete session token", zap.String("session_id", sid), zap.String("key", key), zap.Error(err))
			middleware.WriteError(w, r, http.StatusInternalServerError, "failed to clear session token")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
