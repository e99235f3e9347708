package backend

import (
	"context"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

// TokenKeys are the local-storage keys a bearer token may live under, in
// lookup order. Login writes to the first one.
var TokenKeys = []string{"token", "authToken", "accessToken", "adminToken", "ownerToken"}

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// KeyValueReader is the read side of session local storage.
type KeyValueReader interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
}

// SessionTokens reads the bearer token of the session found in ctx.
type SessionTokens struct {
	Storage KeyValueReader
}

func (s SessionTokens) Token(ctx context.Context) (string, error) {
	sid := middleware.GetSessionID(ctx)
	if sid == "" || s.Storage == nil {
		return "", nil
	}
	for _, key := range TokenKeys {
		v, ok, err := s.Storage.Get(ctx, sid, key)
		if err != nil {
			return "", err
		}
		if v = strings.TrimSpace(v); ok && v != "" {
			return v, nil
		}
	}
	return "", nil
}

// StaticToken always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }
