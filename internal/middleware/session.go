package middleware

import (
	"context"
	"net/http"
	"strings"
)

const (
	HeaderSessionID = "X-Session-Id"

	maxSessionIDLen = 128
)

type ctxKey string

const (
	ctxCorrelationID ctxKey = "correlation_id"
	ctxSessionID     ctxKey = "session_id"
)

// RequireSession enforces X-Session-Id and stores it in the request context.
// The browser generates the id once and keeps it for the life of the tab.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimSpace(r.Header.Get(HeaderSessionID))
		if sid == "" {
			WriteError(w, r, http.StatusBadRequest, "missing required header: "+HeaderSessionID)
			return
		}
		if len(sid) > maxSessionIDLen {
			WriteError(w, r, http.StatusBadRequest, "session id too long")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sid)))
	})
}

func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxSessionID, sid)
}

func GetSessionID(ctx context.Context) string {
	if v := ctx.Value(ctxSessionID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
