package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"
	HeaderCausationID   = "X-Causation-Id"
)

func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(HeaderCorrelationID)
		if cid == "" {
			cid = uuid.NewString()
		}

		// expose to client + propagate to the backend
		w.Header().Set(HeaderCorrelationID, cid)

		ctx := WithCorrelationID(r.Context(), cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, ctxCorrelationID, cid)
}

func GetCorrelationID(ctx context.Context) string {
	if v := ctx.Value(ctxCorrelationID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
