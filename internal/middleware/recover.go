package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
						zap.String("correlation_id", GetCorrelationID(r.Context())),
						zap.Stack("stack"))
					WriteError(w, r, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
