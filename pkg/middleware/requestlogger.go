package middleware

import (
	"log/slog"
	"net/http"

	"github.com/piyush182004/Fynd/pkg/httputil"
	"github.com/piyush182004/Fynd/pkg/logger"
)

// RequestLogger puts a logger carrying the request's correlation, client and
// trace fields into the context, for handlers to fetch with
// logger.FromContext. It belongs after RequestLogging and Tracing in the
// chain, which supply those fields.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if logger.ClientIPFromContext(ctx) == "" {
				ctx = logger.WithClientIP(ctx, httputil.ClientIP(r))
			}
			scoped := logger.WithContext(ctx, base)
			next.ServeHTTP(w, r.WithContext(logger.NewContext(ctx, scoped)))
		})
	}
}
