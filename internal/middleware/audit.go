package middleware

import (
	"net/http"

	logpkg "github.com/felipeah-dev/echo-app/internal/logger"
	"github.com/felipeah-dev/echo-app/internal/request"
	"go.uber.org/zap"
)

// Audit logs rejected requests (rate limited, oversized, wrong media type)
// with the client address, for abuse monitoring.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			var event string
			switch wrapped.statusCode {
			case http.StatusTooManyRequests:
				event = "rate_limit_violation"
			case http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
				event = "request_rejected"
			default:
				return
			}
			logger.Warn(event,
				zap.Int("status_code", wrapped.statusCode),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), 64)),
			)
		})
	}
}
