package middleware

import (
	"net/http"
	"time"
)

const (
	// DefaultRequestTimeout is the default request timeout
	DefaultRequestTimeout = 30 * time.Second
)

// Timeout bounds handler run time. The handler's context is cancelled at the
// deadline and the client receives a 503 JSON body.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout,
			`{"success":false,"error":"Service Unavailable","message":"Request timed out"}`)
	}
}
