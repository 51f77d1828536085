package middleware

import (
	"net/http"
	"strings"

	"github.com/felipeah-dev/echo-app/internal/request"
	"github.com/rs/cors"
)

// DefaultFrontendOrigin is always allowed
const DefaultFrontendOrigin = "http://localhost:3000"

// CORS allows the comma-separated origins in frontendURL plus the local dev frontend
func CORS(frontendURL string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   AllowedOrigins(frontendURL),
		AllowCredentials: true,
		MaxAge:           86400,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", request.UserIDHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
	})
	return c.Handler
}

// AllowedOrigins splits, trims and deduplicates raw, always including DefaultFrontendOrigin
func AllowedOrigins(raw string) []string {
	out := []string{DefaultFrontendOrigin}
	seen := map[string]bool{DefaultFrontendOrigin: true}
	for _, p := range strings.Split(raw, ",") {
		s := strings.TrimRight(strings.TrimSpace(p), "/")
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
