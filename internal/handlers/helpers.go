// Package handlers exposes the echo HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felipeah-dev/echo-app/internal/logger"
	"github.com/go-playground/validator/v10"
)

const maxErrorMessageLength = 200

// respondJSON sends data wrapped in the success envelope
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// respondJSONError sends the error envelope with a bounded message
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeJSON(w, status, map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   logger.SanitizeString(message, maxErrorMessageLength),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeJSON sends body as-is, for responses that carry their own envelope.
// The body is encoded before the status is written so an encoding failure
// still reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, body any) {
	buf, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"internal_error","message":"Failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(buf, '\n'))
}

// decodeJSON decodes the request body into dst and answers 400/413 itself
// when that fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}
	return true
}

// validationMessage reports the first failing field of a validator error
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return fmt.Sprintf("Validation failed: %s failed on '%s'", fe.Namespace(), fe.Tag())
	}
	return "Validation failed"
}

// badRequest answers 400 with err's message
func badRequest(w http.ResponseWriter, err error) {
	respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
}
