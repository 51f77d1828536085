package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/felipeah-dev/echo-app/internal/validation"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		data   any
		check  func(*testing.T, any)
	}{
		{
			name:   "object",
			status: http.StatusOK,
			data:   map[string]string{"message": "hello"},
			check: func(t *testing.T, data any) {
				m, ok := data.(map[string]any)
				if !ok || m["message"] != "hello" {
					t.Errorf("Expected message 'hello', got %v", data)
				}
			},
		},
		{
			name:   "nil data",
			status: http.StatusCreated,
			data:   nil,
			check: func(t *testing.T, data any) {
				if data != nil {
					t.Errorf("Expected data to be nil, got %v", data)
				}
			},
		},
		{
			name:   "array data",
			status: http.StatusOK,
			data:   []string{"a", "b", "c"},
			check: func(t *testing.T, data any) {
				arr, ok := data.([]any)
				if !ok || len(arr) != 3 {
					t.Errorf("Expected array of 3, got %v", data)
				}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSON(w, tt.status, tt.data)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}

			var body map[string]any
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if success, ok := body["success"].(bool); !ok || !success {
				t.Error("Expected success to be true")
			}
			ts, ok := body["timestamp"].(string)
			if !ok {
				t.Fatal("Expected timestamp to be present")
			}
			if _, err := time.Parse(time.RFC3339, ts); err != nil {
				t.Errorf("Timestamp '%s' is not valid RFC3339: %v", ts, err)
			}
			tt.check(t, body["data"])
		})
	}
}

func TestRespondJSON_EncodingFailure(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSON(w, http.StatusOK, map[string]float64{"minAmount": math.Inf(1)})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Expected a JSON error body: %v", err)
	}
	if body["success"] != false || body["error"] != "internal_error" {
		t.Errorf("Unexpected error envelope: %v", body)
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSONError(w, http.StatusBadRequest, "Bad Request", "line one\nline two "+strings.Repeat("x", 300))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if success, ok := body["success"].(bool); !ok || success {
		t.Error("Expected success to be false")
	}
	if body["error"] != "Bad Request" {
		t.Errorf("Expected error 'Bad Request', got '%v'", body["error"])
	}
	msg, _ := body["message"].(string)
	if strings.Contains(msg, "\n") {
		t.Error("Expected control characters to be stripped")
	}
	if !strings.HasSuffix(msg, "...") || len([]rune(msg)) > maxErrorMessageLength+3 {
		t.Errorf("Expected truncated message, got %d runes", len([]rune(msg)))
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		limit  int64
		ok     bool
		status int
	}{
		{"valid", `{"userId":"u1"}`, 0, true, http.StatusOK},
		{"malformed", `{"userId":`, 0, false, http.StatusBadRequest},
		{"too large", `{"userId":"` + strings.Repeat("a", 64) + `"}`, 16, false, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.limit > 0 {
				req.Body = http.MaxBytesReader(w, req.Body, tt.limit)
			}

			var dst struct {
				UserID string `json:"userId"`
			}
			if got := decodeJSON(w, req, &dst); got != tt.ok {
				t.Fatalf("decodeJSON() = %v, want %v", got, tt.ok)
			}
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestValidationMessage(t *testing.T) {
	t.Parallel()

	type payload struct {
		Status string `json:"status" validate:"required,pattern_status"`
	}
	err := validation.Validate.Struct(payload{Status: "maybe"})
	if err == nil {
		t.Fatal("Expected validation error")
	}
	got := validationMessage(err)
	if !strings.Contains(got, "Status") || !strings.Contains(got, "'pattern_status'") {
		t.Errorf("unexpected message %q", got)
	}
}

// newTestRequest builds a JSON request for handler tests
func newTestRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data any) map[string]any {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(raw.Data) == 0 {
		raw.Data = json.RawMessage("null")
	}
	if data != nil {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("Failed to decode data: %v", err)
		}
	}
	return map[string]any{"success": raw.Success, "error": raw.Error, "message": raw.Message, "data": string(raw.Data)}
}
