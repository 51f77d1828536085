package handlers

import (
	"errors"
	"net/http"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/felipeah-dev/echo-app/internal/request"
	"github.com/felipeah-dev/echo-app/internal/services/detection"
	"github.com/felipeah-dev/echo-app/internal/validation"
	"github.com/gorilla/mux"
)

// TrackActionRequest is a user action reported by a client
type TrackActionRequest struct {
	ID        string         `json:"id,omitempty" validate:"max=200"`
	Timestamp int64          `json:"timestamp,omitempty" validate:"gte=0"`
	UserID    string         `json:"userId" validate:"max=200"`
	TeamID    string         `json:"teamId,omitempty" validate:"max=200"`
	Tool      string         `json:"tool" validate:"required,max=100"`
	Type      string         `json:"type" validate:"required,max=100"`
	Context   map[string]any `json:"context,omitempty"`
}

// ActionHandler records user actions into the pattern detectors
type ActionHandler struct {
	registry   *detection.Registry
	demoUserID string
}

// NewActionHandler creates an action handler; demoUserID is used when a
// request names no user.
func NewActionHandler(registry *detection.Registry, demoUserID string) *ActionHandler {
	return &ActionHandler{registry: registry, demoUserID: demoUserID}
}

// RegisterRoutes registers action routes on the /api/v1 router
func (h *ActionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/actions", h.TrackAction).Methods(http.MethodPost)
}

// TrackAction handles POST /api/v1/actions and returns the stored action
// with its generated id and timestamp.
func (h *ActionHandler) TrackAction(w http.ResponseWriter, r *http.Request) {
	var req TrackActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationMessage(err))
		return
	}

	action, err := h.registry.TrackAction(models.UserAction{
		ID:        req.ID,
		Timestamp: req.Timestamp,
		UserID:    request.ResolveUserID(r, req.UserID, h.demoUserID),
		TeamID:    req.TeamID,
		Tool:      validation.SanitizeText(req.Tool),
		Type:      validation.SanitizeText(req.Type),
		Context:   req.Context,
	})
	if err != nil {
		if errors.Is(err, detection.ErrInvalidAction) {
			badRequest(w, err)
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to record action")
		return
	}

	respondJSON(w, http.StatusCreated, action)
}
