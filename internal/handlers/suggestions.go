package handlers

import (
	"errors"
	"net/http"

	"github.com/felipeah-dev/echo-app/internal/logger"
	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/felipeah-dev/echo-app/internal/request"
	"github.com/felipeah-dev/echo-app/internal/services/automation"
	"github.com/felipeah-dev/echo-app/internal/services/detection"
	"github.com/felipeah-dev/echo-app/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ResolveSuggestionRequest answers the pending suggestion
type ResolveSuggestionRequest struct {
	UserID string               `json:"userId" validate:"max=200"`
	Status models.PatternStatus `json:"status" validate:"required,pattern_status"`
}

// ResolveSuggestionResponse is the resolved suggestion and, on accept, the created rule
type ResolveSuggestionResponse struct {
	Suggestion models.PatternSuggestion `json:"suggestion"`
	Rule       *models.AutomationRule   `json:"rule,omitempty"`
}

// PatternHandler serves suggestions and detected patterns
type PatternHandler struct {
	registry   *detection.Registry
	store      automation.RuleStore
	demoUserID string
	logger     *zap.Logger
}

// NewPatternHandler creates a pattern handler. Accepted suggestions become
// rules in store.
func NewPatternHandler(registry *detection.Registry, store automation.RuleStore, demoUserID string, log *zap.Logger) *PatternHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PatternHandler{registry: registry, store: store, demoUserID: demoUserID, logger: log}
}

// RegisterRoutes registers suggestion and pattern routes on the /api/v1 router
func (h *PatternHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/suggestions/current", h.CurrentSuggestion).Methods(http.MethodGet)
	r.HandleFunc("/suggestions/current/resolve", h.ResolveSuggestion).Methods(http.MethodPost)
	r.HandleFunc("/patterns", h.ListPatterns).Methods(http.MethodGet)
	r.HandleFunc("/patterns/{id}", h.UpdatePattern).Methods(http.MethodPatch)
}

// queryUser resolves the user for GET requests, answering 400 when there is none
func (h *PatternHandler) queryUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := request.ResolveUserID(r, r.URL.Query().Get("userId"), h.demoUserID)
	if userID == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "userId is required")
		return "", false
	}
	return userID, true
}

// CurrentSuggestion handles GET /api/v1/suggestions/current. data is null
// when nothing is pending.
func (h *PatternHandler) CurrentSuggestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.queryUser(w, r)
	if !ok {
		return
	}
	s, ok := h.registry.CurrentSuggestion(userID)
	if !ok {
		respondJSON(w, http.StatusOK, nil)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

// ResolveSuggestion handles POST /api/v1/suggestions/current/resolve
func (h *PatternHandler) ResolveSuggestion(w http.ResponseWriter, r *http.Request) {
	var req ResolveSuggestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationMessage(err))
		return
	}
	userID := request.ResolveUserID(r, req.UserID, h.demoUserID)
	if userID == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "userId is required")
		return
	}

	s, err := h.registry.ResolveSuggestion(userID, req.Status)
	if err != nil {
		h.respondDetectionError(w, err)
		return
	}

	resp := ResolveSuggestionResponse{Suggestion: s}
	if req.Status == models.PatternStatusAccepted {
		rule, err := h.store.AddRule(r.Context(), automation.RuleFromSuggestion(s))
		if err != nil {
			h.logger.Error("failed_to_create_rule_from_suggestion",
				zap.String("pattern_id", logger.SanitizeString(s.Pattern.ID, 0)),
				zap.String("user_id", logger.SanitizeUserID(userID)),
				zap.Error(err),
			)
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create automation rule")
			return
		}
		resp.Rule = &rule
	}

	respondJSON(w, http.StatusOK, resp)
}

// ListPatterns handles GET /api/v1/patterns
func (h *PatternHandler) ListPatterns(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.queryUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.registry.Patterns(userID))
}

// UpdatePatternRequest moves a pattern to a new status
type UpdatePatternRequest struct {
	UserID string               `json:"userId" validate:"max=200"`
	Status models.PatternStatus `json:"status" validate:"required,pattern_status"`
}

// UpdatePattern handles PATCH /api/v1/patterns/{id}
func (h *PatternHandler) UpdatePattern(w http.ResponseWriter, r *http.Request) {
	patternID := mux.Vars(r)["id"]

	var req UpdatePatternRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationMessage(err))
		return
	}
	userID := request.ResolveUserID(r, req.UserID, h.demoUserID)
	if userID == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "userId is required")
		return
	}

	if err := h.registry.UpdatePatternStatus(userID, patternID, req.Status); err != nil {
		h.respondDetectionError(w, err)
		return
	}

	for _, p := range h.registry.Patterns(userID) {
		if p.ID == patternID {
			respondJSON(w, http.StatusOK, p)
			return
		}
	}
	respondJSONError(w, http.StatusNotFound, "Not Found", "Pattern not found")
}

func (h *PatternHandler) respondDetectionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, detection.ErrPatternNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Pattern not found")
	case errors.Is(err, detection.ErrNoPendingSuggestion):
		respondJSONError(w, http.StatusNotFound, "Not Found", "No pending suggestion")
	case errors.Is(err, detection.ErrInvalidStatus):
		badRequest(w, err)
	default:
		h.logger.Error("pattern_update_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update pattern")
	}
}
