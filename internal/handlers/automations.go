package handlers

import (
	"errors"
	"net/http"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/felipeah-dev/echo-app/internal/request"
	"github.com/felipeah-dev/echo-app/internal/services/automation"
	"github.com/felipeah-dev/echo-app/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CreateAutomationRequest creates a high-value-deal rule
type CreateAutomationRequest struct {
	UserID    string                `json:"userId" validate:"max=200"`
	MinAmount *float64              `json:"minAmount" validate:"required,gte=0"`
	Targets   []string              `json:"targets" validate:"required,min=1,dive,sync_target"`
	Type      models.AutomationType `json:"type,omitempty" validate:"omitempty,rule_type"`
}

// AutomationHandler manages automation rules
type AutomationHandler struct {
	store      automation.RuleStore
	demoUserID string
	logger     *zap.Logger
}

// NewAutomationHandler creates an automation handler
func NewAutomationHandler(store automation.RuleStore, demoUserID string, log *zap.Logger) *AutomationHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AutomationHandler{store: store, demoUserID: demoUserID, logger: log}
}

// RegisterRoutes registers automation routes on the /api/v1 router
func (h *AutomationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/automations", h.ListAutomations).Methods(http.MethodGet)
	r.HandleFunc("/automations", h.CreateAutomation).Methods(http.MethodPost)
}

// CreateAutomation handles POST /api/v1/automations
func (h *AutomationHandler) CreateAutomation(w http.ResponseWriter, r *http.Request) {
	var req CreateAutomationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationMessage(err))
		return
	}

	rule, err := h.store.AddRule(r.Context(), automation.NewRule{
		UserID:    request.ResolveUserID(r, req.UserID, h.demoUserID),
		Type:      req.Type,
		MinAmount: *req.MinAmount,
		Targets:   req.Targets,
	})
	if err != nil {
		if errors.Is(err, automation.ErrInvalidRule) {
			badRequest(w, err)
			return
		}
		h.logger.Error("failed_to_create_rule", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create automation rule")
		return
	}

	respondJSON(w, http.StatusCreated, rule)
}

// ListAutomations handles GET /api/v1/automations
func (h *AutomationHandler) ListAutomations(w http.ResponseWriter, r *http.Request) {
	userID := request.ResolveUserID(r, r.URL.Query().Get("userId"), h.demoUserID)
	if userID == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "userId is required")
		return
	}

	rules, err := h.store.Rules(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed_to_list_rules", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list automation rules")
		return
	}
	respondJSON(w, http.StatusOK, rules)
}
