package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felipeah-dev/echo-app/internal/logger"
	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/felipeah-dev/echo-app/internal/request"
	"github.com/felipeah-dev/echo-app/internal/services/automation"
	"github.com/felipeah-dev/echo-app/internal/services/dealstats"
	"github.com/felipeah-dev/echo-app/internal/services/detection"
	"github.com/felipeah-dev/echo-app/internal/services/orchestration"
	"github.com/felipeah-dev/echo-app/internal/telemetry"
	"github.com/felipeah-dev/echo-app/internal/validation"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// TimeSavedPerTargetSec is the manual effort one synced target replaces
	TimeSavedPerTargetSec = 210
	// LargeDealAmount adds the VP notification line to the decision log
	LargeDealAmount = 50000

	largeDealLogLine = "Rule: Large deal (>$50k) - VP notified"
)

// Sync outcomes reported to the recorder
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeError   = "error"
)

// SyncRecorder receives per-sync measurements
type SyncRecorder interface {
	ObserveSync(source, outcome string, rulesApplied int, elapsed time.Duration)
	IntegrationResults(mode string, results map[string]models.IntegrationResult)
}

type nopSyncRecorder struct{}

func (nopSyncRecorder) ObserveSync(string, string, int, time.Duration)                  {}
func (nopSyncRecorder) IntegrationResults(string, map[string]models.IntegrationResult) {}

// SyncHandler fans a deal out to its targets
type SyncHandler struct {
	matcher      *automation.Matcher
	executor     orchestration.Executor
	executorMode string
	registry     *detection.Registry
	recorder     SyncRecorder
	ledger       *dealstats.Ledger
	demoUserID   string
	logger       *zap.Logger
}

// SyncOption configures a SyncHandler
type SyncOption func(*SyncHandler)

// WithSyncRecorder reports sync outcomes to rec
func WithSyncRecorder(rec SyncRecorder) SyncOption {
	return func(h *SyncHandler) {
		if rec != nil {
			h.recorder = rec
		}
	}
}

// WithDealLedger records every sync that reached a target in ledger
func WithDealLedger(ledger *dealstats.Ledger) SyncOption {
	return func(h *SyncHandler) { h.ledger = ledger }
}

// WithDemoUser attributes syncs without a userId to userID
func WithDemoUser(userID string) SyncOption {
	return func(h *SyncHandler) { h.demoUserID = userID }
}

// WithExecutorMode labels integration results with mode (direct or queue)
func WithExecutorMode(mode string) SyncOption {
	return func(h *SyncHandler) { h.executorMode = mode }
}

// NewSyncHandler creates a sync handler
func NewSyncHandler(matcher *automation.Matcher, executor orchestration.Executor, registry *detection.Registry, log *zap.Logger, opts ...SyncOption) *SyncHandler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &SyncHandler{
		matcher:      matcher,
		executor:     executor,
		executorMode: "direct",
		registry:     registry,
		recorder:     nopSyncRecorder{},
		logger:       log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the sync route on the /api/v1 router
func (h *SyncHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sync", h.Sync).Methods(http.MethodPost)
}

// Sync handles POST /api/v1/sync. It answers 200 when every target
// succeeded, 207 when some failed and 500 when the sync could not run.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.SyncRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationMessage(err))
		return
	}

	userID := request.ResolveUserID(r, req.UserID, h.demoUserID)
	ctx := request.WithUserID(r.Context(), userID)

	resp, err := h.run(ctx, userID, req)
	if err != nil {
		h.logger.Error("sync_failed",
			zap.String("source", string(req.Source)),
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.String("request_id", request.RequestIDFromContext(ctx)),
			zap.Error(err),
		)
		h.recorder.ObserveSync(string(req.Source), OutcomeError, 0, time.Since(start))
		writeJSON(w, http.StatusInternalServerError, fatalSyncResponse(err))
		return
	}

	status, outcome := http.StatusOK, OutcomeSuccess
	if len(resp.Failed) > 0 {
		status, outcome = http.StatusMultiStatus, OutcomePartial
	}
	h.recorder.ObserveSync(string(req.Source), outcome, len(resp.AppliedRules), time.Since(start))
	if h.ledger != nil {
		h.ledger.Record(req.Source, req.Data, resp.Synced, resp.TimeSavedSec)
	}

	h.logger.Info("sync_completed",
		zap.String("source", string(req.Source)),
		zap.String("user_id", logger.SanitizeUserID(userID)),
		zap.Strings("synced", resp.Synced),
		zap.Strings("failed", resp.Failed),
		zap.Int("applied_rules", len(resp.AppliedRules)),
		zap.Duration("duration", time.Since(start)),
	)
	writeJSON(w, status, resp)
}

func (h *SyncHandler) run(ctx context.Context, userID string, req models.SyncRequest) (models.SyncResponse, error) {
	ruleCtx, span := telemetry.StartSpan(ctx, "sync.apply_rules",
		attribute.Int("targets.requested", len(req.Targets)),
	)
	applied, err := h.matcher.ApplyRules(ruleCtx, userID, req.Data.Amount, req.Targets)
	span.SetAttributes(attribute.Int("rules.applied", len(applied.AppliedRules)))
	endSpan(span, err)
	if err != nil {
		return models.SyncResponse{}, err
	}
	targets := uniqueTargets(applied.Targets)

	execCtx, span := telemetry.StartSpan(ctx, "sync.execute",
		attribute.Int("targets", len(targets)),
		attribute.String("executor", h.executorMode),
	)
	results, err := h.executor.Execute(execCtx, targets, req.Data)
	endSpan(span, err)
	if err != nil {
		return models.SyncResponse{}, fmt.Errorf("execute: %w", err)
	}
	h.recorder.IntegrationResults(h.executorMode, results)

	resp := buildSyncResponse(targets, results, req.Data.Amount, applied.AppliedRules)
	resp.Alert = h.recordSync(userID, req, targets)
	return resp, nil
}

// recordSync feeds the completed sync to the detectors. Detection failures
// never fail the sync.
func (h *SyncHandler) recordSync(userID string, req models.SyncRequest, targets []string) *models.PatternAlert {
	if h.registry == nil {
		return nil
	}
	sc := models.SyncContext{
		Targets:   targets,
		Amount:    req.Data.Amount,
		HasAmount: true,
		Source:    string(req.Source),
	}
	alert, err := h.registry.RecordSync(models.UserAction{
		UserID:  userID,
		Tool:    models.ToolEcho,
		Type:    models.ActionSyncDeal,
		Context: sc.Map(),
	})
	if err != nil {
		level := zap.WarnLevel
		if errors.Is(err, detection.ErrInvalidAction) {
			level = zap.DebugLevel
		}
		h.logger.Log(level, "sync_detection_failed", zap.Error(err))
		return nil
	}
	return alert
}

// buildSyncResponse classifies results in target order and writes the decision log
func buildSyncResponse(targets []string, results map[string]models.IntegrationResult, amount float64, rules []models.AutomationRule) models.SyncResponse {
	resp := models.SyncResponse{
		Synced:       make([]string, 0, len(targets)),
		Failed:       make([]string, 0),
		DecisionLog:  make([]string, 0, len(targets)+len(rules)+1),
		AppliedRules: rules,
	}
	if resp.AppliedRules == nil {
		resp.AppliedRules = make([]models.AutomationRule, 0)
	}

	for _, target := range targets {
		result, ok := results[target]
		if !ok {
			result = models.IntegrationResult{Target: target, Error: "No result"}
		}
		if result.Success {
			resp.Synced = append(resp.Synced, target)
			resp.DecisionLog = append(resp.DecisionLog, fmt.Sprintf("%s: %s", target, orDefault(result.Message, "Success")))
		} else {
			resp.Failed = append(resp.Failed, target)
			resp.DecisionLog = append(resp.DecisionLog, fmt.Sprintf("%s: %s", target, orDefault(result.Error, "Unknown error")))
		}
	}

	if amount >= LargeDealAmount {
		resp.DecisionLog = append(resp.DecisionLog, largeDealLogLine)
	}
	for _, rule := range rules {
		resp.DecisionLog = append(resp.DecisionLog, fmt.Sprintf("Automation: %s rule (>= %.0f) added %v", rule.Type, rule.MinAmount, rule.Targets))
	}

	resp.TimeSavedSec = TimeSavedPerTargetSec * len(resp.Synced)
	resp.Success = len(resp.Failed) == 0
	return resp
}

func fatalSyncResponse(err error) models.SyncResponse {
	msg := logger.SanitizeString(err.Error(), maxErrorMessageLength)
	return models.SyncResponse{
		Success:      false,
		Synced:       make([]string, 0),
		Failed:       models.DefaultTargetNames(),
		DecisionLog:  []string{"Fatal error: " + msg},
		AppliedRules: make([]models.AutomationRule, 0),
		Error:        msg,
	}
}

func uniqueTargets(targets []string) []string {
	seen := make(map[string]struct{}, len(targets))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
