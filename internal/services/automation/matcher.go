package automation

import (
	"context"
	"fmt"

	"github.com/felipeah-dev/echo-app/internal/logger"
	"github.com/felipeah-dev/echo-app/internal/models"
	"go.uber.org/zap"
)

// Matcher expands a sync's targets with the user's matching rules
type Matcher struct {
	store  RuleStore
	logger *zap.Logger
}

// NewMatcher creates a matcher reading rules from store
func NewMatcher(store RuleStore, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{store: store, logger: log}
}

// ApplyRules unions the targets of every active high-value rule whose
// threshold amount meets. The base targets come first, followed by rule
// targets in first-appearance order. Rules are evaluated in creation order,
// so identical inputs always produce identical output. Without a userID the
// input targets are returned unchanged.
func (m *Matcher) ApplyRules(ctx context.Context, userID string, amount float64, currentTargets []string) (models.ApplyRulesResult, error) {
	targets := append(make([]string, 0, len(currentTargets)), currentTargets...)
	result := models.ApplyRulesResult{
		Targets:      targets,
		AppliedRules: make([]models.AutomationRule, 0),
	}
	if userID == "" {
		return result, nil
	}

	rules, err := m.store.Rules(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to load rules: %w", err)
	}

	seen := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		seen[t] = struct{}{}
	}

	for _, rule := range rules {
		if !rule.Matches(amount) {
			continue
		}
		for _, t := range rule.Targets {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			result.Targets = append(result.Targets, t)
		}
		result.AppliedRules = append(result.AppliedRules, rule)
	}

	if len(result.AppliedRules) > 0 {
		m.logger.Info("automation_rules_applied",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.Int("applied_rules", len(result.AppliedRules)),
			zap.Strings("targets", result.Targets),
		)
	}
	return result, nil
}
