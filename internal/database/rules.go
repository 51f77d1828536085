package database

import (
	"context"
	"fmt"
	"time"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/felipeah-dev/echo-app/internal/services/automation"
	"github.com/lib/pq"
)

// RuleRepository stores automation rules in Postgres
type RuleRepository struct {
	db  *DB
	now func() time.Time
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *DB) *RuleRepository {
	return &RuleRepository{db: db, now: time.Now}
}

// AddRule validates and inserts a new active rule
func (r *RuleRepository) AddRule(ctx context.Context, in automation.NewRule) (models.AutomationRule, error) {
	if err := in.Validate(); err != nil {
		return models.AutomationRule{}, err
	}

	rule := models.AutomationRule{
		ID:        automation.NewRuleID(),
		UserID:    in.UserID,
		Type:      in.Type,
		MinAmount: in.MinAmount,
		Targets:   append([]string(nil), in.Targets...),
		CreatedAt: r.now().UTC(),
		Active:    true,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO automation_rules (id, user_id, type, min_amount, targets, created_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rule.ID, rule.UserID, string(rule.Type), rule.MinAmount, pq.Array(rule.Targets), rule.CreatedAt, rule.Active)
	if err != nil {
		return models.AutomationRule{}, fmt.Errorf("insert automation rule: %w", err)
	}
	return rule, nil
}

// Rules returns the user's rules in creation order
func (r *RuleRepository) Rules(ctx context.Context, userID string) ([]models.AutomationRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, min_amount, targets, created_at, active
		FROM automation_rules
		WHERE user_id = $1
		ORDER BY seq ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query automation rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	rules := []models.AutomationRule{}
	for rows.Next() {
		var (
			rule     models.AutomationRule
			ruleType string
			targets  []string
		)
		if err := rows.Scan(&rule.ID, &rule.UserID, &ruleType, &rule.MinAmount, pq.Array(&targets), &rule.CreatedAt, &rule.Active); err != nil {
			return nil, fmt.Errorf("scan automation rule: %w", err)
		}
		rule.Type = models.AutomationType(ruleType)
		if targets == nil {
			targets = []string{}
		}
		rule.Targets = targets
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate automation rules: %w", err)
	}
	return rules, nil
}

// Ping checks the database connection
func (r *RuleRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
