package models

import "time"

// AutomationType is the closed set of automation rule kinds
type AutomationType string

const (
	AutomationHighValueDeal AutomationType = "high-value-deal"
)

// Defaults applied when a rule is created from an accepted suggestion
const (
	DefaultHighValueAmount = 100000
)

// AutomationRule adds sync targets to deals at or above MinAmount
type AutomationRule struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Type      AutomationType `json:"type"`
	MinAmount float64        `json:"minAmount"`
	Targets   []string       `json:"targets"`
	CreatedAt time.Time      `json:"createdAt"`
	Active    bool           `json:"active"`
}

// Matches reports whether the rule fires for amount
func (r AutomationRule) Matches(amount float64) bool {
	return r.Active && r.Type == AutomationHighValueDeal && amount >= r.MinAmount
}

// ApplyRulesResult is the outcome of matching rules against a sync
type ApplyRulesResult struct {
	Targets      []string         `json:"targets"`
	AppliedRules []AutomationRule `json:"appliedRules"`
}
