package models

import "time"

// LegacyAction is the flat record the threshold detector watches
type LegacyAction struct {
	Source    SyncSource `json:"source"`
	Targets   []string   `json:"targets"`
	Amount    float64    `json:"amount"`
	Timestamp time.Time  `json:"timestamp"`
}

// SuggestedAutomation is the rule a PatternAlert proposes
type SuggestedAutomation struct {
	MinAmount float64  `json:"minAmount,omitempty"`
	Targets   []string `json:"targets"`
}

// PatternAlert is raised once per target combination of large deals
type PatternAlert struct {
	ID                  string              `json:"id"`
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	Confidence          float64             `json:"confidence"`
	SuggestedAutomation SuggestedAutomation `json:"suggestedAutomation"`
}
