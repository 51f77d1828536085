package models

import "time"

// SyncTarget is an external destination a deal can be synced to
type SyncTarget string

const (
	TargetChat        SyncTarget = "chat"
	TargetSpreadsheet SyncTarget = "spreadsheet"
	TargetEmail       SyncTarget = "email"
	TargetCalendar    SyncTarget = "calendar"
)

// AllTargets lists every target in canonical order
var AllTargets = []SyncTarget{TargetChat, TargetSpreadsheet, TargetEmail, TargetCalendar}

// DefaultTargetNames returns AllTargets as plain strings
func DefaultTargetNames() []string {
	out := make([]string, len(AllTargets))
	for i, t := range AllTargets {
		out[i] = string(t)
	}
	return out
}

// IsValid reports whether t is a known target
func (t SyncTarget) IsValid() bool {
	for _, known := range AllTargets {
		if t == known {
			return true
		}
	}
	return false
}

// SyncSource is where a deal update originated
type SyncSource string

const (
	SourceCRM    SyncSource = "crm"
	SourceSheet  SyncSource = "sheet"
	SourceManual SyncSource = "manual"
)

// DealStatus is the optional state of a deal
type DealStatus string

const (
	DealStatusOpen    DealStatus = "open"
	DealStatusClosed  DealStatus = "closed"
	DealStatusPending DealStatus = "pending"
)

// Deal is the payload fanned out to every target
type Deal struct {
	DealID        string     `json:"dealId" validate:"required,max=200"`
	Customer      string     `json:"customer" validate:"required,max=500"`
	Amount        float64    `json:"amount" validate:"gt=0"`
	Status        DealStatus `json:"status,omitempty" validate:"omitempty,deal_status"`
	CustomerEmail string     `json:"customerEmail,omitempty" validate:"omitempty,email"`
	AssignedTo    string     `json:"assignedTo,omitempty" validate:"max=200"`
	Notes         string     `json:"notes,omitempty" validate:"max=5000"`
}

// SyncRequest is the inbound request to sync a deal
type SyncRequest struct {
	Source  SyncSource `json:"source" validate:"required,sync_source"`
	Data    Deal       `json:"data"`
	Targets []string   `json:"targets" validate:"dive,sync_target"`
	UserID  string     `json:"userId,omitempty" validate:"max=200"`
}

// IntegrationResult is the uniform outcome of one outbound call
type IntegrationResult struct {
	Success   bool      `json:"success"`
	Target    string    `json:"target"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncResponse summarises a completed fan-out
type SyncResponse struct {
	Success      bool             `json:"success"`
	Synced       []string         `json:"synced"`
	Failed       []string         `json:"failed"`
	TimeSavedSec int              `json:"timeSavedSec"`
	DecisionLog  []string         `json:"decisionLog"`
	AppliedRules []AutomationRule `json:"appliedRules"`
	Alert        *PatternAlert    `json:"alert,omitempty"`
	Error        string           `json:"error,omitempty"`
}
