package models

// PatternStatus is the lifecycle state of a detected pattern
type PatternStatus string

const (
	PatternStatusDetected  PatternStatus = "detected"
	PatternStatusSuggested PatternStatus = "suggested"
	PatternStatusAccepted  PatternStatus = "accepted"
	PatternStatusRejected  PatternStatus = "rejected"
	PatternStatusSnoozed   PatternStatus = "snoozed"
)

// IsValid reports whether s is a known status
func (s PatternStatus) IsValid() bool {
	switch s {
	case PatternStatusDetected, PatternStatusSuggested, PatternStatusAccepted,
		PatternStatusRejected, PatternStatusSnoozed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the pattern must never be suggested again
func (s PatternStatus) IsTerminal() bool {
	return s == PatternStatusAccepted || s == PatternStatusRejected
}

// IsResolution reports whether s can resolve a pending suggestion
func (s PatternStatus) IsResolution() bool {
	return s == PatternStatusAccepted || s == PatternStatusRejected || s == PatternStatusSnoozed
}

// DetectedPattern is a repeated sequence the user has performed
type DetectedPattern struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	TeamID         string         `json:"teamId,omitempty"`
	Representative ActionSequence `json:"representative"`
	Count          int            `json:"count"`
	FirstSeenAt    int64          `json:"firstSeenAt"`
	LastSeenAt     int64          `json:"lastSeenAt"`
	Status         PatternStatus  `json:"status"`
	Confidence     float64        `json:"confidence"`
}

// Clone returns a deep copy so callers cannot mutate detector state
func (p DetectedPattern) Clone() DetectedPattern {
	p.Representative = NewActionSequence(p.Representative.Actions)
	return p
}

// SuggestionActionType is the user's possible response to a suggestion
type SuggestionActionType string

const (
	SuggestionAccept SuggestionActionType = "accept"
	SuggestionReject SuggestionActionType = "reject"
	SuggestionSnooze SuggestionActionType = "snooze"
)

// SuggestionAction is a labelled button offered with a suggestion
type SuggestionAction struct {
	Label string               `json:"label"`
	Type  SuggestionActionType `json:"type"`
}

// PatternSuggestion asks the user whether to automate a pattern
type PatternSuggestion struct {
	Pattern DetectedPattern    `json:"pattern"`
	Message string             `json:"message"`
	Actions []SuggestionAction `json:"actions"`
}

// DefaultSuggestionActions returns the standard accept/snooze/reject choices
func DefaultSuggestionActions() []SuggestionAction {
	return []SuggestionAction{
		{Label: "Automate", Type: SuggestionAccept},
		{Label: "Not now", Type: SuggestionSnooze},
		{Label: "Never", Type: SuggestionReject},
	}
}

// StatusForSuggestionAction maps a suggestion response to a pattern status
func StatusForSuggestionAction(t SuggestionActionType) (PatternStatus, bool) {
	switch t {
	case SuggestionAccept:
		return PatternStatusAccepted, true
	case SuggestionReject:
		return PatternStatusRejected, true
	case SuggestionSnooze:
		return PatternStatusSnoozed, true
	default:
		return "", false
	}
}
