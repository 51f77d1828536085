// Package detection finds repeated user workflows and turns them into
// automation suggestions.
package detection

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrInvalidAction is returned when an action is missing required fields
	ErrInvalidAction = errors.New("invalid action")
	// ErrPatternNotFound is returned when a pattern id is unknown to the detector
	ErrPatternNotFound = errors.New("pattern not found")
	// ErrNoPendingSuggestion is returned when resolving with nothing pending
	ErrNoPendingSuggestion = errors.New("no pending suggestion")
	// ErrInvalidStatus is returned for unknown or disallowed status transitions
	ErrInvalidStatus = errors.New("invalid pattern status")
)

// Detector is a named pattern detection strategy fed with user actions
type Detector interface {
	Name() string
	TrackAction(action models.UserAction) error
}

// PatternTracker is a Detector that keeps DetectedPatterns with a lifecycle
type PatternTracker interface {
	Detector
	Patterns() []models.DetectedPattern
	UpdatePatternStatus(patternID string, status models.PatternStatus) error
}

// SuggestionObserver receives newly raised suggestions
type SuggestionObserver interface {
	OnSuggestion(suggestion models.PatternSuggestion)
}

// SuggestionObserverFunc adapts a function to SuggestionObserver
type SuggestionObserverFunc func(suggestion models.PatternSuggestion)

// OnSuggestion calls f(suggestion)
func (f SuggestionObserverFunc) OnSuggestion(suggestion models.PatternSuggestion) {
	f(suggestion)
}

// PatternsObserver is notified with a snapshot whenever patterns change
type PatternsObserver interface {
	OnPatternsChanged(userID string, patterns []models.DetectedPattern)
}

// Config controls detector thresholds
type Config struct {
	MinSequenceLength int
	MinOccurrences    int
	Retention         time.Duration
}

// DefaultConfig returns the standard detector configuration
func DefaultConfig() Config {
	return Config{
		MinSequenceLength: 3,
		MinOccurrences:    3,
		Retention:         30 * 24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MinSequenceLength <= 0 {
		c.MinSequenceLength = def.MinSequenceLength
	}
	if c.MinOccurrences <= 0 {
		c.MinOccurrences = def.MinOccurrences
	}
	if c.Retention <= 0 {
		c.Retention = def.Retention
	}
	return c
}

// ValidateAction rejects actions that would hash into a wildcard bucket
func ValidateAction(action models.UserAction) error {
	if strings.TrimSpace(action.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidAction)
	}
	return validateKind(action)
}

func validateKind(action models.UserAction) error {
	if strings.TrimSpace(action.Tool) == "" {
		return fmt.Errorf("%w: tool is required", ErrInvalidAction)
	}
	if strings.TrimSpace(action.Type) == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidAction)
	}
	// ":" and "->" delimit sequence hashes and field keys
	if hasKeySeparator(action.Tool) {
		return fmt.Errorf("%w: tool must not contain \":\" or \"->\"", ErrInvalidAction)
	}
	if hasKeySeparator(action.Type) {
		return fmt.Errorf("%w: type must not contain \":\" or \"->\"", ErrInvalidAction)
	}
	return nil
}

func hasKeySeparator(s string) bool {
	return strings.Contains(s, ":") || strings.Contains(s, "->")
}

// NormalizeAction fills a generated id and the current timestamp when absent
func NormalizeAction(action models.UserAction, now time.Time) models.UserAction {
	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	if action.Timestamp == 0 {
		action.Timestamp = now.UnixMilli()
	}
	return action
}

func sequenceMessage(count int) string {
	return fmt.Sprintf("You've done this sequence %d times. Would you like to automate it?", count)
}

func clonePatterns(patterns []models.DetectedPattern) []models.DetectedPattern {
	out := make([]models.DetectedPattern, len(patterns))
	for i, p := range patterns {
		out[i] = p.Clone()
	}
	return out
}
