package detection

import (
	"sync"

	"github.com/felipeah-dev/echo-app/internal/models"
)

// SuggestionGate holds at most one unresolved suggestion. Candidates that
// arrive while one is pending are dropped, not queued.
type SuggestionGate struct {
	mu      sync.Mutex
	current *models.PatternSuggestion
}

// NewSuggestionGate creates an empty gate
func NewSuggestionGate() *SuggestionGate {
	return &SuggestionGate{}
}

// Offer surfaces s if nothing is pending and reports whether it did
func (g *SuggestionGate) Offer(s models.PatternSuggestion) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != nil {
		return false
	}
	s.Pattern = s.Pattern.Clone()
	g.current = &s
	return true
}

// OnSuggestion implements SuggestionObserver
func (g *SuggestionGate) OnSuggestion(s models.PatternSuggestion) {
	g.Offer(s)
}

// Current returns the pending suggestion, if any
func (g *SuggestionGate) Current() (models.PatternSuggestion, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return models.PatternSuggestion{}, false
	}
	s := *g.current
	s.Pattern = s.Pattern.Clone()
	return s, true
}

// Clear removes and returns the pending suggestion
func (g *SuggestionGate) Clear() (models.PatternSuggestion, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return models.PatternSuggestion{}, false
	}
	s := *g.current
	g.current = nil
	return s, true
}

// ClearIf removes the pending suggestion only when it is for patternID
func (g *SuggestionGate) ClearIf(patternID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil || g.current.Pattern.ID != patternID {
		return false
	}
	g.current = nil
	return true
}

// Pending reports whether a suggestion is waiting for the user
func (g *SuggestionGate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current != nil
}
