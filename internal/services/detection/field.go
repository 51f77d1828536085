package detection

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/felipeah-dev/echo-app/internal/models"
	"go.uber.org/zap"
)

// FieldDetectorName identifies the per-action-field strategy
const FieldDetectorName = "field"

const (
	highValueBucket   = "high"
	normalValueBucket = "normal"
	representativeMax = 3
)

// FieldKey groups single actions by tool, type, source, targets and amount bucket
func FieldKey(action models.UserAction) string {
	sc := action.SyncContext()

	source := sc.Source
	if source == "" {
		source = "unknown"
	}
	targets := "any"
	if sc.Targets != nil {
		targets = strings.Join(sc.Targets, ",")
	}
	bucket := normalValueBucket
	if sc.HasAmount && sc.Amount >= models.DefaultHighValueAmount {
		bucket = highValueBucket
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s", action.Tool, action.Type, source, targets, bucket)
}

// FieldDetector counts identical single actions. Unlike SequenceDetector a
// pattern exists from its first occurrence, and every qualifying action
// re-raises a suggestion until the pattern is accepted or rejected.
type FieldDetector struct {
	options

	mu       sync.Mutex
	cfg      Config
	patterns []models.DetectedPattern
	byKey    map[string]int
}

// NewFieldDetector creates a detector; only cfg.MinOccurrences is used
func NewFieldDetector(cfg Config, opts ...Option) *FieldDetector {
	return &FieldDetector{
		options: newOptions(opts),
		cfg:     cfg.withDefaults(),
		byKey:   make(map[string]int),
	}
}

// Name implements Detector
func (d *FieldDetector) Name() string { return FieldDetectorName }

// TrackAction counts action under its field key and raises a suggestion
// when the count reaches MinOccurrences.
func (d *FieldDetector) TrackAction(action models.UserAction) error {
	if err := ValidateAction(action); err != nil {
		return err
	}

	d.mu.Lock()
	now := d.now()
	action = NormalizeAction(action, now)
	key := FieldKey(action)
	nowMs := now.UnixMilli()

	var p *models.DetectedPattern
	if idx, ok := d.byKey[key]; ok {
		p = &d.patterns[idx]
		p.Count++
		p.LastSeenAt = nowMs
		actions := append(append([]models.UserAction(nil), p.Representative.Actions...), action)
		if len(actions) > representativeMax {
			actions = actions[len(actions)-representativeMax:]
		}
		p.Representative = models.ActionSequence{Actions: actions, Hash: key}
		p.Confidence = fieldConfidence(p.Count, d.cfg.MinOccurrences)
	} else {
		d.byKey[key] = len(d.patterns)
		d.patterns = append(d.patterns, models.DetectedPattern{
			ID:     key,
			UserID: action.UserID,
			TeamID: action.TeamID,
			Representative: models.ActionSequence{
				Actions: []models.UserAction{action},
				Hash:    key,
			},
			Count:       1,
			FirstSeenAt: nowMs,
			LastSeenAt:  nowMs,
			Status:      models.PatternStatusDetected,
			Confidence:  fieldConfidence(1, d.cfg.MinOccurrences),
		})
		p = &d.patterns[len(d.patterns)-1]
	}

	var candidate *models.DetectedPattern
	if p.Count >= d.cfg.MinOccurrences && !p.Status.IsTerminal() {
		c := p.Clone()
		candidate = &c
	}
	snapshot := clonePatterns(d.patterns)
	d.mu.Unlock()

	if candidate != nil {
		d.logger.Debug("pattern_suggestion_candidate",
			zap.String("detector", FieldDetectorName),
			zap.String("pattern_id", candidate.ID),
			zap.Int("count", candidate.Count),
		)
		if d.onSuggestion != nil {
			d.onSuggestion.OnSuggestion(models.PatternSuggestion{
				Pattern: *candidate,
				Message: "We detected a repeating workflow pattern.",
				Actions: []models.SuggestionAction{
					{Label: "Yes, automate this", Type: models.SuggestionAccept},
					{Label: "No, thanks", Type: models.SuggestionReject},
					{Label: "Remind me later", Type: models.SuggestionSnooze},
				},
			})
		}
	}
	if d.onChanged != nil {
		d.onChanged.OnPatternsChanged(action.UserID, snapshot)
	}
	return nil
}

// UpdatePatternStatus transitions a pattern by id
func (d *FieldDetector) UpdatePatternStatus(patternID string, status models.PatternStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	d.mu.Lock()
	idx, ok := d.byKey[patternID]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPatternNotFound, patternID)
	}
	d.patterns[idx].Status = status
	userID := d.patterns[idx].UserID
	snapshot := clonePatterns(d.patterns)
	d.mu.Unlock()

	if d.onChanged != nil {
		d.onChanged.OnPatternsChanged(userID, snapshot)
	}
	return nil
}

// Patterns returns a copy of every tracked pattern
func (d *FieldDetector) Patterns() []models.DetectedPattern {
	d.mu.Lock()
	defer d.mu.Unlock()
	return clonePatterns(d.patterns)
}

func fieldConfidence(count, minOccurrences int) float64 {
	return math.Min(1, float64(count)/float64(minOccurrences))
}
