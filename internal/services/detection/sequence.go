package detection

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/felipeah-dev/echo-app/internal/logger"
	"github.com/felipeah-dev/echo-app/internal/models"
	"go.uber.org/zap"
)

// SequenceDetectorName identifies the sliding-window strategy
const SequenceDetectorName = "sequence"

// SequenceDetector finds contiguous runs of actions that repeat within the
// retention window. A pattern is created the first time its hash reaches
// MinOccurrences and raises exactly one suggestion at that moment.
type SequenceDetector struct {
	options

	mu       sync.Mutex
	cfg      Config
	actions  []models.UserAction
	patterns []models.DetectedPattern
	byHash   map[string]int
}

// NewSequenceDetector creates a detector with cfg (zero fields use defaults)
func NewSequenceDetector(cfg Config, opts ...Option) *SequenceDetector {
	return &SequenceDetector{
		options: newOptions(opts),
		cfg:     cfg.withDefaults(),
		byHash:  make(map[string]int),
	}
}

// Name implements Detector
func (d *SequenceDetector) Name() string { return SequenceDetectorName }

// TrackAction appends action, prunes expired actions and re-runs detection.
// The lock is held for the whole cycle so concurrent calls serialise; the
// suggestion and change observers run after it is released.
func (d *SequenceDetector) TrackAction(action models.UserAction) error {
	if err := ValidateAction(action); err != nil {
		return err
	}

	d.mu.Lock()
	now := d.now()
	action = NormalizeAction(action, now)
	d.actions = append(d.actions, action)
	d.prune(now)
	created := d.detect(now)
	userID := action.UserID
	snapshot := clonePatterns(d.patterns)
	d.mu.Unlock()

	for _, p := range created {
		d.logger.Info("pattern_detected",
			zap.String("detector", SequenceDetectorName),
			zap.String("pattern_id", logger.SanitizeString(p.ID, 0)),
			zap.String("user_id", logger.SanitizeUserID(p.UserID)),
			zap.Int("count", p.Count),
		)
		if d.onSuggestion != nil {
			d.onSuggestion.OnSuggestion(models.PatternSuggestion{
				Pattern: p,
				Message: sequenceMessage(p.Count),
				Actions: models.DefaultSuggestionActions(),
			})
		}
	}
	if d.onChanged != nil {
		d.onChanged.OnPatternsChanged(userID, snapshot)
	}
	return nil
}

// prune drops actions older than the retention window. Caller holds d.mu.
func (d *SequenceDetector) prune(now time.Time) {
	cutoff := now.Add(-d.cfg.Retention).UnixMilli()
	kept := d.actions[:0]
	for _, a := range d.actions {
		if a.Timestamp >= cutoff {
			kept = append(kept, a)
		}
	}
	// clear the tail so pruned actions can be collected
	for i := len(kept); i < len(d.actions); i++ {
		d.actions[i] = models.UserAction{}
	}
	d.actions = kept
}

type windowGroup struct {
	count  int
	latest int
}

// detect groups every contiguous window by hash and returns the patterns
// created in this pass. Caller holds d.mu.
func (d *SequenceDetector) detect(now time.Time) []models.DetectedPattern {
	n := d.cfg.MinSequenceLength
	if len(d.actions) < n {
		return nil
	}

	groups := make(map[string]*windowGroup)
	order := make([]string, 0)
	for i := 0; i+n <= len(d.actions); i++ {
		hash := models.SequenceHash(d.actions[i : i+n])
		g, ok := groups[hash]
		if !ok {
			g = &windowGroup{}
			groups[hash] = g
			order = append(order, hash)
		}
		g.count++
		g.latest = i
	}

	nowMs := now.UnixMilli()
	var created []models.DetectedPattern
	for _, hash := range order {
		g := groups[hash]
		if g.count < d.cfg.MinOccurrences {
			continue
		}
		window := d.actions[g.latest : g.latest+n]

		if idx, ok := d.byHash[hash]; ok {
			p := &d.patterns[idx]
			p.Count = g.count
			p.LastSeenAt = nowMs
			p.Confidence = sequenceConfidence(g.count)
			p.Representative = models.NewActionSequence(window)
			continue
		}

		p := models.DetectedPattern{
			ID:             fmt.Sprintf("pattern-%s-%d", hash, nowMs),
			UserID:         window[0].UserID,
			TeamID:         window[0].TeamID,
			Representative: models.NewActionSequence(window),
			Count:          g.count,
			FirstSeenAt:    nowMs,
			LastSeenAt:     nowMs,
			Status:         models.PatternStatusDetected,
			Confidence:     sequenceConfidence(g.count),
		}
		d.byHash[hash] = len(d.patterns)
		d.patterns = append(d.patterns, p)
		created = append(created, p.Clone())
	}
	return created
}

// UpdatePatternStatus transitions a pattern and notifies the change observer
func (d *SequenceDetector) UpdatePatternStatus(patternID string, status models.PatternStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	d.mu.Lock()
	var (
		found  bool
		userID string
	)
	for i := range d.patterns {
		if d.patterns[i].ID == patternID {
			d.patterns[i].Status = status
			userID = d.patterns[i].UserID
			found = true
			break
		}
	}
	snapshot := clonePatterns(d.patterns)
	d.mu.Unlock()

	if !found {
		return fmt.Errorf("%w: %s", ErrPatternNotFound, patternID)
	}
	if d.onChanged != nil {
		d.onChanged.OnPatternsChanged(userID, snapshot)
	}
	return nil
}

// Patterns returns a copy of every pattern found so far
func (d *SequenceDetector) Patterns() []models.DetectedPattern {
	d.mu.Lock()
	defer d.mu.Unlock()
	return clonePatterns(d.patterns)
}

// Pattern returns a copy of a single pattern by id
func (d *SequenceDetector) Pattern(patternID string) (models.DetectedPattern, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.patterns {
		if p.ID == patternID {
			return p.Clone(), true
		}
	}
	return models.DetectedPattern{}, false
}

// ActionCount returns the number of actions inside the retention window
func (d *SequenceDetector) ActionCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.actions)
}

func sequenceConfidence(count int) float64 {
	return math.Min(0.95, 0.6+0.05*float64(count))
}
