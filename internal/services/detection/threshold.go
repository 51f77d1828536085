package detection

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/felipeah-dev/echo-app/internal/models"
)

// ThresholdDetectorName identifies the large-deal strategy
const ThresholdDetectorName = "threshold"

const (
	thresholdHistory    = 50
	thresholdRun        = 3
	thresholdConfidence = 0.9
)

// ThresholdDetector watches for three consecutive large deals synced to the
// same target set. Each target combination alerts at most once for the
// lifetime of the detector.
type ThresholdDetector struct {
	mu      sync.Mutex
	actions []models.LegacyAction
	fired   map[string]struct{}
}

// NewThresholdDetector creates an empty detector
func NewThresholdDetector() *ThresholdDetector {
	return &ThresholdDetector{
		actions: make([]models.LegacyAction, 0, thresholdHistory),
		fired:   make(map[string]struct{}),
	}
}

// Name implements Detector
func (d *ThresholdDetector) Name() string { return ThresholdDetectorName }

// TrackAction records a UserAction using its decoded sync context.
// Anonymous actions are accepted.
func (d *ThresholdDetector) TrackAction(action models.UserAction) error {
	if err := validateKind(action); err != nil {
		return err
	}
	sc := action.SyncContext()
	d.RecordAction(models.LegacyAction{
		Source:    models.SyncSource(sc.Source),
		Targets:   sc.Targets,
		Amount:    sc.Amount,
		Timestamp: action.Time(),
	})
	return nil
}

// RecordAction appends to the bounded history, evicting the oldest entry
func (d *ThresholdDetector) RecordAction(action models.LegacyAction) {
	d.mu.Lock()
	defer d.mu.Unlock()

	action.Targets = append([]string(nil), action.Targets...)
	d.actions = append(d.actions, action)
	if len(d.actions) > thresholdHistory {
		d.actions = append(d.actions[:0], d.actions[len(d.actions)-thresholdHistory:]...)
	}
}

// DetectPattern returns an alert when the last three large deals share a
// target set that has not alerted before, otherwise nil.
func (d *ThresholdDetector) DetectPattern() *models.PatternAlert {
	d.mu.Lock()
	defer d.mu.Unlock()

	var big []models.LegacyAction
	for _, a := range d.actions {
		if a.Amount >= models.DefaultHighValueAmount {
			big = append(big, a)
		}
	}
	if len(big) < thresholdRun {
		return nil
	}

	last := big[len(big)-thresholdRun:]
	key := targetKey(last[0].Targets)
	for _, a := range last[1:] {
		if targetKey(a.Targets) != key {
			return nil
		}
	}

	id := "big-deal-" + key
	if _, ok := d.fired[id]; ok {
		return nil
	}
	d.fired[id] = struct{}{}

	targets := sortedUnique(last[0].Targets)
	return &models.PatternAlert{
		ID:    id,
		Title: "Pattern detected",
		Description: fmt.Sprintf(
			"You almost always sync deals ≥ $100K to %s. Do you want to automate this for future high-value deals?",
			strings.Join(targets, " + "),
		),
		Confidence: thresholdConfidence,
		SuggestedAutomation: models.SuggestedAutomation{
			MinAmount: models.DefaultHighValueAmount,
			Targets:   targets,
		},
	}
}

func targetKey(targets []string) string {
	return strings.Join(sortedUnique(targets), "+")
}

func sortedUnique(targets []string) []string {
	out := make([]string, 0, len(targets))
	seen := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
