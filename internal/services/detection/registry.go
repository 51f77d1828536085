package detection

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felipeah-dev/echo-app/internal/logger"
	"github.com/felipeah-dev/echo-app/internal/models"
	"go.uber.org/zap"
)

// Recorder receives detection events, typically for metrics
type Recorder interface {
	SuggestionRaised(detector string, surfaced bool)
	AlertRaised()
}

type nopRecorder struct{}

func (nopRecorder) SuggestionRaised(string, bool) {}
func (nopRecorder) AlertRaised()                  {}

// Registry owns the detectors and suggestion gate of every user
type Registry struct {
	mu    sync.Mutex
	users map[string]*userState

	cfg          Config
	fieldEnabled bool
	recorder     Recorder
	logger       *zap.Logger
	now          func() time.Time
}

type userState struct {
	// trackMu serialises TrackAction cycles and suggestion resolution
	trackMu   sync.Mutex
	trackers  []PatternTracker
	threshold *ThresholdDetector
	gate      *SuggestionGate
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithFieldDetector enables or disables the per-action-field strategy
func WithFieldDetector(enabled bool) RegistryOption {
	return func(r *Registry) { r.fieldEnabled = enabled }
}

// WithRecorder sets the event recorder
func WithRecorder(rec Recorder) RegistryOption {
	return func(r *Registry) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithRegistryLogger sets the registry logger
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRegistryClock overrides time.Now for every detector created
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry
func NewRegistry(cfg Config, opts ...RegistryOption) *Registry {
	r := &Registry{
		users:        make(map[string]*userState),
		cfg:          cfg.withDefaults(),
		fieldEnabled: true,
		recorder:     nopRecorder{},
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) user(userID string) *userState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.users[userID]; ok {
		return st
	}

	st := &userState{
		threshold: NewThresholdDetector(),
		gate:      NewSuggestionGate(),
	}
	seq := NewSequenceDetector(r.cfg, WithLogger(r.logger), WithClock(r.now))
	seq.onSuggestion = &gateObserver{registry: r, gate: st.gate, tracker: seq}
	st.trackers = append(st.trackers, seq)

	if r.fieldEnabled {
		field := NewFieldDetector(r.cfg, WithLogger(r.logger), WithClock(r.now))
		field.onSuggestion = &gateObserver{registry: r, gate: st.gate, tracker: field}
		st.trackers = append(st.trackers, field)
	}

	r.users[userID] = st
	return st
}

func (r *Registry) lookup(userID string) (*userState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.users[userID]
	return st, ok
}

// TrackAction validates action, fills defaults and feeds every pattern tracker
func (r *Registry) TrackAction(action models.UserAction) (models.UserAction, error) {
	if err := ValidateAction(action); err != nil {
		return action, err
	}
	action = NormalizeAction(action, r.now())

	st := r.user(action.UserID)
	st.trackMu.Lock()
	defer st.trackMu.Unlock()

	for _, t := range st.trackers {
		if err := t.TrackAction(action); err != nil {
			return action, fmt.Errorf("%s detector: %w", t.Name(), err)
		}
	}
	return action, nil
}

// RecordSync feeds a completed sync into the threshold detector and, for
// identified users, into the pattern trackers. It returns the large-deal
// alert when one fires.
func (r *Registry) RecordSync(action models.UserAction) (*models.PatternAlert, error) {
	if err := validateKind(action); err != nil {
		return nil, err
	}
	action = NormalizeAction(action, r.now())

	if action.UserID != "" {
		if _, err := r.TrackAction(action); err != nil {
			return nil, err
		}
	}

	st := r.user(action.UserID)
	if err := st.threshold.TrackAction(action); err != nil {
		return nil, fmt.Errorf("%s detector: %w", ThresholdDetectorName, err)
	}
	alert := st.threshold.DetectPattern()
	if alert != nil {
		r.recorder.AlertRaised()
		r.logger.Info("large_deal_alert_raised",
			zap.String("alert_id", alert.ID),
			zap.String("user_id", logger.SanitizeUserID(action.UserID)),
		)
	}
	return alert, nil
}

// CurrentSuggestion returns the user's pending suggestion
func (r *Registry) CurrentSuggestion(userID string) (models.PatternSuggestion, bool) {
	st, ok := r.lookup(userID)
	if !ok {
		return models.PatternSuggestion{}, false
	}
	return st.gate.Current()
}

// ResolveSuggestion applies status to the pending suggestion's pattern and
// then clears the gate. The returned suggestion carries the new status.
func (r *Registry) ResolveSuggestion(userID string, status models.PatternStatus) (models.PatternSuggestion, error) {
	if !status.IsResolution() {
		return models.PatternSuggestion{}, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	st, ok := r.lookup(userID)
	if !ok {
		return models.PatternSuggestion{}, ErrNoPendingSuggestion
	}
	st.trackMu.Lock()
	defer st.trackMu.Unlock()

	s, ok := st.gate.Current()
	if !ok {
		return models.PatternSuggestion{}, ErrNoPendingSuggestion
	}
	// the suggestion stays pending when the transition fails
	if err := updateStatus(st.trackers, s.Pattern.ID, status); err != nil {
		return models.PatternSuggestion{}, err
	}
	st.gate.ClearIf(s.Pattern.ID)
	s.Pattern.Status = status

	r.logger.Info("suggestion_resolved",
		zap.String("pattern_id", logger.SanitizeString(s.Pattern.ID, 0)),
		zap.String("user_id", logger.SanitizeUserID(userID)),
		zap.String("status", string(status)),
	)
	return s, nil
}

// Patterns returns every pattern known for userID, never nil
func (r *Registry) Patterns(userID string) []models.DetectedPattern {
	out := make([]models.DetectedPattern, 0)
	st, ok := r.lookup(userID)
	if !ok {
		return out
	}
	for _, t := range st.trackers {
		out = append(out, t.Patterns()...)
	}
	return out
}

// UpdatePatternStatus transitions one of the user's patterns. Resolving the
// pattern behind the pending suggestion also clears the gate.
func (r *Registry) UpdatePatternStatus(userID, patternID string, status models.PatternStatus) error {
	st, ok := r.lookup(userID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPatternNotFound, patternID)
	}
	if err := updateStatus(st.trackers, patternID, status); err != nil {
		return err
	}
	if status.IsResolution() {
		st.gate.ClearIf(patternID)
	}
	return nil
}

func updateStatus(trackers []PatternTracker, patternID string, status models.PatternStatus) error {
	for _, t := range trackers {
		err := t.UpdatePatternStatus(patternID, status)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrPatternNotFound) {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrPatternNotFound, patternID)
}

// gateObserver routes a detector's suggestions through the user's gate and
// marks surfaced patterns as suggested.
type gateObserver struct {
	registry *Registry
	gate     *SuggestionGate
	tracker  PatternTracker
}

func (o *gateObserver) OnSuggestion(s models.PatternSuggestion) {
	s.Pattern.Status = models.PatternStatusSuggested
	surfaced := o.gate.Offer(s)
	o.registry.recorder.SuggestionRaised(o.tracker.Name(), surfaced)

	if !surfaced {
		o.registry.logger.Debug("suggestion_dropped",
			zap.String("detector", o.tracker.Name()),
			zap.String("pattern_id", logger.SanitizeString(s.Pattern.ID, 0)),
		)
		return
	}

	if err := o.tracker.UpdatePatternStatus(s.Pattern.ID, models.PatternStatusSuggested); err != nil {
		o.registry.logger.Warn("pattern_mark_suggested_failed",
			zap.String("pattern_id", logger.SanitizeString(s.Pattern.ID, 0)),
			zap.Error(err),
		)
	}
	o.registry.logger.Info("suggestion_raised",
		zap.String("detector", o.tracker.Name()),
		zap.String("pattern_id", logger.SanitizeString(s.Pattern.ID, 0)),
		zap.String("user_id", logger.SanitizeUserID(s.Pattern.UserID)),
	)
}
