package detection

import (
	"time"

	"go.uber.org/zap"
)

type options struct {
	onSuggestion SuggestionObserver
	onChanged    PatternsObserver
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures a detector
type Option func(*options)

// WithSuggestionObserver sets the observer that receives new suggestions
func WithSuggestionObserver(o SuggestionObserver) Option {
	return func(opts *options) { opts.onSuggestion = o }
}

// WithPatternsObserver sets the observer notified after every change
func WithPatternsObserver(o PatternsObserver) Option {
	return func(opts *options) { opts.onChanged = o }
}

// WithClock overrides time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(opts *options) { opts.now = now }
}

// WithLogger sets the detector logger
func WithLogger(l *zap.Logger) Option {
	return func(opts *options) {
		if l != nil {
			opts.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
