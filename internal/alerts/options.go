// Package alerts holds the alert rule store, the notification history store
// and the matcher that joins them against incoming jobs.
//
// Stores report misses as booleans rather than errors, and storage failures
// degrade to "absent" on read and to a logged no-op on write.
package alerts

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// timeLayout renders timestamps the way the history has always stored them:
// UTC, millisecond precision, trailing Z. Values sort correctly as strings.
const timeLayout = "2006-01-02T15:04:05.000Z"

// ErrRuleNotFound is what transports report when a store call misses.
var ErrRuleNotFound = errors.New("alert rule not found")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Option customizes a store or matcher.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
	log   *zap.Logger
}

func buildOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: uuid.NewString,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func (o options) timestamp() string {
	return o.now().UTC().Format(timeLayout)
}
