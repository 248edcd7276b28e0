package service

import (
	"log/slog"
	"time"

	"github.com/phrazzld/taskboard-api/internal/domain"
)

// Option customizes a service.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock replaces time.Now. Tests use it to pin "today".
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the service logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(component string, opts []Option) options {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With("component", component)
	return o
}

// utcNow returns the current time in UTC.
func (o options) utcNow() time.Time {
	return o.now().UTC()
}

// today returns the current UTC calendar date.
func (o options) today() domain.Date {
	return domain.DateOf(o.utcNow())
}
