// Package alerting reports invariant violations to an error-tracking
// backend before the process exits, so a crash in the matching engine is
// diagnosable after the fact.
package alerting

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Config configures a Reporter. An empty DSN yields a disabled Reporter.
type Config struct {
	DSN          string
	FlushTimeout time.Duration
}

// Reporter wraps sentry-go. A Reporter created with an empty DSN is a
// no-op: CaptureInvariantViolation never blocks the caller and never
// itself fails, but isn't required for the engine to terminate correctly.
type Reporter struct {
	enabled      bool
	flushTimeout time.Duration
}

// New initializes the Sentry SDK from cfg.
func New(cfg Config) (*Reporter, error) {
	if cfg.DSN == "" {
		return &Reporter{enabled: false}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.DSN}); err != nil {
		return nil, err
	}
	flushTimeout := cfg.FlushTimeout
	if flushTimeout <= 0 {
		flushTimeout = 2 * time.Second
	}
	return &Reporter{enabled: true, flushTimeout: flushTimeout}, nil
}

// CaptureInvariantViolation sends err and fields as a Sentry event and
// blocks until it is flushed (or the timeout elapses) so the report has a
// chance to leave the process before a panic or os.Exit tears it down.
func (r *Reporter) CaptureInvariantViolation(err error, fields map[string]any) {
	if r == nil || !r.enabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range fields {
			scope.SetExtra(k, v)
		}
		scope.SetLevel(sentry.LevelFatal)
		sentry.CaptureException(err)
	})
	sentry.Flush(r.flushTimeout)
}
