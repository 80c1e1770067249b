package commands

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
)

// ErrWindowInPast is returned when a candidate window starts further in the
// past than the configured grace period allows.
var ErrWindowInPast = errors.New("window starts in the past")

// DefaultGracePeriod is how far into the past a window may start. A small
// slack keeps "book right now" requests from failing on clock skew.
const DefaultGracePeriod = 5 * time.Minute

// WindowPolicy validates candidate windows before any conflict check runs.
type WindowPolicy struct {
	GracePeriod time.Duration
	now         func() time.Time
}

// NewWindowPolicy creates a policy with the given grace period; zero or
// negative falls back to DefaultGracePeriod.
func NewWindowPolicy(gracePeriod time.Duration) WindowPolicy {
	if gracePeriod <= 0 {
		gracePeriod = DefaultGracePeriod
	}
	return WindowPolicy{GracePeriod: gracePeriod, now: time.Now}
}

// Validate rejects windows that start beyond the grace period in the past.
// Ordering within the window itself is enforced by domain.NewTimeRange.
func (p WindowPolicy) Validate(window domain.TimeRange) error {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	if window.Start.Before(now().Add(-p.GracePeriod)) {
		return ErrWindowInPast
	}
	return nil
}
