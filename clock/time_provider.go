// Package clock supplies the time sources used by tick-driven audio components
package clock

import "time"

// Provider reports the current time
// Completion watches, snapshot fades and music loops read time only through it
type Provider interface {
	Now() time.Time
}

// TimeProvider provides the real system time with monotonic clock readings
type TimeProvider struct{}

// NewTimeProvider creates a new monotonic time provider
func NewTimeProvider() *TimeProvider {
	return &TimeProvider{}
}

// Now returns the current time with monotonic clock reading
func (p *TimeProvider) Now() time.Time {
	return time.Now()
}
