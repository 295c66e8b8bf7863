package clock

import "time"

// ClockBuilderOption is a functional option for configuring a Clock during construction.
type ClockBuilderOption func(*clock)

// WithNow is an option builder that replaces the wall-clock time source.
//
// Parameters:
//   - now: the function returning the current time
//
// Returns:
//   - ClockBuilderOption: a function that applies the time source option to a clock
func WithNow(now func() time.Time) ClockBuilderOption {
	return func(c *clock) {
		if now != nil {
			c.now = now
		}
	}
}
