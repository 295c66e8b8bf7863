// Package clock provides the per-object elapsed-time source that drives animation playback.
package clock

import (
	"sync"
	"time"
)

// clock is the implementation of the Clock interface.
type clock struct {
	mu    sync.Mutex
	now   func() time.Time
	epoch time.Time
}

// Clock measures time since an epoch. Each animated object owns one, so restarting one object's
// loop never disturbs another's.
type Clock interface {
	// Elapsed returns the time since the epoch.
	//
	// Returns:
	//   - time.Duration: the elapsed time, never negative
	Elapsed() time.Duration

	// Restart moves the epoch to now.
	Restart()

	// Rewind moves the epoch forward by d, keeping any time past d. Looping playback uses it to
	// restart without dropping the remainder of the frame.
	//
	// Parameters:
	//   - d: how far to move the epoch
	Rewind(d time.Duration)
}

var _ Clock = &clock{}

// NewClock creates a Clock whose epoch is the current time.
//
// Parameters:
//   - options: functional options such as WithNow
//
// Returns:
//   - Clock: the clock
func NewClock(options ...ClockBuilderOption) Clock {
	c := &clock{now: time.Now}
	for _, option := range options {
		option(c)
	}
	c.epoch = c.now()
	return c
}

func (c *clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return max(c.now().Sub(c.epoch), 0)
}

func (c *clock) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch = c.now()
}

func (c *clock) Rewind(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch = c.epoch.Add(d)
}

// Manual is a hand-advanced time source for simulated playback and tests.
// Pass its Now method to WithNow.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a Manual source starting at start.
//
// Parameters:
//   - start: the initial time
//
// Returns:
//   - *Manual: the time source
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current simulated time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves simulated time forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
