package clock

import (
	"testing"
	"time"
)

func TestClockElapsedAndRewind(t *testing.T) {
	src := NewManual(time.Unix(100, 0))
	c := NewClock(WithNow(src.Now))

	if got := c.Elapsed(); got != 0 {
		t.Fatalf("Elapsed at start = %v, want 0", got)
	}
	src.Advance(4200 * time.Millisecond)
	if got := c.Elapsed(); got != 4200*time.Millisecond {
		t.Fatalf("Elapsed = %v, want 4.2s", got)
	}

	c.Rewind(4 * time.Second)
	if got := c.Elapsed(); got != 200*time.Millisecond {
		t.Fatalf("Elapsed after Rewind = %v, want 200ms", got)
	}

	c.Rewind(-time.Second)
	if got := c.Elapsed(); got != 200*time.Millisecond {
		t.Fatalf("negative Rewind should be ignored, Elapsed = %v", got)
	}

	c.Restart()
	if got := c.Elapsed(); got != 0 {
		t.Fatalf("Elapsed after Restart = %v, want 0", got)
	}
}

func TestClockNeverNegative(t *testing.T) {
	src := NewManual(time.Unix(100, 0))
	c := NewClock(WithNow(src.Now))
	c.Rewind(time.Second)
	if got := c.Elapsed(); got != 0 {
		t.Fatalf("Elapsed before the epoch = %v, want 0", got)
	}
}

func TestWithNowNilKeepsWallClock(t *testing.T) {
	c := NewClock(WithNow(nil))
	if c.Elapsed() < 0 {
		t.Fatalf("wall clock went backwards")
	}
}
