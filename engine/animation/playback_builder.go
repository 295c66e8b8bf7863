package animation

import (
	"time"

	"github.com/tanema/gween/ease"
)

// PlaybackBuilderOption is a functional option for configuring a Playback via NewPlayback.
type PlaybackBuilderOption func(*playback)

// WithInterval sets the time between consecutive keyframes. Defaults to DefaultInterval.
//
// Parameters:
//   - interval: the keyframe spacing (must be positive)
//
// Returns:
//   - PlaybackBuilderOption: option function to apply
func WithInterval(interval time.Duration) PlaybackBuilderOption {
	return func(p *playback) {
		p.interval = interval
	}
}

// WithEasing shapes the in-segment fraction with a tween function, called as
// fn(timeInSegment, 0, 1, interval) in seconds. The default is the plain linear ratio.
//
// Parameters:
//   - fn: an easing function such as ease.InOutQuad
//
// Returns:
//   - PlaybackBuilderOption: option function to apply
func WithEasing(fn ease.TweenFunc) PlaybackBuilderOption {
	return func(p *playback) {
		p.easing = fn
	}
}
