package animation

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

// PlaybackBackendType identifies how a Playback maps time onto keyframes.
type PlaybackBackendType int

const (
	// BackendTypeContinuous loops over the whole track on a fixed keyframe interval, driven by
	// the time elapsed since the playback epoch.
	BackendTypeContinuous PlaybackBackendType = iota

	// BackendTypeStepped advances a frame counter by one each time the time since the last step
	// passes the interval, wrapping at the keyframe count.
	BackendTypeStepped
)

// DefaultInterval is the keyframe spacing used when WithInterval is not given.
const DefaultInterval = time.Second

// String returns the backend name.
func (b PlaybackBackendType) String() string {
	switch b {
	case BackendTypeContinuous:
		return "continuous"
	case BackendTypeStepped:
		return "stepped"
	default:
		return fmt.Sprintf("PlaybackBackendType(%d)", int(b))
	}
}

// Cursor locates a point in a track.
type Cursor struct {
	// Index is the keyframe the current segment starts at.
	Index int
	// Fraction is the position within the segment, in [0, 1].
	Fraction float32
	// Terminal is set when Index is the last keyframe and there is no segment to interpolate;
	// the last keyframe is held until the loop restarts.
	Terminal bool
	// Rewind is how far the owning clock's epoch must move forward. It is non-zero when the
	// loop restarted (continuous) or a step was taken (stepped).
	Rewind time.Duration
}

// playback is the implementation of the Playback interface.
type playback struct {
	backendType PlaybackBackendType
	backend     playbackBackend

	count    int
	interval time.Duration
	easing   ease.TweenFunc
}

// Playback maps elapsed time onto a keyframe Cursor. It never reads a clock: elapsed time is
// always an argument, which keeps sampling deterministic.
type Playback interface {
	// Advance computes the cursor for the given elapsed time. For continuous playback elapsed
	// is the time since the playback epoch; for stepped playback it is the time since the last
	// step. Callers restart their clock by the returned Cursor.Rewind.
	//
	// Parameters:
	//   - elapsed: the elapsed time
	//
	// Returns:
	//   - Cursor: the keyframe cursor
	Advance(elapsed time.Duration) Cursor

	// Reset returns stepped playback to keyframe 0. It is a no-op for continuous playback.
	Reset()

	// BackendType returns the playback mode.
	//
	// Returns:
	//   - PlaybackBackendType: BackendTypeContinuous or BackendTypeStepped
	BackendType() PlaybackBackendType

	// Interval returns the keyframe spacing.
	//
	// Returns:
	//   - time.Duration: the time between keyframes
	Interval() time.Duration

	// KeyframeCount returns the number of keyframes in the driven track.
	//
	// Returns:
	//   - int: the keyframe count
	KeyframeCount() int

	// Duration returns the length of one loop: keyframe count times the interval.
	//
	// Returns:
	//   - time.Duration: the loop length
	Duration() time.Duration
}

var _ Playback = &playback{}

// playbackBackend implements one time-to-cursor policy.
type playbackBackend interface {
	advance(p *playback, elapsed time.Duration) Cursor
	reset()
}

// NewPlayback creates a Playback for a track of keyframeCount keyframes.
//
// Parameters:
//   - backendType: BackendTypeContinuous or BackendTypeStepped
//   - keyframeCount: the number of keyframes in the track (at least 1)
//   - options: functional options such as WithInterval and WithEasing
//
// Returns:
//   - Playback: the configured playback
//   - error: an ErrInvalidTrack wrap for an empty track, or an error for a bad interval or backend
func NewPlayback(backendType PlaybackBackendType, keyframeCount int, options ...PlaybackBuilderOption) (Playback, error) {
	if keyframeCount < 1 {
		return nil, fmt.Errorf("%w: playback needs at least one keyframe, got %d", ErrInvalidTrack, keyframeCount)
	}

	p := &playback{
		backendType: backendType,
		count:       keyframeCount,
		interval:    DefaultInterval,
	}
	for _, option := range options {
		option(p)
	}
	if p.interval <= 0 {
		return nil, fmt.Errorf("playback interval must be positive, got %s", p.interval)
	}

	switch backendType {
	case BackendTypeContinuous:
		p.backend = &continuousPlayback{}
	case BackendTypeStepped:
		p.backend = &steppedPlayback{}
	default:
		return nil, fmt.Errorf("unknown playback backend %s", backendType)
	}
	return p, nil
}

func (p *playback) Advance(elapsed time.Duration) Cursor {
	if elapsed < 0 {
		elapsed = 0
	}
	return p.backend.advance(p, elapsed)
}

func (p *playback) Reset() {
	p.backend.reset()
}

func (p *playback) BackendType() PlaybackBackendType {
	return p.backendType
}

func (p *playback) Interval() time.Duration {
	return p.interval
}

func (p *playback) KeyframeCount() int {
	return p.count
}

func (p *playback) Duration() time.Duration {
	return time.Duration(p.count) * p.interval
}

// fraction maps the time spent in the current segment onto [0, 1], through the easing
// function when one is set.
func (p *playback) fraction(inSegment time.Duration) float32 {
	var f float32
	if p.easing != nil {
		f = p.easing(float32(inSegment.Seconds()), 0, 1, float32(p.interval.Seconds()))
	} else {
		f = float32(float64(inSegment) / float64(p.interval))
	}
	return mgl32.Clamp(f, 0, 1)
}

// continuousPlayback loops the track every count*interval. The last keyframe has no
// successor to blend toward and is held until the loop restarts.
type continuousPlayback struct{}

func (continuousPlayback) advance(p *playback, elapsed time.Duration) Cursor {
	wrapped := elapsed % p.Duration()
	c := Cursor{
		Index:    int(wrapped / p.interval),
		Fraction: p.fraction(wrapped % p.interval),
		Rewind:   elapsed - wrapped,
	}
	if c.Index >= p.count-1 {
		c.Index = p.count - 1
		c.Terminal = true
	}
	return c
}

func (continuousPlayback) reset() {}

// steppedPlayback keeps its own frame counter. The counter only moves when the caller reports
// that more than one interval has passed since the previous step.
type steppedPlayback struct {
	frame int
}

func (s *steppedPlayback) advance(p *playback, sinceStep time.Duration) Cursor {
	if sinceStep > p.interval {
		s.frame = (s.frame + 1) % p.count
		return Cursor{Index: s.frame, Rewind: sinceStep}
	}
	return Cursor{Index: s.frame, Fraction: p.fraction(sinceStep)}
}

func (s *steppedPlayback) reset() {
	s.frame = 0
}
