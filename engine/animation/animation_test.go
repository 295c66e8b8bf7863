package animation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

const eps = 1e-4

func xRotation(angle float64) mgl32.Quat {
	return mgl32.QuatRotate(float32(angle), mgl32.Vec3{1, 0, 0})
}

// fourKeyframes mirrors the cylinder rig: joint 1 tilts k*30 degrees about X in keyframe k.
func fourKeyframes(t *testing.T) (skeleton.Hierarchy, []skeleton.Pose) {
	t.Helper()
	h, err := skeleton.NewHierarchy(-1, 0, 1)
	if err != nil {
		t.Fatalf("NewHierarchy: %v", err)
	}
	var keys []skeleton.Pose
	for k := 0; k < 4; k++ {
		keys = append(keys, skeleton.Pose{
			skeleton.IdentityJoint(),
			skeleton.NewJoint(mgl32.Vec3{0, 0, 25}, xRotation(float64(k)*math.Pi/6)),
			skeleton.NewJoint(mgl32.Vec3{0, 0, 25}, mgl32.QuatIdent()),
		})
	}
	return h, keys
}

func TestTrackSampleAtZeroIsExact(t *testing.T) {
	h, keys := fourKeyframes(t)
	track, err := NewTrack("bend", h, keys...)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	for i := range keys {
		got, err := track.Sample(i, 0)
		if err != nil {
			t.Fatalf("Sample(%d, 0): %v", i, err)
		}
		for j := range got {
			if got[j] != keys[i][j] {
				t.Fatalf("Sample(%d, 0) joint %d = %+v, want %+v", i, j, got[j], keys[i][j])
			}
		}
	}
}

func TestTrackSampleConvergesToNext(t *testing.T) {
	h, keys := fourKeyframes(t)
	track, err := NewTrack("bend", h, keys...)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	got, err := track.Sample(1, 0.99999)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if !got.ApproxEqual(keys[2], 1e-3) {
		t.Fatalf("Sample(1, ~1) = %+v, want keyframe 2 %+v", got, keys[2])
	}

	mid, err := track.Sample(0, 0.5)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	want := skeleton.NewJoint(mgl32.Vec3{0, 0, 25}, xRotation(math.Pi/12))
	if !mid[1].ApproxEqual(want, eps) {
		t.Fatalf("Sample(0, 0.5) joint 1 = %+v, want 15 degree tilt %+v", mid[1], want)
	}
}

func TestTrackSampleWrapsIndex(t *testing.T) {
	h, keys := fourKeyframes(t)
	track, err := NewTrack("bend", h, keys...)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	got, err := track.Sample(7, 0)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if !got.ApproxEqual(keys[3], 0) {
		t.Fatalf("Sample(7, 0) should wrap to keyframe 3")
	}
	last, err := track.Sample(3, 0.5)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	want := skeleton.NewJoint(mgl32.Vec3{0, 0, 25}, xRotation(math.Pi/4))
	if !last[1].ApproxEqual(want, eps) {
		t.Fatalf("Sample(3, 0.5) joint 1 = %+v, want halfway back to keyframe 0 %+v", last[1], want)
	}
}

func TestNewTrackCopiesKeyframes(t *testing.T) {
	h, keys := fourKeyframes(t)
	track, err := NewTrack("bend", h, keys...)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	keys[2][1] = skeleton.IdentityJoint()
	got := track.Keyframe(2)
	if got[1].Orientation == mgl32.QuatIdent() {
		t.Fatalf("track keyframe aliases the caller's pose")
	}
	got[1] = skeleton.IdentityJoint()
	if track.Keyframe(2)[1].Orientation == mgl32.QuatIdent() {
		t.Fatalf("Keyframe returns shared storage")
	}
}

func TestNewTrackRejectsMismatchedKeyframes(t *testing.T) {
	h, keys := fourKeyframes(t)
	keys[1] = keys[1][:2]
	if _, err := NewTrack("bad", h, keys...); !errors.Is(err, ErrInvalidTrack) {
		t.Fatalf("error = %v, want ErrInvalidTrack", err)
	}
	if _, err := NewTrack("empty", h); !errors.Is(err, ErrInvalidTrack) {
		t.Fatalf("error = %v, want ErrInvalidTrack", err)
	}
	var nilTrack *Track
	if _, err := nilTrack.Sample(0, 0); !errors.Is(err, ErrInvalidTrack) {
		t.Fatalf("error = %v, want ErrInvalidTrack", err)
	}
}

func TestContinuousPlaybackTerminalAndWrap(t *testing.T) {
	p, err := NewPlayback(BackendTypeContinuous, 4, WithInterval(time.Second))
	if err != nil {
		t.Fatalf("NewPlayback: %v", err)
	}

	c := p.Advance(3500 * time.Millisecond)
	if c.Index != 3 || !c.Terminal {
		t.Fatalf("3500ms cursor = %+v, want terminal index 3", c)
	}
	if c.Rewind != 0 {
		t.Fatalf("3500ms rewind = %v, want 0", c.Rewind)
	}

	c = p.Advance(4200 * time.Millisecond)
	if c.Index != 0 || c.Terminal {
		t.Fatalf("4200ms cursor = %+v, want index 0", c)
	}
	if math.Abs(float64(c.Fraction)-0.2) > eps {
		t.Fatalf("4200ms fraction = %v, want 0.2", c.Fraction)
	}
	if c.Rewind != 4*time.Second {
		t.Fatalf("4200ms rewind = %v, want 4s", c.Rewind)
	}
}

func TestContinuousPlaybackSegments(t *testing.T) {
	p, err := NewPlayback(BackendTypeContinuous, 4, WithInterval(time.Second))
	if err != nil {
		t.Fatalf("NewPlayback: %v", err)
	}
	cases := []struct {
		elapsed  time.Duration
		index    int
		fraction float64
	}{
		{0, 0, 0},
		{250 * time.Millisecond, 0, 0.25},
		{1500 * time.Millisecond, 1, 0.5},
		{2999 * time.Millisecond, 2, 0.999},
		{-time.Second, 0, 0},
	}
	for _, tc := range cases {
		c := p.Advance(tc.elapsed)
		if c.Index != tc.index || c.Terminal || math.Abs(float64(c.Fraction)-tc.fraction) > eps {
			t.Errorf("Advance(%v) = %+v, want index %d fraction %v", tc.elapsed, c, tc.index, tc.fraction)
		}
	}
	if p.Duration() != 4*time.Second {
		t.Fatalf("Duration = %v, want 4s", p.Duration())
	}
}

func TestSteppedPlayback(t *testing.T) {
	p, err := NewPlayback(BackendTypeStepped, 3, WithInterval(200*time.Millisecond))
	if err != nil {
		t.Fatalf("NewPlayback: %v", err)
	}

	c := p.Advance(100 * time.Millisecond)
	if c.Index != 0 || math.Abs(float64(c.Fraction)-0.5) > eps || c.Rewind != 0 {
		t.Fatalf("before first step cursor = %+v", c)
	}

	c = p.Advance(250 * time.Millisecond)
	if c.Index != 1 || c.Fraction != 0 || c.Rewind != 250*time.Millisecond {
		t.Fatalf("first step cursor = %+v, want index 1 with rewind 250ms", c)
	}

	// Exactly one interval is not past the interval yet.
	if c = p.Advance(200 * time.Millisecond); c.Index != 1 || c.Fraction != 1 {
		t.Fatalf("at interval cursor = %+v, want index 1 fraction 1", c)
	}

	p.Advance(201 * time.Millisecond)
	if c = p.Advance(time.Second); c.Index != 0 {
		t.Fatalf("counter should wrap to 0 at the keyframe count, got %+v", c)
	}

	p.Advance(time.Second)
	p.Reset()
	if c = p.Advance(0); c.Index != 0 {
		t.Fatalf("Reset cursor = %+v, want index 0", c)
	}
}

func TestPlaybackEasing(t *testing.T) {
	p, err := NewPlayback(BackendTypeContinuous, 2, WithInterval(time.Second), WithEasing(ease.InOutQuad))
	if err != nil {
		t.Fatalf("NewPlayback: %v", err)
	}
	if c := p.Advance(250 * time.Millisecond); math.Abs(float64(c.Fraction)-0.125) > eps {
		t.Fatalf("eased fraction = %v, want 0.125", c.Fraction)
	}
}

func TestNewPlaybackValidation(t *testing.T) {
	if _, err := NewPlayback(BackendTypeContinuous, 0); !errors.Is(err, ErrInvalidTrack) {
		t.Fatalf("error = %v, want ErrInvalidTrack", err)
	}
	if _, err := NewPlayback(BackendTypeContinuous, 2, WithInterval(0)); err == nil {
		t.Fatalf("zero interval should be rejected")
	}
	if _, err := NewPlayback(PlaybackBackendType(9), 2); err == nil {
		t.Fatalf("unknown backend should be rejected")
	}
}
