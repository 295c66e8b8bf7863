// Package animation samples keyframed skeleton tracks and maps wall-clock time onto keyframe
// cursors for continuous and stepped playback.
package animation

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidTrack is returned when a track has no keyframes or a keyframe does not match the
// joint count of the hierarchy it animates.
var ErrInvalidTrack = errors.New("invalid animation track")

// Track is an immutable, ordered list of local keyframe poses over one hierarchy. Keyframes
// are uniformly spaced in time; the spacing belongs to the Playback driving the track.
type Track struct {
	name      string
	keyframes []skeleton.Pose
	joints    int
}

// NewTrack builds a track from keyframe poses. Every pose is copied, so callers may keep
// mutating their own pose values after the call without affecting the track.
//
// Parameters:
//   - name: an identifier for logs and lookups
//   - h: the hierarchy every keyframe must match
//   - keyframes: the local poses in playback order
//
// Returns:
//   - *Track: the track
//   - error: an ErrInvalidTrack wrap if there are no keyframes or a keyframe has the wrong length
func NewTrack(name string, h skeleton.Hierarchy, keyframes ...skeleton.Pose) (*Track, error) {
	if len(keyframes) == 0 {
		return nil, fmt.Errorf("%w: track %q has no keyframes", ErrInvalidTrack, name)
	}

	t := &Track{
		name:      name,
		keyframes: make([]skeleton.Pose, len(keyframes)),
		joints:    h.Len(),
	}
	for i, k := range keyframes {
		if len(k) != h.Len() {
			return nil, fmt.Errorf("%w: track %q keyframe %d has %d joints, hierarchy has %d", ErrInvalidTrack, name, i, len(k), h.Len())
		}
		t.keyframes[i] = k.Clone()
	}
	return t, nil
}

// Name returns the track identifier.
func (t *Track) Name() string {
	return t.name
}

// Len returns the number of keyframes.
func (t *Track) Len() int {
	return len(t.keyframes)
}

// JointCount returns the joint count every keyframe carries.
func (t *Track) JointCount() int {
	return t.joints
}

// Keyframe returns a copy of keyframe i, wrapped into range.
//
// Parameters:
//   - i: the keyframe index
//
// Returns:
//   - skeleton.Pose: the keyframe pose
func (t *Track) Keyframe(i int) skeleton.Pose {
	return t.keyframes[wrapIndex(i, len(t.keyframes))].Clone()
}

// Sample interpolates between keyframe index and its successor. Positions are lerped and
// orientations slerped along the shortest arc. The index wraps modulo the keyframe count and
// the last keyframe's successor is keyframe 0. A fraction of 0 returns keyframe index exactly;
// other fractions are clamped to [0, 1].
//
// Parameters:
//   - index: the keyframe the segment starts at
//   - fraction: the position within the segment
//
// Returns:
//   - skeleton.Pose: a freshly allocated local pose
//   - error: an ErrInvalidTrack wrap if the track is empty or a keyframe has the wrong length
func (t *Track) Sample(index int, fraction float32) (skeleton.Pose, error) {
	if t == nil || len(t.keyframes) == 0 {
		return nil, fmt.Errorf("%w: no keyframes to sample", ErrInvalidTrack)
	}

	n := len(t.keyframes)
	i := wrapIndex(index, n)
	a, b := t.keyframes[i], t.keyframes[(i+1)%n]
	if len(a) != t.joints || len(b) != t.joints {
		return nil, fmt.Errorf("%w: track %q keyframes %d and %d do not match %d joints", ErrInvalidTrack, t.name, i, (i+1)%n, t.joints)
	}

	if !(fraction > 0) {
		return a.Clone(), nil
	}
	pose, err := skeleton.InterpolatePoses(a, b, mgl32.Clamp(fraction, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTrack, err)
	}
	return pose, nil
}

func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}
