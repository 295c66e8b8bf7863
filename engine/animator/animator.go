// Package animator wires one animated object together: a hierarchy, its bind pose, a keyframe
// track, a playback backend, a skinner and an optional skinned mesh, all driven by the object's
// own clock.
package animator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/clock"
	"github.com/Carmen-Shannon/oxy-skin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/Carmen-Shannon/oxy-skin/engine/skinning"
	"github.com/tanema/gween/ease"
)

// ErrMissingBindPose is returned by NewAnimator when neither WithBindPose nor WithLocalBindPose
// was given.
var ErrMissingBindPose = errors.New("animator has no bind pose")

// Frame is the result of one pass over an animated object.
// Local, Global and Matrices are fresh per frame. Mesh points at the animator's own mesh and is
// only stable until the next Update.
type Frame struct {
	// Name is the animator name.
	Name string
	// Cursor is where playback sampled the track.
	Cursor animation.Cursor
	// Local is the sampled local pose.
	Local skeleton.Pose
	// Global is the composed global pose.
	Global skeleton.Pose
	// Matrices are the skinning transforms.
	Matrices skeleton.Pose
	// Bones are the parent-to-child segments, filled only when WithBones(true) was given.
	Bones []skeleton.Segment
	// Mesh is the deformed mesh, or nil for a skeleton-only object.
	Mesh *mesh.SkinnedMesh
}

// animator is the implementation of the Animator interface.
type animator struct {
	mu *sync.Mutex

	name        string
	backendType animation.PlaybackBackendType

	hierarchy  skeleton.Hierarchy
	bindPose   skeleton.Pose
	localBind  skeleton.Pose
	track      *animation.Track
	mesh       *mesh.SkinnedMesh
	interval   time.Duration
	easing     ease.TweenFunc
	weightMode skinning.WeightMode
	bones      bool

	clock    clock.Clock
	playback animation.Playback
	skinner  skinning.Skinner
}

// Animator drives a single skinned object through its track.
//
// Update is a pure function of the elapsed time passed in (apart from the stepped frame counter).
// Tick reads the animator's clock, calls Update and restarts the clock when playback asks for it.
type Animator interface {
	// Name returns the animator name.
	//
	// Returns:
	//   - string: the name given with WithName
	Name() string

	// BackendType returns the playback mode.
	//
	// Returns:
	//   - animation.PlaybackBackendType: BackendTypeContinuous or BackendTypeStepped
	BackendType() animation.PlaybackBackendType

	// Hierarchy returns the joint hierarchy.
	//
	// Returns:
	//   - skeleton.Hierarchy: the hierarchy
	Hierarchy() skeleton.Hierarchy

	// Track returns the keyframe track.
	//
	// Returns:
	//   - *animation.Track: the track
	Track() *animation.Track

	// Mesh returns the skinned mesh, or nil for a skeleton-only object.
	//
	// Returns:
	//   - *mesh.SkinnedMesh: the mesh
	Mesh() *mesh.SkinnedMesh

	// Playback returns the playback controller.
	//
	// Returns:
	//   - animation.Playback: the playback
	Playback() animation.Playback

	// Skinner returns the skinner holding the bind pose.
	//
	// Returns:
	//   - skinning.Skinner: the skinner
	Skinner() skinning.Skinner

	// Clock returns the animator's clock.
	//
	// Returns:
	//   - clock.Clock: the clock
	Clock() clock.Clock

	// VertexCount returns the number of skinned vertices per frame.
	//
	// Returns:
	//   - int: the vertex count, 0 without a mesh
	VertexCount() int

	// Update samples the track at elapsed, composes the global pose, computes the skinning
	// transforms and deforms the mesh. A terminal cursor holds the last keyframe.
	//
	// Parameters:
	//   - elapsed: time since the clock epoch (continuous) or since the last step (stepped)
	//
	// Returns:
	//   - Frame: the frame
	//   - error: any sampling, composition or skinning error
	Update(elapsed time.Duration) (Frame, error)

	// Tick runs Update with the clock's elapsed time and applies the cursor's Rewind to the clock.
	//
	// Returns:
	//   - Frame: the frame
	//   - error: any error from Update
	Tick() (Frame, error)

	// Reset restarts the clock, returns stepped playback to keyframe 0 and puts the mesh back in
	// its bind pose.
	Reset()
}

var _ Animator = &animator{}

// NewAnimator creates a new Animator with the given playback backend.
// WithHierarchy, WithTrack and one of WithBindPose or WithLocalBindPose are required.
//
// Parameters:
//   - backendType: the playback mode (animation.BackendTypeContinuous or animation.BackendTypeStepped)
//   - options: variadic list of AnimatorBuilderOption functions to configure the Animator
//
// Returns:
//   - Animator: the configured animator
//   - error: an error when a required part is missing or the parts disagree in joint count
func NewAnimator(backendType animation.PlaybackBackendType, options ...AnimatorBuilderOption) (Animator, error) {
	a := &animator{
		mu:          &sync.Mutex{},
		backendType: backendType,
		interval:    animation.DefaultInterval,
		weightMode:  skinning.WeightModeRaw,
	}
	for _, opt := range options {
		opt(a)
	}

	n := a.hierarchy.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: animator %q has no hierarchy", skeleton.ErrInvalidHierarchy, a.name)
	}
	if a.track == nil {
		return nil, fmt.Errorf("%w: animator %q has no track", animation.ErrInvalidTrack, a.name)
	}
	if a.track.JointCount() != n {
		return nil, fmt.Errorf("%w: track %q has %d joints, hierarchy has %d", animation.ErrInvalidTrack, a.track.Name(), a.track.JointCount(), n)
	}

	if a.bindPose == nil {
		if a.localBind == nil {
			return nil, fmt.Errorf("%w: %q", ErrMissingBindPose, a.name)
		}
		global, err := skeleton.LocalToGlobal(a.localBind, a.hierarchy)
		if err != nil {
			return nil, fmt.Errorf("animator %q bind pose: %w", a.name, err)
		}
		a.bindPose = global
	}
	if len(a.bindPose) != n {
		return nil, fmt.Errorf("%w: bind pose has %d joints, hierarchy has %d", skeleton.ErrInvalidHierarchy, len(a.bindPose), n)
	}

	if a.mesh != nil {
		if err := a.mesh.Validate(n); err != nil {
			return nil, err
		}
	}

	var err error
	if a.playback, err = animation.NewPlayback(backendType, a.track.Len(), animation.WithInterval(a.interval), animation.WithEasing(a.easing)); err != nil {
		return nil, err
	}
	if a.skinner, err = skinning.NewSkinner(a.bindPose, skinning.WithWeightMode(a.weightMode)); err != nil {
		return nil, err
	}
	if a.clock == nil {
		a.clock = clock.NewClock()
	}
	return a, nil
}

func (a *animator) Name() string {
	return a.name
}

func (a *animator) BackendType() animation.PlaybackBackendType {
	return a.backendType
}

func (a *animator) Hierarchy() skeleton.Hierarchy {
	return a.hierarchy
}

func (a *animator) Track() *animation.Track {
	return a.track
}

func (a *animator) Mesh() *mesh.SkinnedMesh {
	return a.mesh
}

func (a *animator) Playback() animation.Playback {
	return a.playback
}

func (a *animator) Skinner() skinning.Skinner {
	return a.skinner
}

func (a *animator) Clock() clock.Clock {
	return a.clock
}

func (a *animator) VertexCount() int {
	if a.mesh == nil {
		return 0
	}
	return len(a.mesh.BindPositions)
}

func (a *animator) Update(elapsed time.Duration) (Frame, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.update(a.playback.Advance(elapsed))
}

func (a *animator) Tick() (Frame, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cursor := a.playback.Advance(a.clock.Elapsed())
	if cursor.Rewind > 0 {
		a.clock.Rewind(cursor.Rewind)
	}
	return a.update(cursor)
}

func (a *animator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playback.Reset()
	a.clock.Restart()
	if a.mesh != nil {
		a.mesh.ResetToBind()
		a.mesh.FillNormals()
	}
}

func (a *animator) update(cursor animation.Cursor) (Frame, error) {
	frame := Frame{Name: a.name, Cursor: cursor}

	fraction := cursor.Fraction
	if cursor.Terminal {
		fraction = 0
	}
	local, err := a.track.Sample(cursor.Index, fraction)
	if err != nil {
		return frame, fmt.Errorf("animator %q: %w", a.name, err)
	}
	frame.Local = local

	if frame.Global, err = skeleton.LocalToGlobal(local, a.hierarchy); err != nil {
		return frame, fmt.Errorf("animator %q: %w", a.name, err)
	}

	if a.mesh != nil {
		frame.Matrices, err = a.skinner.Skin(a.mesh, frame.Global)
		frame.Mesh = a.mesh
	} else {
		frame.Matrices, err = a.skinner.Matrices(frame.Global)
	}
	if err != nil {
		return frame, fmt.Errorf("animator %q: %w", a.name, err)
	}

	if a.bones {
		if frame.Bones, err = skeleton.ExtractBones(frame.Global, a.hierarchy); err != nil {
			return frame, fmt.Errorf("animator %q: %w", a.name, err)
		}
	}
	return frame, nil
}
