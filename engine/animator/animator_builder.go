package animator

import (
	"time"

	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/clock"
	"github.com/Carmen-Shannon/oxy-skin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/Carmen-Shannon/oxy-skin/engine/skinning"
	"github.com/tanema/gween/ease"
)

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithName is an option builder that names the Animator. Scenes key animators by name.
//
// Parameters:
//   - name: the animator name
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the name option to an animator
func WithName(name string) AnimatorBuilderOption {
	return func(a *animator) {
		a.name = name
	}
}

// WithHierarchy is an option builder that sets the joint hierarchy.
//
// Parameters:
//   - h: the hierarchy
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the hierarchy option to an animator
func WithHierarchy(h skeleton.Hierarchy) AnimatorBuilderOption {
	return func(a *animator) {
		a.hierarchy = h
	}
}

// WithBindPose is an option builder that sets the global bind pose directly.
// It takes precedence over WithLocalBindPose.
//
// Parameters:
//   - global: the bind pose in model space
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the bind pose option to an animator
func WithBindPose(global skeleton.Pose) AnimatorBuilderOption {
	return func(a *animator) {
		a.bindPose = global.Clone()
	}
}

// WithLocalBindPose is an option builder that sets the bind pose in joint-local form.
// NewAnimator composes it through the hierarchy.
//
// Parameters:
//   - local: the bind pose relative to each joint's parent
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the local bind pose option to an animator
func WithLocalBindPose(local skeleton.Pose) AnimatorBuilderOption {
	return func(a *animator) {
		a.localBind = local.Clone()
	}
}

// WithTrack is an option builder that sets the keyframe track.
//
// Parameters:
//   - t: the track, over the same hierarchy
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the track option to an animator
func WithTrack(t *animation.Track) AnimatorBuilderOption {
	return func(a *animator) {
		a.track = t
	}
}

// WithMesh is an option builder that attaches the skinned mesh deformed each frame.
// The animator takes ownership of m; use SkinnedMesh.Clone to share one loaded mesh.
//
// Parameters:
//   - m: the skinned mesh
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the mesh option to an animator
func WithMesh(m *mesh.SkinnedMesh) AnimatorBuilderOption {
	return func(a *animator) {
		a.mesh = m
	}
}

// WithInterval is an option builder that sets the time between keyframes.
//
// Parameters:
//   - d: the keyframe interval
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the interval option to an animator
func WithInterval(d time.Duration) AnimatorBuilderOption {
	return func(a *animator) {
		a.interval = d
	}
}

// WithEasing is an option builder that shapes the in-segment fraction.
//
// Parameters:
//   - fn: the easing function
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the easing option to an animator
func WithEasing(fn ease.TweenFunc) AnimatorBuilderOption {
	return func(a *animator) {
		a.easing = fn
	}
}

// WithWeightMode is an option builder that selects raw or normalized vertex weights.
//
// Parameters:
//   - mode: the weight mode
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the weight mode option to an animator
func WithWeightMode(mode skinning.WeightMode) AnimatorBuilderOption {
	return func(a *animator) {
		a.weightMode = mode
	}
}

// WithBones is an option builder that makes every Frame carry its bone segments.
//
// Parameters:
//   - enabled: whether to extract bones
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the bones option to an animator
func WithBones(enabled bool) AnimatorBuilderOption {
	return func(a *animator) {
		a.bones = enabled
	}
}

// WithClock is an option builder that replaces the animator's wall clock.
//
// Parameters:
//   - c: the clock
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the clock option to an animator
func WithClock(c clock.Clock) AnimatorBuilderOption {
	return func(a *animator) {
		a.clock = c
	}
}
