package skeleton

import (
	"fmt"
	"slices"
)

// Pose is one joint transform per hierarchy entry, index-aligned with a Hierarchy.
// Depending on context the joints are local (relative to their parent) or global.
type Pose []Joint

// IdentityPose returns a pose of n identity joints.
//
// Parameters:
//   - n: the joint count
//
// Returns:
//   - Pose: n identity joints
func IdentityPose(n int) Pose {
	p := make(Pose, n)
	for i := range p {
		p[i] = IdentityJoint()
	}
	return p
}

// Clone returns an independent copy of p.
func (p Pose) Clone() Pose {
	return slices.Clone(p)
}

// ApproxEqual reports whether two poses have the same length and every joint matches within eps.
func (p Pose) ApproxEqual(o Pose, eps float32) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !p[i].ApproxEqual(o[i], eps) {
			return false
		}
	}
	return true
}

// LocalToGlobal composes a local pose down the hierarchy in index order. Roots are copied
// unchanged and every other joint becomes global[parent] ∘ local[i].
//
// Parameters:
//   - local: joint transforms relative to their parents
//   - h: the hierarchy the pose is defined over
//
// Returns:
//   - Pose: joint transforms in model space
//   - error: an ErrInvalidHierarchy wrap on a length mismatch or an out-of-order parent
func LocalToGlobal(local Pose, h Hierarchy) (Pose, error) {
	if len(local) != h.Len() {
		return nil, fmt.Errorf("%w: pose has %d joints, hierarchy has %d", ErrInvalidHierarchy, len(local), h.Len())
	}

	global := make(Pose, len(local))
	for i, j := range local {
		parent := h.Parent(i)
		if parent == NoParent {
			global[i] = j
			continue
		}
		if parent >= i {
			return nil, fmt.Errorf("%w: joint %d has parent %d", ErrInvalidHierarchy, i, parent)
		}
		global[i] = global[parent].Compose(j)
	}
	return global, nil
}

// Inversed returns the rigid inverse of every joint.
func (p Pose) Inversed() Pose {
	out := make(Pose, len(p))
	for i, j := range p {
		out[i] = j.Inverse()
	}
	return out
}

// Multiply composes two poses joint by joint, returning a[i] ∘ b[i].
//
// Parameters:
//   - a: the left-hand (outer) transforms
//   - b: the right-hand (inner) transforms
//
// Returns:
//   - Pose: the joint-wise composition
//   - error: an ErrInvalidHierarchy wrap if the poses differ in length
func Multiply(a, b Pose) (Pose, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: cannot multiply poses of %d and %d joints", ErrInvalidHierarchy, len(a), len(b))
	}
	out := make(Pose, len(a))
	for i := range a {
		out[i] = a[i].Compose(b[i])
	}
	return out, nil
}

// InterpolatePoses blends two poses joint by joint. fraction == 0 returns a copy of a.
//
// Parameters:
//   - a: the pose at fraction 0
//   - b: the pose at fraction 1
//   - fraction: the blend factor in [0, 1]
//
// Returns:
//   - Pose: the blended pose
//   - error: an ErrInvalidHierarchy wrap if the poses differ in length
func InterpolatePoses(a, b Pose, fraction float32) (Pose, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: cannot interpolate poses of %d and %d joints", ErrInvalidHierarchy, len(a), len(b))
	}
	if fraction == 0 {
		return a.Clone(), nil
	}
	out := make(Pose, len(a))
	for i := range a {
		out[i] = Interpolate(a[i], b[i], fraction)
	}
	return out, nil
}
