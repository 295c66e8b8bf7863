// Package skeleton holds the rigid joint math used by the skinning pipeline: joints, joint
// hierarchies, poses, local-to-global composition and bone extraction.
package skeleton

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// slerpLinearThreshold is the cosine above which Slerp falls back to a normalized lerp.
const slerpLinearThreshold = 0.9995

// Joint is a rigid transform: a translation followed by a unit-quaternion rotation.
// Joints carry no scale. They are plain values and are never mutated in place.
type Joint struct {
	// Position is the joint translation.
	Position mgl32.Vec3
	// Orientation is the joint rotation. It is expected to be a unit quaternion.
	Orientation mgl32.Quat
}

// IdentityJoint returns the joint with zero translation and identity rotation.
//
// Returns:
//   - Joint: the identity transform
func IdentityJoint() Joint {
	return Joint{Orientation: mgl32.QuatIdent()}
}

// NewJoint builds a joint from a position and an orientation.
//
// Parameters:
//   - position: the translation
//   - orientation: the rotation (should be unit length)
//
// Returns:
//   - Joint: the joint
func NewJoint(position mgl32.Vec3, orientation mgl32.Quat) Joint {
	return Joint{Position: position, Orientation: orientation}
}

// Compose returns j ∘ child: the child transform expressed in j's parent space.
// The child translation is rotated by j's orientation and offset by j's position,
// and the orientations are multiplied parent first.
//
// Parameters:
//   - child: the transform applied first
//
// Returns:
//   - Joint: the composed transform
func (j Joint) Compose(child Joint) Joint {
	return Joint{
		Position:    j.Orientation.Rotate(child.Position).Add(j.Position),
		Orientation: j.Orientation.Mul(child.Orientation),
	}
}

// Inverse returns the rigid inverse of j, so that j.Compose(j.Inverse()) is the identity.
//
// Returns:
//   - Joint: the inverse transform
func (j Joint) Inverse() Joint {
	inv := j.Orientation.Conjugate()
	return Joint{
		Position:    inv.Rotate(j.Position).Mul(-1),
		Orientation: inv,
	}
}

// Apply transforms a point by j (rotate, then translate).
//
// Parameters:
//   - p: the point
//
// Returns:
//   - mgl32.Vec3: the transformed point
func (j Joint) Apply(p mgl32.Vec3) mgl32.Vec3 {
	return j.Orientation.Rotate(p).Add(j.Position)
}

// Mat4 returns the column-major 4x4 matrix for j, as uploaded to a vertex shader.
//
// Returns:
//   - mgl32.Mat4: translation * rotation
func (j Joint) Mat4() mgl32.Mat4 {
	m := j.Orientation.Mat4()
	m[12], m[13], m[14] = j.Position[0], j.Position[1], j.Position[2]
	return m
}

// ApproxEqual reports whether two joints match within an absolute tolerance eps on every
// component. Orientations q and -q are treated as the same rotation.
//
// Parameters:
//   - o: the joint to compare against
//   - eps: the per-component tolerance
//
// Returns:
//   - bool: true if both position and rotation agree within eps
func (j Joint) ApproxEqual(o Joint, eps float32) bool {
	q := o.Orientation
	if j.Orientation.Dot(q) < 0 {
		q = q.Scale(-1)
	}
	a := [7]float32{j.Position[0], j.Position[1], j.Position[2], j.Orientation.W, j.Orientation.V[0], j.Orientation.V[1], j.Orientation.V[2]}
	b := [7]float32{o.Position[0], o.Position[1], o.Position[2], q.W, q.V[0], q.V[1], q.V[2]}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > float64(eps) {
			return false
		}
	}
	return true
}

// Interpolate blends from a toward b by t in [0, 1]: positions are lerped and orientations
// slerped along the shortest arc. t == 0 returns a unchanged.
//
// Parameters:
//   - a: the start joint
//   - b: the end joint
//   - t: the blend factor
//
// Returns:
//   - Joint: the blended joint
func Interpolate(a, b Joint, t float32) Joint {
	if t == 0 {
		return a
	}
	return Joint{
		Position:    a.Position.Add(b.Position.Sub(a.Position).Mul(t)),
		Orientation: Slerp(a.Orientation, b.Orientation, t),
	}
}

// Slerp spherically interpolates between two unit quaternions, negating b when needed so
// the rotation follows the shorter arc. Nearly parallel inputs fall back to a normalized lerp.
//
// Parameters:
//   - a: the start rotation
//   - b: the end rotation
//   - t: the blend factor in [0, 1]
//
// Returns:
//   - mgl32.Quat: the interpolated unit rotation
func Slerp(a, b mgl32.Quat, t float32) mgl32.Quat {
	if t == 0 {
		return a
	}
	cos := a.Dot(b)
	if cos < 0 {
		b = b.Scale(-1)
		cos = -cos
	}
	if cos > slerpLinearThreshold {
		return a.Add(b.Sub(a).Scale(t)).Normalize()
	}

	theta := math.Acos(float64(cos))
	sin := math.Sin(theta)
	wa := float32(math.Sin((1-float64(t))*theta) / sin)
	wb := float32(math.Sin(float64(t)*theta) / sin)
	return a.Scale(wa).Add(b.Scale(wb))
}
