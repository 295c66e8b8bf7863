package loader

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

// Default dimensions of the procedural cylinder rig.
const (
	CylinderRadius   = 4
	CylinderLength   = 50
	CylinderSegments = 11
	CylinderRings    = 10
)

// GroundColor is the vertex color of BuildGround.
var GroundColor = mgl32.Vec3{0.8, 0.9, 0.8}

// BuildCylinder builds an open cylinder along +Z skinned to two joints. Ring kv of nv gets
// weight 1-kv/(nv-1) on joint 0 and kv/(nv-1) on joint 1; the third slot names joint 2 with
// zero weight. Vertex ku*nv+kv sits at angle 2π·ku/nu and height length·kv/(nv-1).
//
// Parameters:
//   - radius: the cylinder radius
//   - length: the cylinder length
//   - nu: the number of vertices around each ring (at least 3)
//   - nv: the number of rings along the length (at least 2)
//
// Returns:
//   - *mesh.SkinnedMesh: the cylinder with outward normals and the default color
//   - error: an ErrInvalidMesh wrap if nu or nv is too small
func BuildCylinder(radius, length float32, nu, nv int) (*mesh.SkinnedMesh, error) {
	if nu < 3 || nv < 2 {
		return nil, fmt.Errorf("%w: cylinder needs at least 3 segments and 2 rings, got %d and %d", mesh.ErrInvalidMesh, nu, nv)
	}

	m := &mesh.SkinnedMesh{Mesh: mesh.Mesh{Name: "cylinder"}}
	for ku := 0; ku < nu; ku++ {
		u := 2 * math.Pi * float64(ku) / float64(nu)
		x, y := radius*float32(math.Cos(u)), radius*float32(math.Sin(u))
		for kv := 0; kv < nv; kv++ {
			s := float32(kv) / float32(nv-1)
			m.AddVertex(mgl32.Vec3{x, y, length * s}, mesh.Weights(
				mesh.Influence{Joint: 0, Weight: 1 - s},
				mesh.Influence{Joint: 1, Weight: s},
				mesh.Influence{Joint: 2, Weight: 0},
			))
		}
	}

	for ku := 0; ku < nu; ku++ {
		next := (ku + 1) % nu
		for kv := 0; kv < nv-1; kv++ {
			k0 := uint32(nv*ku + kv)
			k1 := uint32(nv*next + kv)
			k2 := k1 + 1
			k3 := k0 + 1
			m.AddTriangle(k0, k1, k2)
			m.AddTriangle(k0, k2, k3)
		}
	}

	m.FillEmptyFieldsByDefault()
	return m, nil
}

// BuildGround builds a flat square of half-size size at height h, colored GroundColor.
//
// Parameters:
//   - size: half the side length
//   - h: the Y coordinate of the plane
//
// Returns:
//   - *mesh.Mesh: the two-triangle ground
func BuildGround(size, h float32) *mesh.Mesh {
	m := &mesh.Mesh{Name: "ground"}
	m.AddVertex(mgl32.Vec3{-size, h, -size})
	m.AddVertex(mgl32.Vec3{-size, h, size})
	m.AddVertex(mgl32.Vec3{size, h, size})
	m.AddVertex(mgl32.Vec3{size, h, -size})
	m.AddTriangle(0, 2, 1)
	m.AddTriangle(0, 3, 2)
	m.FillColor(GroundColor)
	m.FillEmptyFieldsByDefault()
	return m
}

// CylinderRig returns the three-joint chain driving BuildCylinder: a root at the origin, a
// middle joint half way up the cylinder and an end joint another half length further.
//
// Parameters:
//   - length: the cylinder length
//
// Returns:
//   - skeleton.Hierarchy: the chain [-1, 0, 1]
//   - skeleton.Pose: the local bind pose
//   - error: error if the hierarchy cannot be built
func CylinderRig(length float32) (skeleton.Hierarchy, skeleton.Pose, error) {
	h, err := skeleton.NewHierarchy(skeleton.NoParent, 0, 1)
	if err != nil {
		return skeleton.Hierarchy{}, nil, err
	}
	half := mgl32.Vec3{0, 0, length / 2}
	local := skeleton.Pose{
		skeleton.IdentityJoint(),
		skeleton.NewJoint(half, mgl32.QuatIdent()),
		skeleton.NewJoint(half, mgl32.QuatIdent()),
	}
	return h, local, nil
}

// CylinderTrack builds the four-keyframe bend: keyframe k is the local bind pose with joint 1
// rotated by k·30° about +X. Every keyframe is an independent pose.
//
// Parameters:
//   - h: the rig hierarchy
//   - local: the rig local bind pose
//
// Returns:
//   - *animation.Track: the "bend" track
//   - error: an ErrInvalidTrack wrap if local does not match h
func CylinderTrack(h skeleton.Hierarchy, local skeleton.Pose) (*animation.Track, error) {
	if len(local) < 2 {
		return nil, fmt.Errorf("%w: cylinder track needs at least 2 joints, got %d", animation.ErrInvalidTrack, len(local))
	}
	keyframes := make([]skeleton.Pose, 4)
	for k := range keyframes {
		pose := local.Clone()
		pose[1].Orientation = mgl32.QuatRotate(float32(k)*math.Pi/6, mgl32.Vec3{1, 0, 0})
		keyframes[k] = pose
	}
	return animation.NewTrack("bend", h, keyframes...)
}

// CylinderAsset assembles the cylinder rig, mesh and bend track into an Asset so it can share
// the loader cache with imported files.
//
// Parameters:
//   - radius: the cylinder radius
//   - length: the cylinder length
//   - nu: the number of vertices around each ring
//   - nv: the number of rings along the length
//
// Returns:
//   - *Asset: the procedural asset
//   - error: error if any part cannot be built
func CylinderAsset(radius, length float32, nu, nv int) (*Asset, error) {
	h, local, err := CylinderRig(length)
	if err != nil {
		return nil, err
	}
	global, err := skeleton.LocalToGlobal(local, h)
	if err != nil {
		return nil, err
	}
	track, err := CylinderTrack(h, local)
	if err != nil {
		return nil, err
	}
	m, err := BuildCylinder(radius, length, nu, nv)
	if err != nil {
		return nil, err
	}

	return &Asset{
		Name:           "cylinder",
		Hierarchy:      h,
		JointNames:     []string{"root", "middle", "end"},
		LocalBindPose:  local,
		BindPose:       global,
		Tracks:         []*animation.Track{track},
		SampleInterval: animation.DefaultInterval,
		Mesh:           m,
	}, nil
}
