// Package skinning computes per-joint skinning matrices from a posed skeleton and blends bind-space
// vertices through them (linear-blend skinning), regenerating normals afterwards.
package skinning

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-skin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

// WeightMode selects how a vertex's influence weights are combined.
type WeightMode int

const (
	// WeightModeRaw sums the weighted joint transforms as authored. Weights that do not add up to
	// 1 scale the vertex toward or away from the origin.
	WeightModeRaw WeightMode = iota

	// WeightModeNormalized divides the blended position by the sum of the vertex's weights.
	// Vertices whose weights are all zero keep their bind position.
	WeightModeNormalized
)

// String returns the mode name.
func (w WeightMode) String() string {
	switch w {
	case WeightModeRaw:
		return "raw"
	case WeightModeNormalized:
		return "normalized"
	default:
		return fmt.Sprintf("WeightMode(%d)", int(w))
	}
}

// skinner is the implementation of the Skinner interface.
type skinner struct {
	bind        skeleton.Pose
	inverseBind skeleton.Pose
	weightMode  WeightMode
}

// Skinner owns a bind pose and turns posed skeletons into deformed meshes.
type Skinner interface {
	// Matrices computes one skinning transform per joint: the joint's global transform composed
	// with the inverse of its bind transform.
	//
	// Parameters:
	//   - global: the current global pose
	//
	// Returns:
	//   - skeleton.Pose: the skinning transforms, index-aligned with the bind pose
	//   - error: an ErrInvalidHierarchy wrap when the pose size differs from the bind pose
	Matrices(global skeleton.Pose) (skeleton.Pose, error)

	// Deform overwrites the mesh positions with the weighted blend of each bind position through
	// the skinning transforms, then recomputes the normals.
	//
	// Parameters:
	//   - m: the skinned mesh to deform
	//   - matrices: the skinning transforms from Matrices
	//
	// Returns:
	//   - error: an ErrInvalidHierarchy wrap for a weighted slot naming a missing joint, or an
	//     ErrInvalidMesh wrap when the mesh tables disagree in length
	Deform(m *mesh.SkinnedMesh, matrices skeleton.Pose) error

	// Skin runs Matrices followed by Deform.
	//
	// Parameters:
	//   - m: the skinned mesh to deform
	//   - global: the current global pose
	//
	// Returns:
	//   - skeleton.Pose: the skinning transforms that were applied
	//   - error: any error from Matrices or Deform
	Skin(m *mesh.SkinnedMesh, global skeleton.Pose) (skeleton.Pose, error)

	// BindPose returns a copy of the global bind pose.
	//
	// Returns:
	//   - skeleton.Pose: the bind pose
	BindPose() skeleton.Pose

	// InverseBindPose returns a copy of the precomputed inverse bind pose.
	//
	// Returns:
	//   - skeleton.Pose: the inverse bind pose
	InverseBindPose() skeleton.Pose

	// JointCount returns the number of joints in the bind pose.
	//
	// Returns:
	//   - int: the joint count
	JointCount() int

	// WeightMode returns how vertex weights are combined.
	//
	// Returns:
	//   - WeightMode: WeightModeRaw or WeightModeNormalized
	WeightMode() WeightMode
}

var _ Skinner = &skinner{}

// NewSkinner creates a Skinner for the given global bind pose and precomputes its inverse.
//
// Parameters:
//   - bind: the global bind pose (at least one joint)
//   - options: functional options such as WithWeightMode
//
// Returns:
//   - Skinner: the configured skinner
//   - error: an ErrInvalidHierarchy wrap for an empty bind pose, or an error for an unknown weight mode
func NewSkinner(bind skeleton.Pose, options ...SkinnerBuilderOption) (Skinner, error) {
	if len(bind) == 0 {
		return nil, fmt.Errorf("%w: empty bind pose", skeleton.ErrInvalidHierarchy)
	}
	s := &skinner{
		bind:        bind.Clone(),
		inverseBind: bind.Inversed(),
		weightMode:  WeightModeRaw,
	}
	for _, option := range options {
		option(s)
	}
	if s.weightMode != WeightModeRaw && s.weightMode != WeightModeNormalized {
		return nil, fmt.Errorf("unknown weight mode %s", s.weightMode)
	}
	return s, nil
}

func (s *skinner) Matrices(global skeleton.Pose) (skeleton.Pose, error) {
	return skeleton.Multiply(global, s.inverseBind)
}

func (s *skinner) Deform(m *mesh.SkinnedMesh, matrices skeleton.Pose) error {
	n := len(m.BindPositions)
	if len(m.Weights) != n {
		return fmt.Errorf("%w: mesh %q has %d bind positions and %d weight tables", mesh.ErrInvalidMesh, m.Name, n, len(m.Weights))
	}
	// Every weighted joint is checked before the first write so a failed Deform leaves the
	// mesh as it was.
	for v, w := range m.Weights {
		for _, in := range w {
			if in.Weight != 0 && (in.Joint < 0 || int(in.Joint) >= len(matrices)) {
				return fmt.Errorf("%w: vertex %d of mesh %q is weighted to joint %d of %d", skeleton.ErrInvalidHierarchy, v, m.Name, in.Joint, len(matrices))
			}
		}
	}
	if len(m.Positions) != n {
		m.ResetToBind()
	}

	for v, p := range m.BindPositions {
		var acc mgl32.Vec3
		var sum float32
		for _, in := range m.Weights[v] {
			if in.Weight == 0 {
				continue
			}
			acc = acc.Add(matrices[in.Joint].Apply(p).Mul(in.Weight))
			sum += in.Weight
		}
		if s.weightMode == WeightModeNormalized {
			if sum == 0 {
				acc = p
			} else {
				acc = acc.Mul(1 / sum)
			}
		}
		m.Positions[v] = acc
	}

	m.FillNormals()
	return nil
}

func (s *skinner) Skin(m *mesh.SkinnedMesh, global skeleton.Pose) (skeleton.Pose, error) {
	matrices, err := s.Matrices(global)
	if err != nil {
		return nil, err
	}
	if err := s.Deform(m, matrices); err != nil {
		return nil, err
	}
	return matrices, nil
}

func (s *skinner) BindPose() skeleton.Pose {
	return s.bind.Clone()
}

func (s *skinner) InverseBindPose() skeleton.Pose {
	return s.inverseBind.Clone()
}

func (s *skinner) JointCount() int {
	return len(s.bind)
}

func (s *skinner) WeightMode() WeightMode {
	return s.weightMode
}

// ComputeMatrices is the stateless form of Skinner.Matrices for callers that hold both poses.
//
// Parameters:
//   - global: the current global pose
//   - bind: the global bind pose
//
// Returns:
//   - skeleton.Pose: global[i] composed with inverse(bind[i]) for every joint
//   - error: an ErrInvalidHierarchy wrap when the pose sizes differ
func ComputeMatrices(global, bind skeleton.Pose) (skeleton.Pose, error) {
	if len(global) != len(bind) {
		return nil, fmt.Errorf("%w: pose has %d joints, bind pose has %d", skeleton.ErrInvalidHierarchy, len(global), len(bind))
	}
	return skeleton.Multiply(global, bind.Inversed())
}

// Palette flattens skinning transforms into column-major 4x4 float32 matrices, 16 per joint, in
// the layout a GPU skinning shader reads.
//
// Parameters:
//   - matrices: the skinning transforms
//
// Returns:
//   - []float32: len(matrices)*16 floats
func Palette(matrices skeleton.Pose) []float32 {
	out := make([]float32, 0, len(matrices)*16)
	for _, m := range matrices {
		mat := m.Mat4()
		out = append(out, mat[:]...)
	}
	return out
}
