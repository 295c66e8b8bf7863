package mesh

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxInfluences is the fixed number of joint influence slots per vertex.
const MaxInfluences = 3

// Influence binds a vertex to one joint with a weight. A zero weight marks an unused slot.
type Influence struct {
	Joint  int32
	Weight float32
}

// VertexWeights is the fixed influence table of one vertex. Weights are not required to sum to 1.
type VertexWeights [MaxInfluences]Influence

// Sum returns the total weight over all slots.
func (w VertexWeights) Sum() float32 {
	var s float32
	for _, in := range w {
		s += in.Weight
	}
	return s
}

// Weights builds a VertexWeights from joint/weight pairs, leaving trailing slots empty.
// Extra pairs beyond MaxInfluences are ignored.
//
// Parameters:
//   - influences: up to MaxInfluences influences
//
// Returns:
//   - VertexWeights: the influence table
func Weights(influences ...Influence) VertexWeights {
	var w VertexWeights
	copy(w[:], influences)
	return w
}

// SkinnedMesh is a Mesh whose vertices follow a skeleton. BindPositions hold the vertices in
// the bind pose and are never overwritten; skinning writes Positions from them every frame.
type SkinnedMesh struct {
	Mesh

	// BindPositions are the vertex positions in the bind pose.
	BindPositions []mgl32.Vec3
	// Weights holds one influence table per vertex.
	Weights []VertexWeights
}

// AddVertex appends a skinned vertex at bind position p.
//
// Parameters:
//   - p: the bind-pose position
//   - w: the joint influences
//
// Returns:
//   - uint32: the new vertex index
func (m *SkinnedMesh) AddVertex(p mgl32.Vec3, w VertexWeights) uint32 {
	m.BindPositions = append(m.BindPositions, p)
	m.Weights = append(m.Weights, w)
	return m.Mesh.AddVertex(p)
}

// ResetToBind copies the bind positions back into Positions.
func (m *SkinnedMesh) ResetToBind() {
	m.Positions = resize(m.Positions, len(m.BindPositions))
	copy(m.Positions, m.BindPositions)
}

// Clone returns a deep copy, so several animated objects can share one loaded asset.
func (m *SkinnedMesh) Clone() *SkinnedMesh {
	return &SkinnedMesh{
		Mesh: Mesh{
			Name:      m.Name,
			Positions: slices.Clone(m.Positions),
			Normals:   slices.Clone(m.Normals),
			Colors:    slices.Clone(m.Colors),
			TexCoords: slices.Clone(m.TexCoords),
			Triangles: slices.Clone(m.Triangles),
		},
		BindPositions: slices.Clone(m.BindPositions),
		Weights:       slices.Clone(m.Weights),
	}
}

// Validate checks the base mesh, the per-vertex tables and that every weighted slot names a
// joint below jointCount.
//
// Parameters:
//   - jointCount: the number of joints in the driving hierarchy
//
// Returns:
//   - error: an ErrInvalidMesh wrap describing the first problem found
func (m *SkinnedMesh) Validate(jointCount int) error {
	if err := m.Mesh.Validate(); err != nil {
		return err
	}
	n := len(m.Positions)
	if len(m.BindPositions) != n || len(m.Weights) != n {
		return fmt.Errorf("%w: mesh %q has %d positions, %d bind positions and %d weight tables", ErrInvalidMesh, m.Name, n, len(m.BindPositions), len(m.Weights))
	}
	for v, w := range m.Weights {
		for _, in := range w {
			if in.Weight == 0 {
				continue
			}
			if in.Joint < 0 || int(in.Joint) >= jointCount {
				return fmt.Errorf("%w: mesh %q vertex %d is weighted to joint %d of %d", ErrInvalidMesh, m.Name, v, in.Joint, jointCount)
			}
		}
	}
	return nil
}
