package skeleton

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Segment is a bone drawn from a parent joint position to a child joint position.
type Segment struct {
	From mgl32.Vec3
	To   mgl32.Vec3
}

// Length returns the distance between the segment endpoints.
func (s Segment) Length() float32 {
	return s.To.Sub(s.From).Len()
}

// ExtractBones builds one segment per non-root joint, in joint index order, running from the
// parent's global position to the joint's global position.
//
// Parameters:
//   - global: model-space joint transforms
//   - h: the hierarchy the pose is defined over
//
// Returns:
//   - []Segment: h.Len() - h.RootCount() segments
//   - error: an ErrInvalidHierarchy wrap on a length mismatch
func ExtractBones(global Pose, h Hierarchy) ([]Segment, error) {
	if len(global) != h.Len() {
		return nil, fmt.Errorf("%w: pose has %d joints, hierarchy has %d", ErrInvalidHierarchy, len(global), h.Len())
	}

	bones := make([]Segment, 0, h.Len()-h.RootCount())
	for i := 1; i < len(global); i++ {
		parent := h.Parent(i)
		if parent == NoParent {
			continue
		}
		bones = append(bones, Segment{From: global[parent].Position, To: global[i].Position})
	}
	return bones, nil
}

// LineList flattens segments into endpoint pairs, the layout a line-list draw call expects.
//
// Parameters:
//   - bones: the segments to flatten
//
// Returns:
//   - []mgl32.Vec3: 2*len(bones) points
func LineList(bones []Segment) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, 0, 2*len(bones))
	for _, b := range bones {
		out = append(out, b.From, b.To)
	}
	return out
}
