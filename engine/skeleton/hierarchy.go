package skeleton

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidHierarchy is returned when a parent table breaks the parent-before-child ordering
// or when a pose does not line up with the hierarchy it is used with.
var ErrInvalidHierarchy = errors.New("invalid hierarchy")

// NoParent marks a root joint in a parent table.
const NoParent = -1

// Hierarchy is an immutable parent table. Joint 0 is a root and every other joint either
// is a root or names a parent with a strictly smaller index, so a single forward pass
// visits parents before their children.
type Hierarchy struct {
	parents []int
	roots   int
}

// NewHierarchy validates a parent table and wraps it in a Hierarchy. The table is copied.
//
// Parameters:
//   - parents: the parent index of each joint, NoParent for roots
//
// Returns:
//   - Hierarchy: the validated hierarchy
//   - error: an ErrInvalidHierarchy wrap if the table is empty or out of order
func NewHierarchy(parents ...int) (Hierarchy, error) {
	if len(parents) == 0 {
		return Hierarchy{}, fmt.Errorf("%w: no joints", ErrInvalidHierarchy)
	}
	if parents[0] != NoParent {
		return Hierarchy{}, fmt.Errorf("%w: joint 0 has parent %d, want %d", ErrInvalidHierarchy, parents[0], NoParent)
	}

	roots := 0
	for i, p := range parents {
		switch {
		case p == NoParent:
			roots++
		case p < 0 || p >= i:
			return Hierarchy{}, fmt.Errorf("%w: joint %d has parent %d", ErrInvalidHierarchy, i, p)
		}
	}

	return Hierarchy{parents: slices.Clone(parents), roots: roots}, nil
}

// Len returns the number of joints.
func (h Hierarchy) Len() int {
	return len(h.parents)
}

// Parent returns the parent index of joint i, NoParent for roots.
func (h Hierarchy) Parent(i int) int {
	return h.parents[i]
}

// RootCount returns how many joints have no parent.
func (h Hierarchy) RootCount() int {
	return h.roots
}

// Parents returns a copy of the parent table.
func (h Hierarchy) Parents() []int {
	return slices.Clone(h.parents)
}

// Children returns the direct children of joint i in index order.
//
// Parameters:
//   - i: the joint index
//
// Returns:
//   - []int: indices whose parent is i
func (h Hierarchy) Children(i int) []int {
	var out []int
	for j := i + 1; j < len(h.parents); j++ {
		if h.parents[j] == i {
			out = append(out, j)
		}
	}
	return out
}
