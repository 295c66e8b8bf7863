// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"math"
)

// Bounds is an axis-aligned bounding box over a set of points.
// The zero value is empty; Extend grows it to include each point.
type Bounds struct {
	// Min is the smallest coordinate seen on each axis.
	Min [3]float32
	// Max is the largest coordinate seen on each axis.
	Max [3]float32
	// Valid is false until at least one point has been added.
	Valid bool
}

// Extend grows the bounds to include the point p.
//
// Parameters:
//   - p: the point to include
func (b *Bounds) Extend(p [3]float32) {
	if !b.Valid {
		b.Min, b.Max, b.Valid = p, p, true
		return
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// Union grows the bounds to include another bounds. Empty bounds are ignored.
//
// Parameters:
//   - o: the bounds to merge in
func (b *Bounds) Union(o Bounds) {
	if !o.Valid {
		return
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
}

// Center returns the midpoint of the box.
//
// Returns:
//   - [3]float32: the center point, or the origin for empty bounds
func (b Bounds) Center() [3]float32 {
	if !b.Valid {
		return [3]float32{}
	}
	return [3]float32{
		(b.Min[0] + b.Max[0]) * 0.5,
		(b.Min[1] + b.Max[1]) * 0.5,
		(b.Min[2] + b.Max[2]) * 0.5,
	}
}

// Radius returns half the length of the box diagonal.
//
// Returns:
//   - float32: the bounding sphere radius around Center, 0 for empty bounds
func (b Bounds) Radius() float32 {
	if !b.Valid {
		return 0
	}
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]
	dz := b.Max[2] - b.Min[2]
	return float32(math.Sqrt(float64(dx*dx+dy*dy+dz*dz))) * 0.5
}
