// Package mesh holds CPU-side triangle meshes and their skinned variant: bind-space positions
// plus a fixed three-slot joint influence table per vertex.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidMesh is returned when mesh attributes disagree in length or a triangle references
// a vertex that does not exist.
var ErrInvalidMesh = errors.New("invalid mesh")

// DefaultColor is the vertex color FillEmptyFieldsByDefault assigns to uncolored vertices.
var DefaultColor = mgl32.Vec3{0.8, 0.8, 0.8}

// Triangle holds three vertex indices in counter-clockwise order.
type Triangle [3]uint32

// Mesh is an indexed triangle mesh. Positions and Triangles are required; Normals, Colors and
// TexCoords are either empty or one per vertex.
type Mesh struct {
	// Name identifies the mesh in logs and caches.
	Name string
	// Positions are the current vertex positions.
	Positions []mgl32.Vec3
	// Normals are unit vertex normals, derived from Positions by FillNormals.
	Normals []mgl32.Vec3
	// Colors are per-vertex RGB colors.
	Colors []mgl32.Vec3
	// TexCoords are per-vertex UV coordinates.
	TexCoords []mgl32.Vec2
	// Triangles index into Positions.
	Triangles []Triangle
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// AddVertex appends a vertex position.
//
// Parameters:
//   - p: the position
//
// Returns:
//   - uint32: the new vertex index
func (m *Mesh) AddVertex(p mgl32.Vec3) uint32 {
	m.Positions = append(m.Positions, p)
	return uint32(len(m.Positions) - 1)
}

// AddTriangle appends a triangle.
func (m *Mesh) AddTriangle(a, b, c uint32) {
	m.Triangles = append(m.Triangles, Triangle{a, b, c})
}

// FillColor sets every vertex to the same color.
//
// Parameters:
//   - c: the RGB color
func (m *Mesh) FillColor(c mgl32.Vec3) {
	m.Colors = resize(m.Colors, len(m.Positions))
	for i := range m.Colors {
		m.Colors[i] = c
	}
}

// FillNormals recomputes vertex normals from the current positions. Each triangle's
// area-weighted face normal is added to its three vertices and the sums are normalized.
// Vertices touched by no usable triangle get +Y.
func (m *Mesh) FillNormals() {
	m.Normals = resize(m.Normals, len(m.Positions))
	for i := range m.Normals {
		m.Normals[i] = mgl32.Vec3{}
	}

	n := uint32(len(m.Positions))
	for _, t := range m.Triangles {
		if t[0] >= n || t[1] >= n || t[2] >= n {
			continue
		}
		p0 := m.Positions[t[0]]
		face := m.Positions[t[1]].Sub(p0).Cross(m.Positions[t[2]].Sub(p0))
		for _, idx := range t {
			m.Normals[idx] = m.Normals[idx].Add(face)
		}
	}

	for i, v := range m.Normals {
		length := v.Len()
		if length < 1e-6 {
			m.Normals[i] = mgl32.Vec3{0, 1, 0}
			continue
		}
		m.Normals[i] = v.Mul(1 / length)
	}
}

// FillEmptyFieldsByDefault completes optional attributes so every vertex has a normal, a color
// and a texture coordinate. Missing normals are computed from the geometry, missing colors use
// DefaultColor and missing texture coordinates are zero.
func (m *Mesh) FillEmptyFieldsByDefault() {
	if len(m.Normals) != len(m.Positions) {
		m.FillNormals()
	}
	if len(m.Colors) != len(m.Positions) {
		start := len(m.Colors)
		m.Colors = resize(m.Colors, len(m.Positions))
		for i := start; i < len(m.Colors); i++ {
			m.Colors[i] = DefaultColor
		}
	}
	if len(m.TexCoords) != len(m.Positions) {
		m.TexCoords = resize(m.TexCoords, len(m.Positions))
	}
}

// Validate checks attribute lengths and triangle indices.
//
// Returns:
//   - error: an ErrInvalidMesh wrap describing the first problem found, checking normals,
//     colors and texcoords in that order before triangles
func (m *Mesh) Validate() error {
	n := len(m.Positions)
	attributes := []struct {
		name string
		l    int
	}{
		{"normals", len(m.Normals)},
		{"colors", len(m.Colors)},
		{"texcoords", len(m.TexCoords)},
	}
	for _, a := range attributes {
		if a.l != 0 && a.l != n {
			return fmt.Errorf("%w: mesh %q has %d %s for %d vertices", ErrInvalidMesh, m.Name, a.l, a.name, n)
		}
	}
	for i, t := range m.Triangles {
		for _, idx := range t {
			if int(idx) >= n {
				return fmt.Errorf("%w: mesh %q triangle %d references vertex %d of %d", ErrInvalidMesh, m.Name, i, idx, n)
			}
		}
	}
	return nil
}

// Bounds returns the axis-aligned bounds of the current positions.
func (m *Mesh) Bounds() common.Bounds {
	var b common.Bounds
	for _, p := range m.Positions {
		b.Extend(p)
	}
	return b
}

// resize returns s with length n, reusing its storage when it is large enough.
func resize[T any](s []T, n int) []T {
	if cap(s) >= n {
		return s[:n]
	}
	out := make([]T, n)
	copy(out, s)
	return out
}
