package mesh

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-skin/common"
)

// GPUVertex is the interleaved per-vertex layout handed to a renderer after skinning.
// Size: 48 bytes (std430 aligned, no padding required).
type GPUVertex struct {
	Position [3]float32 // offset  0: skinned vertex position (12 bytes)
	Normal   [3]float32 // offset 12: recomputed vertex normal (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
	Color    [4]float32 // offset 32: per-vertex RGBA color (16 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a little-endian byte buffer.
//
// Returns:
//   - []byte: 48-byte buffer ready for upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 48)
	putFloats(buf[0:12], g.Position[:])
	putFloats(buf[12:24], g.Normal[:])
	putFloats(buf[24:32], g.TexCoord[:])
	putFloats(buf[32:48], g.Color[:])
	return buf
}

func putFloats(dst []byte, src []float32) {
	for i, f := range src {
		binary.LittleEndian.PutUint32(dst[i*4:i*4+4], math.Float32bits(f))
	}
}

// GPUVertices interleaves the current mesh attributes. Missing optional attributes are written
// as zero, except color which falls back to DefaultColor.
//
// Returns:
//   - []GPUVertex: one entry per vertex
func (m *Mesh) GPUVertices() []GPUVertex {
	out := make([]GPUVertex, len(m.Positions))
	for i, p := range m.Positions {
		v := GPUVertex{Position: p, Color: [4]float32{DefaultColor[0], DefaultColor[1], DefaultColor[2], 1}}
		if i < len(m.Normals) {
			v.Normal = m.Normals[i]
		}
		if i < len(m.TexCoords) {
			v.TexCoord = m.TexCoords[i]
		}
		if i < len(m.Colors) {
			c := m.Colors[i]
			v.Color = [4]float32{c[0], c[1], c[2], 1}
		}
		out[i] = v
	}
	return out
}

// VertexBuffer serializes GPUVertices into one contiguous byte buffer.
//
// Returns:
//   - []byte: len(Positions) * 48 bytes
func (m *Mesh) VertexBuffer() []byte {
	verts := m.GPUVertices()
	buf := make([]byte, 0, len(verts)*48)
	for i := range verts {
		buf = append(buf, verts[i].Marshal()...)
	}
	return buf
}

// PositionBuffer returns a byte view of the current positions (three float32 per vertex).
// The view shares memory with the mesh and is only valid until the next skinning pass.
//
// Returns:
//   - []byte: the position bytes, or nil for an empty mesh
func (m *Mesh) PositionBuffer() []byte {
	return common.SliceToBytes(m.Positions)
}

// NormalBuffer returns a byte view of the current normals (three float32 per vertex).
// The view shares memory with the mesh and is only valid until the next skinning pass.
//
// Returns:
//   - []byte: the normal bytes, or nil when no normals are present
func (m *Mesh) NormalBuffer() []byte {
	return common.SliceToBytes(m.Normals)
}

// IndexBuffer returns a byte view of the triangle indices (three uint32 per triangle).
//
// Returns:
//   - []byte: the index bytes, or nil when the mesh has no triangles
func (m *Mesh) IndexBuffer() []byte {
	return common.SliceToBytes(m.Triangles)
}
