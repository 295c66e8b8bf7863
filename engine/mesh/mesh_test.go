package mesh

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func quad() *Mesh {
	m := &Mesh{Name: "quad"}
	m.AddVertex(mgl32.Vec3{0, 0, 0})
	m.AddVertex(mgl32.Vec3{1, 0, 0})
	m.AddVertex(mgl32.Vec3{1, 1, 0})
	m.AddVertex(mgl32.Vec3{0, 1, 0})
	m.AddTriangle(0, 1, 2)
	m.AddTriangle(0, 2, 3)
	return m
}

func TestFillNormalsFacesUp(t *testing.T) {
	m := quad()
	m.FillNormals()
	for i, n := range m.Normals {
		if n.Sub(mgl32.Vec3{0, 0, 1}).Len() > 1e-5 {
			t.Fatalf("normal %d = %v, want +Z", i, n)
		}
	}
}

func TestFillNormalsDegenerateFallsBackToY(t *testing.T) {
	m := &Mesh{}
	m.AddVertex(mgl32.Vec3{0, 0, 0})
	m.AddVertex(mgl32.Vec3{1, 0, 0})
	m.AddVertex(mgl32.Vec3{2, 0, 0})
	m.AddVertex(mgl32.Vec3{5, 5, 5})
	m.AddTriangle(0, 1, 2)
	m.FillNormals()
	for i, n := range m.Normals {
		if n != (mgl32.Vec3{0, 1, 0}) {
			t.Fatalf("normal %d = %v, want +Y", i, n)
		}
	}
}

func TestFillEmptyFieldsByDefault(t *testing.T) {
	m := quad()
	m.Colors = []mgl32.Vec3{{1, 0, 0}}
	m.FillEmptyFieldsByDefault()
	if len(m.Normals) != 4 || len(m.Colors) != 4 || len(m.TexCoords) != 4 {
		t.Fatalf("attribute lengths = %d/%d/%d, want 4", len(m.Normals), len(m.Colors), len(m.TexCoords))
	}
	if m.Colors[0] != (mgl32.Vec3{1, 0, 0}) || m.Colors[3] != DefaultColor {
		t.Fatalf("colors = %v, want the given color kept and the default appended", m.Colors)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsBadIndices(t *testing.T) {
	m := quad()
	m.AddTriangle(0, 1, 9)
	if err := m.Validate(); !errors.Is(err, ErrInvalidMesh) {
		t.Fatalf("error = %v, want ErrInvalidMesh", err)
	}
}

func TestValidateReportsAttributesInOrder(t *testing.T) {
	m := quad()
	m.Normals = make([]mgl32.Vec3, 2)
	m.Colors = make([]mgl32.Vec3, 3)
	m.TexCoords = make([]mgl32.Vec2, 1)

	for range 20 {
		err := m.Validate()
		if !errors.Is(err, ErrInvalidMesh) || !strings.Contains(err.Error(), "2 normals") {
			t.Fatalf("error = %v, want the normals mismatch reported first", err)
		}
	}

	m.Normals = nil
	if err := m.Validate(); err == nil || !strings.Contains(err.Error(), "3 colors") {
		t.Fatalf("error = %v, want the colors mismatch next", err)
	}
}

func TestSkinnedMeshKeepsBindPositions(t *testing.T) {
	var m SkinnedMesh
	w := Weights(Influence{Joint: 0, Weight: 0.25}, Influence{Joint: 1, Weight: 0.75})
	for _, p := range []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}} {
		m.AddVertex(p, w)
	}
	m.AddTriangle(0, 1, 2)
	if err := m.Validate(2); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if w[2].Weight != 0 || w.Sum() != 1 {
		t.Fatalf("weights = %+v, want an empty third slot summing to 1", w)
	}

	m.Positions[1] = mgl32.Vec3{9, 9, 9}
	if m.BindPositions[1] != (mgl32.Vec3{1, 0, 0}) {
		t.Fatalf("bind position overwritten: %v", m.BindPositions[1])
	}
	m.ResetToBind()
	if m.Positions[1] != (mgl32.Vec3{1, 0, 0}) {
		t.Fatalf("ResetToBind position = %v", m.Positions[1])
	}

	c := m.Clone()
	c.Positions[0] = mgl32.Vec3{7, 7, 7}
	if m.Positions[0] == c.Positions[0] {
		t.Fatalf("Clone shares position storage")
	}
}

func TestSkinnedMeshValidateJointRange(t *testing.T) {
	var m SkinnedMesh
	m.AddVertex(mgl32.Vec3{}, Weights(Influence{Joint: 0, Weight: 1}, Influence{Joint: 5, Weight: 0}))
	if err := m.Validate(1); err != nil {
		t.Fatalf("zero-weight slot should not be range checked: %v", err)
	}
	m.Weights[0][1].Weight = 0.5
	if err := m.Validate(1); !errors.Is(err, ErrInvalidMesh) {
		t.Fatalf("error = %v, want ErrInvalidMesh", err)
	}
}

func TestGPUVertexMarshal(t *testing.T) {
	v := GPUVertex{
		Position: [3]float32{1, 2, 3},
		Normal:   [3]float32{0, 1, 0},
		TexCoord: [2]float32{0.5, 0.25},
		Color:    [4]float32{0.1, 0.2, 0.3, 1},
	}
	if v.Size() != 48 {
		t.Fatalf("Size = %d, want 48", v.Size())
	}
	buf := v.Marshal()
	read := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	if read(0) != 1 || read(16) != 1 || read(24) != 0.5 || read(44) != 1 {
		t.Fatalf("unexpected layout: %v", buf)
	}
}

func TestBuffers(t *testing.T) {
	m := quad()
	m.FillNormals()
	if got := len(m.PositionBuffer()); got != 4*12 {
		t.Fatalf("PositionBuffer length = %d, want 48", got)
	}
	if got := len(m.NormalBuffer()); got != 4*12 {
		t.Fatalf("NormalBuffer length = %d, want 48", got)
	}
	if got := len(m.IndexBuffer()); got != 2*12 {
		t.Fatalf("IndexBuffer length = %d, want 24", got)
	}
	if got := len(m.VertexBuffer()); got != 4*48 {
		t.Fatalf("VertexBuffer length = %d, want 192", got)
	}
	b := m.Bounds()
	if !b.Valid || b.Max != [3]float32{1, 1, 0} {
		t.Fatalf("Bounds = %+v", b)
	}
}
