package loader

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-skin/engine/mesh"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfMeshExtractorImpl is the implementation of gltfMeshExtractor.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor converts glTF meshes into skinned meshes.
// This is internal to the loader package.
type gltfMeshExtractor interface {
	// ExtractMesh merges every triangle primitive of a mesh into one SkinnedMesh.
	// JOINTS_0/WEIGHTS_0 are reduced to the MaxInfluences heaviest influences, kept at their
	// file weights and renumbered to the skeleton's sorted joint order. Vertices without
	// skinning attributes are bound fully to joint 0.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh in the document
	//   - sk: the skeleton the mesh is skinned to
	//
	// Returns:
	//   - *mesh.SkinnedMesh: the merged mesh with normals, colors and texture coordinates filled
	//   - error: error if an attribute cannot be read or names an unknown joint
	ExtractMesh(meshIndex int, sk *gltfSkeleton) (*mesh.SkinnedMesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a mesh extractor bound to a parser.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int, sk *gltfSkeleton) (*mesh.SkinnedMesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	src := &doc.Meshes[meshIndex]
	out := &mesh.SkinnedMesh{Mesh: mesh.Mesh{Name: src.Name}}
	if out.Name == "" {
		out.Name = fmt.Sprintf("mesh_%d", meshIndex)
	}

	for i := range src.Primitives {
		prim := &src.Primitives[i]
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			continue
		}
		if err := e.appendPrimitive(out, prim, sk); err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", out.Name, i, err)
		}
	}

	if out.VertexCount() == 0 {
		return nil, fmt.Errorf("mesh %q has no triangle primitives", out.Name)
	}
	out.FillEmptyFieldsByDefault()
	return out, nil
}

// appendPrimitive adds one primitive's vertices and triangles to m, offsetting its indices
// past the vertices already present.
func (e *gltfMeshExtractorImpl) appendPrimitive(m *mesh.SkinnedMesh, prim *gltfPrimitive, sk *gltfSkeleton) error {
	posAccessor, ok := prim.Attributes[gltfAttrPosition]
	if !ok {
		return fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, _, err := e.parser.ReadFloats(posAccessor, gltfAccessorTypeVec3)
	if err != nil {
		return fmt.Errorf("failed to read positions: %w", err)
	}
	count := len(positions) / 3

	weights, err := e.readWeights(prim, count, sk)
	if err != nil {
		return err
	}

	// Optional attributes are padded per primitive so merged tables stay vertex aligned.
	colors := make([]mgl32.Vec3, count)
	for i := range colors {
		colors[i] = mesh.DefaultColor
	}
	if acc, ok := prim.Attributes[gltfAttrColor]; ok {
		flat, n, err := e.parser.ReadFloats(acc, gltfAccessorTypeVec3, gltfAccessorTypeVec4)
		if err != nil {
			return fmt.Errorf("failed to read colors: %w", err)
		}
		for i := 0; i < min(count, len(flat)/n); i++ {
			colors[i] = mgl32.Vec3{flat[i*n], flat[i*n+1], flat[i*n+2]}
		}
	}

	texCoords := make([]mgl32.Vec2, count)
	if acc, ok := prim.Attributes[gltfAttrTexCoord]; ok {
		flat, _, err := e.parser.ReadFloats(acc, gltfAccessorTypeVec2)
		if err != nil {
			return fmt.Errorf("failed to read texcoords: %w", err)
		}
		for i := 0; i < min(count, len(flat)/2); i++ {
			texCoords[i] = mgl32.Vec2{flat[i*2], flat[i*2+1]}
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = e.parser.ReadUints(*prim.Indices, gltfAccessorTypeScalar)
		if err != nil {
			return fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		indices = make([]uint32, count)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("%d indices do not form whole triangles", len(indices))
	}

	base := uint32(m.VertexCount())
	for i := 0; i < count; i++ {
		m.AddVertex(mgl32.Vec3{positions[i*3], positions[i*3+1], positions[i*3+2]}, weights[i])
	}
	m.Colors = append(m.Colors, colors...)
	m.TexCoords = append(m.TexCoords, texCoords...)

	for i := 0; i < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= count || int(b) >= count || int(c) >= count {
			return fmt.Errorf("triangle %d references a vertex past %d", i/3, count)
		}
		m.AddTriangle(base+a, base+b, base+c)
	}
	return nil
}

// readWeights builds the per-vertex influence tables of a primitive.
func (e *gltfMeshExtractorImpl) readWeights(prim *gltfPrimitive, count int, sk *gltfSkeleton) ([]mesh.VertexWeights, error) {
	out := make([]mesh.VertexWeights, count)

	jointsAcc, hasJoints := prim.Attributes[gltfAttrJoints]
	weightsAcc, hasWeights := prim.Attributes[gltfAttrWeights]
	if !hasJoints || !hasWeights {
		for i := range out {
			out[i] = mesh.Weights(mesh.Influence{Joint: 0, Weight: 1})
		}
		return out, nil
	}

	joints, err := e.parser.ReadUints(jointsAcc, gltfAccessorTypeVec4)
	if err != nil {
		return nil, fmt.Errorf("failed to read joints: %w", err)
	}
	weights, _, err := e.parser.ReadFloats(weightsAcc, gltfAccessorTypeVec4)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights: %w", err)
	}
	if len(joints) < count*4 || len(weights) < count*4 {
		return nil, fmt.Errorf("skinning attributes cover fewer than %d vertices", count)
	}

	for v := 0; v < count; v++ {
		var w [4]float32
		var j [4]uint32
		copy(w[:], weights[v*4:v*4+4])
		copy(j[:], joints[v*4:v*4+4])

		inf, err := gltfTopInfluences(j, w, sk.slotToJoint)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", v, err)
		}
		out[v] = inf
	}
	return out, nil
}

// gltfTopInfluences keeps the MaxInfluences heaviest of four glTF influences. Weights are not
// renormalized after the lightest is dropped. Zero-weight influences stay empty regardless of
// the joint they name.
//
// Parameters:
//   - joints: the four skin joint slots
//   - weights: the four weights
//   - slotToJoint: the skin slot to sorted joint mapping
//
// Returns:
//   - mesh.VertexWeights: the reduced influence table
//   - error: error if a weighted slot is not a joint of the skin
func gltfTopInfluences(joints [4]uint32, weights [4]float32, slotToJoint []int) (mesh.VertexWeights, error) {
	order := []int{0, 1, 2, 3}
	sort.SliceStable(order, func(a, b int) bool {
		return weights[order[a]] > weights[order[b]]
	})

	var out mesh.VertexWeights
	for slot, k := range order[:mesh.MaxInfluences] {
		if weights[k] <= 0 {
			continue
		}
		if int(joints[k]) >= len(slotToJoint) {
			return out, fmt.Errorf("joint slot %d out of %d", joints[k], len(slotToJoint))
		}
		out[slot] = mesh.Influence{Joint: int32(slotToJoint[joints[k]]), Weight: weights[k]}
	}
	return out, nil
}
