package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfSkeleton is a skin converted to the skinning pipeline's joint order: parents always
// precede their children.
type gltfSkeleton struct {
	hierarchy skeleton.Hierarchy
	names     []string
	local     skeleton.Pose
	global    skeleton.Pose

	// nodeLocal is the joint nodes' own TRS. local differs from it only at roots that sit
	// under non-joint nodes: their ancestor frames are folded in.
	nodeLocal skeleton.Pose
	// rootFrames maps a root joint to the rigid world transform of its non-joint ancestors.
	rootFrames map[int]skeleton.Joint

	// nodeToJoint maps a glTF node index to its sorted joint index.
	nodeToJoint map[int]int
	// slotToJoint maps a position in skin.joints (the JOINTS_0 numbering) to the sorted joint index.
	slotToJoint []int
}

// gltfSkeletonExtractorImpl is the implementation of gltfSkeletonExtractor.
type gltfSkeletonExtractorImpl struct {
	parser gltfParser
}

// gltfSkeletonExtractor converts glTF skins into hierarchies and bind poses.
// This is internal to the loader package.
type gltfSkeletonExtractor interface {
	// ExtractSkeleton reads one skin.
	// The local bind pose comes from the joint nodes' TRS with scale dropped. The global bind
	// pose comes from the inverted inverse bind matrices when the skin has them, and is
	// composed from the local pose otherwise.
	//
	// Parameters:
	//   - skinIndex: the index of the skin in the document
	//
	// Returns:
	//   - *gltfSkeleton: the sorted skeleton
	//   - error: error if the skin is missing, cyclic or has a singular bind matrix
	ExtractSkeleton(skinIndex int) (*gltfSkeleton, error)

	// FindSkinnedMesh returns the first node pairing a mesh with a skin.
	//
	// Returns:
	//   - int: the mesh index, or -1
	//   - int: the skin index, or -1
	FindSkinnedMesh() (int, int)
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

// newGLTFSkeletonExtractor creates a skeleton extractor bound to a parser.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfSkeletonExtractor: the skeleton extractor
func newGLTFSkeletonExtractor(parser gltfParser) gltfSkeletonExtractor {
	return &gltfSkeletonExtractorImpl{parser: parser}
}

func (e *gltfSkeletonExtractorImpl) FindSkinnedMesh() (int, int) {
	doc := e.parser.Document()
	if doc == nil {
		return -1, -1
	}
	for _, node := range doc.Nodes {
		if node.Mesh != nil && node.Skin != nil {
			return *node.Mesh, *node.Skin
		}
	}
	return -1, -1
}

func (e *gltfSkeletonExtractorImpl) ExtractSkeleton(skinIndex int) (*gltfSkeleton, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}
	skin := &doc.Skins[skinIndex]
	if len(skin.Joints) == 0 {
		return nil, fmt.Errorf("skin %d has no joints", skinIndex)
	}

	var ibms []float32
	if skin.InverseBindMatrices != nil {
		var err error
		ibms, _, err = e.parser.ReadFloats(*skin.InverseBindMatrices, gltfAccessorTypeMat4)
		if err != nil {
			return nil, fmt.Errorf("failed to read inverse bind matrices: %w", err)
		}
		if len(ibms) < len(skin.Joints)*16 {
			return nil, fmt.Errorf("skin %d has %d inverse bind matrices for %d joints", skinIndex, len(ibms)/16, len(skin.Joints))
		}
	}

	nodeParent := make(map[int]int, len(doc.Nodes))
	for parent, node := range doc.Nodes {
		for _, child := range node.Children {
			nodeParent[child] = parent
		}
	}

	nodeToSlot := make(map[int]int, len(skin.Joints))
	for slot, nodeIdx := range skin.Joints {
		if nodeIdx < 0 || nodeIdx >= len(doc.Nodes) {
			return nil, fmt.Errorf("joint %d: invalid node index %d", slot, nodeIdx)
		}
		nodeToSlot[nodeIdx] = slot
	}

	// Parent slot per joint slot; a joint whose node parent is not a joint is a root.
	parentSlot := make([]int, len(skin.Joints))
	for slot, nodeIdx := range skin.Joints {
		parentSlot[slot] = skeleton.NoParent
		if p, ok := nodeParent[nodeIdx]; ok {
			if ps, ok := nodeToSlot[p]; ok {
				parentSlot[slot] = ps
			}
		}
	}

	order, err := gltfTopologicalSortJoints(parentSlot)
	if err != nil {
		return nil, fmt.Errorf("skin %d: %w", skinIndex, err)
	}

	sk := &gltfSkeleton{
		names:       make([]string, len(order)),
		local:       make(skeleton.Pose, len(order)),
		nodeToJoint: make(map[int]int, len(order)),
		slotToJoint: make([]int, len(order)),
	}
	for j, slot := range order {
		sk.slotToJoint[slot] = j
	}

	parents := make([]int, len(order))
	for j, slot := range order {
		nodeIdx := skin.Joints[slot]
		node := &doc.Nodes[nodeIdx]

		sk.nodeToJoint[nodeIdx] = j
		sk.names[j] = node.Name
		if sk.names[j] == "" {
			sk.names[j] = fmt.Sprintf("joint_%d", j)
		}
		sk.local[j] = gltfNodeJoint(node)

		parents[j] = skeleton.NoParent
		if ps := parentSlot[slot]; ps != skeleton.NoParent {
			parents[j] = sk.slotToJoint[ps]
		}
	}

	sk.hierarchy, err = skeleton.NewHierarchy(parents...)
	if err != nil {
		return nil, fmt.Errorf("skin %d: %w", skinIndex, err)
	}

	sk.nodeLocal = sk.local.Clone()
	for j, slot := range order {
		if parentSlot[slot] != skeleton.NoParent {
			continue
		}
		frame, err := gltfAncestorFrame(doc.Nodes, nodeParent, skin.Joints[slot])
		if err != nil {
			return nil, fmt.Errorf("skin %d: %w", skinIndex, err)
		}
		if !frame.ApproxEqual(skeleton.IdentityJoint(), 1e-6) {
			if sk.rootFrames == nil {
				sk.rootFrames = make(map[int]skeleton.Joint)
			}
			sk.rootFrames[j] = frame
		}
	}
	sk.foldRoots(sk.local)

	if ibms == nil {
		sk.global, err = skeleton.LocalToGlobal(sk.local, sk.hierarchy)
		if err != nil {
			return nil, fmt.Errorf("skin %d: %w", skinIndex, err)
		}
		return sk, nil
	}

	sk.global = make(skeleton.Pose, len(order))
	var ibm mgl32.Mat4
	for j, slot := range order {
		copy(ibm[:], ibms[slot*16:slot*16+16])
		if ibm.Det() == 0 {
			return nil, fmt.Errorf("skin %d: inverse bind matrix of joint %q is singular", skinIndex, sk.names[j])
		}
		sk.global[j] = gltfMatrixJoint(ibm.Inv())
	}
	return sk, nil
}

// --- Helper Functions ---

// foldRoots prepends each root joint's ancestor frame to pose in place and returns it.
func (sk *gltfSkeleton) foldRoots(pose skeleton.Pose) skeleton.Pose {
	for j, frame := range sk.rootFrames {
		pose[j] = frame.Compose(pose[j])
	}
	return pose
}

// gltfAncestorFrame composes the rigid bind transforms of every ancestor of nodeIdx, outermost
// first. Ancestors are treated as static: channels targeting them are not sampled.
func gltfAncestorFrame(nodes []gltfNode, nodeParent map[int]int, nodeIdx int) (skeleton.Joint, error) {
	frame := skeleton.IdentityJoint()
	n := nodeIdx
	for steps := 0; ; steps++ {
		p, ok := nodeParent[n]
		if !ok {
			return frame, nil
		}
		if steps >= len(nodes) {
			return frame, fmt.Errorf("node %d: cycle in the node tree", nodeIdx)
		}
		frame = gltfNodeJoint(&nodes[p]).Compose(frame)
		n = p
	}
}

// gltfNodeJoint reads a node's rigid transform. Scale is dropped: joints are rigid.
func gltfNodeJoint(node *gltfNode) skeleton.Joint {
	if node.Matrix != nil {
		return gltfMatrixJoint(mgl32.Mat4(*node.Matrix))
	}

	j := skeleton.IdentityJoint()
	if node.Translation != nil {
		j.Position = mgl32.Vec3(*node.Translation)
	}
	if node.Rotation != nil {
		j.Orientation = gltfQuat(*node.Rotation)
	}
	return j
}

// gltfQuat converts a glTF x, y, z, w rotation into a unit quaternion.
func gltfQuat(r [4]float32) mgl32.Quat {
	q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
	if q.Len() < 1e-6 {
		return mgl32.QuatIdent()
	}
	return q.Normalize()
}

// gltfMatrixJoint decomposes a column-major affine matrix into a rigid joint. The basis
// columns are normalized first so uniform or axis scale does not leak into the rotation.
// Shear is not supported.
func gltfMatrixJoint(mat mgl32.Mat4) skeleton.Joint {
	cols := [3]mgl32.Vec4{}
	for i := range cols {
		c := mat.Col(i).Vec3()
		if l := c.Len(); l > 1e-6 {
			c = c.Mul(1 / l)
		}
		cols[i] = c.Vec4(0)
	}
	rot := mgl32.Mat4FromCols(cols[0], cols[1], cols[2], mgl32.Vec4{0, 0, 0, 1})

	return skeleton.NewJoint(mat.Col(3).Vec3(), mgl32.Mat4ToQuat(rot).Normalize())
}

// gltfTopologicalSortJoints orders joint slots breadth first from the roots so every parent
// precedes its children. Roots keep their skin order.
//
// Parameters:
//   - parentSlot: the parent slot of each joint slot, NoParent for roots
//
// Returns:
//   - []int: joint slots in sorted order
//   - error: error if the parent links contain a cycle
func gltfTopologicalSortJoints(parentSlot []int) ([]int, error) {
	children := make([][]int, len(parentSlot))
	queue := make([]int, 0, len(parentSlot))
	for slot, p := range parentSlot {
		if p == skeleton.NoParent {
			queue = append(queue, slot)
			continue
		}
		children[p] = append(children[p], slot)
	}

	order := make([]int, 0, len(parentSlot))
	for len(queue) > 0 {
		slot := queue[0]
		queue = queue[1:]
		order = append(order, slot)
		queue = append(queue, children[slot]...)
	}

	if len(order) != len(parentSlot) {
		return nil, fmt.Errorf("%d of %d joints are unreachable from a root", len(parentSlot)-len(order), len(parentSlot))
	}
	return order, nil
}
