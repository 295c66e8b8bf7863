// Package raster draws skinned meshes and bone segments into images with a small z-buffered
// software rasterizer and writes them as WebP snapshots.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/animator"
	"github.com/Carmen-Shannon/oxy-skin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

// Defaults applied by NewRenderer.
const (
	DefaultSize        = 256
	DefaultSupersample = 2
	DefaultYaw         = 60
	DefaultPitch       = 20
)

// DefaultBoneColor is the color bone segments are drawn in.
var DefaultBoneColor = color.NRGBA{R: 220, G: 50, B: 40, A: 255}

// margin is the fraction of the framed extent left empty on each side.
const margin = 0.06

// renderer is the implementation of the Renderer interface.
type renderer struct {
	size        int
	supersample int
	yaw         float32
	pitch       float32
	background  color.NRGBA
	boneColor   color.NRGBA
	light       LightConfig
}

// Renderer draws meshes and bones with an orthographic orbit camera that frames everything it is
// given. A Renderer holds no per-image state and is safe for concurrent use.
type Renderer interface {
	// Size returns the output image edge in pixels.
	Size() int

	// Render draws the meshes with per-vertex color and two-sided Lambert shading, then draws
	// the bones on top without a depth test.
	//
	// Parameters:
	//   - meshes: the meshes to draw; nil entries are skipped
	//   - bones: the bone segments to overlay
	//
	// Returns:
	//   - *image.NRGBA: the Size x Size image; just the background if there is nothing to draw
	Render(meshes []*mesh.Mesh, bones []skeleton.Segment) *image.NRGBA

	// RenderFrames draws the deformed mesh and bones of every frame together with static
	// meshes such as a ground plane.
	//
	// Parameters:
	//   - frames: animator frames from a scene update
	//   - static: additional meshes drawn as they are
	//
	// Returns:
	//   - *image.NRGBA: the Size x Size image
	RenderFrames(frames []animator.Frame, static ...*mesh.Mesh) *image.NRGBA
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer with the given options applied over the defaults.
//
// Parameters:
//   - options: a variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the configured renderer
func NewRenderer(options ...RendererBuilderOption) Renderer {
	r := &renderer{
		size:        DefaultSize,
		supersample: DefaultSupersample,
		yaw:         DefaultYaw,
		pitch:       DefaultPitch,
		boneColor:   DefaultBoneColor,
		light:       DefaultLightConfig(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *renderer) Size() int {
	return r.size
}

func (r *renderer) RenderFrames(frames []animator.Frame, static ...*mesh.Mesh) *image.NRGBA {
	meshes := make([]*mesh.Mesh, 0, len(frames)+len(static))
	var bones []skeleton.Segment
	for _, f := range frames {
		if f.Mesh != nil {
			meshes = append(meshes, &f.Mesh.Mesh)
		}
		bones = append(bones, f.Bones...)
	}
	meshes = append(meshes, static...)
	return r.Render(meshes, bones)
}

func (r *renderer) Render(meshes []*mesh.Mesh, bones []skeleton.Segment) *image.NRGBA {
	renderSize := r.size * r.supersample
	fb := NewFrameBuffer(renderSize, renderSize, r.background)

	var bounds common.Bounds
	for _, m := range meshes {
		if m != nil {
			bounds.Union(m.Bounds())
		}
	}
	for _, s := range bones {
		bounds.Extend(s.From)
		bounds.Extend(s.To)
	}
	if !bounds.Valid {
		return Downsample(fb.Image(), r.size)
	}

	mvp := r.frame(bounds, meshes, bones)
	project := func(p mgl32.Vec3) (float32, float32, float32) {
		c := mvp.Mul4x1(p.Vec4(1))
		return (c[0] + 1) * 0.5 * float32(renderSize), (1 - c[1]) * 0.5 * float32(renderSize), c[2]
	}

	for _, m := range meshes {
		if m != nil {
			r.drawMesh(fb, m, project)
		}
	}

	width := 2 * r.supersample
	for _, s := range bones {
		x0, y0, _ := project(s.From)
		x1, y1, _ := project(s.To)
		drawLine(fb, x0, y0, x1, y1, width, r.boneColor.R, r.boneColor.G, r.boneColor.B)
	}

	return Downsample(fb.Image(), r.size)
}

// depthRemap maps GL clip depth [-1,1] onto the [0,1] range the z-buffer is cleared against.
var depthRemap = mgl32.Translate3D(0, 0, 0.5).Mul4(mgl32.Scale3D(1, 1, 0.5))

// frame builds the view-projection matrix: an orbit LookAt around the bounds center and an
// orthographic box fitted square around everything in view space. Depth comes out in [0,1],
// near to far.
func (r *renderer) frame(bounds common.Bounds, meshes []*mesh.Mesh, bones []skeleton.Segment) mgl32.Mat4 {
	center := mgl32.Vec3(bounds.Center())
	radius := max(bounds.Radius(), 1e-3)

	yaw := float64(mgl32.DegToRad(r.yaw))
	pitch := float64(mgl32.DegToRad(r.pitch))
	dist := 2*radius + 1
	eye := center.Add(mgl32.Vec3{
		float32(math.Cos(pitch) * math.Sin(yaw)),
		float32(math.Sin(pitch)),
		float32(math.Cos(pitch) * math.Cos(yaw)),
	}.Mul(dist))

	view := mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0})

	var vb common.Bounds
	extend := func(p mgl32.Vec3) {
		vb.Extend(view.Mul4x1(p.Vec4(1)).Vec3())
	}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		for _, p := range m.Positions {
			extend(p)
		}
	}
	for _, s := range bones {
		extend(s.From)
		extend(s.To)
	}

	vc := vb.Center()
	span := max(vb.Max[0]-vb.Min[0], vb.Max[1]-vb.Min[1], 1e-3)
	half := span * (0.5 + margin)
	pad := radius*0.05 + 1e-3

	proj := mgl32.Ortho(vc[0]-half, vc[0]+half, vc[1]-half, vc[1]+half, -vb.Max[2]-pad, -vb.Min[2]+pad)
	return depthRemap.Mul4(proj).Mul4(view)
}

// drawMesh shades every vertex once and rasterizes the triangles.
func (r *renderer) drawMesh(fb *FrameBuffer, m *mesh.Mesh, project func(mgl32.Vec3) (float32, float32, float32)) {
	verts := make([]screenVertex, len(m.Positions))
	for i, p := range m.Positions {
		c := mesh.DefaultColor
		if i < len(m.Colors) {
			c = m.Colors[i]
		}
		shade := r.light.Ambient + r.light.Diffuse
		if i < len(m.Normals) {
			shade = r.light.Shade(m.Normals[i])
		}
		x, y, z := project(p)
		verts[i] = screenVertex{X: x, Y: y, Z: z, R: c[0] * shade, G: c[1] * shade, B: c[2] * shade}
	}

	n := uint32(len(verts))
	for _, t := range m.Triangles {
		if t[0] >= n || t[1] >= n || t[2] >= n {
			continue
		}
		rasterizeTriangle(fb, verts[t[0]], verts[t[1]], verts[t[2]])
	}
}
