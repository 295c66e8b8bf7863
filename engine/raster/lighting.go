package raster

import "github.com/go-gl/mathgl/mgl32"

// LightConfig is a single directional light plus an ambient term.
type LightConfig struct {
	// Direction points from the surface towards the light, in world space.
	Direction mgl32.Vec3
	// Ambient is the shade every surface receives.
	Ambient float32
	// Diffuse scales the Lambert term.
	Diffuse float32
}

// DefaultLightConfig returns a light from above and in front of the default orbit.
func DefaultLightConfig() LightConfig {
	return LightConfig{
		Direction: mgl32.Vec3{0.4, 0.8, 0.45}.Normalize(),
		Ambient:   0.3,
		Diffuse:   0.7,
	}
}

// Shade returns the light factor for a surface normal. Lighting is two-sided: back faces are lit
// like front faces, so open meshes and either ground winding read correctly.
//
// Parameters:
//   - n: the unit surface normal
//
// Returns:
//   - float32: the shade factor, at most Ambient + Diffuse
func (lc LightConfig) Shade(n mgl32.Vec3) float32 {
	d := n.Dot(lc.Direction)
	if d < 0 {
		d = -d
	}
	return lc.Ambient + lc.Diffuse*d
}
