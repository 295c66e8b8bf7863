package raster

import "image/color"

// RendererBuilderOption is a functional option for configuring a Renderer via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithSize is an option builder that sets the output image edge in pixels. Non-positive values
// keep DefaultSize.
//
// Parameters:
//   - size: the square output size
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithSize(size int) RendererBuilderOption {
	return func(r *renderer) {
		if size > 0 {
			r.size = size
		}
	}
}

// WithSupersample is an option builder that renders at factor times the output size and scales
// down. Values below 1 keep 1.
//
// Parameters:
//   - factor: the supersampling factor
//
// Returns:
//   - RendererBuilderOption: a function that applies the supersample option to a renderer
func WithSupersample(factor int) RendererBuilderOption {
	return func(r *renderer) {
		r.supersample = max(factor, 1)
	}
}

// WithOrbit is an option builder that places the camera on a sphere around the scene center.
// Yaw 0 looks from +Z towards -Z; pitch is clamped just short of the poles.
//
// Parameters:
//   - yaw: rotation about +Y in degrees
//   - pitch: elevation in degrees
//
// Returns:
//   - RendererBuilderOption: a function that applies the orbit option to a renderer
func WithOrbit(yaw, pitch float32) RendererBuilderOption {
	return func(r *renderer) {
		r.yaw = yaw
		r.pitch = min(max(pitch, -89), 89)
	}
}

// WithBackground is an option builder that sets the clear color.
func WithBackground(c color.NRGBA) RendererBuilderOption {
	return func(r *renderer) {
		r.background = c
	}
}

// WithBoneColor is an option builder that sets the color bone segments are drawn in.
func WithBoneColor(c color.NRGBA) RendererBuilderOption {
	return func(r *renderer) {
		r.boneColor = c
	}
}

// WithLight is an option builder that replaces DefaultLightConfig.
//
// Parameters:
//   - lc: the light configuration; a zero Direction keeps the default direction
//
// Returns:
//   - RendererBuilderOption: a function that applies the light option to a renderer
func WithLight(lc LightConfig) RendererBuilderOption {
	return func(r *renderer) {
		if lc.Direction.Len() == 0 {
			lc.Direction = r.light.Direction
		}
		lc.Direction = lc.Direction.Normalize()
		r.light = lc
	}
}
