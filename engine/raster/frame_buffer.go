package raster

import (
	"image"
	"image/color"
	"math"
)

// FrameBuffer holds the render target as flat slices for cache locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4
	ZBuf   []float32 // depth per pixel in [0, 1], smaller is closer, initialized to +inf
}

// NewFrameBuffer allocates a frame buffer filled with the background color and a +inf z-buffer.
//
// Parameters:
//   - w: width in pixels
//   - h: height in pixels
//   - bg: the background color
//
// Returns:
//   - *FrameBuffer: the cleared frame buffer
func NewFrameBuffer(w, h int, bg color.NRGBA) *FrameBuffer {
	n := w * h
	fb := &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, n*4),
		ZBuf:   make([]float32, n),
	}
	for i := 0; i < n; i++ {
		fb.ZBuf[i] = float32(math.Inf(1))
		fb.Color[i*4] = bg.R
		fb.Color[i*4+1] = bg.G
		fb.Color[i*4+2] = bg.B
		fb.Color[i*4+3] = bg.A
	}
	return fb
}

// set writes an opaque pixel, ignoring coordinates outside the buffer.
func (fb *FrameBuffer) set(x, y int, r, g, b uint8) {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return
	}
	i := (y*fb.Width + x) * 4
	fb.Color[i] = r
	fb.Color[i+1] = g
	fb.Color[i+2] = b
	fb.Color[i+3] = 255
}

// Image copies the color buffer into a new NRGBA image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	copy(img.Pix, fb.Color)
	return img
}
