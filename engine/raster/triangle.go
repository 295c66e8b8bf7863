package raster

import "math"

// screenVertex is a projected vertex: pixel coordinates, depth in [0, 1] and a shaded linear
// color.
type screenVertex struct {
	X, Y, Z float32
	R, G, B float32
}

// rasterizeTriangle fills a triangle with barycentric color interpolation and a z-test. Both
// windings are drawn.
func rasterizeTriangle(fb *FrameBuffer, v0, v1, v2 screenVertex) {
	minX := int(math.Floor(float64(min(v0.X, v1.X, v2.X))))
	maxX := int(math.Ceil(float64(max(v0.X, v1.X, v2.X))))
	minY := int(math.Floor(float64(min(v0.Y, v1.Y, v2.Y))))
	maxY := int(math.Ceil(float64(max(v0.Y, v1.Y, v2.Y))))

	// Clamp to framebuffer
	minX = max(minX, 0)
	minY = max(minY, 0)
	maxX = min(maxX, fb.Width-1)
	maxY = min(maxY, fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	dy12 := v1.Y - v2.Y
	dx21 := v2.X - v1.X
	dy20 := v2.Y - v0.Y
	dx02 := v0.X - v2.X
	det := dy12*dx02 + dx21*(v0.Y-v2.Y)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1 / det

	for sy := minY; sy <= maxY; sy++ {
		dsy := float32(sy) + 0.5 - v2.Y
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float32(sx) + 0.5 - v2.X
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < -1e-4 || w1 < -1e-4 || w2 < -1e-4 {
				continue
			}

			z := w0*v0.Z + w1*v1.Z + w2*v2.Z
			zIdx := rowOff + sx
			if z >= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = z

			px := zIdx * 4
			fb.Color[px] = clamp8(w0*v0.R + w1*v1.R + w2*v2.R)
			fb.Color[px+1] = clamp8(w0*v0.G + w1*v1.G + w2*v2.G)
			fb.Color[px+2] = clamp8(w0*v0.B + w1*v1.B + w2*v2.B)
			fb.Color[px+3] = 255
		}
	}
}

// drawLine draws a segment of the given pixel width without a depth test.
func drawLine(fb *FrameBuffer, x0, y0, x1, y1 float32, width int, r, g, b uint8) {
	dx, dy := x1-x0, y1-y0
	steps := int(math.Ceil(math.Max(math.Abs(float64(dx)), math.Abs(float64(dy)))))
	if steps == 0 {
		steps = 1
	}
	half := width / 2
	for s := 0; s <= steps; s++ {
		t := float32(s) / float32(steps)
		cx := int(math.Floor(float64(x0 + dx*t)))
		cy := int(math.Floor(float64(y0 + dy*t)))
		for oy := -half; oy < width-half; oy++ {
			for ox := -half; ox < width-half; ox++ {
				fb.set(cx+ox, cy+oy, r, g, b)
			}
		}
	}
}

// clamp8 maps a [0, 1] channel to a byte.
func clamp8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
