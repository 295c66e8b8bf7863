package raster

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
)

// Downsample scales a supersampled image down to size x size with Catmull-Rom filtering.
// Color is premultiplied by alpha before scaling so transparent background pixels do not bleed
// into edges.
//
// Parameters:
//   - img: the supersampled image
//   - size: the output edge in pixels
//
// Returns:
//   - *image.NRGBA: the scaled image, or img itself when it already has that size
func Downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return img
	}

	premul := image.NewRGBA(b)
	for i := 0; i < len(img.Pix); i += 4 {
		a := uint16(img.Pix[i+3])
		premul.Pix[i] = uint8(uint16(img.Pix[i]) * a / 255)
		premul.Pix[i+1] = uint8(uint16(img.Pix[i+1]) * a / 255)
		premul.Pix[i+2] = uint8(uint16(img.Pix[i+2]) * a / 255)
		premul.Pix[i+3] = img.Pix[i+3]
	}

	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(scaled.Bounds())
	for i := 0; i < len(scaled.Pix); i += 4 {
		a := scaled.Pix[i+3]
		out.Pix[i+3] = a
		if a == 0 {
			continue
		}
		out.Pix[i] = unpremultiply(scaled.Pix[i], a)
		out.Pix[i+1] = unpremultiply(scaled.Pix[i+1], a)
		out.Pix[i+2] = unpremultiply(scaled.Pix[i+2], a)
	}
	return out
}

func unpremultiply(c, a uint8) uint8 {
	v := int(c) * 255 / int(a)
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// EncodeWebP writes img as a lossless WebP stream.
//
// Parameters:
//   - w: the destination writer
//   - img: the image to encode
//
// Returns:
//   - error: error if encoding fails
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("encode webp: %w", err)
	}
	return nil
}

// WriteWebP encodes img into the file at path, creating parent directories as needed.
//
// Parameters:
//   - path: the output file path
//   - img: the image to encode
//
// Returns:
//   - error: error if the file cannot be created or encoding fails
func WriteWebP(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodeWebP(f, img); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
