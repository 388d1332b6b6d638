// Package render turns text into QR code rasters. It owns the drawing surface
// type, the go-qrcode backed encoder and PNG export.
package render

import (
	"image"
	"image/color"
	"image/draw"
)

// Surface is a square RGBA raster that an Encoder paints onto. The caller owns
// it; encoders only borrow it for the duration of a single Encode call.
type Surface struct {
	img *image.RGBA
}

// NewSurface returns a blank surface of width x width pixels.
func NewSurface(width int) *Surface {
	if width < 1 {
		width = 1
	}
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, width))}
}

// Width returns the current edge length in pixels.
func (s *Surface) Width() int {
	return s.img.Bounds().Dx()
}

// Resize reallocates the backing raster when width differs from the current
// size. Contents are discarded either way.
func (s *Surface) Resize(width int) {
	if width < 1 {
		width = 1
	}
	if width == s.Width() {
		return
	}
	s.img = image.NewRGBA(image.Rect(0, 0, width, width))
}

// Fill paints every pixel with c.
func (s *Surface) Fill(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// Image exposes the backing raster. The returned image aliases the surface.
func (s *Surface) Image() *image.RGBA {
	return s.img
}
