package stego

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	"github.com/Beastly713/lsbkit/pkg/format"
)

// PixelBuffer is a raster in non-premultiplied RGBA order, four bytes per
// pixel, rows packed with no padding. It mirrors a browser ImageData.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer allocates a zeroed buffer.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*format.ChannelsPerPixel),
	}
}

// FromImage copies any image into a fresh buffer.
func FromImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	// Fast path (avoids color conversion loss on translucent pixels)
	if src, ok := img.(*image.NRGBA); ok {
		buf := NewPixelBuffer(width, height)
		rowLen := width * format.ChannelsPerPixel
		for y := 0; y < height; y++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.Pix[y*rowLen:(y+1)*rowLen], src.Pix[off:off+rowLen])
		}
		return buf
	}

	// image.NewNRGBA has Stride == 4*width, so Pix is already tightly packed
	nrgba := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)

	return &PixelBuffer{Width: width, Height: height, Pix: nrgba.Pix}
}

// Image returns an image.NRGBA view over the buffer. The view shares Pix.
func (b *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * format.ChannelsPerPixel,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Clone returns a deep copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &PixelBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Equal compares dimensions and pixel values.
func (b *PixelBuffer) Equal(other *PixelBuffer) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.Width == other.Width && b.Height == other.Height && bytes.Equal(b.Pix, other.Pix)
}

// Pixels returns the number of pixels.
func (b *PixelBuffer) Pixels() int {
	return b.Width * b.Height
}

// Validate checks that Pix holds exactly Width*Height RGBA pixels.
func (b *PixelBuffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrInvalidBuffer, b.Width, b.Height)
	}
	if want := b.Width * b.Height * format.ChannelsPerPixel; len(b.Pix) != want {
		return fmt.Errorf("%w: %dx%d needs %d bytes, have %d", ErrInvalidBuffer, b.Width, b.Height, want, len(b.Pix))
	}
	return nil
}
