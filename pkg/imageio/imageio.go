// Package imageio converts image files to and from stego pixel buffers.
//
// Any registered format can be read, but only lossless formats can be
// written: re-compressing with JPEG or quantizing to a GIF palette changes the
// low bits that carry the payload.
package imageio

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Beastly713/lsbkit/pkg/stego"
)

// Format names an image container.
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
)

var (
	// ErrUnsupportedFormat is returned for names or extensions we do not know.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrLossyFormat is returned when asked to write a format that would destroy the payload.
	ErrLossyFormat = errors.New("lossy format cannot carry hidden data")
)

// Lossless reports whether the format keeps every pixel value exactly. BMP
// keeps R, G and B only; Encode refuses BMP for buffers that are not fully
// opaque.
func (f Format) Lossless() bool {
	switch f {
	case PNG, BMP, TIFF:
		return true
	default:
		return false
	}
}

// Ext returns the usual file extension, dot included.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return ".jpg"
	case TIFF:
		return ".tiff"
	default:
		return "." + string(f)
	}
}

// ParseFormat accepts a format name as typed by a user.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "gif":
		return GIF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Decode reads an image and returns its pixels along with the detected format.
func Decode(r io.Reader) (*stego.PixelBuffer, Format, error) {
	img, name, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	f, err := ParseFormat(name)
	if err != nil {
		return nil, "", err
	}
	return stego.FromImage(img), f, nil
}

// Load decodes the image stored at path.
func Load(path string) (*stego.PixelBuffer, Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// EncodeOption tunes Encode.
type EncodeOption func(*encodeOptions)

type encodeOptions struct {
	pngLevel png.CompressionLevel
}

// WithPNGCompression sets the zlib level used for PNG output.
func WithPNGCompression(level png.CompressionLevel) EncodeOption {
	return func(o *encodeOptions) {
		o.pngLevel = level
	}
}

// ParsePNGCompression maps a level name to png.CompressionLevel.
func ParsePNGCompression(name string) (png.CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "speed", "fast":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	default:
		return 0, fmt.Errorf("unknown png compression %q", name)
	}
}

// Encode writes buf in the requested lossless format.
func Encode(w io.Writer, buf *stego.PixelBuffer, f Format, opts ...EncodeOption) error {
	o := encodeOptions{pngLevel: png.DefaultCompression}
	for _, opt := range opts {
		opt(&o)
	}

	if err := buf.Validate(); err != nil {
		return err
	}
	img := buf.Image()

	switch f {
	case PNG:
		encoder := png.Encoder{CompressionLevel: o.pngLevel}
		return encoder.Encode(w, img)
	case BMP:
		if err := checkOpaque(buf, f); err != nil {
			return err
		}
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case JPEG, GIF:
		return fmt.Errorf("%w: %s", ErrLossyFormat, f)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}

// checkOpaque rejects buffers whose alpha channel f cannot store. The BMP
// encoder writes every pixel as opaque, which loses translucency and any
// payload bits carried by alpha bytes.
func checkOpaque(buf *stego.PixelBuffer, f Format) error {
	for i := 3; i < len(buf.Pix); i += 4 {
		if buf.Pix[i] != 0xFF {
			return fmt.Errorf("%w: %s cannot store alpha (pixel %d has alpha %d)", ErrLossyFormat, f, i/4, buf.Pix[i])
		}
	}
	return nil
}

// Save encodes buf to path, creating or truncating the file.
func Save(path string, buf *stego.PixelBuffer, f Format, opts ...EncodeOption) error {
	if !f.Lossless() {
		return fmt.Errorf("%w: %s", ErrLossyFormat, f)
	}
	if f == BMP {
		if err := buf.Validate(); err != nil {
			return err
		}
		if err := checkOpaque(buf, f); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	if err := Encode(file, buf, f, opts...); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}
