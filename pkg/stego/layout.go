package stego

import (
	"fmt"
	"strings"

	"github.com/Beastly713/lsbkit/pkg/format"
)

// Layout decides which buffer bytes carry payload bits. The header is always
// in the R channel of pixels 0..31 regardless of layout.
type Layout int

const (
	// LayoutRGB writes one bit into each of R, G and B of consecutive pixels,
	// starting at pixel 32. Alpha is never touched.
	LayoutRGB Layout = iota

	// LayoutSequential writes bits into consecutive buffer bytes starting at
	// byte 128, alpha included. This is how images from the browser version
	// of the tool were written.
	LayoutSequential
)

func (l Layout) String() string {
	switch l {
	case LayoutRGB:
		return "rgb"
	case LayoutSequential:
		return "sequential"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout maps a layout name to its value.
func ParseLayout(name string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rgb":
		return LayoutRGB, nil
	case "sequential", "legacy":
		return LayoutSequential, nil
	default:
		return 0, fmt.Errorf("%w: unknown layout %q", ErrValidation, name)
	}
}

// slot returns the buffer index that carries payload bit k.
func (l Layout) slot(k int) int {
	if l == LayoutSequential {
		return format.ReservedChannels + k
	}
	pixel := format.HeaderPixels + k/3
	return pixel*format.ChannelsPerPixel + k%3
}

// Option tunes Embed, Retrieve, Hide and Extract.
type Option func(*options)

type options struct {
	layout Layout
}

// WithLayout selects the payload layout. The default is LayoutRGB.
func WithLayout(l Layout) Option {
	return func(o *options) {
		o.layout = l
	}
}

func collectOptions(opts []Option) options {
	o := options{layout: LayoutRGB}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
