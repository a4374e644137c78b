// Package stego hides short messages in the least significant bits of an RGBA
// pixel buffer.
//
// Wire format: the payload bit length is written as a 32-bit big-endian
// number into the low bit of the R channel of pixels 0..31. Payload bits
// follow from pixel 32 on, one per channel, in the order chosen by the Layout.
// Hide and Extract add the password XOR pad and the one-byte-per-character
// text encoding on top of Embed and Retrieve.
package stego

import (
	"fmt"
	"math"

	"github.com/Beastly713/lsbkit/pkg/crypto/keystream"
	"github.com/Beastly713/lsbkit/pkg/format"
)

// CapacityRatio is the share of the post-header buffer that a payload may
// claim. It is applied to the full RGBA sample count, which makes the limit
// equal to the number of R, G and B samples after the header pixels. Images
// written with one ratio cannot always be read with another.
const CapacityRatio = 0.75

// Capacity describes how much a carrier can hold.
type Capacity struct {
	// Bits is the payload budget in bits, never negative.
	Bits int

	// Chars is the number of one-byte characters that fit.
	Chars int
}

// MaxPayloadBits returns floor((len(Pix) - 128) * CapacityRatio). It is
// negative for carriers smaller than the 32 header pixels.
func MaxPayloadBits(carrier *PixelBuffer) int {
	return int(math.Floor(float64(len(carrier.Pix)-format.ReservedChannels) * CapacityRatio))
}

// CapacityOf reports the payload budget of a carrier.
func CapacityOf(carrier *PixelBuffer) Capacity {
	bits := MaxPayloadBits(carrier)
	if bits < 0 {
		bits = 0
	}
	return Capacity{Bits: bits, Chars: bits / 8}
}

// Hide obfuscates message with password and embeds it in a copy of carrier.
// The carrier itself is never modified.
func Hide(carrier *PixelBuffer, message, password string, opts ...Option) (*PixelBuffer, error) {
	if message == "" {
		return nil, ErrMessageRequired
	}
	pad, err := keystream.New(password)
	if err != nil {
		return nil, ErrPasswordRequired
	}

	encrypted := pad.Apply(keystream.Units(message))
	return Embed(carrier, keystream.Truncate(encrypted), opts...)
}

// Extract reads the payload from carrier and removes the password pad.
//
// Extract cannot tell a wrong password from a right one: a wrong password
// returns different text and a nil error. Only structural failures return
// ErrExtractFailed.
func Extract(carrier *PixelBuffer, password string, opts ...Option) (string, error) {
	pad, err := keystream.New(password)
	if err != nil {
		return "", ErrPasswordRequired
	}

	payload, err := Retrieve(carrier, opts...)
	if err != nil {
		return "", err
	}

	return keystream.String(pad.Apply(keystream.Widen(payload))), nil
}

// Embed writes payload into a copy of carrier, eight bits per byte.
func Embed(carrier *PixelBuffer, payload []byte, opts ...Option) (*PixelBuffer, error) {
	if err := carrier.Validate(); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, ErrMessageRequired
	}
	o := collectOptions(opts)

	return embedBits(carrier, format.Encode(payload), o.layout)
}

func embedBits(carrier *PixelBuffer, bits []uint8, layout Layout) (*PixelBuffer, error) {
	maxBits := MaxPayloadBits(carrier)
	if len(bits) > maxBits {
		return nil, fmt.Errorf("%w: need %d bits, have %d", ErrMessageTooLarge, len(bits), max(maxBits, 0))
	}

	output := carrier.Clone()

	header := format.Header{BitLen: uint32(len(bits))}
	for i, bit := range header.Bits() {
		setLSB(&output.Pix[i*format.ChannelsPerPixel], bit)
	}

	for k, bit := range bits {
		setLSB(&output.Pix[layout.slot(k)], bit)
	}

	return output, nil
}

// Retrieve reads the payload written by Embed. When the header is not a
// multiple of eight the last byte is padded with zero bits.
func Retrieve(carrier *PixelBuffer, opts ...Option) ([]byte, error) {
	if err := carrier.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractFailed, err)
	}
	o := collectOptions(opts)

	if carrier.Pixels() < format.HeaderPixels {
		return nil, fmt.Errorf("%w: image has %d pixels, header needs %d", ErrNoHiddenData, carrier.Pixels(), format.HeaderPixels)
	}

	headerBits := make([]uint8, format.HeaderBits)
	for i := range headerBits {
		headerBits[i] = carrier.Pix[i*format.ChannelsPerPixel] & 1
	}
	header, err := format.ParseHeader(headerBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractFailed, err)
	}
	if err := header.Validate(MaxPayloadBits(carrier)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoHiddenData, err)
	}

	bits := make([]uint8, header.BitLen)
	for k := range bits {
		idx := o.layout.slot(k)
		if idx >= len(carrier.Pix) {
			return nil, fmt.Errorf("%w: image ended after %d of %d bits", ErrExtractFailed, k, header.BitLen)
		}
		bits[k] = carrier.Pix[idx] & 1
	}

	payload, err := format.Decode(bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractFailed, err)
	}
	return payload, nil
}

func setLSB(val *uint8, bit uint8) {
	*val = (*val & 0xFE) | bit
}
