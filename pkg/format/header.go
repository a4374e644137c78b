package format

import (
	"errors"
	"fmt"
)

// Layout of the length prefix shared by every payload.
const (
	// HeaderBits is the width of the length prefix.
	HeaderBits = 32

	// HeaderPixels is the number of pixels whose R channel carries the prefix.
	HeaderPixels = HeaderBits

	// ChannelsPerPixel is the number of samples per pixel in an RGBA buffer.
	ChannelsPerPixel = 4

	// ReservedChannels is the number of buffer samples set aside for the prefix.
	// Only the R sample of each header pixel is written, but the whole pixel is reserved.
	ReservedChannels = HeaderPixels * ChannelsPerPixel
)

var (
	// ErrHeaderLength is returned when a header is parsed from the wrong number of bits.
	ErrHeaderLength = fmt.Errorf("header must be exactly %d bits", HeaderBits)

	// ErrEmptyPayload is returned by Validate for a zero length prefix.
	ErrEmptyPayload = errors.New("header declares an empty payload")

	// ErrPayloadTooLarge is returned by Validate when the prefix exceeds the carrier budget.
	ErrPayloadTooLarge = errors.New("header declares more bits than the carrier holds")
)

// Header is the length prefix written ahead of the payload bits.
type Header struct {
	// BitLen is the number of payload bits that follow the header.
	BitLen uint32
}

// Validate checks the declared length against the carrier's payload budget.
func (h Header) Validate(maxBits int) error {
	if h.BitLen == 0 {
		return ErrEmptyPayload
	}
	if int64(h.BitLen) > int64(maxBits) {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, h.BitLen, maxBits)
	}
	return nil
}

// Bits renders the header most significant bit first.
func (h Header) Bits() []uint8 {
	bits := make([]uint8, HeaderBits)
	for i := range bits {
		bits[i] = uint8(h.BitLen>>(HeaderBits-1-i)) & 1
	}
	return bits
}

// ParseHeader rebuilds a header from its 32 bits, most significant first.
func ParseHeader(bits []uint8) (Header, error) {
	if len(bits) != HeaderBits {
		return Header{}, ErrHeaderLength
	}
	var n uint32
	for _, b := range bits {
		if b > 1 {
			return Header{}, ErrInvalidBit
		}
		n = n<<1 | uint32(b)
	}
	return Header{BitLen: n}, nil
}
