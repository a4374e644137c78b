package format

import (
	"errors"
	"fmt"
)

// ErrInvalidBit is returned when a bit slice holds something other than 0 or 1.
var ErrInvalidBit = errors.New("bit value must be 0 or 1")

// Decode packs bits back into bytes. A trailing group shorter than eight bits
// is padded with zeros on the right, so 3 bits "101" decode to 0b10100000.
func Decode(bits []uint8) ([]byte, error) {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b > 1 {
			return nil, fmt.Errorf("%w: got %d at index %d", ErrInvalidBit, b, i)
		}
		out[i/8] |= b << (7 - i%8)
	}
	return out, nil
}
