package format_test

import (
	"testing"

	"github.com/Beastly713/lsbkit/pkg/format"
)

// FuzzDecode checks that arbitrary bit slices either decode or fail with an
// error, and that anything made only of 0 and 1 survives a second encode.
func FuzzDecode(f *testing.F) {
	f.Add([]byte{0, 1, 1, 0, 1, 0, 0, 0})
	f.Add([]byte{1, 0, 1})
	f.Add([]byte{2})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, bits []byte) {
		decoded, err := format.Decode(bits)
		if err != nil {
			return
		}

		again := format.Encode(decoded)
		for i, b := range bits {
			if again[i] != b {
				t.Fatalf("bit %d changed from %d to %d", i, b, again[i])
			}
		}
		for _, b := range again[len(bits):] {
			if b != 0 {
				t.Fatal("padding bits must be zero")
			}
		}
	})
}

func FuzzParseHeader(f *testing.F) {
	f.Add(make([]byte, format.HeaderBits))
	f.Add([]byte{1, 1, 1})

	f.Fuzz(func(t *testing.T, bits []byte) {
		h, err := format.ParseHeader(bits)
		if err != nil {
			return
		}
		again := h.Bits()
		for i := range bits {
			if again[i] != bits[i] {
				t.Fatalf("header bit %d not preserved", i)
			}
		}
	})
}
