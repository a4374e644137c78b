package stego

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Beastly713/lsbkit/pkg/format"
)

// uniformCarrier builds a width x height buffer with every sample set to v.
func uniformCarrier(width, height int, v uint8) *PixelBuffer {
	buf := NewPixelBuffer(width, height)
	for i := range buf.Pix {
		buf.Pix[i] = v
	}
	return buf
}

// noisyCarrier fills the buffer with a deterministic pattern so LSBs vary.
func noisyCarrier(width, height int) *PixelBuffer {
	buf := NewPixelBuffer(width, height)
	for i := range buf.Pix {
		buf.Pix[i] = uint8(i*37 + i/7)
	}
	return buf
}

func readHeader(t *testing.T, buf *PixelBuffer) uint32 {
	t.Helper()
	bits := make([]uint8, format.HeaderBits)
	for i := range bits {
		bits[i] = buf.Pix[i*format.ChannelsPerPixel] & 1
	}
	h, err := format.ParseHeader(bits)
	require.NoError(t, err)
	return h.BitLen
}

func TestHideAndExtract(t *testing.T) {
	cases := []struct {
		name     string
		message  string
		password string
		layout   Layout
	}{
		{"ascii", "Hello World!", "secret", LayoutRGB},
		{"latin1", "Ça va très bien", "clé", LayoutRGB},
		{"single char", "x", "p", LayoutRGB},
		{"long password", "short", "a much longer password than the message", LayoutRGB},
		{"sequential", "Hello World!", "secret", LayoutSequential},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			carrier := noisyCarrier(16, 16)

			stegoBuf, err := Hide(carrier, tc.message, tc.password, WithLayout(tc.layout))
			require.NoError(t, err)

			got, err := Extract(stegoBuf, tc.password, WithLayout(tc.layout))
			require.NoError(t, err)
			assert.Equal(t, tc.message, got)
		})
	}
}

func TestWorkedExample(t *testing.T) {
	carrier := uniformCarrier(10, 10, 128)
	require.Len(t, carrier.Pix, 400)

	out, err := Hide(carrier, "hi", "k")
	require.NoError(t, err)

	assert.Equal(t, uint32(16), readHeader(t, out))

	// 'h'^'k' = 0x03, 'i'^'k' = 0x02
	want := []uint8{0, 0, 0, 0, 0, 0, 1, 1, 0, 0, 0, 0, 0, 0, 1, 0}
	for k, bit := range want {
		idx := LayoutRGB.slot(k)
		assert.Equal(t, bit, out.Pix[idx]&1, "payload bit %d (index %d)", k, idx)
	}

	// Payload starts at pixel 32's R channel and skips alpha.
	assert.Equal(t, 128, LayoutRGB.slot(0))
	assert.Equal(t, 132, LayoutRGB.slot(3))

	got, err := Extract(out, "k")
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
}

func TestHeaderMatchesEncryptedLength(t *testing.T) {
	for _, msg := range []string{"a", "hello", "The quick brown fox"} {
		out, err := Hide(noisyCarrier(20, 20), msg, "pw")
		require.NoError(t, err)
		assert.Equal(t, uint32(8*len(msg)), readHeader(t, out), msg)
	}
}

func TestHideDoesNotMutateCarrier(t *testing.T) {
	carrier := noisyCarrier(12, 12)
	snapshot := carrier.Clone()

	out, err := Hide(carrier, "do not touch", "pw")
	require.NoError(t, err)

	assert.True(t, carrier.Equal(snapshot), "carrier pixels changed")
	assert.False(t, out.Equal(carrier), "output should differ from carrier")
}

func TestAlphaUntouchedInRGBLayout(t *testing.T) {
	carrier := uniformCarrier(16, 16, 200)

	out, err := Hide(carrier, "alpha must stay", "pw")
	require.NoError(t, err)

	for i := 3; i < len(out.Pix); i += format.ChannelsPerPixel {
		require.Equal(t, uint8(200), out.Pix[i], "alpha at index %d", i)
	}
}

func TestSequentialLayoutWritesContiguousBytes(t *testing.T) {
	carrier := uniformCarrier(10, 10, 0)

	out, err := Embed(carrier, []byte{0xFF}, WithLayout(LayoutSequential))
	require.NoError(t, err)

	for i := format.ReservedChannels; i < format.ReservedChannels+8; i++ {
		assert.Equal(t, uint8(1), out.Pix[i], "index %d", i)
	}
	assert.Equal(t, uint8(0), out.Pix[format.ReservedChannels+8])
}

func TestWrongPasswordYieldsDifferentText(t *testing.T) {
	carrier := noisyCarrier(20, 20)
	msg := "Meet me at the usual place"

	out, err := Hide(carrier, msg, "swordfish")
	require.NoError(t, err)

	got, err := Extract(out, "Swordfish")
	require.NoError(t, err, "a wrong password is not detectable")
	assert.NotEqual(t, msg, got)
}

func TestCapacityBoundary(t *testing.T) {
	// 40 pixels: (160 - 128) * 0.75 = 24 bits = 3 characters.
	carrier := noisyCarrier(8, 5)
	require.Equal(t, 24, MaxPayloadBits(carrier))
	assert.Equal(t, Capacity{Bits: 24, Chars: 3}, CapacityOf(carrier))

	_, err := Hide(carrier, "abc", "k")
	require.NoError(t, err)

	_, err = Hide(carrier, "abcd", "k")
	assert.True(t, errors.Is(err, ErrMessageTooLarge), "got %v", err)
	assert.True(t, errors.Is(err, ErrCapacity))
}

func TestCapacityBoundaryInBits(t *testing.T) {
	// 10x10: (400 - 128) * 0.75 = 204 bits.
	carrier := noisyCarrier(10, 10)
	maxBits := MaxPayloadBits(carrier)
	require.Equal(t, 204, maxBits)

	_, err := embedBits(carrier, make([]uint8, maxBits), LayoutRGB)
	require.NoError(t, err)

	_, err = embedBits(carrier, make([]uint8, maxBits+1), LayoutRGB)
	assert.True(t, errors.Is(err, ErrMessageTooLarge), "got %v", err)
}

func TestCapacityCheck(t *testing.T) {
	// Fewer pixels than the header needs.
	carrier := NewPixelBuffer(2, 2)

	_, err := Hide(carrier, "A", "k")
	assert.True(t, errors.Is(err, ErrMessageTooLarge), "got %v", err)
	assert.Equal(t, Capacity{}, CapacityOf(carrier))
}

func TestEmptyInputRejection(t *testing.T) {
	carrier := noisyCarrier(10, 10)

	_, err := Hide(carrier, "", "pw")
	assert.True(t, errors.Is(err, ErrMessageRequired))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.EqualError(t, err, "message required")

	_, err = Hide(carrier, "msg", "")
	assert.True(t, errors.Is(err, ErrPasswordRequired))
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = Extract(carrier, "")
	assert.True(t, errors.Is(err, ErrPasswordRequired))
	assert.EqualError(t, err, "password required")

	_, err = Embed(carrier, nil)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestExtractWithoutHiddenData(t *testing.T) {
	cases := map[string]*PixelBuffer{
		"zero header":     uniformCarrier(10, 10, 0),
		"oversize header": uniformCarrier(10, 10, 255),
		"too small":       uniformCarrier(4, 4, 1),
	}

	for name, carrier := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Extract(carrier, "pw")
			assert.True(t, errors.Is(err, ErrNoHiddenData), "got %v", err)
			assert.True(t, errors.Is(err, ErrCapacity))
		})
	}
}

func TestExtractRejectsMalformedBuffer(t *testing.T) {
	carrier := &PixelBuffer{Width: 10, Height: 10, Pix: make([]uint8, 399)}

	_, err := Extract(carrier, "pw")
	assert.True(t, errors.Is(err, ErrExtractFailed), "got %v", err)
	assert.True(t, errors.Is(err, ErrInvalidBuffer))
	assert.True(t, errors.Is(err, ErrDecode))

	_, err = Hide(carrier, "msg", "pw")
	assert.True(t, errors.Is(err, ErrInvalidBuffer))
}

func TestRetrievePadsPartialByte(t *testing.T) {
	carrier := uniformCarrier(10, 10, 0)
	out, err := embedBits(carrier, []uint8{1, 0, 1}, LayoutRGB)
	require.NoError(t, err)

	payload, err := Retrieve(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA0}, payload)
}

func TestConcurrentHideOnSharedCarrier(t *testing.T) {
	carrier := noisyCarrier(32, 32)
	snapshot := carrier.Clone()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := fmt.Sprintf("message number %d", i)
			out, err := Hide(carrier, msg, "pw")
			if !assert.NoError(t, err) {
				return
			}
			got, err := Extract(out, "pw")
			assert.NoError(t, err)
			assert.Equal(t, msg, got)
		}(i)
	}
	wg.Wait()

	assert.True(t, carrier.Equal(snapshot))
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("RGB")
	require.NoError(t, err)
	assert.Equal(t, LayoutRGB, l)

	l, err = ParseLayout("sequential")
	require.NoError(t, err)
	assert.Equal(t, LayoutSequential, l)
	assert.Equal(t, "sequential", l.String())

	_, err = ParseLayout("diagonal")
	assert.True(t, errors.Is(err, ErrValidation))
}
