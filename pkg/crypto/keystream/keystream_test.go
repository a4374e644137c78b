package keystream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyPassword(t *testing.T) {
	_, err := New("")
	assert.True(t, errors.Is(err, ErrEmptyKey))
}

func TestApplyIsSymmetric(t *testing.T) {
	pad, err := New("swordfish")
	require.NoError(t, err)

	msg := Units("Mischief managed")
	enc := pad.Apply(msg)
	assert.NotEqual(t, msg, enc)
	assert.Equal(t, msg, pad.Apply(enc))
}

func TestApplyRepeatsKey(t *testing.T) {
	pad, err := New("ab")
	require.NoError(t, err)

	got := pad.Apply([]uint16{0, 0, 0, 0, 0})
	assert.Equal(t, []uint16{'a', 'b', 'a', 'b', 'a'}, got)
	assert.Equal(t, 2, pad.Len())
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	pad, err := New("k")
	require.NoError(t, err)

	src := []uint16{'h', 'i'}
	_ = pad.Apply(src)
	assert.Equal(t, []uint16{'h', 'i'}, src)
}

func TestTruncateAndWiden(t *testing.T) {
	units := []uint16{0x0068, 0x00E9, 0x20AC}
	wire := Truncate(units)
	assert.Equal(t, []byte{0x68, 0xE9, 0xAC}, wire)
	assert.Equal(t, []uint16{0x68, 0xE9, 0xAC}, Widen(wire))
}

func TestUnitsSurrogatePairs(t *testing.T) {
	units := Units("a😀")
	assert.Len(t, units, 3)
	assert.Equal(t, "a😀", String(units))
}

func TestLatin1(t *testing.T) {
	assert.True(t, Latin1("héllo wörld"))
	assert.True(t, Latin1(""))
	assert.False(t, Latin1("price: 5€"))
	assert.False(t, Latin1("日本"))
}
