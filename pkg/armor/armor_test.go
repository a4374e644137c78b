package armor

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomPayload(t *testing.T, n int) []byte {
	t.Helper()
	data := make([]byte, n)
	rand.New(rand.NewSource(int64(n))).Read(data)
	return data
}

func TestSealAndOpen(t *testing.T) {
	a, err := New(4, 2)
	require.NoError(t, err)

	for _, n := range []int{1, 3, 4, 17, 1000} {
		payload := randomPayload(t, n)

		sealed, err := a.Seal(payload)
		require.NoError(t, err)
		assert.Len(t, sealed, a.SealedSize(n))

		opened, err := Open(sealed)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(payload, opened), "payload of %d bytes changed", n)
	}
}

func TestSealDoesNotAliasInput(t *testing.T) {
	a, err := New(3, 1)
	require.NoError(t, err)

	payload := []byte("payload")
	_, err = a.Seal(payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), payload)
}

func TestOpenRepairsDamagedShards(t *testing.T) {
	a, err := New(4, 2)
	require.NoError(t, err)

	payload := randomPayload(t, 64)
	sealed, err := a.Seal(payload)
	require.NoError(t, err)

	shardLen := a.shardSize(len(payload))
	// Damage one byte in shard 0 and one in shard 3.
	sealed[HeaderLen+crcLen] ^= 0xFF
	sealed[HeaderLen+3*(crcLen+shardLen)+crcLen+2] ^= 0x01

	opened, err := Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, payload, opened)
}

func TestOpenFailsBeyondParity(t *testing.T) {
	a, err := New(4, 2)
	require.NoError(t, err)

	payload := randomPayload(t, 64)
	sealed, err := a.Seal(payload)
	require.NoError(t, err)

	shardLen := a.shardSize(len(payload))
	for i := 0; i < 3; i++ {
		sealed[HeaderLen+i*(crcLen+shardLen)+crcLen] ^= 0xFF
	}

	_, err = Open(sealed)
	assert.ErrorIs(t, err, ErrTooManyCorrupt)
}

func TestOpenUsesSpareHeaderCopies(t *testing.T) {
	a, err := New(2, 1)
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("payload"))
	require.NoError(t, err)

	// First two copies damaged, the third still opens.
	sealed[0] ^= 0x80
	sealed[prefixLen+sizeLen] ^= 0x01
	opened, err := Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), opened)

	sealed[2*prefixLen+sizeLen+countsLen] ^= 0x10
	_, err = Open(sealed)
	assert.ErrorIs(t, err, ErrCorruptHeader)
}

func TestOpenReadsShardCountsFromHeader(t *testing.T) {
	payload := randomPayload(t, 100)
	for _, counts := range [][2]int{{1, 1}, {4, 2}, {8, 3}, {10, 6}} {
		a, err := New(counts[0], counts[1])
		require.NoError(t, err)

		sealed, err := a.Seal(payload)
		require.NoError(t, err)

		opened, err := Open(sealed)
		require.NoError(t, err, "%d+%d", counts[0], counts[1])
		assert.Equal(t, payload, opened)
	}
}

func TestOpenRejectsTruncated(t *testing.T) {
	a, err := New(2, 1)
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("payload"))
	require.NoError(t, err)

	_, err = Open(sealed[:len(sealed)-1])
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Open(sealed[:3])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestNewValidatesCounts(t *testing.T) {
	_, err := New(0, 1)
	assert.Error(t, err)
	_, err = New(1, 0)
	assert.Error(t, err)
	_, err = New(200, 100)
	assert.Error(t, err)
	_, err = New(1, 256)
	assert.Error(t, err)
}

func FuzzOpen(f *testing.F) {
	a, err := New(4, 2)
	if err != nil {
		f.Fatal(err)
	}
	seed, err := a.Seal([]byte("seed payload"))
	if err != nil {
		f.Fatal(err)
	}
	f.Add(seed)
	f.Add([]byte{0, 0, 0, 1})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		// Only a clean return or an error is acceptable.
		_, _ = Open(data)
	})
}
