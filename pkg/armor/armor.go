// Package armor adds Reed-Solomon parity to a payload so that it survives a
// limited number of damaged pixels.
//
// Sealed layout:
//
//	+--------------------+--------------------------------------+
//	| header x3          | shard 0 | shard 1 | ... | shard k+m-1 |
//	+--------------------+--------------------------------------+
//	| size uint32        |  each: crc32 (4 bytes) + shard bytes  |
//	| data shards uint8  |                                      |
//	| parity shards uint8|                                      |
//	| crc32 of the above |                                      |
//	+--------------------+--------------------------------------+
//
// The header is written three times; the first copy whose checksum matches
// is used. A shard whose checksum does not match is treated as missing. Up to
// m missing shards can be rebuilt.
package armor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/klauspost/reedsolomon"
)

const (
	sizeLen      = 4
	countsLen    = 2
	crcLen       = 4
	prefixLen    = sizeLen + countsLen + crcLen
	prefixCopies = 3

	// HeaderLen is the number of bytes in front of the first shard.
	HeaderLen = prefixLen * prefixCopies
)

var (
	// ErrCorruptHeader is returned when no header copy passes its checksum.
	ErrCorruptHeader = errors.New("armor header is corrupt")

	// ErrTruncated is returned when the sealed data is shorter than its header implies.
	ErrTruncated = errors.New("armored data is truncated")

	// ErrTooManyCorrupt is returned when more shards are damaged than parity can rebuild.
	ErrTooManyCorrupt = errors.New("too many corrupt shards to reconstruct")
)

// Armor splits payloads into data shards and appends parity shards.
type Armor struct {
	DataShards   int
	ParityShards int
}

// New validates the shard counts.
func New(dataShards, parityShards int) (*Armor, error) {
	if dataShards < 1 || dataShards > 255 {
		return nil, fmt.Errorf("data shards must be between 1 and 255, got %d", dataShards)
	}
	if parityShards < 1 || parityShards > 255 {
		return nil, fmt.Errorf("parity shards must be between 1 and 255, got %d", parityShards)
	}
	if dataShards+parityShards > 256 {
		return nil, fmt.Errorf("total shards cannot exceed 256, got %d", dataShards+parityShards)
	}
	return &Armor{DataShards: dataShards, ParityShards: parityShards}, nil
}

func (a *Armor) total() int {
	return a.DataShards + a.ParityShards
}

// shardSize matches reedsolomon's Split: the payload is cut into equal
// pieces, the last one zero padded.
func (a *Armor) shardSize(payloadLen int) int {
	return (payloadLen + a.DataShards - 1) / a.DataShards
}

// SealedSize returns the length Seal produces for a payload of n bytes.
func (a *Armor) SealedSize(n int) int {
	return HeaderLen + a.total()*(crcLen+a.shardSize(n))
}

// Seal encodes payload with parity.
func (a *Armor) Seal(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, errors.New("cannot armor empty payload")
	}

	enc, err := reedsolomon.New(a.DataShards, a.ParityShards)
	if err != nil {
		return nil, err
	}

	// Split may reuse payload's backing array, so give it a copy.
	data := make([]byte, len(payload))
	copy(data, payload)

	shards, err := enc.Split(data)
	if err != nil {
		return nil, fmt.Errorf("failed to split payload: %w", err)
	}
	if got := len(shards[0]); got != a.shardSize(len(payload)) {
		return nil, fmt.Errorf("unexpected shard size %d", got)
	}
	if err := enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("failed to compute parity: %w", err)
	}

	out := bytes.NewBuffer(make([]byte, 0, a.SealedSize(len(payload))))

	prefix := make([]byte, prefixLen)
	binary.BigEndian.PutUint32(prefix, uint32(len(payload)))
	prefix[sizeLen] = byte(a.DataShards)
	prefix[sizeLen+1] = byte(a.ParityShards)
	binary.BigEndian.PutUint32(prefix[sizeLen+countsLen:], crc32.ChecksumIEEE(prefix[:sizeLen+countsLen]))
	for i := 0; i < prefixCopies; i++ {
		out.Write(prefix)
	}

	sum := make([]byte, crcLen)
	for _, shard := range shards {
		binary.BigEndian.PutUint32(sum, crc32.ChecksumIEEE(shard))
		out.Write(sum)
		out.Write(shard)
	}

	return out.Bytes(), nil
}

// Open verifies every shard, rebuilds damaged ones and returns the payload.
// The shard counts come from the sealed header, so any Armor configuration
// can open any sealed payload. Bytes after the last shard are ignored.
func Open(sealed []byte) ([]byte, error) {
	if len(sealed) < HeaderLen {
		return nil, ErrTruncated
	}

	a, payloadLen, err := readHeader(sealed)
	if err != nil {
		return nil, err
	}
	if payloadLen == 0 {
		return nil, fmt.Errorf("%w: declares 0 bytes", ErrTruncated)
	}
	if len(sealed) < a.SealedSize(payloadLen) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, a.SealedSize(payloadLen), len(sealed))
	}

	shardLen := a.shardSize(payloadLen)
	shards := make([][]byte, a.total())
	missing := 0

	offset := HeaderLen
	for i := range shards {
		want := binary.BigEndian.Uint32(sealed[offset : offset+crcLen])
		shard := sealed[offset+crcLen : offset+crcLen+shardLen]
		offset += crcLen + shardLen

		if crc32.ChecksumIEEE(shard) != want {
			missing++
			continue
		}
		shards[i] = append([]byte(nil), shard...)
	}

	if missing > a.ParityShards {
		return nil, fmt.Errorf("%w: %d damaged, parity covers %d", ErrTooManyCorrupt, missing, a.ParityShards)
	}

	enc, err := reedsolomon.New(a.DataShards, a.ParityShards)
	if err != nil {
		return nil, err
	}
	if missing > 0 {
		if err := enc.ReconstructData(shards); err != nil {
			return nil, fmt.Errorf("reconstruction failed: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := enc.Join(&buf, shards, payloadLen); err != nil {
		return nil, fmt.Errorf("failed to join shards: %w", err)
	}
	return buf.Bytes(), nil
}

// readHeader returns the shard counts and payload size from the first header
// copy that passes its checksum.
func readHeader(sealed []byte) (*Armor, int, error) {
	for i := 0; i < prefixCopies; i++ {
		prefix := sealed[i*prefixLen : (i+1)*prefixLen]
		body := prefix[:sizeLen+countsLen]
		if crc32.ChecksumIEEE(body) != binary.BigEndian.Uint32(prefix[sizeLen+countsLen:]) {
			continue
		}

		a, err := New(int(prefix[sizeLen]), int(prefix[sizeLen+1]))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrCorruptHeader, err)
		}
		size := binary.BigEndian.Uint32(body)
		if uint64(size) > uint64(len(sealed)) {
			return nil, 0, fmt.Errorf("%w: declares %d bytes", ErrTruncated, size)
		}
		return a, int(size), nil
	}
	return nil, 0, ErrCorruptHeader
}
