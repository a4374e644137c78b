package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ID identifies a compressor inside a sealed payload frame.
type ID byte

const (
	None ID = iota
	Gzip
	Zstd
)

func (id ID) String() string {
	switch id {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", byte(id))
	}
}

// ParseID maps a configured name to its ID.
func ParseID(name string) (ID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "off":
		return None, nil
	case "gzip":
		return Gzip, nil
	case "", "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// Compressor defines the contract for data compression
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// New returns the compressor registered under id.
func New(id ID) (Compressor, error) {
	switch id {
	case None:
		return NopCompressor{}, nil
	case Gzip:
		return NewGzipCompressor(), nil
	case Zstd:
		return NewZstdCompressor(), nil
	default:
		return nil, fmt.Errorf("unknown compression id %d", byte(id))
	}
}

// NopCompressor passes data through unchanged.
type NopCompressor struct{}

func (NopCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NopCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

// GzipCompressor implements standard gzip compression
type GzipCompressor struct{}

func NewGzipCompressor() *GzipCompressor {
	return &GzipCompressor{}
}

func (g *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	// Carrier space is scarce, so favour ratio over speed.
	writer, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}

	if _, err := writer.Write(data); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

// ZstdCompressor compresses with zstd. Frames carry a checksum, so a
// damaged or wrongly decrypted frame fails to decompress.
type ZstdCompressor struct{}

func NewZstdCompressor() *ZstdCompressor {
	return &ZstdCompressor{}
}

func (z *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderCRC(true),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	defer enc.Close()

	return enc.EncodeAll(data, nil), nil
}

func (z *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}
