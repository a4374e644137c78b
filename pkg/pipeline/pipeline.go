// Package pipeline implements the sealed payload format, an opt-in
// alternative to the legacy XOR text encoding.
//
// Seal runs message -> compress -> AES-GCM (Argon2id key) -> Reed-Solomon
// armor. Unlike the legacy format it keeps full UTF-8, detects a wrong
// password and repairs a few damaged shards. Images written this way can only
// be read back with Open.
//
// Frame inside the armor:
//
//	+-------+---------+-------------+-----------------------------+
//	| "LK"  | version | compression | salt | nonce | ct | tag      |
//	+-------+---------+-------------+-----------------------------+
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/Beastly713/lsbkit/pkg/armor"
	"github.com/Beastly713/lsbkit/pkg/compression"
	"github.com/Beastly713/lsbkit/pkg/crypto/encryptor"
	"github.com/Beastly713/lsbkit/pkg/stego"
)

// Version is the current frame version.
const Version = 1

// Magic opens every sealed frame.
var Magic = []byte("LK")

const frameHeaderLen = 4

var (
	// ErrNotSealed indicates the payload is not a sealed frame.
	ErrNotSealed = errors.New("payload is not a sealed message")

	// ErrWrongPassword indicates the frame failed authentication.
	ErrWrongPassword = errors.New("wrong password or tampered message")
)

// Config holds the parameters for the sealed format. The shard counts and
// compression only affect Seal; Open reads them from the payload.
type Config struct {
	DataShards   int
	ParityShards int
	Compression  compression.ID
	KDF          encryptor.KDFParams
}

// DefaultConfig returns four data shards, two parity shards and zstd.
func DefaultConfig() Config {
	return Config{
		DataShards:   4,
		ParityShards: 2,
		Compression:  compression.Zstd,
		KDF:          encryptor.DefaultKDF,
	}
}

// Seal orchestrates the flow: Compress -> Encrypt -> Armor
func Seal(message string, password []byte, cfg Config) ([]byte, error) {
	if message == "" {
		return nil, stego.ErrMessageRequired
	}
	if len(password) == 0 {
		return nil, stego.ErrPasswordRequired
	}

	// 1. Compress
	compressor, err := compression.New(cfg.Compression)
	if err != nil {
		return nil, err
	}
	packed, err := compressor.Compress([]byte(message))
	if err != nil {
		return nil, fmt.Errorf("compression failed: %w", err)
	}

	// 2. Encrypt (Authenticated AES-GCM)
	box, err := encryptor.SealWithPassword(packed, password, cfg.KDF)
	if err != nil {
		return nil, fmt.Errorf("encryption failed: %w", err)
	}

	frame := make([]byte, 0, frameHeaderLen+len(box))
	frame = append(frame, Magic...)
	frame = append(frame, Version, byte(cfg.Compression))
	frame = append(frame, box...)

	// 3. Armor (Reed-Solomon)
	a, err := armor.New(cfg.DataShards, cfg.ParityShards)
	if err != nil {
		return nil, err
	}
	return a.Seal(frame)
}

// Open orchestrates the reverse: Unarmor -> Decrypt -> Decompress
func Open(sealed []byte, password []byte, cfg Config) (string, error) {
	if len(password) == 0 {
		return "", stego.ErrPasswordRequired
	}

	// 1. Unarmor (shard counts are read from the sealed header)
	frame, err := armor.Open(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotSealed, err)
	}
	if len(frame) < frameHeaderLen || !bytes.Equal(frame[:len(Magic)], Magic) {
		return "", ErrNotSealed
	}
	if v := frame[len(Magic)]; v != Version {
		return "", fmt.Errorf("%w: unsupported version %d", ErrNotSealed, v)
	}
	compressor, err := compression.New(compression.ID(frame[len(Magic)+1]))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotSealed, err)
	}

	// 2. Decrypt
	packed, err := encryptor.OpenWithPassword(frame[frameHeaderLen:], password, cfg.KDF)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrongPassword, err)
	}

	// 3. Decompress
	plain, err := compressor.Decompress(packed)
	if err != nil {
		return "", fmt.Errorf("decompression failed: %w", err)
	}
	if !utf8.Valid(plain) {
		return "", errors.New("sealed message is not valid UTF-8")
	}
	return string(plain), nil
}

// Hide seals message and embeds it in a copy of carrier.
func Hide(carrier *stego.PixelBuffer, message string, password []byte, cfg Config, opts ...stego.Option) (*stego.PixelBuffer, error) {
	sealed, err := Seal(message, password, cfg)
	if err != nil {
		return nil, err
	}
	return stego.Embed(carrier, sealed, opts...)
}

// Extract retrieves and opens a sealed message.
func Extract(carrier *stego.PixelBuffer, password []byte, cfg Config, opts ...stego.Option) (string, error) {
	if len(password) == 0 {
		return "", stego.ErrPasswordRequired
	}
	sealed, err := stego.Retrieve(carrier, opts...)
	if err != nil {
		return "", err
	}
	return Open(sealed, password, cfg)
}
