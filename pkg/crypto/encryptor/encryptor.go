package encryptor

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of the random salt stored in front of every sealed box.
const SaltSize = 16

// ErrAuthentication is returned when the password is wrong or the box was altered.
var ErrAuthentication = errors.New("decryption/authentication failed")

// KDFParams are the Argon2id cost parameters used to derive the AES-256 key.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDF follows the RFC 9106 second recommended option.
var DefaultKDF = KDFParams{Time: 3, Memory: 64 * 1024, Threads: 4}

// DeriveKey stretches a password into a 32-byte key.
func DeriveKey(password, salt []byte, p KDFParams) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, 32)
}

// SealWithPassword derives a key from password with a fresh salt and encrypts
// plaintext with it.
// Format: [Salt | Nonce | Ciphertext | Tag]
func SealWithPassword(plaintext, password []byte, p KDFParams) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := DeriveKey(password, salt, p)
	defer wipe(key)

	box, err := Encrypt(plaintext, key)
	if err != nil {
		return nil, err
	}
	return append(salt, box...), nil
}

// OpenWithPassword reverses SealWithPassword.
func OpenWithPassword(sealed, password []byte, p KDFParams) ([]byte, error) {
	if len(sealed) < SaltSize {
		return nil, errors.New("sealed box too short")
	}
	salt, box := sealed[:SaltSize], sealed[SaltSize:]

	key := DeriveKey(password, salt, p)
	defer wipe(key)

	return Decrypt(box, key)
}

// Encrypt performs AES-GCM encryption on the plaintext using the provided key.
// It returns a byte slice containing the Nonce appended with the Ciphertext (and Tag).
func Encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the ciphertext and the authentication tag to the nonce.
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt performs AES-GCM decryption of [Nonce | Ciphertext | Tag].
// It returns ErrAuthentication if the tag does not verify.
func Decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize+gcm.Overhead() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, actualCiphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, actualCiphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher block: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
