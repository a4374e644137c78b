// Package keystream implements the repeating-password XOR pad applied to
// messages before they are embedded.
//
// The pad works on UTF-16 code units: code unit i of the message is XORed with
// code unit i mod n of the password. It is obfuscation, not encryption; there
// is no integrity check and a wrong password yields different text rather
// than an error.
package keystream

import (
	"errors"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// ErrEmptyKey is returned when a pad is built from an empty password.
var ErrEmptyKey = errors.New("password required")

// Pad is a repeating XOR keystream derived from a password.
type Pad struct {
	key []uint16
}

// New builds a pad from the password's UTF-16 code units.
func New(password string) (*Pad, error) {
	if password == "" {
		return nil, ErrEmptyKey
	}
	return &Pad{key: Units(password)}, nil
}

// Apply XORs src against the repeating key and returns a new slice.
// Applying the same pad twice restores the input.
func (p *Pad) Apply(src []uint16) []uint16 {
	out := make([]uint16, len(src))
	for i, u := range src {
		out[i] = u ^ p.key[i%len(p.key)]
	}
	return out
}

// Len returns the key length in code units.
func (p *Pad) Len() int {
	return len(p.key)
}

// Units returns the UTF-16 code units of s. Characters outside the BMP become
// surrogate pairs, two units each.
func Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// String decodes UTF-16 code units. Unpaired surrogates become U+FFFD.
func String(units []uint16) string {
	return string(utf16.Decode(units))
}

// Truncate keeps the low 8 bits of each code unit. This is the one-byte-per-
// character wire encoding; anything above 0xFF loses its high byte.
func Truncate(units []uint16) []byte {
	out := make([]byte, len(units))
	for i, u := range units {
		out[i] = byte(u)
	}
	return out
}

// Widen turns wire bytes back into code units.
func Widen(b []byte) []uint16 {
	out := make([]uint16, len(b))
	for i, c := range b {
		out[i] = uint16(c)
	}
	return out
}

// Latin1 reports whether every character of s is in ISO 8859-1. A message
// round-trips through the one-byte wire encoding when both it and the password
// satisfy this.
func Latin1(s string) bool {
	_, err := charmap.ISO8859_1.NewEncoder().String(s)
	return err == nil
}
