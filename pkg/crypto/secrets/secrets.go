package secrets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrEmpty is returned when a prompt yields nothing.
var ErrEmpty = errors.New("empty secret")

// Secret wraps a byte slice that contains sensitive data (e.g., a password).
// It provides a mechanism to zero out the memory when no longer needed.
type Secret struct {
	data []byte
}

// FromString copies s into a new Secret. The string itself cannot be wiped,
// so prefer Prompt when reading from a user.
func FromString(s string) *Secret {
	return &Secret{data: []byte(s)}
}

// Bytes returns the raw bytes of the secret.
// Use with caution and ensure the Secret is destroyed after use.
func (s *Secret) Bytes() []byte {
	return s.data
}

// String returns a copy of the secret as a string.
func (s *Secret) String() string {
	return string(s.data)
}

// Empty reports whether the secret holds no bytes.
func (s *Secret) Empty() bool {
	return s == nil || len(s.data) == 0
}

// Destroy overwrites the secret data with zeros to prevent memory leaks.
// It is idempotent.
func (s *Secret) Destroy() {
	if s.data != nil {
		for i := range s.data {
			s.data[i] = 0
		}
		s.data = nil
	}
}

// Prompt writes label to w and reads one line from in. When in is a terminal
// the input is not echoed.
func Prompt(in io.Reader, w io.Writer, label string) (*Secret, error) {
	fmt.Fprint(w, label)

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return nil, fmt.Errorf("failed to read secret: %w", err)
		}
		if len(data) == 0 {
			return nil, ErrEmpty
		}
		return &Secret{data: data}, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, ErrEmpty
	}
	return &Secret{data: []byte(line)}, nil
}
