package stego

import "errors"

// Error kinds. Every error returned by this package matches exactly one of
// them under errors.Is.
var (
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation error")

	// ErrCapacity marks a payload that does not fit the carrier, or a header
	// that declares an implausible length.
	ErrCapacity = errors.New("capacity error")

	// ErrDecode marks a bit stream that could not be turned back into a message.
	ErrDecode = errors.New("decode error")
)

var (
	// ErrMessageRequired indicates an empty message was passed to Hide.
	ErrMessageRequired = kindError(ErrValidation, "message required")

	// ErrPasswordRequired indicates an empty password.
	ErrPasswordRequired = kindError(ErrValidation, "password required")

	// ErrInvalidBuffer indicates the pixel slice does not match the declared dimensions.
	ErrInvalidBuffer = kindError(ErrValidation, "pixel buffer does not match its dimensions")

	// ErrMessageTooLarge indicates the carrier image is too small to hold the data.
	ErrMessageTooLarge = kindError(ErrCapacity, "message too large for this image")

	// ErrNoHiddenData indicates the length header is zero or exceeds the carrier budget.
	ErrNoHiddenData = kindError(ErrCapacity, "no valid message found in this image")

	// ErrExtractFailed indicates the payload bits could not be decoded. A wrong
	// password usually does not produce this; it produces different text.
	ErrExtractFailed = kindError(ErrDecode, "failed to extract message; the password might be incorrect")
)

type codecError struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &codecError{kind: kind, msg: msg}
}

func (e *codecError) Error() string { return e.msg }

func (e *codecError) Unwrap() error { return e.kind }
