package protocol

import (
	"errors"
	"fmt"
)

// Framing errors. They are always wrapped with context, test with errors.Is.
var (
	// ErrChecksumMismatch means a packet did not sum to zero
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrInvalidHeaderVersion means the struct version was not 3
	ErrInvalidHeaderVersion = errors.New("invalid header version")

	// ErrMalformedResponse means a response was short or had reserved bits set
	ErrMalformedResponse = errors.New("malformed response")

	// ErrRequestTooLarge means a request does not fit in one packet
	ErrRequestTooLarge = errors.New("request too large")
)

// ECError is returned when the EC reports a non-success Status.
type ECError struct {
	// Operation is the command that failed (optional)
	Operation string

	// Status is the result code from the EC
	Status Status
}

func (e *ECError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("EC returned error code %s (%d)", e.Status, uint16(e.Status))
	}
	return fmt.Sprintf("%s failed: EC returned error code %s (%d)", e.Operation, e.Status, uint16(e.Status))
}

// IsECError returns true if err is or wraps an *ECError.
func IsECError(err error) bool {
	var ecErr *ECError
	return errors.As(err, &ecErr)
}

// StatusOf extracts the EC status from err.
// The second result is false when err does not carry an *ECError.
func StatusOf(err error) (Status, bool) {
	var ecErr *ECError
	if errors.As(err, &ecErr) {
		return ecErr.Status, true
	}
	return StatusSuccess, false
}
