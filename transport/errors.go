package transport

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-crosec/portio"
	"github.com/moffa90/go-crosec/protocol"
)

var (
	// ErrPermissionDenied means the OS refused access to the EC.
	// It is the same value as portio.ErrPermissionDenied.
	ErrPermissionDenied = portio.ErrPermissionDenied

	// ErrNoDevice means no transport detected an EC
	ErrNoDevice = errors.New("no EC device found")

	// ErrCommandsUnsupported means the EC advertises no host command protocol
	ErrCommandsUnsupported = errors.New("EC does not support host commands")

	// ErrNotInitialized means Command or Memmap was called before Init
	ErrNotInitialized = errors.New("transport not initialized")

	// ErrWaitTimeout means the EC stayed busy past the configured timeout
	ErrWaitTimeout = errors.New("timed out waiting for EC")

	// ErrOutOfRange means a memory map read falls outside the map
	ErrOutOfRange = errors.New("memory map read out of range")
)

// SizeMismatchError indicates the EC returned a different number of bytes
// than the caller asked for.
type SizeMismatchError struct {
	Operation string
	Expected  int
	Actual    int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d response bytes, got %d", e.Operation, e.Expected, e.Actual)
}

// CheckResult converts an EC result code into an error.
func CheckResult(op string, result protocol.Status) error {
	if result == protocol.StatusSuccess {
		return nil
	}
	return &protocol.ECError{Operation: op, Status: result}
}

// CheckRange rejects memory map reads outside [0, protocol.MemmapSize).
func CheckRange(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > protocol.MemmapSize {
		return fmt.Errorf("%w: offset 0x%02X length %d exceeds %d bytes",
			ErrOutOfRange, offset, length, protocol.MemmapSize)
	}
	return nil
}
