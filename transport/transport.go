package transport

import "context"

// Probe is the result of a transport's Detect.
type Probe int

const (
	// NotPresent means the transport's device or driver is not available
	NotPresent Probe = iota

	// Found means the transport can be initialized
	Found

	// PermissionDenied means the device exists but the process may not use it
	PermissionDenied
)

func (p Probe) String() string {
	switch p {
	case NotPresent:
		return "not present"
	case Found:
		return "found"
	case PermissionDenied:
		return "permission denied"
	default:
		return "unknown"
	}
}

// Transport is one way of reaching the EC.
//
// Values are created unopened by the backend's New function. Detect may be
// called at any time and never leaves resources held. Init acquires the
// device, Close releases it. Command and Memmap are only valid between the
// two and return ErrNotInitialized otherwise.
//
// A Transport is not safe for concurrent use; see crosec.EC for a locked
// wrapper.
type Transport interface {
	// Name is a short identifier such as "lpc" or "cros_ec"
	Name() string

	// Detect probes for the device without keeping it open
	Detect() Probe

	// Init opens the device and prepares it for commands
	Init() error

	// Command sends a host command and returns at most inSize bytes of
	// response payload. A non-success result from the EC is returned as a
	// *protocol.ECError.
	Command(ctx context.Context, version uint8, command uint16, data []byte, inSize int) ([]byte, error)

	// Memmap reads length bytes of the EC memory map starting at offset
	Memmap(offset, length int) ([]byte, error)

	// Close releases the device. It is safe to call more than once.
	Close() error
}
