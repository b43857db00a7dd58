// Package portio provides raw x86 I/O port access for talking to an embedded
// controller over the LPC bus.
//
// Every implementation satisfies the PortIO interface. Which one is usable
// depends on the operating system and the privileges of the process:
//
//   - Direct (linux/amd64): ioperm(2) plus IN/OUT instructions
//   - DevPort: the /dev/port pseudo-device, addressed by file offset
//   - DevIO (freebsd): the /dev/io IODEV_PIO ioctl
//   - WinRing0 (windows): the WinRing0x64 kernel driver DLL
//
// Open returns the default implementation for the running platform.
//
// Ports are 16-bit addresses. Multi-byte accesses are little-endian, as the
// hardware does them.
package portio

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied is wrapped by Grant (and by opening a backend) when the
// operating system refuses I/O privilege.
var ErrPermissionDenied = errors.New("permission denied for port I/O")

// ErrUnsupported means no port I/O backend exists for this platform.
var ErrUnsupported = errors.New("port I/O is not supported on this platform")

// PortIO is a byte channel to the I/O port space.
type PortIO interface {
	Inb(port uint16) (uint8, error)
	Inw(port uint16) (uint16, error)
	Inl(port uint16) (uint32, error)

	Outb(value uint8, port uint16) error
	Outw(value uint16, port uint16) error
	Outl(value uint32, port uint16) error

	// Grant enables or disables access to n consecutive ports starting at
	// port. Backends that do not need per-range privilege treat it as a no-op.
	Grant(port uint16, n int, enable bool) error

	// Close releases the backend's handle, if any.
	Close() error
}

// ReadBytes reads n consecutive ports starting at port, one byte each.
func ReadBytes(p PortIO, port uint16, n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := range buf {
		b, err := p.Inb(port + uint16(i))
		if err != nil {
			return nil, fmt.Errorf("read port 0x%04X: %w", port+uint16(i), err)
		}
		buf[i] = b
	}
	return buf, nil
}

// WriteBytes writes data to consecutive ports starting at port, one byte each.
func WriteBytes(p PortIO, port uint16, data []byte) error {
	for i, b := range data {
		if err := p.Outb(b, port+uint16(i)); err != nil {
			return fmt.Errorf("write port 0x%04X: %w", port+uint16(i), err)
		}
	}
	return nil
}

// Open returns the default backend for the running platform.
//
// On linux/amd64 that is Direct; other Linux architectures use /dev/port.
// FreeBSD uses /dev/io and Windows loads WinRing0 from the default path.
func Open() (PortIO, error) {
	return openDefault()
}
