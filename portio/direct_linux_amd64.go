//go:build linux && amd64

package portio

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Implemented in direct_linux_amd64.s.
func inb(port uint16) uint8
func inw(port uint16) uint16
func inl(port uint16) uint32
func outb(value uint8, port uint16)
func outw(value uint16, port uint16)
func outl(value uint32, port uint16)

// Direct executes IN/OUT instructions from user space after the kernel has
// granted the port range with ioperm(2). It requires CAP_SYS_RAWIO.
//
// Touching a port that was not granted kills the process with SIGSEGV, so
// callers must Grant every range before using it.
type Direct struct{}

// NewDirect returns the ioperm-based backend.
func NewDirect() *Direct {
	return &Direct{}
}

func (Direct) Inb(port uint16) (uint8, error)  { return inb(port), nil }
func (Direct) Inw(port uint16) (uint16, error) { return inw(port), nil }
func (Direct) Inl(port uint16) (uint32, error) { return inl(port), nil }

func (Direct) Outb(value uint8, port uint16) error {
	outb(value, port)
	return nil
}

func (Direct) Outw(value uint16, port uint16) error {
	outw(value, port)
	return nil
}

func (Direct) Outl(value uint32, port uint16) error {
	outl(value, port)
	return nil
}

// Grant calls ioperm(2) for [port, port+n).
func (Direct) Grant(port uint16, n int, enable bool) error {
	on := 0
	if enable {
		on = 1
	}
	if err := unix.Ioperm(int(port), n, on); err != nil {
		if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
			return fmt.Errorf("ioperm 0x%04X+%d: %w", port, n, ErrPermissionDenied)
		}
		return fmt.Errorf("ioperm 0x%04X+%d: %w", port, n, err)
	}
	return nil
}

func (Direct) Close() error { return nil }

func openDefault() (PortIO, error) {
	return NewDirect(), nil
}
