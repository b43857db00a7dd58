//go:build freebsd

package portio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultDevIOPath is the FreeBSD I/O privilege device.
const DefaultDevIOPath = "/dev/io"

const (
	iodevPIORead  = 0
	iodevPIOWrite = 1

	// _IOWR('I', 0, struct iodev_pio_req)
	iodevPIO = 0xC0000000 | (unsafe.Sizeof(iodevPIOReq{})&0x1fff)<<16 | 'I'<<8 | 0
)

type iodevPIOReq struct {
	access uint32
	port   uint32
	width  uint32
	val    uint32
}

// DevIO performs port I/O through the IODEV_PIO ioctl of /dev/io.
// Opening the device already requires root, so Grant is a no-op.
type DevIO struct {
	f *os.File
}

// OpenDevIO opens the FreeBSD /dev/io device at path.
func OpenDevIO(path string) (*DevIO, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("open %s: %w", path, ErrPermissionDenied)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &DevIO{f: f}, nil
}

func (d *DevIO) pio(access uint32, port uint16, width uint32, val uint32) (uint32, error) {
	req := iodevPIOReq{access: access, port: uint32(port), width: width, val: val}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), uintptr(iodevPIO), uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		return 0, fmt.Errorf("IODEV_PIO port 0x%04X: %w", port, errno)
	}
	return req.val, nil
}

func (d *DevIO) Inb(port uint16) (uint8, error) {
	v, err := d.pio(iodevPIORead, port, 1, 0)
	return uint8(v), err
}

func (d *DevIO) Inw(port uint16) (uint16, error) {
	v, err := d.pio(iodevPIORead, port, 2, 0)
	return uint16(v), err
}

func (d *DevIO) Inl(port uint16) (uint32, error) {
	return d.pio(iodevPIORead, port, 4, 0)
}

func (d *DevIO) Outb(value uint8, port uint16) error {
	_, err := d.pio(iodevPIOWrite, port, 1, uint32(value))
	return err
}

func (d *DevIO) Outw(value uint16, port uint16) error {
	_, err := d.pio(iodevPIOWrite, port, 2, uint32(value))
	return err
}

func (d *DevIO) Outl(value uint32, port uint16) error {
	_, err := d.pio(iodevPIOWrite, port, 4, value)
	return err
}

// Grant is a no-op for DevIO.
func (d *DevIO) Grant(port uint16, n int, enable bool) error {
	return nil
}

func (d *DevIO) Close() error {
	return d.f.Close()
}

func openDefault() (PortIO, error) {
	return OpenDevIO(DefaultDevIOPath)
}
