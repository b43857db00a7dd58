package portio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// DefaultDevPortPath is the Linux port pseudo-device.
const DefaultDevPortPath = "/dev/port"

// File is the subset of *os.File used by DevPort.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}

// DevPort accesses I/O ports through a file where offset N is port N.
// The kernel checks privilege when the file is opened, so Grant is a no-op.
type DevPort struct {
	f File
}

// OpenDevPort opens the port device at path for reading and writing.
func OpenDevPort(path string) (*DevPort, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("open %s: %w", path, ErrPermissionDenied)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return NewDevPort(f), nil
}

// NewDevPort wraps an already open port file.
func NewDevPort(f File) *DevPort {
	return &DevPort{f: f}
}

func (d *DevPort) read(port uint16, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := d.f.ReadAt(buf, int64(port)); err != nil {
		return nil, fmt.Errorf("read %d bytes at port 0x%04X: %w", n, port, err)
	}
	return buf, nil
}

func (d *DevPort) write(port uint16, buf []byte) error {
	if _, err := d.f.WriteAt(buf, int64(port)); err != nil {
		return fmt.Errorf("write %d bytes at port 0x%04X: %w", len(buf), port, err)
	}
	return nil
}

func (d *DevPort) Inb(port uint16) (uint8, error) {
	b, err := d.read(port, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *DevPort) Inw(port uint16) (uint16, error) {
	b, err := d.read(port, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *DevPort) Inl(port uint16) (uint32, error) {
	b, err := d.read(port, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *DevPort) Outb(value uint8, port uint16) error {
	return d.write(port, []byte{value})
}

func (d *DevPort) Outw(value uint16, port uint16) error {
	return d.write(port, binary.LittleEndian.AppendUint16(nil, value))
}

func (d *DevPort) Outl(value uint32, port uint16) error {
	return d.write(port, binary.LittleEndian.AppendUint32(nil, value))
}

// Grant is a no-op for DevPort.
func (d *DevPort) Grant(port uint16, n int, enable bool) error {
	return nil
}

func (d *DevPort) Close() error {
	return d.f.Close()
}
