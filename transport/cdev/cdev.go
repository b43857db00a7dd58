// Package cdev implements the EC transport over the Linux cros_ec character
// device.
//
// The kernel driver already speaks the host command protocol, so each
// command is a single ioctl carrying a cros_ec_command block:
//
//	u32 version, u32 command, u32 outsize, u32 insize, u32 result, u8 data[]
//
// Memory map reads use the CROS_EC_DEV_IOCRDMEM ioctl. Kernels that reject
// it (ENOTTY) are handled by switching the handle to the READ_MEMMAP host
// command for the rest of its life.
package cdev

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/moffa90/go-crosec/protocol"
	"github.com/moffa90/go-crosec/transport"
)

// DefaultPath is the device node created by the cros_ec_dev driver.
const DefaultPath = "/dev/cros_ec"

// ErrControlUnsupported is wrapped by Device.Ioctl when the driver does not
// implement a request (ENOTTY).
var ErrControlUnsupported = errors.New("ioctl not supported by device")

const iocMagic = 0xEC

const (
	commandHeaderSize = 20
	readMemHeaderSize = 8

	// sizeof(struct cros_ec_readmem), padded to 4 bytes
	readMemSize = 264
)

// ioc builds a Linux ioctl request number (asm-generic/ioctl.h).
func ioc(dir, typ, nr, size uint) uint {
	return dir<<30 | size<<16 | typ<<8 | nr
}

// iowr builds a read/write ioctl request number.
func iowr(typ, nr, size uint) uint {
	const read, write = 2, 1
	return ioc(read|write, typ, nr, size)
}

var (
	// IocXCmd is CROS_EC_DEV_IOCXCMD
	IocXCmd = iowr(iocMagic, 0, commandHeaderSize)

	// IocRdMem is CROS_EC_DEV_IOCRDMEM
	IocRdMem = iowr(iocMagic, 1, readMemSize)
)

// Device is an open cros_ec device node.
type Device interface {
	// Ioctl issues request with arg as the in/out block and returns the
	// driver's non-negative return value.
	Ioctl(request uint, arg []byte) (int, error)

	Close() error
}

// CDev is the character device transport.
type CDev struct {
	cfg  transport.Config
	path string
	dev  Device

	// memmapIoctl is cleared once the driver rejects IocRdMem
	memmapIoctl bool
}

// New creates an unopened transport for DefaultPath, or the path given
// with transport.WithDevicePath.
func New(opts ...transport.Option) *CDev {
	cfg := transport.NewConfig(opts...)
	path := cfg.DevicePath
	if path == "" {
		path = DefaultPath
	}
	return &CDev{cfg: cfg, path: path, memmapIoctl: true}
}

// NewWithDevice wraps an already open device. Init is a no-op and Close
// closes dev.
func NewWithDevice(dev Device, opts ...transport.Option) *CDev {
	c := New(opts...)
	c.dev = dev
	return c
}

func (c *CDev) Name() string { return "cros_ec" }

// Path returns the device node this transport opens.
func (c *CDev) Path() string { return c.path }

// MemmapIoctl reports whether memory map reads still use the ioctl.
func (c *CDev) MemmapIoctl() bool { return c.memmapIoctl }

// Detect checks that the device node exists and can be opened.
func (c *CDev) Detect() transport.Probe {
	if c.dev != nil {
		return transport.Found
	}

	if _, err := os.Stat(c.path); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return transport.PermissionDenied
		}
		return transport.NotPresent
	}

	dev, err := openDevice(c.path)
	if err != nil {
		c.cfg.Logger.Debug("cros_ec device not usable", "path", c.path, "error", err)
		if errors.Is(err, fs.ErrPermission) {
			return transport.PermissionDenied
		}
		return transport.NotPresent
	}
	_ = dev.Close()

	return transport.Found
}

// Init opens the device node.
func (c *CDev) Init() error {
	if c.dev != nil {
		return nil
	}

	dev, err := openDevice(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("cros_ec: open %s: %w", c.path, transport.ErrPermissionDenied)
		}
		return fmt.Errorf("cros_ec: open %s: %w", c.path, err)
	}
	c.dev = dev

	c.cfg.Logger.Info("cros_ec transport ready", "path", c.path)
	return nil
}

// Command issues one CROS_EC_DEV_IOCXCMD ioctl.
func (c *CDev) Command(_ context.Context, version uint8, command uint16, data []byte, inSize int) ([]byte, error) {
	if c.dev == nil {
		return nil, transport.ErrNotInitialized
	}
	if inSize < 0 {
		return nil, fmt.Errorf("cros_ec: negative response size %d", inSize)
	}

	op := fmt.Sprintf("command 0x%04X", command)
	ne := binary.NativeEndian

	buf := make([]byte, commandHeaderSize+max(len(data), inSize))
	ne.PutUint32(buf[0:], uint32(version))
	ne.PutUint32(buf[4:], uint32(command))
	ne.PutUint32(buf[8:], uint32(len(data)))
	ne.PutUint32(buf[12:], uint32(inSize))
	ne.PutUint32(buf[16:], 0xFF)
	copy(buf[commandHeaderSize:], data)

	n, err := c.dev.Ioctl(IocXCmd, buf)
	if err != nil {
		return nil, fmt.Errorf("cros_ec: %s: %w", op, err)
	}

	if err := transport.CheckResult(op, protocol.Status(ne.Uint32(buf[16:]))); err != nil {
		return nil, err
	}
	if err := c.cfg.CheckSize(op, inSize, n); err != nil {
		return nil, err
	}

	n = min(max(n, 0), inSize)
	resp := make([]byte, n)
	copy(resp, buf[commandHeaderSize:])
	return resp, nil
}

// Memmap reads the memory map with CROS_EC_DEV_IOCRDMEM, falling back to
// the READ_MEMMAP command when the driver does not support it.
func (c *CDev) Memmap(offset, length int) ([]byte, error) {
	if c.dev == nil {
		return nil, transport.ErrNotInitialized
	}
	if err := transport.CheckRange(offset, length); err != nil {
		return nil, err
	}

	if c.memmapIoctl {
		resp, err := c.readMem(offset, length)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, ErrControlUnsupported) {
			return nil, err
		}

		c.memmapIoctl = false
		c.cfg.Logger.Warn("memmap ioctl not supported, falling back to READ_MEMMAP", "path", c.path)
	}

	return c.Command(context.Background(), 0, protocol.CmdReadMemmap, []byte{byte(offset), byte(length)}, length)
}

func (c *CDev) readMem(offset, length int) ([]byte, error) {
	ne := binary.NativeEndian

	buf := make([]byte, readMemSize)
	ne.PutUint32(buf[0:], uint32(offset))
	ne.PutUint32(buf[4:], uint32(length))

	n, err := c.dev.Ioctl(IocRdMem, buf)
	if err != nil {
		return nil, fmt.Errorf("cros_ec: read memmap: %w", err)
	}
	if err := c.cfg.CheckSize("memmap", length, n); err != nil {
		return nil, err
	}

	n = min(max(n, 0), length)
	resp := make([]byte, n)
	copy(resp, buf[readMemHeaderSize:])
	return resp, nil
}

// Close closes the device. It is safe to call more than once.
func (c *CDev) Close() error {
	if c.dev == nil {
		return nil
	}
	err := c.dev.Close()
	c.dev = nil
	return err
}

var _ transport.Transport = (*CDev)(nil)
