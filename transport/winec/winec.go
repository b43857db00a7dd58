// Package winec implements the EC transport over the Framework CrosEC
// driver for Windows.
//
// The driver exposes \\.\GLOBALROOT\Device\CrosEC and two buffered
// DeviceIoControl codes. Both use the same block for input and output:
//
//	XCMD:  u32 version, u32 command, u32 outsize, u32 insize, u32 result, u8 data[236]
//	RDMEM: u32 offset, u32 bytes, u8 data[255]
//
// On return the driver rewrites insize (or bytes) with the number of bytes
// the EC produced.
package winec

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/moffa90/go-crosec/protocol"
	"github.com/moffa90/go-crosec/transport"
)

// DefaultPath is the driver's device object.
const DefaultPath = `\\.\GLOBALROOT\Device\CrosEC`

const (
	deviceType = 0x80EC

	methodBuffered = 0

	fileReadAccess  = 0x0001
	fileWriteAccess = 0x0002
)

const (
	// maxRequest is the size of the XCMD block
	maxRequest = 0x100

	commandHeaderSize = 20
	maxPayload        = maxRequest - commandHeaderSize

	readMemHeaderSize = 8
	readMemSize       = readMemHeaderSize + protocol.MemmapSize + 1
)

// CtlCode builds a Windows I/O control code.
func CtlCode(device, function, method, access uint32) uint32 {
	return device<<16 | access<<14 | function<<2 | method
}

var (
	// IoctlXCmd sends a host command
	IoctlXCmd = CtlCode(deviceType, 0x801, methodBuffered, fileReadAccess|fileWriteAccess)

	// IoctlRdMem reads the memory map
	IoctlRdMem = CtlCode(deviceType, 0x802, methodBuffered, fileReadAccess)
)

// Controller is an open handle to the driver.
type Controller interface {
	// Control issues code with buf as both the input and output buffer
	Control(code uint32, buf []byte) error

	Close() error
}

// WinEC is the Framework Windows driver transport.
type WinEC struct {
	cfg  transport.Config
	path string
	ctl  Controller
}

// New creates an unopened transport.
func New(opts ...transport.Option) *WinEC {
	cfg := transport.NewConfig(opts...)
	path := cfg.DevicePath
	if path == "" {
		path = DefaultPath
	}
	return &WinEC{cfg: cfg, path: path}
}

// NewWithController wraps an already open handle.
func NewWithController(ctl Controller, opts ...transport.Option) *WinEC {
	w := New(opts...)
	w.ctl = ctl
	return w
}

func (w *WinEC) Name() string { return "crosec_windows" }

// Detect opens and closes the device object.
func (w *WinEC) Detect() transport.Probe {
	if w.ctl != nil {
		return transport.Found
	}

	ctl, err := openController(w.path)
	if err != nil {
		if errors.Is(err, transport.ErrPermissionDenied) {
			return transport.PermissionDenied
		}
		w.cfg.Logger.Debug("windows EC driver not usable", "path", w.path, "error", err)
		return transport.NotPresent
	}
	_ = ctl.Close()

	return transport.Found
}

// Init opens the device object.
func (w *WinEC) Init() error {
	if w.ctl != nil {
		return nil
	}

	ctl, err := openController(w.path)
	if err != nil {
		return fmt.Errorf("crosec_windows: open %s: %w", w.path, err)
	}
	w.ctl = ctl

	w.cfg.Logger.Info("windows EC driver transport ready", "path", w.path)
	return nil
}

// Command issues IoctlXCmd.
func (w *WinEC) Command(_ context.Context, version uint8, command uint16, data []byte, inSize int) ([]byte, error) {
	if w.ctl == nil {
		return nil, transport.ErrNotInitialized
	}

	op := fmt.Sprintf("command 0x%04X", command)

	if len(data) > maxPayload || inSize < 0 || inSize > maxPayload {
		return nil, fmt.Errorf("crosec_windows: %s: %w: outsize %d insize %d",
			op, protocol.ErrRequestTooLarge, len(data), inSize)
	}

	le := binary.LittleEndian

	buf := make([]byte, maxRequest)
	le.PutUint32(buf[0:], uint32(version))
	le.PutUint32(buf[4:], uint32(command))
	le.PutUint32(buf[8:], uint32(len(data)))
	le.PutUint32(buf[12:], uint32(inSize))
	le.PutUint32(buf[16:], 0xFF)
	copy(buf[commandHeaderSize:], data)

	if err := w.ctl.Control(IoctlXCmd, buf); err != nil {
		return nil, fmt.Errorf("crosec_windows: %s: %w", op, err)
	}

	if err := transport.CheckResult(op, protocol.Status(le.Uint32(buf[16:]))); err != nil {
		return nil, err
	}
	got := int(le.Uint32(buf[12:]))
	if err := w.cfg.CheckSize(op, inSize, got); err != nil {
		return nil, err
	}

	n := min(got, inSize)
	resp := make([]byte, n)
	copy(resp, buf[commandHeaderSize:])
	return resp, nil
}

// Memmap issues IoctlRdMem.
func (w *WinEC) Memmap(offset, length int) ([]byte, error) {
	if w.ctl == nil {
		return nil, transport.ErrNotInitialized
	}
	if err := transport.CheckRange(offset, length); err != nil {
		return nil, err
	}

	le := binary.LittleEndian

	buf := make([]byte, readMemSize)
	le.PutUint32(buf[0:], uint32(offset))
	le.PutUint32(buf[4:], uint32(length))

	if err := w.ctl.Control(IoctlRdMem, buf); err != nil {
		return nil, fmt.Errorf("crosec_windows: read memmap: %w", err)
	}

	got := int(le.Uint32(buf[4:]))
	if err := w.cfg.CheckSize("memmap", length, got); err != nil {
		return nil, err
	}

	n := min(got, length)
	resp := make([]byte, n)
	copy(resp, buf[readMemHeaderSize:])
	return resp, nil
}

// Close closes the handle. It is safe to call more than once.
func (w *WinEC) Close() error {
	if w.ctl == nil {
		return nil
	}
	err := w.ctl.Close()
	w.ctl = nil
	return err
}

var _ transport.Transport = (*WinEC)(nil)
