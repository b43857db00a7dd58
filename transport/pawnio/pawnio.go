// Package pawnio implements the EC transport over the PawnIO driver on
// Windows.
//
// PawnIO runs small signed modules in the kernel. The LpcCrOSEC module talks
// to the EC over LPC and exports two functions, ioctl_ec_command and
// ioctl_ec_readmem, that exchange arrays of 64-bit cells with user space.
// Every cell carries a single byte. See PackCommand and UnpackCommand for
// the command layout.
package pawnio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/moffa90/go-crosec/protocol"
	"github.com/moffa90/go-crosec/transport"
)

const (
	// DefaultLibraryPath is where the PawnIO installer puts its library
	DefaultLibraryPath = `C:\Program Files\PawnIO\PawnIOLib.dll`

	// DefaultModulePath is the LPC CrOS EC module blob
	DefaultModulePath = "LpcCrOSEC.bin"

	fnCommand = "ioctl_ec_command"
	fnReadMem = "ioctl_ec_readmem"
)

// Executor is an open PawnIO session.
type Executor interface {
	// Load loads a module blob into the session
	Load(blob []byte) error

	// Execute calls function with in and returns up to outSize cells
	Execute(function string, in []uint64, outSize int) ([]uint64, error)

	Close() error
}

// PawnIO is the PawnIO driver transport.
type PawnIO struct {
	cfg     transport.Config
	library string
	module  string

	exec     Executor
	injected bool
	loaded   bool
}

// New creates an unopened transport. transport.WithLibraryPath and
// transport.WithModulePath override the default paths.
func New(opts ...transport.Option) *PawnIO {
	cfg := transport.NewConfig(opts...)
	p := &PawnIO{
		cfg:     cfg,
		library: cfg.LibraryPath,
		module:  cfg.ModulePath,
	}
	if p.library == "" {
		p.library = DefaultLibraryPath
	}
	if p.module == "" {
		p.module = DefaultModulePath
	}
	return p
}

// NewWithExecutor uses an already open session. Init still loads the
// module blob into it.
func NewWithExecutor(exec Executor, opts ...transport.Option) *PawnIO {
	p := New(opts...)
	p.exec = exec
	p.injected = true
	return p
}

func (p *PawnIO) Name() string { return "pawnio" }

// Detect checks that the PawnIO library is installed.
func (p *PawnIO) Detect() transport.Probe {
	if p.injected {
		return transport.Found
	}
	if !supported {
		return transport.NotPresent
	}

	if _, err := os.Stat(p.library); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return transport.PermissionDenied
		}
		p.cfg.Logger.Debug("pawnio library not found", "path", p.library)
		return transport.NotPresent
	}
	return transport.Found
}

// Init opens a PawnIO session and loads the module.
func (p *PawnIO) Init() error {
	if p.loaded {
		return nil
	}

	blob, err := os.ReadFile(p.module)
	if err != nil {
		return fmt.Errorf("pawnio: read module: %w", err)
	}

	if p.exec == nil {
		exec, err := openExecutor(p.library)
		if err != nil {
			return fmt.Errorf("pawnio: %w", err)
		}
		p.exec = exec
	}

	if err := p.exec.Load(blob); err != nil {
		if !p.injected {
			_ = p.exec.Close()
			p.exec = nil
		}
		return fmt.Errorf("pawnio: load %s: %w", p.module, err)
	}
	p.loaded = true

	p.cfg.Logger.Info("pawnio transport ready", "module", p.module)
	return nil
}

// Command calls ioctl_ec_command.
func (p *PawnIO) Command(_ context.Context, version uint8, command uint16, data []byte, inSize int) ([]byte, error) {
	if !p.loaded {
		return nil, transport.ErrNotInitialized
	}

	op := fmt.Sprintf("command 0x%04X", command)

	if inSize < 0 || inSize > protocol.MaxResponseData {
		return nil, fmt.Errorf("pawnio: %s: %w: insize %d", op, protocol.ErrRequestTooLarge, inSize)
	}

	in, err := PackCommand(version, command, data)
	if err != nil {
		return nil, fmt.Errorf("pawnio: %s: %w", op, err)
	}

	out, err := p.exec.Execute(fnCommand, in, CommandCells(inSize))
	if err != nil {
		return nil, fmt.Errorf("pawnio: %s: %w", op, err)
	}

	resp, count, err := UnpackCommand(op, out, inSize)
	if err != nil {
		if protocol.IsECError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("pawnio: %s: %w", op, err)
	}
	if err := p.cfg.CheckSize(op, inSize, count); err != nil {
		return nil, err
	}
	return resp, nil
}

// Memmap calls ioctl_ec_readmem with the offset. The module returns one
// byte per cell.
func (p *PawnIO) Memmap(offset, length int) ([]byte, error) {
	if !p.loaded {
		return nil, transport.ErrNotInitialized
	}
	if err := transport.CheckRange(offset, length); err != nil {
		return nil, err
	}

	out, err := p.exec.Execute(fnReadMem, []uint64{uint64(offset)}, length)
	if err != nil {
		return nil, fmt.Errorf("pawnio: read memmap: %w", err)
	}

	resp, err := UnpackBytes(out[:min(len(out), length)])
	if err != nil {
		return nil, fmt.Errorf("pawnio: read memmap: %w", err)
	}
	if err := p.cfg.CheckSize("memmap", length, len(resp)); err != nil {
		return nil, err
	}
	return resp, nil
}

// Close ends the session. An injected executor is closed too.
func (p *PawnIO) Close() error {
	p.loaded = false
	if p.exec == nil {
		return nil
	}
	err := p.exec.Close()
	p.exec = nil
	return err
}

var _ transport.Transport = (*PawnIO)(nil)
