package pawnio_test

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-crosec/ecsim"
	"github.com/moffa90/go-crosec/protocol"
	"github.com/moffa90/go-crosec/transport"
	"github.com/moffa90/go-crosec/transport/pawnio"
)

// fakeExecutor plays the LpcCrOSEC module against a simulated EC. Like
// the module, it reads and writes one byte per cell.
type fakeExecutor struct {
	ec     *ecsim.EC
	blob   []byte
	calls  []string
	inputs [][]uint64
	closed bool
}

func (f *fakeExecutor) Load(blob []byte) error {
	if len(blob) == 0 {
		return errors.New("empty module")
	}
	f.blob = blob
	return nil
}

func (f *fakeExecutor) Execute(function string, in []uint64, outSize int) ([]uint64, error) {
	f.calls = append(f.calls, function)
	f.inputs = append(f.inputs, in)

	switch function {
	case "ioctl_ec_command":
		if len(in) < 3 {
			return nil, errors.New("short command input")
		}
		command := uint16(in[0]) | uint16(in[1])<<8
		version := uint8(in[2])
		data := make([]byte, len(in)-3)
		for i, c := range in[3:] {
			data[i] = byte(c)
		}

		status, resp := f.ec.Execute(version, command, data)
		if status != protocol.StatusSuccess {
			return []uint64{uint64(-int64(status))}, nil
		}
		out := []uint64{uint64(len(resp))}
		for _, b := range resp {
			out = append(out, uint64(b))
		}
		return out[:min(len(out), outSize)], nil

	case "ioctl_ec_readmem":
		if len(in) != 1 {
			return nil, fmt.Errorf("readmem takes one cell, got %d", len(in))
		}
		var out []uint64
		for _, b := range f.ec.ReadMemmap(int(in[0]), outSize) {
			out = append(out, uint64(b))
		}
		return out, nil
	}

	return nil, fmt.Errorf("unknown function %q", function)
}

func (f *fakeExecutor) Close() error {
	f.closed = true
	return nil
}

type warnLogger struct {
	warnings []string
}

func (w *warnLogger) Debug(string, ...interface{}) {}
func (w *warnLogger) Info(string, ...interface{})  {}
func (w *warnLogger) Error(string, ...interface{}) {}
func (w *warnLogger) Warn(msg string, _ ...interface{}) {
	w.warnings = append(w.warnings, msg)
}

func moduleFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "LpcCrOSEC.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xDE, 0xAD}, 0o600))
	return path
}

func newTransport(t *testing.T, ec *ecsim.EC, opts ...transport.Option) (*pawnio.PawnIO, *fakeExecutor) {
	t.Helper()
	exec := &fakeExecutor{ec: ec}
	p := pawnio.NewWithExecutor(exec, append(opts, transport.WithModulePath(moduleFile(t)))...)
	require.NoError(t, p.Init())
	return p, exec
}

func TestPackCommand(t *testing.T) {
	tests := []struct {
		name    string
		version uint8
		command uint16
		data    []byte
		want    []uint64
	}{
		{
			name:    "header only",
			command: protocol.CmdProtoVersion,
			want:    []uint64{0x00, 0x00, 0x00},
		},
		{
			name:    "hello",
			command: protocol.CmdHello,
			data:    []byte{0x2A, 0, 0, 0},
			want:    []uint64{0x01, 0x00, 0x00, 0x2A, 0x00, 0x00, 0x00},
		},
		{
			name:    "versioned vendor command",
			version: 1,
			command: 0x3E0B,
			data:    []byte{0xFF, 0x10},
			want:    []uint64{0x0B, 0x3E, 0x01, 0xFF, 0x10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pawnio.PackCommand(tt.version, tt.command, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPackCommandTooLarge(t *testing.T) {
	_, err := pawnio.PackCommand(0, 0, make([]byte, protocol.MaxRequestData+1))
	assert.ErrorIs(t, err, protocol.ErrRequestTooLarge)
}

func TestUnpackCommand(t *testing.T) {
	t.Run("one byte per cell", func(t *testing.T) {
		data, count, err := pawnio.UnpackCommand("op", []uint64{4, 0x2E, 0x03, 0x02, 0x01}, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, count)
		assert.Equal(t, []byte{0x2E, 0x03, 0x02, 0x01}, data)
	})

	t.Run("negative first cell", func(t *testing.T) {
		code := int64(-3)
		_, _, err := pawnio.UnpackCommand("command 0x0001", []uint64{uint64(code)}, 4)

		status, ok := protocol.StatusOf(err)
		require.True(t, ok)
		assert.Equal(t, protocol.StatusInvalidParam, status)
	})

	t.Run("truncated to insize", func(t *testing.T) {
		data, count, err := pawnio.UnpackCommand("op", []uint64{6, 1, 2, 3, 4, 5, 6}, 4)
		require.NoError(t, err)
		assert.Equal(t, 6, count)
		assert.Equal(t, []byte{1, 2, 3, 4}, data)
	})

	t.Run("fewer cells than count", func(t *testing.T) {
		data, count, err := pawnio.UnpackCommand("op", []uint64{4, 1, 2}, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, count)
		assert.Equal(t, []byte{1, 2}, data)
	})

	t.Run("cell wider than a byte", func(t *testing.T) {
		_, _, err := pawnio.UnpackCommand("op", []uint64{2, 0x2E, 0x0102}, 2)
		assert.ErrorIs(t, err, protocol.ErrMalformedResponse)
	})

	t.Run("no cells", func(t *testing.T) {
		_, _, err := pawnio.UnpackCommand("op", nil, 4)
		assert.ErrorIs(t, err, protocol.ErrMalformedResponse)
	})
}

func TestCommandCells(t *testing.T) {
	assert.Equal(t, 1, pawnio.CommandCells(0))
	assert.Equal(t, 5, pawnio.CommandCells(4))
}

func TestHello(t *testing.T) {
	p, exec := newTransport(t, ecsim.New())

	resp, err := p.Command(context.Background(), 0, protocol.CmdHello, binary.LittleEndian.AppendUint32(nil, 42), 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0102032E), binary.LittleEndian.Uint32(resp))
	assert.Equal(t, []byte{0xDE, 0xAD}, exec.blob)
	assert.Equal(t, [][]uint64{{0x01, 0x00, 0x00, 0x2A, 0x00, 0x00, 0x00}}, exec.inputs)
}

func TestCommandInSizeTooLarge(t *testing.T) {
	p, exec := newTransport(t, ecsim.New())

	_, err := p.Command(context.Background(), 0, protocol.CmdHello, nil, protocol.MaxResponseData+1)
	assert.ErrorIs(t, err, protocol.ErrRequestTooLarge)
	assert.Empty(t, exec.calls)
}

func TestCommandECError(t *testing.T) {
	p, _ := newTransport(t, ecsim.New())

	_, err := p.Command(context.Background(), 0, 0x7FFF, nil, 0)

	status, ok := protocol.StatusOf(err)
	require.True(t, ok, "expected ECError, got %v", err)
	assert.Equal(t, protocol.StatusInvalidCommand, status)
}

func TestCommandSizeMismatch(t *testing.T) {
	ec := ecsim.New()
	ec.Register(0x0042, func(uint8, []byte) (protocol.Status, []byte) {
		return protocol.StatusSuccess, make([]byte, 16)
	})

	t.Run("warn", func(t *testing.T) {
		log := &warnLogger{}
		p, _ := newTransport(t, ec, transport.WithLogger(log))

		resp, err := p.Command(context.Background(), 0, 0x0042, nil, 32)
		require.NoError(t, err)
		assert.Len(t, resp, 16)
		assert.Equal(t, []string{"response size mismatch"}, log.warnings)
	})

	t.Run("strict", func(t *testing.T) {
		p, _ := newTransport(t, ec, transport.WithStrictSize(true))

		_, err := p.Command(context.Background(), 0, 0x0042, nil, 32)

		var mismatch *transport.SizeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 32, mismatch.Expected)
		assert.Equal(t, 16, mismatch.Actual)
	})
}

func TestMemmap(t *testing.T) {
	p, exec := newTransport(t, ecsim.New())

	id, err := p.Memmap(protocol.MemmapID, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("EC"), id)
	assert.Equal(t, []string{"ioctl_ec_readmem"}, exec.calls)
	assert.Equal(t, [][]uint64{{protocol.MemmapID}}, exec.inputs)

	_, err = p.Memmap(0xF0, 0x20)
	assert.ErrorIs(t, err, transport.ErrOutOfRange)
}

func TestInitMissingModule(t *testing.T) {
	p := pawnio.NewWithExecutor(&fakeExecutor{ec: ecsim.New()},
		transport.WithModulePath(filepath.Join(t.TempDir(), "missing.bin")))

	assert.Equal(t, transport.Found, p.Detect())
	assert.ErrorIs(t, p.Init(), os.ErrNotExist)

	_, err := p.Command(context.Background(), 0, protocol.CmdHello, nil, 4)
	assert.ErrorIs(t, err, transport.ErrNotInitialized)
}

func TestDetectWithoutLibrary(t *testing.T) {
	p := pawnio.New(transport.WithLibraryPath(filepath.Join(t.TempDir(), "PawnIOLib.dll")))
	assert.Equal(t, transport.NotPresent, p.Detect())
	assert.Equal(t, "pawnio", p.Name())
}

func TestClose(t *testing.T) {
	p, exec := newTransport(t, ecsim.New())

	require.NoError(t, p.Close())
	assert.True(t, exec.closed)

	_, err := p.Memmap(0, 1)
	assert.ErrorIs(t, err, transport.ErrNotInitialized)
	require.NoError(t, p.Close())
}
