package crosec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/moffa90/go-crosec/protocol"
	"github.com/moffa90/go-crosec/transport"
)

// EC is a handle to an embedded controller.
//
// EC is safe for concurrent use. Each call holds the handle for the full
// round trip, so commands from different goroutines never interleave on
// the wire.
type EC struct {
	mu     sync.Mutex
	t      transport.Transport
	config transport.Config
	closed bool
}

// New wraps an initialized transport.
func New(t transport.Transport, opts ...transport.Option) *EC {
	if t == nil {
		panic("transport cannot be nil")
	}
	return &EC{t: t, config: transport.NewConfig(opts...)}
}

// Name returns the name of the underlying transport.
func (e *EC) Name() string { return e.t.Name() }

// Transport returns the underlying transport.
func (e *EC) Transport() transport.Transport { return e.t }

// Command sends a host command and returns up to inSize bytes of response.
func (e *EC) Command(ctx context.Context, version uint8, command uint16, data []byte, inSize int) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, transport.ErrNotInitialized
	}

	start := time.Now()
	resp, err := e.t.Command(ctx, version, command, data, inSize)
	if err != nil {
		e.logDebug("command failed",
			"command", fmt.Sprintf("0x%04X", command),
			"version", version,
			"error", err,
		)
		return nil, err
	}

	e.logDebug("command complete",
		"command", fmt.Sprintf("0x%04X", command),
		"version", version,
		"out", len(data),
		"in", len(resp),
		"elapsed", time.Since(start).String(),
	)
	return resp, nil
}

// Memmap reads length bytes of the EC memory map at offset.
func (e *EC) Memmap(offset, length int) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, transport.ErrNotInitialized
	}
	return e.t.Memmap(offset, length)
}

// Close releases the transport. It is safe to call more than once.
func (e *EC) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if err := e.t.Close(); err != nil {
		e.logError("close failed", "transport", e.t.Name(), "error", err)
		return err
	}
	e.logInfo("closed", "transport", e.t.Name())
	return nil
}

func (e *EC) logDebug(msg string, keysAndValues ...interface{}) {
	e.config.Logger.Debug(msg, keysAndValues...)
}

func (e *EC) logInfo(msg string, keysAndValues ...interface{}) {
	e.config.Logger.Info(msg, keysAndValues...)
}

func (e *EC) logError(msg string, keysAndValues ...interface{}) {
	e.config.Logger.Error(msg, keysAndValues...)
}

// memmapByte reads a single memory map byte.
func (e *EC) memmapByte(offset int) (byte, error) {
	b, err := e.Memmap(offset, 1)
	if err != nil {
		return 0, err
	}
	if len(b) != 1 {
		return 0, fmt.Errorf("%w: memmap 0x%02X returned %d bytes", protocol.ErrMalformedResponse, offset, len(b))
	}
	return b[0], nil
}
