package lpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/moffa90/go-crosec/portio"
	"github.com/moffa90/go-crosec/protocol"
	"github.com/moffa90/go-crosec/transport"
)

// State is the lifecycle state of an LPC transport.
type State int

const (
	Uninitialized State = iota
	AddressResolved
	VersionNegotiated
	Ready

	// DetectionFailed and PermissionDenied are terminal
	DetectionFailed
	PermissionDenied
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case AddressResolved:
		return "address resolved"
	case VersionNegotiated:
		return "version negotiated"
	case Ready:
		return "ready"
	case DetectionFailed:
		return "detection failed"
	case PermissionDenied:
		return "permission denied"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ProtocolVersion is the host command protocol negotiated in Init.
type ProtocolVersion int

const (
	Unsupported ProtocolVersion = 0
	V2          ProtocolVersion = 2
	V3          ProtocolVersion = 3
)

func (v ProtocolVersion) String() string {
	switch v {
	case V2:
		return "v2"
	case V3:
		return "v3"
	default:
		return "unsupported"
	}
}

type portRange struct {
	port uint16
	n    int
}

// LPC talks to the EC through raw port I/O.
type LPC struct {
	cfg     transport.Config
	io      portio.PortIO
	ownsIO  bool
	state   State
	version ProtocolVersion
	base    uint16
	grants  []portRange
}

// New creates an unopened LPC transport.
//
// Relevant options: WithPortIO, WithAddress, WithWaitTimeout,
// WithPollInterval, and the size and logging options.
func New(opts ...transport.Option) *LPC {
	return &LPC{cfg: transport.NewConfig(opts...)}
}

func (l *LPC) Name() string { return "lpc" }

// State returns the current lifecycle state.
func (l *LPC) State() State { return l.state }

// ProtocolVersion returns the protocol negotiated by Init.
func (l *LPC) ProtocolVersion() ProtocolVersion { return l.version }

// Address returns the memory map base found by Init.
func (l *LPC) Address() uint16 { return l.base }

func (l *LPC) candidates() []uint16 {
	if l.cfg.Address != 0 {
		return []uint16{l.cfg.Address}
	}
	return []uint16{MemmapBase, MemmapBaseFrameworkAMD}
}

// openIO returns the port backend and whether this transport owns it.
func (l *LPC) openIO() (portio.PortIO, bool, error) {
	if l.cfg.PortIO != nil {
		return l.cfg.PortIO, false, nil
	}
	p, err := portio.Open()
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// findAddress returns the first candidate base whose memory map carries the
// "EC" signature. The grant for the winning range is left enabled.
func (l *LPC) findAddress(p portio.PortIO) (uint16, error) {
	for _, base := range l.candidates() {
		if err := p.Grant(base, protocol.MemmapSize, true); err != nil {
			if errors.Is(err, portio.ErrPermissionDenied) {
				return 0, err
			}
			l.cfg.Logger.Warn("skipping memory map candidate",
				"address", fmt.Sprintf("0x%04X", base),
				"error", err,
			)
			continue
		}

		id, err := p.Inw(base + protocol.MemmapID)
		if err == nil && id == signature {
			return base, nil
		}

		_ = p.Grant(base, protocol.MemmapSize, false)
	}
	return 0, fmt.Errorf("no EC signature at %s: %w", formatAddresses(l.candidates()), transport.ErrNoDevice)
}

// Detect scans the candidate bases for the EC signature. No grants are
// held when it returns, unless the transport is already initialized, in
// which case it reports Found and leaves the Init grants alone.
func (l *LPC) Detect() transport.Probe {
	if l.state == Ready {
		return transport.Found
	}

	p, owned, err := l.openIO()
	if err != nil {
		l.cfg.Logger.Debug("lpc port backend unavailable", "error", err)
		if errors.Is(err, portio.ErrPermissionDenied) {
			return transport.PermissionDenied
		}
		return transport.NotPresent
	}
	if owned {
		defer p.Close()
	}

	base, err := l.findAddress(p)
	if err != nil {
		l.cfg.Logger.Debug("lpc detection failed", "error", err)
		if errors.Is(err, portio.ErrPermissionDenied) {
			return transport.PermissionDenied
		}
		return transport.NotPresent
	}

	_ = p.Grant(base, protocol.MemmapSize, false)
	l.cfg.Logger.Debug("lpc EC detected", "address", fmt.Sprintf("0x%04X", base))
	return transport.Found
}

// Init finds the memory map, claims the host interface ports and negotiates
// the protocol version. On failure every grant is released.
func (l *LPC) Init() (err error) {
	switch l.state {
	case Ready:
		return nil
	case DetectionFailed, PermissionDenied:
		return fmt.Errorf("lpc: init after %s", l.state)
	}

	p, owned, err := l.openIO()
	if err != nil {
		l.fail(err)
		return fmt.Errorf("lpc: open port I/O: %w", err)
	}
	l.io, l.ownsIO = p, owned

	defer func() {
		if err != nil {
			l.release()
			l.fail(err)
		}
	}()

	base, err := l.findAddress(p)
	if err != nil {
		return fmt.Errorf("lpc: %w", err)
	}
	l.grants = append(l.grants, portRange{base, protocol.MemmapSize})
	l.base = base
	l.state = AddressResolved

	for _, r := range []portRange{{HostData, 1}, {HostCmd, 1}, {HostPacket, HostPacketSize}} {
		if err := p.Grant(r.port, r.n, true); err != nil {
			return fmt.Errorf("lpc: grant 0x%04X: %w", r.port, err)
		}
		l.grants = append(l.grants, r)
	}

	// At least one bit of the two status registers must be clear.
	cmdStatus, err := p.Inb(HostCmd)
	if err != nil {
		return fmt.Errorf("lpc: read status: %w", err)
	}
	dataStatus, err := p.Inb(HostData)
	if err != nil {
		return fmt.Errorf("lpc: read status: %w", err)
	}
	if cmdStatus&dataStatus == 0xFF {
		return fmt.Errorf("lpc: invalid status 0xFF: %w", transport.ErrNoDevice)
	}

	id, err := p.Inw(base + protocol.MemmapID)
	if err != nil {
		return fmt.Errorf("lpc: read signature: %w", err)
	}
	if id != signature {
		return fmt.Errorf("lpc: invalid EC signature 0x%04X: %w", id, transport.ErrNoDevice)
	}

	flags, err := p.Inb(base + protocol.MemmapHostCmdFlags)
	if err != nil {
		return fmt.Errorf("lpc: read host command flags: %w", err)
	}
	switch {
	case flags&protocol.HostCmdFlagVersion3 != 0:
		l.version = V3
	case flags&protocol.HostCmdFlagLPCArgsSupported != 0:
		l.version = V2
		l.cfg.Logger.Warn("EC only supports the v2 host command protocol, which is untested on hardware")
	default:
		l.version = Unsupported
		l.cfg.Logger.Warn("EC does not support host commands", "flags", fmt.Sprintf("0x%02X", flags))
	}
	l.state = VersionNegotiated

	l.cfg.Logger.Info("lpc transport ready",
		"address", fmt.Sprintf("0x%04X", base),
		"protocol", l.version.String(),
	)
	l.state = Ready
	return nil
}

func (l *LPC) fail(err error) {
	if errors.Is(err, portio.ErrPermissionDenied) {
		l.state = PermissionDenied
		return
	}
	l.state = DetectionFailed
}

// release drops every grant and closes an owned backend.
func (l *LPC) release() {
	if l.io == nil {
		return
	}
	for i := len(l.grants) - 1; i >= 0; i-- {
		r := l.grants[i]
		if err := l.io.Grant(r.port, r.n, false); err != nil {
			l.cfg.Logger.Error("release port grant failed",
				"port", fmt.Sprintf("0x%04X", r.port),
				"error", err,
			)
		}
	}
	l.grants = nil
	if l.ownsIO {
		_ = l.io.Close()
	}
	l.io = nil
	l.ownsIO = false
}

// Command sends a host command with the negotiated protocol.
func (l *LPC) Command(ctx context.Context, version uint8, command uint16, data []byte, inSize int) ([]byte, error) {
	if l.state != Ready {
		return nil, transport.ErrNotInitialized
	}

	switch l.version {
	case V3:
		return l.commandV3(ctx, version, command, data, inSize)
	case V2:
		return l.commandV2(ctx, version, command, data, inSize)
	default:
		return nil, transport.ErrCommandsUnsupported
	}
}

// Memmap reads the memory map directly from its ports.
func (l *LPC) Memmap(offset, length int) ([]byte, error) {
	if l.state != Ready {
		return nil, transport.ErrNotInitialized
	}
	if err := transport.CheckRange(offset, length); err != nil {
		return nil, err
	}
	return portio.ReadBytes(l.io, l.base+uint16(offset), length)
}

// Close releases the port grants. The transport can be initialized again.
func (l *LPC) Close() error {
	l.release()
	if l.state != DetectionFailed && l.state != PermissionDenied {
		l.state = Uninitialized
	}
	l.version = Unsupported
	return nil
}

func formatAddresses(addrs []uint16) string {
	s := ""
	for i, a := range addrs {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("0x%04X", a)
	}
	return s
}

var _ transport.Transport = (*LPC)(nil)
