package ecsim

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/moffa90/go-crosec/portio"
	"github.com/moffa90/go-crosec/protocol"
	"github.com/moffa90/go-crosec/transport/lpc"
)

// Bus exposes an EC through the LPC host interface ports. It implements
// portio.PortIO.
//
// Ports outside the memory map, the host data and command registers and
// the packet window read as 0xFF, like a floating bus.
type Bus struct {
	ec *EC

	mu        sync.Mutex
	base      uint16
	window    [lpc.HostPacketSize]byte
	result    byte
	busyPolls int
	pending   int
	stuck     bool
	absent    bool
	deny      bool
	grants    map[uint16]int
	closed    bool
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBase places the memory map at base instead of lpc.MemmapBase.
func WithBase(base uint16) BusOption {
	return func(b *Bus) {
		b.base = base
	}
}

// WithBusyPolls keeps the busy bits set for n status reads after each command.
func WithBusyPolls(n int) BusOption {
	return func(b *Bus) {
		b.busyPolls = n
	}
}

// WithStuck keeps the EC busy forever.
func WithStuck() BusOption {
	return func(b *Bus) {
		b.stuck = true
	}
}

// WithAbsent makes every port read 0xFF, as on a machine without an EC.
func WithAbsent() BusOption {
	return func(b *Bus) {
		b.absent = true
	}
}

// WithDeniedGrants makes Grant fail as an unprivileged ioperm would.
func WithDeniedGrants() BusOption {
	return func(b *Bus) {
		b.deny = true
	}
}

// NewBus attaches ec to a simulated LPC bus.
func NewBus(ec *EC, opts ...BusOption) *Bus {
	b := &Bus{
		ec:     ec,
		base:   lpc.MemmapBase,
		grants: make(map[uint16]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Grants returns the number of port ranges currently granted.
func (b *Bus) Grants() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.grants)
}

// Closed reports whether Close was called.
func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Bus) Grant(port uint16, n int, enable bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.deny {
		return fmt.Errorf("ioperm 0x%04X+%d: %w", port, n, portio.ErrPermissionDenied)
	}
	if enable {
		b.grants[port] = n
	} else {
		delete(b.grants, port)
	}
	return nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Bus) Inb(port uint16) (uint8, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inb(port), nil
}

func (b *Bus) Inw(port uint16) (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint16(b.inb(port)) | uint16(b.inb(port+1))<<8, nil
}

func (b *Bus) Inl(port uint16) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var v uint32
	for i := 3; i >= 0; i-- {
		v = v<<8 | uint32(b.inb(port+uint16(i)))
	}
	return v, nil
}

func (b *Bus) Outb(value uint8, port uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outb(value, port)
	return nil
}

func (b *Bus) Outw(value uint16, port uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outb(uint8(value), port)
	b.outb(uint8(value>>8), port+1)
	return nil
}

func (b *Bus) Outl(value uint32, port uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < 4; i++ {
		b.outb(uint8(value>>(8*i)), port+uint16(i))
	}
	return nil
}

func (b *Bus) inb(port uint16) uint8 {
	if b.absent {
		return 0xFF
	}

	switch {
	case port >= b.base && int(port) < int(b.base)+protocol.MemmapSize:
		return b.ec.ReadMemmap(int(port-b.base), 1)[0]
	case port == lpc.HostData:
		return b.result
	case port == lpc.HostCmd:
		return b.status()
	case port >= lpc.HostPacket && port < lpc.HostPacket+lpc.HostPacketSize:
		return b.window[port-lpc.HostPacket]
	default:
		return 0xFF
	}
}

func (b *Bus) status() uint8 {
	if b.stuck {
		return lpc.StatusProcessing
	}
	if b.pending > 0 {
		b.pending--
		return lpc.StatusProcessing
	}
	return 0
}

func (b *Bus) outb(value uint8, port uint16) {
	if b.absent {
		return
	}

	switch {
	case port == lpc.HostCmd:
		b.pending = b.busyPolls
		if value == lpc.CommandProtocol3 {
			b.runV3()
		} else {
			b.runV2(uint16(value))
		}
	case port >= lpc.HostPacket && port < lpc.HostPacket+lpc.HostPacketSize:
		b.window[port-lpc.HostPacket] = value
	}
}

// runV3 decodes the packet window, executes it and writes the response back.
func (b *Bus) runV3() {
	length := int(binary.LittleEndian.Uint16(b.window[6:8]))
	end := min(protocol.RequestHeaderSize+length, len(b.window))

	req, err := protocol.DecodeRequest(b.window[:end])
	if err != nil {
		b.result = uint8(protocol.StatusInvalidHeader)
		if protocol.Sum(b.window[:end]) != 0 {
			b.result = uint8(protocol.StatusInvalidChecksum)
		}
		return
	}

	status, data := b.ec.Execute(req.Version, req.Command, req.Data)
	if len(data) > protocol.MaxResponseData {
		status, data = protocol.StatusResponseTooBig, nil
	}

	packet, _ := protocol.EncodeResponse(status, data)
	copy(b.window[:], packet)
	b.result = uint8(status)
}

// runV2 executes the command in the args and params blocks.
func (b *Bus) runV2(command uint16) {
	const params = lpc.HostParam - lpc.HostArgs

	args, _ := protocol.ParseArgs(b.window[:protocol.ArgsSize])
	if args.Flags&protocol.ArgsFlagFromHost == 0 || int(args.DataSize) > protocol.MaxParamSize {
		b.result = uint8(protocol.StatusInvalidHeader)
		return
	}

	data := b.window[params : params+int(args.DataSize)]
	if protocol.SignArgs(command, args, data).Checksum != args.Checksum {
		b.result = uint8(protocol.StatusInvalidChecksum)
		return
	}

	status, resp := b.ec.Execute(args.CommandVersion, command, append([]byte(nil), data...))
	if len(resp) > protocol.MaxParamSize {
		status, resp = protocol.StatusResponseTooBig, nil
	}

	out := protocol.SignArgs(command, protocol.Args{
		Flags:          protocol.ArgsFlagToHost,
		CommandVersion: args.CommandVersion,
		DataSize:       uint8(len(resp)),
	}, resp)
	copy(b.window[:], out.Bytes())
	copy(b.window[params:], resp)
	b.result = uint8(status)
}

var _ portio.PortIO = (*Bus)(nil)
