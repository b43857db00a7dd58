// Package ecsim simulates a ChromeOS-style embedded controller.
//
// EC holds the memory map and answers host commands. Bus puts an EC behind
// the LPC host interface as a portio.PortIO, so the lpc transport can be
// exercised end to end without hardware. Tests for the other transports
// wrap EC.Execute in a fake of their driver interface.
//
// Example:
//
//	ec := ecsim.New(ecsim.WithFlags(protocol.HostCmdFlagVersion3))
//	t := lpc.New(transport.WithPortIO(ecsim.NewBus(ec)))
package ecsim

import (
	"encoding/binary"
	"sync"

	"github.com/moffa90/go-crosec/protocol"
)

// Handler answers one host command.
type Handler func(version uint8, data []byte) (protocol.Status, []byte)

// EC is a simulated embedded controller. It is safe for concurrent use.
type EC struct {
	mu       sync.Mutex
	memmap   [protocol.MemmapSize]byte
	handlers map[uint16]Handler
	requests []protocol.Request

	versionRO string
	versionRW string
}

// Option configures an EC.
type Option func(*EC)

// WithFlags sets the host command flags at MemmapHostCmdFlags.
func WithFlags(flags byte) Option {
	return func(e *EC) {
		e.memmap[protocol.MemmapHostCmdFlags] = flags
	}
}

// WithMemmap overwrites the memory map at offset.
func WithMemmap(offset int, data []byte) Option {
	return func(e *EC) {
		copy(e.memmap[offset:], data)
	}
}

// WithVersion sets the strings returned by GET_VERSION.
func WithVersion(ro, rw string) Option {
	return func(e *EC) {
		e.versionRO = ro
		e.versionRW = rw
	}
}

// New creates an EC with a populated memory map: the "EC" signature, the v3
// host command flag, two temperature sensors, one spinning fan and the lid
// open.
func New(opts ...Option) *EC {
	e := &EC{
		handlers:  make(map[uint16]Handler),
		versionRO: "sim_v1.0.0-ro",
		versionRW: "sim_v1.0.0-rw",
	}

	for i := 0; i < protocol.TempSensorEntries; i++ {
		e.memmap[protocol.MemmapTempSensor+i] = protocol.TempSensorNotPresent
	}
	for i := 0; i < protocol.TempSensorBEntries; i++ {
		e.memmap[protocol.MemmapTempSensorB+i] = protocol.TempSensorNotPresent
	}
	// 0x7D + 200 = 325 K, 0x6E + 200 = 310 K
	e.memmap[protocol.MemmapTempSensor] = 0x7D
	e.memmap[protocol.MemmapTempSensor+1] = 0x6E

	for i := 0; i < protocol.FanSpeedEntries; i++ {
		binary.LittleEndian.PutUint16(e.memmap[protocol.MemmapFan+2*i:], protocol.FanSpeedNotPresent)
	}
	binary.LittleEndian.PutUint16(e.memmap[protocol.MemmapFan:], 2400)

	copy(e.memmap[protocol.MemmapID:], protocol.Signature)
	e.memmap[protocol.MemmapIDVersion] = 1
	e.memmap[protocol.MemmapThermalVersion] = 2
	e.memmap[protocol.MemmapSwitchesVersion] = 1
	e.memmap[protocol.MemmapHostCmdFlags] = protocol.HostCmdFlagLPCArgsSupported | protocol.HostCmdFlagVersion3
	e.memmap[protocol.MemmapSwitches] = protocol.SwitchLidOpen

	e.handlers[protocol.CmdProtoVersion] = e.handleProtoVersion
	e.handlers[protocol.CmdHello] = e.handleHello
	e.handlers[protocol.CmdGetVersion] = e.handleGetVersion
	e.handlers[protocol.CmdReadMemmap] = e.handleReadMemmap

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Register installs or replaces the handler for command.
func (e *EC) Register(command uint16, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[command] = h
}

// Execute runs a host command. Unknown commands return
// StatusInvalidCommand.
func (e *EC) Execute(version uint8, command uint16, data []byte) (protocol.Status, []byte) {
	e.mu.Lock()
	e.requests = append(e.requests, protocol.Request{
		Version: version,
		Command: command,
		Data:    append([]byte(nil), data...),
	})
	h, ok := e.handlers[command]
	e.mu.Unlock()

	if !ok {
		return protocol.StatusInvalidCommand, nil
	}
	return h(version, data)
}

// Requests returns every command executed so far.
func (e *EC) Requests() []protocol.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]protocol.Request(nil), e.requests...)
}

// ReadMemmap returns a copy of the memory map at [offset, offset+n).
// The range is clipped to the map.
func (e *EC) ReadMemmap(offset, n int) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	if offset < 0 || offset >= protocol.MemmapSize || n <= 0 {
		return []byte{}
	}
	end := min(offset+n, protocol.MemmapSize)
	return append([]byte(nil), e.memmap[offset:end]...)
}

// SetMemmap overwrites the memory map at offset.
func (e *EC) SetMemmap(offset int, data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.memmap[offset:], data)
}

func (e *EC) handleProtoVersion(_ uint8, _ []byte) (protocol.Status, []byte) {
	return protocol.StatusSuccess, binary.LittleEndian.AppendUint32(nil, 3)
}

func (e *EC) handleHello(_ uint8, data []byte) (protocol.Status, []byte) {
	if len(data) != 4 {
		return protocol.StatusInvalidParam, nil
	}
	in := binary.LittleEndian.Uint32(data)
	return protocol.StatusSuccess, binary.LittleEndian.AppendUint32(nil, in+protocol.HelloMagic)
}

// GetVersionResponseSize is the size of the GET_VERSION response:
// RO string[32], RW string[32], reserved[32], current image u32.
const GetVersionResponseSize = 100

func (e *EC) handleGetVersion(_ uint8, _ []byte) (protocol.Status, []byte) {
	resp := make([]byte, GetVersionResponseSize)
	copy(resp[0:31], e.versionRO)
	copy(resp[32:63], e.versionRW)
	binary.LittleEndian.PutUint32(resp[96:], 2) // EC_IMAGE_RW
	return protocol.StatusSuccess, resp
}

func (e *EC) handleReadMemmap(_ uint8, data []byte) (protocol.Status, []byte) {
	if len(data) != 2 {
		return protocol.StatusInvalidParam, nil
	}
	offset, size := int(data[0]), int(data[1])
	if offset+size > protocol.MemmapSize {
		return protocol.StatusInvalidParam, nil
	}
	return protocol.StatusSuccess, e.ReadMemmap(offset, size)
}
