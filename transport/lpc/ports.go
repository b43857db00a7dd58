package lpc

// I/O addresses of the EC host interface.
const (
	// HostData returns the result byte of the last command
	HostData = 0x200

	// HostCmd starts a command on write and returns status on read
	HostCmd = 0x204

	// HostArgs is the v2 argument block (4 bytes)
	HostArgs = 0x800

	// HostParam is the v2 parameter and response block
	HostParam = 0x804

	// HostPacket is the start of the v3 packet window
	HostPacket = 0x800

	// HostPacketSize is the size of the v3 packet window
	HostPacketSize = 0x100

	// MemmapBase is the usual base of the memory map
	MemmapBase = 0x900

	// MemmapBaseFrameworkAMD is the memory map base on AMD Framework laptops
	MemmapBaseFrameworkAMD = 0xE00
)

// CommandProtocol3 is written to HostCmd to run a v3 packet.
const CommandProtocol3 = 0xDA

// Status register bits at HostCmd.
const (
	StatusData       = 0x01
	StatusPending    = 0x02
	StatusProcessing = 0x04

	// StatusBusyMask is set while the EC has not finished a command
	StatusBusyMask = StatusPending | StatusProcessing
)

// signature is "EC" read as a little-endian word.
const signature = uint16('E') | uint16('C')<<8
