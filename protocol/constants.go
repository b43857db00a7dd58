package protocol

// Packet structure constants for the v3 host command protocol.
const (
	// RequestVersion is the struct version of a v3 request header
	RequestVersion = 3

	// ResponseVersion is the struct version of a v3 response header
	ResponseVersion = 3

	// RequestHeaderSize is the size of a v3 request header in bytes:
	// VER(1) + CSUM(1) + CMD(2) + CMD_VER(1) + RESERVED(1) + LEN(2)
	RequestHeaderSize = 8

	// ResponseHeaderSize is the size of a v3 response header in bytes:
	// VER(1) + CSUM(1) + RESULT(2) + LEN(2) + RESERVED(2)
	ResponseHeaderSize = 8

	// MaxPacketSize is the largest v3 packet the LPC packet window can hold
	MaxPacketSize = 0x100

	// MaxRequestData is the largest payload that fits in a single v3 request
	MaxRequestData = MaxPacketSize - RequestHeaderSize

	// MaxResponseData is the largest payload that fits in a single v3 response
	MaxResponseData = MaxPacketSize - ResponseHeaderSize
)

// Version 2 argument block constants.
const (
	// ArgsSize is the size of the v2 argument block
	ArgsSize = 4

	// ArgsFlagFromHost marks an argument block written by the host
	ArgsFlagFromHost = 0x01

	// ArgsFlagToHost marks an argument block written back by the EC
	ArgsFlagToHost = 0x02

	// MaxParamSize is the largest v2 parameter or response block
	MaxParamSize = 0xFC
)

// Command codes for the generic host commands used by this library.
const (
	// CmdProtoVersion returns the legacy protocol version as a uint32
	CmdProtoVersion = 0x0000

	// CmdHello adds HelloMagic to its uint32 argument and returns it
	CmdHello = 0x0001

	// CmdGetVersion returns the RO/RW firmware version strings
	CmdGetVersion = 0x0002

	// CmdReadMemmap reads the memory map through a command instead of ports
	CmdReadMemmap = 0x0007
)

// HelloMagic is the value the EC adds to a HELLO request.
const HelloMagic = 0x01020304

// Memory map layout.
const (
	// MemmapSize is the size of the EC memory map (the ACPI I/O buffer limit)
	MemmapSize = 255

	// MemmapTextMax is the size of a string in the memory map
	MemmapTextMax = 8

	// MemmapTempSensor holds temperature sensors 0x00 - 0x0f
	MemmapTempSensor = 0x00

	// MemmapFan holds fan speeds 0x10 - 0x17
	MemmapFan = 0x10

	// MemmapTempSensorB holds more temperature sensors 0x18 - 0x1f
	MemmapTempSensorB = 0x18

	// MemmapID holds the "EC" signature at 0x20 - 0x21
	MemmapID = 0x20

	// MemmapIDVersion is the version of data in 0x20 - 0x2f
	MemmapIDVersion = 0x22

	// MemmapThermalVersion is the version of data in 0x00 - 0x1f
	MemmapThermalVersion = 0x23

	// MemmapBatteryVersion is the version of data in 0x40 - 0x7f
	MemmapBatteryVersion = 0x24

	// MemmapSwitchesVersion is the version of data in 0x30 - 0x33
	MemmapSwitchesVersion = 0x25

	// MemmapEventsVersion is the version of data in 0x34 - 0x3f
	MemmapEventsVersion = 0x26

	// MemmapHostCmdFlags holds the host command interface flags
	MemmapHostCmdFlags = 0x27

	// MemmapSwitches holds the switch state bits
	MemmapSwitches = 0x30

	// MemmapHostEvents holds 64 bits of host events
	MemmapHostEvents = 0x34

	// MemmapBattVolt is the battery present voltage (32 bits)
	MemmapBattVolt = 0x40

	// MemmapBattRate is the battery present rate (32 bits)
	MemmapBattRate = 0x44

	// MemmapBattCap is the battery remaining capacity (32 bits)
	MemmapBattCap = 0x48

	// MemmapBattFlag is the battery state (8 bits)
	MemmapBattFlag = 0x4c
)

// Signature is the value stored at MemmapID when an EC is present.
const Signature = "EC"

// Host command interface flags found at MemmapHostCmdFlags.
const (
	// HostCmdFlagLPCArgsSupported means the v2 LPC args interface is available
	HostCmdFlagLPCArgsSupported = 0x01

	// HostCmdFlagVersion3 means the v3 packet protocol is available
	HostCmdFlagVersion3 = 0x02
)

// Temperature and fan encodings in the memory map.
const (
	TempSensorEntries       = 16
	TempSensorBEntries      = 8
	TempSensorNotPresent    = 0xff
	TempSensorError         = 0xfe
	TempSensorNotPowered    = 0xfd
	TempSensorNotCalibrated = 0xfc

	// TempSensorOffset is added to a raw reading to get Kelvin
	TempSensorOffset = 200

	FanSpeedEntries    = 4
	FanSpeedNotPresent = 0xffff
	FanSpeedStalled    = 0xfffe
)

// Switch flags at MemmapSwitches.
const (
	SwitchLidOpen              = 0x01
	SwitchPowerButtonPressed   = 0x02
	SwitchWriteProtectDisabled = 0x04
	SwitchDedicatedRecovery    = 0x10
)
