package protocol

import (
	"encoding/binary"
	"fmt"
)

// EncodeRequest constructs a v3 host command request packet.
//
// Packet structure:
//
//	[VER=3][CSUM][CMD_L][CMD_H][CMD_VER][0][LEN_L][LEN_H][DATA...]
//
// The checksum byte is chosen so that the whole packet sums to zero.
// Returns ErrRequestTooLarge if the packet would exceed MaxPacketSize.
func EncodeRequest(version uint8, command uint16, data []byte) ([]byte, error) {
	if RequestHeaderSize+len(data) > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d byte payload exceeds maximum %d bytes",
			ErrRequestTooLarge, len(data), MaxRequestData)
	}

	packet := make([]byte, RequestHeaderSize, RequestHeaderSize+len(data))
	packet[0] = RequestVersion
	binary.LittleEndian.PutUint16(packet[2:4], command)
	packet[4] = version
	binary.LittleEndian.PutUint16(packet[6:8], uint16(len(data)))
	packet = append(packet, data...)

	packet[1] = Checksum(packet)

	return packet, nil
}

// DecodeRequest parses a v3 request packet.
// This is the EC side of EncodeRequest and is used by simulators and tests.
func DecodeRequest(packet []byte) (*Request, error) {
	if len(packet) < RequestHeaderSize {
		return nil, fmt.Errorf("%w: request of %d bytes is shorter than the %d byte header",
			ErrMalformedResponse, len(packet), RequestHeaderSize)
	}
	if packet[0] != RequestVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrInvalidHeaderVersion, packet[0], RequestVersion)
	}
	if packet[5] != 0 {
		return nil, fmt.Errorf("%w: reserved byte is 0x%02X", ErrMalformedResponse, packet[5])
	}

	dataLen := int(binary.LittleEndian.Uint16(packet[6:8]))
	if len(packet) < RequestHeaderSize+dataLen {
		return nil, fmt.Errorf("%w: header announces %d data bytes, packet has %d",
			ErrMalformedResponse, dataLen, len(packet)-RequestHeaderSize)
	}
	packet = packet[:RequestHeaderSize+dataLen]

	if sum := Sum(packet); sum != 0 {
		return nil, fmt.Errorf("%w: request sums to 0x%02X", ErrChecksumMismatch, sum)
	}

	return &Request{
		Version: packet[4],
		Command: binary.LittleEndian.Uint16(packet[2:4]),
		Data:    packet[RequestHeaderSize:],
	}, nil
}

// NewArgs builds the v2 argument block for a request.
// The command code must fit in one byte because v2 writes it to the
// command register directly.
func NewArgs(command uint16, version uint8, data []byte) (Args, error) {
	if command > 0xFF {
		return Args{}, fmt.Errorf("command 0x%04X cannot be sent with the v2 protocol", command)
	}
	if len(data) > MaxParamSize {
		return Args{}, fmt.Errorf("%w: %d byte payload exceeds maximum %d bytes",
			ErrRequestTooLarge, len(data), MaxParamSize)
	}

	args := Args{
		Flags:          ArgsFlagFromHost,
		CommandVersion: version,
		DataSize:       uint8(len(data)),
	}
	args.Checksum = argsChecksum(uint8(command), args, data)

	return args, nil
}

// Verify checks an argument block written back by the EC against the
// response data that accompanied it.
func (a Args) Verify(command uint16, data []byte) error {
	if a.Flags&ArgsFlagToHost == 0 {
		return fmt.Errorf("%w: args flags 0x%02X missing the to-host bit", ErrMalformedResponse, a.Flags)
	}
	if int(a.DataSize) != len(data) {
		return fmt.Errorf("%w: args announce %d bytes, got %d", ErrMalformedResponse, a.DataSize, len(data))
	}
	if want := argsChecksum(uint8(command), a, data); want != a.Checksum {
		return fmt.Errorf("%w: args checksum 0x%02X, expected 0x%02X", ErrChecksumMismatch, a.Checksum, want)
	}
	return nil
}

// Bytes returns the argument block in wire order.
func (a Args) Bytes() []byte {
	return []byte{a.Flags, a.CommandVersion, a.DataSize, a.Checksum}
}

// ParseArgs decodes a 4-byte argument block.
func ParseArgs(b []byte) (Args, error) {
	if len(b) != ArgsSize {
		return Args{}, fmt.Errorf("%w: args block is %d bytes, expected %d", ErrMalformedResponse, len(b), ArgsSize)
	}
	return Args{Flags: b[0], CommandVersion: b[1], DataSize: b[2], Checksum: b[3]}, nil
}

// SignArgs fills in the checksum of an EC-side argument block.
// Simulators use it to answer v2 requests.
func SignArgs(command uint16, args Args, data []byte) Args {
	args.Checksum = argsChecksum(uint8(command), args, data)
	return args
}
