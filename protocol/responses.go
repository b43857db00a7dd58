package protocol

import (
	"encoding/binary"
	"fmt"
)

// DecodeResponseHeader parses and validates the fixed 8-byte v3 response
// header. It checks the struct version and the reserved field; the checksum
// can only be verified once the payload has been read.
func DecodeResponseHeader(b []byte) (ResponseHeader, error) {
	if len(b) < ResponseHeaderSize {
		return ResponseHeader{}, fmt.Errorf("%w: header is %d bytes, expected %d",
			ErrMalformedResponse, len(b), ResponseHeaderSize)
	}

	hdr := ResponseHeader{
		StructVersion: b[0],
		Checksum:      b[1],
		Result:        Status(binary.LittleEndian.Uint16(b[2:4])),
		DataLen:       binary.LittleEndian.Uint16(b[4:6]),
		Reserved:      binary.LittleEndian.Uint16(b[6:8]),
	}

	if hdr.StructVersion != ResponseVersion {
		return hdr, fmt.Errorf("%w: got %d, expected %d", ErrInvalidHeaderVersion, hdr.StructVersion, ResponseVersion)
	}
	if hdr.Reserved != 0 {
		return hdr, fmt.Errorf("%w: reserved field is 0x%04X", ErrMalformedResponse, hdr.Reserved)
	}

	return hdr, nil
}

// DecodeResponse extracts the result and payload from a v3 response packet.
//
// Response packet structure:
//
//	[VER=3][CSUM][RES_L][RES_H][LEN_L][LEN_H][0][0][DATA...]
//
// Bytes past the announced data length are ignored, so a whole packet
// window may be passed in. The result code is returned as-is; callers decide
// whether a non-success Status is an error.
//
// Checks run in wire order: struct version (ErrInvalidHeaderVersion),
// reserved field and announced length (ErrMalformedResponse), then the
// checksum over header and payload (ErrChecksumMismatch). A corrupted
// header byte may therefore fail one of the earlier checks before the
// checksum is ever computed.
func DecodeResponse(packet []byte) (*Response, error) {
	hdr, err := DecodeResponseHeader(packet)
	if err != nil {
		return nil, err
	}

	total := ResponseHeaderSize + int(hdr.DataLen)
	if len(packet) < total {
		return nil, fmt.Errorf("%w: header announces %d data bytes, packet has %d",
			ErrMalformedResponse, hdr.DataLen, len(packet)-ResponseHeaderSize)
	}
	packet = packet[:total]

	if sum := Sum(packet); sum != 0 {
		return nil, fmt.Errorf("%w: response sums to 0x%02X", ErrChecksumMismatch, sum)
	}

	data := make([]byte, hdr.DataLen)
	copy(data, packet[ResponseHeaderSize:])

	return &Response{Result: hdr.Result, Data: data}, nil
}

// EncodeResponse constructs a v3 response packet.
// This is the EC side of DecodeResponse and is used by simulators and tests.
func EncodeResponse(result Status, data []byte) ([]byte, error) {
	if ResponseHeaderSize+len(data) > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d byte payload exceeds maximum %d bytes",
			ErrRequestTooLarge, len(data), MaxResponseData)
	}

	packet := make([]byte, ResponseHeaderSize, ResponseHeaderSize+len(data))
	packet[0] = ResponseVersion
	binary.LittleEndian.PutUint16(packet[2:4], uint16(result))
	binary.LittleEndian.PutUint16(packet[4:6], uint16(len(data)))
	packet = append(packet, data...)

	packet[1] = Checksum(packet)

	return packet, nil
}
