// Package protocol implements the ChromeOS Embedded Controller host command
// wire format.
//
// This package builds request packets and validates response packets for the
// version 3 host command protocol, and the argument block used by the older
// version 2 LPC protocol. It performs no I/O: transports in the transport
// subpackages move the bytes, this package only frames and checks them.
//
// # Protocol Overview
//
// Every v3 exchange is one request packet followed by one response packet:
//
//	Request:  [VER=3][CSUM][CMD_L][CMD_H][CMD_VER][0][LEN_L][LEN_H][DATA...]
//	Response: [VER=3][CSUM][RES_L][RES_H][LEN_L][LEN_H][0][0][DATA...]
//
// Where:
//   - VER = struct version, always 3
//   - CSUM = chosen so that the byte sum of the whole packet is 0 (mod 256)
//   - CMD = 16-bit command code (little-endian)
//   - RES = 16-bit result, see Status
//   - LEN = 16-bit data length (little-endian)
//
// # Request Builders
//
//	packet, err := protocol.EncodeRequest(0, protocol.CmdHello, data)
//
// # Response Parsers
//
//	resp, err := protocol.DecodeResponse(packet)
//	if resp.Result != protocol.StatusSuccess {
//	    return &protocol.ECError{Operation: "hello", Status: resp.Result}
//	}
//
// # Error Handling
//
// Framing failures are reported with the sentinel errors ErrChecksumMismatch,
// ErrInvalidHeaderVersion, ErrMalformedResponse and ErrRequestTooLarge, wrapped
// with context. A failure reported by the EC itself is an *ECError carrying the
// Status:
//
//	var ecErr *protocol.ECError
//	if errors.As(err, &ecErr) && ecErr.Status == protocol.StatusBusy {
//	    // retry later
//	}
package protocol
