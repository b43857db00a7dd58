package protocol

import "fmt"

// Status is a host command result code reported by the EC.
type Status uint16

// Result codes. The numeric values are fixed by the EC firmware.
const (
	StatusSuccess              Status = 0
	StatusInvalidCommand       Status = 1
	StatusError                Status = 2
	StatusInvalidParam         Status = 3
	StatusAccessDenied         Status = 4
	StatusInvalidResponse      Status = 5
	StatusInvalidVersion       Status = 6
	StatusInvalidChecksum      Status = 7
	StatusInProgress           Status = 8
	StatusUnavailable          Status = 9
	StatusTimeout              Status = 10
	StatusOverflow             Status = 11
	StatusInvalidHeader        Status = 12
	StatusRequestTruncated     Status = 13
	StatusResponseTooBig       Status = 14
	StatusBusError             Status = 15
	StatusBusy                 Status = 16
	StatusInvalidHeaderVersion Status = 17
	StatusInvalidHeaderCRC     Status = 18
	StatusInvalidDataCRC       Status = 19
	StatusDupUnavailable       Status = 20
)

var statusNames = map[Status]string{
	StatusSuccess:              "EC_RES_SUCCESS",
	StatusInvalidCommand:       "EC_RES_INVALID_COMMAND",
	StatusError:                "EC_RES_ERROR",
	StatusInvalidParam:         "EC_RES_INVALID_PARAM",
	StatusAccessDenied:         "EC_RES_ACCESS_DENIED",
	StatusInvalidResponse:      "EC_RES_INVALID_RESPONSE",
	StatusInvalidVersion:       "EC_RES_INVALID_VERSION",
	StatusInvalidChecksum:      "EC_RES_INVALID_CHECKSUM",
	StatusInProgress:           "EC_RES_IN_PROGRESS",
	StatusUnavailable:          "EC_RES_UNAVAILABLE",
	StatusTimeout:              "EC_RES_TIMEOUT",
	StatusOverflow:             "EC_RES_OVERFLOW",
	StatusInvalidHeader:        "EC_RES_INVALID_HEADER",
	StatusRequestTruncated:     "EC_RES_REQUEST_TRUNCATED",
	StatusResponseTooBig:       "EC_RES_RESPONSE_TOO_BIG",
	StatusBusError:             "EC_RES_BUS_ERROR",
	StatusBusy:                 "EC_RES_BUSY",
	StatusInvalidHeaderVersion: "EC_RES_INVALID_HEADER_VERSION",
	StatusInvalidHeaderCRC:     "EC_RES_INVALID_HEADER_CRC",
	StatusInvalidDataCRC:       "EC_RES_INVALID_DATA_CRC",
	StatusDupUnavailable:       "EC_RES_DUP_UNAVAILABLE",
}

// String returns the EC's symbolic name for the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("EC_RES_UNKNOWN(%d)", uint16(s))
}

// Known reports whether s is one of the defined result codes.
func (s Status) Known() bool {
	_, ok := statusNames[s]
	return ok
}

// Request is a decoded v3 host command request.
type Request struct {
	// Version is the command version (often 0)
	Version uint8

	// Command is the command code (CmdHello, ...)
	Command uint16

	// Data is the outgoing payload
	Data []byte
}

// Response is a decoded v3 host command response.
type Response struct {
	// Result is the status the EC reported in the response header
	Result Status

	// Data is the incoming payload, len(Data) is the header's data length
	Data []byte
}

// ResponseHeader is the fixed 8-byte v3 response header.
type ResponseHeader struct {
	StructVersion uint8
	Checksum      uint8
	Result        Status
	DataLen       uint16
	Reserved      uint16
}

// Args is the 4-byte argument block of the v2 LPC protocol.
type Args struct {
	// Flags is ArgsFlagFromHost on requests and ArgsFlagToHost on responses
	Flags uint8

	// CommandVersion is the command version (often 0)
	CommandVersion uint8

	// DataSize is the number of parameter or response bytes
	DataSize uint8

	// Checksum covers the command code, the other three fields and the data
	Checksum uint8
}
