package pawnio

import (
	"fmt"

	"github.com/moffa90/go-crosec/protocol"
)

// commandHeaderCells is the {command lo, command hi, version} prefix of
// the ioctl_ec_command input.
const commandHeaderCells = 3

// PackBytes puts each byte of data in its own cell.
func PackBytes(data []byte) []uint64 {
	cells := make([]uint64, len(data))
	for i, b := range data {
		cells[i] = uint64(b)
	}
	return cells
}

// UnpackBytes is the inverse of PackBytes. A cell holding more than a byte
// is malformed.
func UnpackBytes(cells []uint64) ([]byte, error) {
	buf := make([]byte, len(cells))
	for i, c := range cells {
		if c > 0xFF {
			return nil, fmt.Errorf("%w: cell %d holds 0x%X", protocol.ErrMalformedResponse, i, c)
		}
		buf[i] = byte(c)
	}
	return buf, nil
}

// PackCommand builds the input cells of ioctl_ec_command: the command
// little-endian in two cells, the version, then the payload, one byte per
// cell.
func PackCommand(version uint8, command uint16, data []byte) ([]uint64, error) {
	if len(data) > protocol.MaxRequestData {
		return nil, fmt.Errorf("%w: %d bytes, max %d", protocol.ErrRequestTooLarge, len(data), protocol.MaxRequestData)
	}

	cells := make([]uint64, 0, commandHeaderCells+len(data))
	cells = append(cells, uint64(command&0xFF), uint64(command>>8), uint64(version))
	return append(cells, PackBytes(data)...), nil
}

// CommandCells is the number of output cells to request for inSize bytes:
// the result cell plus one per byte.
func CommandCells(inSize int) int {
	return 1 + inSize
}

// UnpackCommand splits the output cells of ioctl_ec_command.
//
// The first cell is signed: a negative value is the negated EC status,
// otherwise it is the number of bytes the EC returned. The payload follows,
// one byte per cell, and holds at most inSize bytes. The returned count is
// what the EC reported.
func UnpackCommand(op string, cells []uint64, inSize int) ([]byte, int, error) {
	if len(cells) == 0 {
		return nil, 0, fmt.Errorf("%w: no result cell", protocol.ErrMalformedResponse)
	}

	first := int64(cells[0])
	if first < 0 {
		return nil, 0, &protocol.ECError{Operation: op, Status: protocol.Status(-first)}
	}

	count := int(first)
	n := min(count, inSize, len(cells)-1)
	data, err := UnpackBytes(cells[1 : 1+n])
	if err != nil {
		return nil, 0, err
	}
	return data, count, nil
}
