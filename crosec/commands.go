package crosec

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/moffa90/go-crosec/protocol"
)

// Image identifies the firmware copy the EC is running.
type Image uint32

const (
	ImageUnknown Image = 0
	ImageRO      Image = 1
	ImageRW      Image = 2
)

func (i Image) String() string {
	switch i {
	case ImageRO:
		return "RO"
	case ImageRW:
		return "RW"
	}
	return "unknown"
}

// VersionInfo is the GET_VERSION response.
type VersionInfo struct {
	RO           string `json:"ro" yaml:"ro"`
	RW           string `json:"rw" yaml:"rw"`
	CurrentImage Image  `json:"current_image" yaml:"current_image"`
}

const (
	versionStringSize = 32

	// ro[32] rw[32] reserved[32] current_image u32
	getVersionSize = 3*versionStringSize + 4
)

// Hello sends HELLO with in and returns the EC's answer, which is
// in + protocol.HelloMagic on a healthy EC.
func (e *EC) Hello(ctx context.Context, in uint32) (uint32, error) {
	resp, err := e.Command(ctx, 0, protocol.CmdHello, binary.LittleEndian.AppendUint32(nil, in), 4)
	if err != nil {
		return 0, err
	}
	return decodeUint32("hello", resp)
}

// ProtoVersion returns the legacy protocol version.
func (e *EC) ProtoVersion(ctx context.Context) (uint32, error) {
	resp, err := e.Command(ctx, 0, protocol.CmdProtoVersion, nil, 4)
	if err != nil {
		return 0, err
	}
	return decodeUint32("proto version", resp)
}

// GetVersion returns the firmware version strings.
func (e *EC) GetVersion(ctx context.Context) (*VersionInfo, error) {
	resp, err := e.Command(ctx, 0, protocol.CmdGetVersion, nil, getVersionSize)
	if err != nil {
		return nil, err
	}
	if len(resp) < getVersionSize {
		return nil, fmt.Errorf("%w: get version returned %d bytes", protocol.ErrMalformedResponse, len(resp))
	}

	return &VersionInfo{
		RO:           cString(resp[0:versionStringSize]),
		RW:           cString(resp[versionStringSize : 2*versionStringSize]),
		CurrentImage: Image(binary.LittleEndian.Uint32(resp[3*versionStringSize:])),
	}, nil
}

func decodeUint32(op string, b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("%w: %s returned %d bytes", protocol.ErrMalformedResponse, op, len(b))
	}
	return binary.LittleEndian.Uint32(b), nil
}

// cString trims a NUL-padded string.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
