package lpc

import (
	"context"
	"fmt"

	"github.com/moffa90/go-crosec/portio"
	"github.com/moffa90/go-crosec/protocol"
	"github.com/moffa90/go-crosec/transport"
)

func operation(command uint16) string {
	return fmt.Sprintf("command 0x%04X", command)
}

// commandV3 runs one v3 packet through the packet window.
func (l *LPC) commandV3(ctx context.Context, version uint8, command uint16, data []byte, inSize int) ([]byte, error) {
	op := operation(command)

	packet, err := protocol.EncodeRequest(version, command, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := portio.WriteBytes(l.io, HostPacket, packet); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := l.io.Outb(CommandProtocol3, HostCmd); err != nil {
		return nil, fmt.Errorf("%s: start: %w", op, err)
	}

	if err := l.result(ctx, op); err != nil {
		return nil, err
	}

	header, err := portio.ReadBytes(l.io, HostPacket, protocol.ResponseHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hdr, err := protocol.DecodeResponseHeader(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if int(hdr.DataLen) > protocol.MaxResponseData {
		return nil, fmt.Errorf("%s: %w: data length %d exceeds packet window",
			op, protocol.ErrMalformedResponse, hdr.DataLen)
	}
	if err := l.cfg.CheckSize(op, inSize, int(hdr.DataLen)); err != nil {
		return nil, err
	}

	payload, err := portio.ReadBytes(l.io, HostPacket+protocol.ResponseHeaderSize, int(hdr.DataLen))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := protocol.DecodeResponse(append(header, payload...))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	l.cfg.Logger.Debug("lpc command complete",
		"command", fmt.Sprintf("0x%04X", command),
		"version", version,
		"out", len(data),
		"in", len(resp.Data),
	)
	return resp.Data, nil
}

// commandV2 runs one command through the args and params blocks.
//
// Not verified against hardware; every EC shipped since 2014 supports v3.
func (l *LPC) commandV2(ctx context.Context, version uint8, command uint16, data []byte, inSize int) ([]byte, error) {
	op := operation(command)

	args, err := protocol.NewArgs(command, version, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := portio.WriteBytes(l.io, HostArgs, args.Bytes()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := portio.WriteBytes(l.io, HostParam, data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := l.io.Outb(uint8(command), HostCmd); err != nil {
		return nil, fmt.Errorf("%s: start: %w", op, err)
	}

	if err := l.result(ctx, op); err != nil {
		return nil, err
	}

	raw, err := portio.ReadBytes(l.io, HostArgs, protocol.ArgsSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	respArgs, err := protocol.ParseArgs(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if int(respArgs.DataSize) > protocol.MaxParamSize {
		return nil, fmt.Errorf("%s: %w: data size %d exceeds params block",
			op, protocol.ErrMalformedResponse, respArgs.DataSize)
	}
	if err := l.cfg.CheckSize(op, inSize, int(respArgs.DataSize)); err != nil {
		return nil, err
	}

	payload, err := portio.ReadBytes(l.io, HostParam, int(respArgs.DataSize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := respArgs.Verify(command, payload); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return payload, nil
}

// result waits for the EC and turns the result byte into an error.
func (l *LPC) result(ctx context.Context, op string) error {
	if err := l.wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := l.io.Inb(HostData)
	if err != nil {
		return fmt.Errorf("%s: read result: %w", op, err)
	}
	return transport.CheckResult(op, protocol.Status(res))
}
