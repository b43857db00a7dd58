// Package transport defines the contract shared by every way of reaching a
// ChromeOS-style embedded controller, together with the options, errors and
// logging hooks the backends have in common.
//
// # Overview
//
// A Transport moves host commands and memory map reads between the host and
// the EC. Backends live in sub-packages:
//   - lpc: raw port I/O on the LPC bus (v3 packets, v2 args, memmap ports)
//   - cdev: the Linux cros_ec character device
//   - pawnio: the PawnIO driver with the LpcCrOSEC module (Windows)
//   - winec: the Framework CrosEC driver (Windows)
//
// The crosec package picks one automatically.
//
// # Lifecycle
//
// Every backend follows the same sequence:
//
//	t := cdev.New(transport.WithLogger(myLogger))
//	if t.Detect() != transport.Found {
//	    return transport.ErrNoDevice
//	}
//	if err := t.Init(); err != nil {
//	    return err
//	}
//	defer t.Close()
//
//	resp, err := t.Command(ctx, 0, protocol.CmdHello, []byte{0x2A, 0, 0, 0}, 4)
//
// Init releases everything it acquired when it fails, so there is nothing to
// clean up after an Init error.
//
// # Configuration Options
//
// Customize behavior with functional options:
//
//	t := lpc.New(
//	    transport.WithLogger(myLogger),
//	    transport.WithAddress(0xE00),
//	    transport.WithWaitTimeout(time.Second),
//	    transport.WithStrictSize(true),
//	)
//
// Options that do not apply to a backend are ignored by it.
//
// # Response Sizes
//
// Callers name the response size they expect. When the EC returns a
// different amount the transport logs a warning, calls the
// WithSizeMismatchHandler callback and returns what the EC produced. With
// WithStrictSize(true) a *SizeMismatchError is returned instead.
//
// # Error Handling
//
// Errors fall into three groups:
//   - *protocol.ECError: the EC ran the command and reported a Status
//   - framing errors from the protocol package (checksum, header, size)
//   - the sentinels in this package, such as ErrPermissionDenied and ErrNoDevice
//
// All of them are wrapped with context; use errors.Is and errors.As.
package transport
