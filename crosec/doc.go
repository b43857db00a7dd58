// Package crosec provides a high-level API for talking to a ChromeOS
// embedded controller.
//
// # Overview
//
// An EC can be reached in several ways depending on the platform:
//   - the Linux cros_ec character device (transport/cdev)
//   - the Framework CrosEC driver on Windows (transport/winec)
//   - the PawnIO LpcCrOSEC module on Windows (transport/pawnio)
//   - raw LPC I/O ports on any x86 machine (transport/lpc)
//
// Open picks the first transport that finds an EC and returns an EC handle:
//
//	ec, err := crosec.Open(crosec.Auto)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ec.Close()
//
//	out, err := ec.Hello(context.Background(), 0xA0B0C0D0)
//
// # Choosing a Transport
//
// Pass a DeviceType to skip detection:
//
//	ec, err := crosec.Open(crosec.LPC, transport.WithAddress(0xE00))
//
// Detection stops at the first transport that reports the EC exists but
// cannot be opened. The error wraps transport.ErrPermissionDenied:
//
//	if errors.Is(err, transport.ErrPermissionDenied) {
//	    fmt.Println("try again as root")
//	}
//
// # Raw Commands
//
// Command sends any host command. The response is at most inSize bytes:
//
//	resp, err := ec.Command(ctx, 0, 0x0002, nil, 100)
//
// An EC that rejects a command returns a *protocol.ECError:
//
//	if status, ok := protocol.StatusOf(err); ok {
//	    fmt.Println("EC said", status)
//	}
//
// # Memory Map
//
// Memmap reads the shared memory region, and ID, Temperatures, Fans and
// Switches decode the common fields in it.
package crosec
