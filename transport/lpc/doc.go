// Package lpc implements the EC host command transport over raw LPC port I/O.
//
// # Discovery
//
// The EC exposes a 255-byte memory map at 0x900, or at 0xE00 on AMD
// Framework laptops. Detect and Init look for the ASCII signature "EC" at
// offset 0x20 of each candidate; WithAddress pins a single base.
//
// # Protocols
//
// The host command flags at memory map offset 0x27 choose the protocol:
//   - v3: a checksummed packet written to the 0x800 window, started by
//     writing 0xDA to the command port
//   - v2: a 4-byte args block at 0x800 and up to 252 parameter bytes at
//     0x804, started by writing the command code itself. This path has not
//     been verified on hardware.
//
// If neither flag is set Init still succeeds so the memory map can be read,
// but Command returns transport.ErrCommandsUnsupported.
//
// # Waiting
//
// The EC clears the busy bits of the status register when it is done. By
// default the transport polls forever; use transport.WithWaitTimeout and
// transport.WithPollInterval to bound and pace the wait. The context passed
// to Command is checked between polls.
//
// # Privileges
//
// Port access needs root (CAP_SYS_RAWIO on Linux). When the OS refuses,
// Detect returns transport.PermissionDenied and Init fails with an error
// wrapping transport.ErrPermissionDenied.
package lpc
