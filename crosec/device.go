package crosec

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/moffa90/go-crosec/transport"
	"github.com/moffa90/go-crosec/transport/cdev"
	"github.com/moffa90/go-crosec/transport/lpc"
	"github.com/moffa90/go-crosec/transport/pawnio"
	"github.com/moffa90/go-crosec/transport/winec"
)

// DeviceType selects a transport.
type DeviceType int

const (
	// Auto picks the first transport that detects an EC
	Auto DeviceType = iota

	// LinuxDev is the cros_ec character device
	LinuxDev

	// WindowsDriver is the Framework CrosEC driver
	WindowsDriver

	// PawnIO is the PawnIO LpcCrOSEC module
	PawnIO

	// LPC talks to the EC directly through I/O ports
	LPC
)

var deviceTypeNames = map[DeviceType]string{
	Auto:          "auto",
	LinuxDev:      "cros_ec",
	WindowsDriver: "windows",
	PawnIO:        "pawnio",
	LPC:           "lpc",
}

func (d DeviceType) String() string {
	if name, ok := deviceTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DeviceType(%d)", int(d))
}

// ParseDeviceType parses the names returned by DeviceType.String. The empty
// string is Auto.
func ParseDeviceType(s string) (DeviceType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Auto, nil
	}
	for d, name := range deviceTypeNames {
		if name == s {
			return d, nil
		}
	}
	return Auto, fmt.Errorf("unknown device type %q", s)
}

// NewTransport creates an unopened transport of the given type.
func NewTransport(kind DeviceType, opts ...transport.Option) (transport.Transport, error) {
	switch kind {
	case LinuxDev:
		return cdev.New(opts...), nil
	case WindowsDriver:
		return winec.New(opts...), nil
	case PawnIO:
		return pawnio.New(opts...), nil
	case LPC:
		return lpc.New(opts...), nil
	}
	return nil, fmt.Errorf("no transport for device type %s", kind)
}

// Candidates returns the transports worth probing on this platform, in
// order of preference.
func Candidates(opts ...transport.Option) []transport.Transport {
	var kinds []DeviceType
	switch runtime.GOOS {
	case "linux":
		kinds = []DeviceType{LinuxDev, LPC}
	case "windows":
		kinds = []DeviceType{WindowsDriver, PawnIO, LPC}
	default:
		kinds = []DeviceType{LPC}
	}

	candidates := make([]transport.Transport, 0, len(kinds))
	for _, kind := range kinds {
		t, _ := NewTransport(kind, opts...)
		candidates = append(candidates, t)
	}
	return candidates
}

// PickDevice returns the first candidate that detects an EC.
//
// A candidate that finds an EC it is not allowed to use stops the search:
// the returned error wraps transport.ErrPermissionDenied so the caller can
// tell the user to rerun with privileges. If nothing is found the error is
// transport.ErrNoDevice.
func PickDevice(candidates ...transport.Transport) (transport.Transport, error) {
	names := make([]string, 0, len(candidates))
	for _, t := range candidates {
		switch t.Detect() {
		case transport.Found:
			return t, nil
		case transport.PermissionDenied:
			return nil, fmt.Errorf("%s: %w", t.Name(), transport.ErrPermissionDenied)
		}
		names = append(names, t.Name())
	}
	return nil, fmt.Errorf("%w (tried %s)", transport.ErrNoDevice, strings.Join(names, ", "))
}

// Open finds and initializes an EC transport. With Auto the platform
// candidates are probed in order; any other kind is used as is.
//
// Example:
//
//	ec, err := crosec.Open(crosec.Auto, transport.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ec.Close()
func Open(kind DeviceType, opts ...transport.Option) (*EC, error) {
	var (
		t   transport.Transport
		err error
	)
	if kind == Auto {
		t, err = PickDevice(Candidates(opts...)...)
	} else {
		t, err = NewTransport(kind, opts...)
	}
	if err != nil {
		return nil, err
	}

	return OpenTransport(t, opts...)
}

// OpenTransport initializes t and wraps it.
func OpenTransport(t transport.Transport, opts ...transport.Option) (*EC, error) {
	if err := t.Init(); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("init %s: %w", t.Name(), err)
	}
	return New(t, opts...), nil
}
