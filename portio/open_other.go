//go:build !linux && !freebsd && !windows

package portio

func openDefault() (PortIO, error) {
	return nil, ErrUnsupported
}
