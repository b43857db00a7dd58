//go:build linux && !amd64

package portio

func openDefault() (PortIO, error) {
	return OpenDevPort(DefaultDevPortPath)
}
