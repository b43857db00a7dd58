//go:build linux

package cdev

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

type fileDevice struct {
	f *os.File
}

func openDevice(path string) (Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &fileDevice{f: f}, nil
}

func (d *fileDevice) Ioctl(request uint, arg []byte) (int, error) {
	if len(arg) == 0 {
		return 0, fmt.Errorf("ioctl 0x%08X: empty argument", request)
	}

	r, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), uintptr(request), uintptr(unsafe.Pointer(&arg[0])))
	if errno != 0 {
		if errno == unix.ENOTTY {
			return 0, fmt.Errorf("ioctl 0x%08X: %w: %w", request, ErrControlUnsupported, errno)
		}
		return 0, fmt.Errorf("ioctl 0x%08X: %w", request, errno)
	}
	return int(r), nil
}

func (d *fileDevice) Close() error {
	return d.f.Close()
}
