//go:build windows

package winec

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/moffa90/go-crosec/transport"
)

type handle struct {
	h windows.Handle
}

func openController(path string) (Controller, error) {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}

	h, err := windows.CreateFile(name,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil, windows.OPEN_EXISTING, 0, 0)
	if err != nil {
		if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
			return nil, fmt.Errorf("%w: %w", transport.ErrPermissionDenied, err)
		}
		return nil, err
	}
	return &handle{h: h}, nil
}

func (c *handle) Control(code uint32, buf []byte) error {
	var returned uint32
	p := &buf[0]
	return windows.DeviceIoControl(c.h, code, p, uint32(len(buf)), p, uint32(len(buf)), &returned, nil)
}

func (c *handle) Close() error {
	return windows.CloseHandle(c.h)
}
