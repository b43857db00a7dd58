//go:build !linux

package cdev

import (
	"errors"
	"fmt"
)

var errNotLinux = errors.New("cros_ec device requires linux")

func openDevice(path string) (Device, error) {
	return nil, fmt.Errorf("open %s: %w", path, errNotLinux)
}
