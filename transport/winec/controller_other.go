//go:build !windows

package winec

import (
	"errors"
	"fmt"
)

var errNotWindows = errors.New("CrosEC driver requires windows")

func openController(path string) (Controller, error) {
	return nil, fmt.Errorf("open %s: %w", path, errNotWindows)
}
