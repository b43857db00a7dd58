//go:build !windows

package pawnio

import "errors"

const supported = false

var errNotWindows = errors.New("pawnio requires windows")

func openExecutor(string) (Executor, error) {
	return nil, errNotWindows
}
