//go:build windows

package pawnio

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/moffa90/go-crosec/transport"
)

const supported = true

const eAccessDenied = 0x80070005

type library struct {
	dll     *windows.LazyDLL
	open    *windows.LazyProc
	load    *windows.LazyProc
	execute *windows.LazyProc
	close   *windows.LazyProc
	handle  uintptr
}

func openExecutor(path string) (Executor, error) {
	dll := windows.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	l := &library{
		dll:     dll,
		open:    dll.NewProc("pawnio_open"),
		load:    dll.NewProc("pawnio_load"),
		execute: dll.NewProc("pawnio_execute"),
		close:   dll.NewProc("pawnio_close"),
	}
	for _, p := range []*windows.LazyProc{l.open, l.load, l.execute, l.close} {
		if err := p.Find(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	r, _, _ := l.open.Call(uintptr(unsafe.Pointer(&l.handle)))
	if err := hresult("pawnio_open", r); err != nil {
		return nil, err
	}
	return l, nil
}

func hresult(fn string, r uintptr) error {
	hr := uint32(r)
	if int32(hr) >= 0 {
		return nil
	}
	if hr == eAccessDenied {
		return fmt.Errorf("%s: %w", fn, transport.ErrPermissionDenied)
	}
	return fmt.Errorf("%s: HRESULT 0x%08X", fn, hr)
}

func (l *library) Load(blob []byte) error {
	if len(blob) == 0 {
		return fmt.Errorf("pawnio_load: empty module")
	}
	r, _, _ := l.load.Call(l.handle, uintptr(unsafe.Pointer(&blob[0])), uintptr(len(blob)))
	return hresult("pawnio_load", r)
}

func (l *library) Execute(function string, in []uint64, outSize int) ([]uint64, error) {
	name, err := windows.BytePtrFromString(function)
	if err != nil {
		return nil, err
	}

	var inPtr, outPtr uintptr
	if len(in) > 0 {
		inPtr = uintptr(unsafe.Pointer(&in[0]))
	}
	out := make([]uint64, outSize)
	if outSize > 0 {
		outPtr = uintptr(unsafe.Pointer(&out[0]))
	}

	var returned uintptr
	r, _, _ := l.execute.Call(
		l.handle,
		uintptr(unsafe.Pointer(name)),
		inPtr, uintptr(len(in)),
		outPtr, uintptr(outSize),
		uintptr(unsafe.Pointer(&returned)),
	)
	if err := hresult(function, r); err != nil {
		return nil, err
	}
	return out[:min(int(returned), outSize)], nil
}

func (l *library) Close() error {
	if l.handle == 0 {
		return nil
	}
	r, _, _ := l.close.Call(l.handle)
	l.handle = 0
	return hresult("pawnio_close", r)
}
