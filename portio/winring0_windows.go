//go:build windows

package portio

import (
	"fmt"
	"sync"

	"golang.org/x/sys/windows"
)

// DefaultWinRing0Library is loaded when no library path is given.
const DefaultWinRing0Library = "WinRing0x64.dll"

// OLS_DLL_NO_ERROR
const olsDLLNoError = 0

// WinRing0 performs port I/O through the WinRing0 driver DLL.
// The driver runs in kernel mode so Grant is a no-op.
type WinRing0 struct {
	dll *windows.LazyDLL

	deinitialize *windows.LazyProc
	readByte     *windows.LazyProc
	readWord     *windows.LazyProc
	readDword    *windows.LazyProc
	writeByte    *windows.LazyProc
	writeWord    *windows.LazyProc
	writeDword   *windows.LazyProc

	closeOnce sync.Once
}

// OpenWinRing0 loads the WinRing0 DLL from path (or DefaultWinRing0Library
// when path is empty) and initializes the driver.
func OpenWinRing0(path string) (*WinRing0, error) {
	if path == "" {
		path = DefaultWinRing0Library
	}

	dll := windows.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	w := &WinRing0{
		dll:          dll,
		deinitialize: dll.NewProc("DeinitializeOls"),
		readByte:     dll.NewProc("ReadIoPortByte"),
		readWord:     dll.NewProc("ReadIoPortWord"),
		readDword:    dll.NewProc("ReadIoPortDword"),
		writeByte:    dll.NewProc("WriteIoPortByte"),
		writeWord:    dll.NewProc("WriteIoPortWord"),
		writeDword:   dll.NewProc("WriteIoPortDword"),
	}

	procs := []*windows.LazyProc{
		w.deinitialize, w.readByte, w.readWord, w.readDword,
		w.writeByte, w.writeWord, w.writeDword,
	}
	for _, p := range procs {
		if err := p.Find(); err != nil {
			return nil, fmt.Errorf("find %s in %s: %w", p.Name, path, err)
		}
	}

	initialize := dll.NewProc("InitializeOls")
	if ok, _, _ := initialize.Call(); ok == 0 {
		status, _, _ := dll.NewProc("GetDllStatus").Call()
		return nil, fmt.Errorf("InitializeOls failed with status %d: %w", status, ErrPermissionDenied)
	}
	if status, _, _ := dll.NewProc("GetDllStatus").Call(); status != olsDLLNoError {
		w.deinitialize.Call()
		return nil, fmt.Errorf("WinRing0 driver status %d", status)
	}

	return w, nil
}

func (w *WinRing0) Inb(port uint16) (uint8, error) {
	v, _, _ := w.readByte.Call(uintptr(port))
	return uint8(v), nil
}

func (w *WinRing0) Inw(port uint16) (uint16, error) {
	v, _, _ := w.readWord.Call(uintptr(port))
	return uint16(v), nil
}

func (w *WinRing0) Inl(port uint16) (uint32, error) {
	v, _, _ := w.readDword.Call(uintptr(port))
	return uint32(v), nil
}

func (w *WinRing0) Outb(value uint8, port uint16) error {
	w.writeByte.Call(uintptr(port), uintptr(value))
	return nil
}

func (w *WinRing0) Outw(value uint16, port uint16) error {
	w.writeWord.Call(uintptr(port), uintptr(value))
	return nil
}

func (w *WinRing0) Outl(value uint32, port uint16) error {
	w.writeDword.Call(uintptr(port), uintptr(value))
	return nil
}

// Grant is a no-op for WinRing0.
func (w *WinRing0) Grant(port uint16, n int, enable bool) error {
	return nil
}

// Close deinitializes the driver. It is safe to call more than once.
func (w *WinRing0) Close() error {
	w.closeOnce.Do(func() {
		w.deinitialize.Call()
	})
	return nil
}

func openDefault() (PortIO, error) {
	return OpenWinRing0("")
}
