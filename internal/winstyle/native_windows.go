//go:build windows

package winstyle

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                        = windows.NewLazySystemDLL("user32.dll")
	procGetWindowLongW            = user32.NewProc("GetWindowLongW")
	procSetWindowLongW            = user32.NewProc("SetWindowLongW")
	procSetLayeredWindowAttrs     = user32.NewProc("SetLayeredWindowAttributes")
	procSetWindowDisplayAffinity  = user32.NewProc("SetWindowDisplayAffinity")
	procGetWindowRect             = user32.NewProc("GetWindowRect")
	procGetForegroundWindow       = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow       = user32.NewProc("SetForegroundWindow")
	procGetShellWindow            = user32.NewProc("GetShellWindow")
	procGetDesktopWindow          = user32.NewProc("GetDesktopWindow")
)

const (
	gwlExStyle = ^uintptr(19) // GWL_EXSTYLE (-20) as uintptr
	lwaAlpha   = 0x00000002   // LWA_ALPHA
)

// windowsNative implements Native against user32. Stateless; all state lives
// in the window itself, which is what makes the controllers' read-modify-write
// discipline matter.
type windowsNative struct{}

// NewNative returns the user32-backed Native implementation.
func NewNative() Native {
	return windowsNative{}
}

func (windowsNative) ExStyle(h Handle) (uint32, error) {
	// GetWindowLongW returns 0 on failure, but 0 is also a valid style word,
	// so the last-error value disambiguates.
	r, _, err := procGetWindowLongW.Call(uintptr(h), gwlExStyle)
	if r == 0 {
		if errno, ok := err.(windows.Errno); ok && errno != 0 {
			return 0, &NativeError{Call: "GetWindowLongW", Code: uint32(errno)}
		}
	}
	return uint32(r), nil
}

func (windowsNative) SetExStyle(h Handle, style uint32) error {
	r, _, err := procSetWindowLongW.Call(uintptr(h), gwlExStyle, uintptr(style))
	if r == 0 {
		if errno, ok := err.(windows.Errno); ok && errno != 0 {
			return &NativeError{Call: "SetWindowLongW", Code: uint32(errno)}
		}
	}
	return nil
}

func (windowsNative) SetLayeredAlpha(h Handle, alpha byte) error {
	r, _, err := procSetLayeredWindowAttrs.Call(uintptr(h), 0, uintptr(alpha), lwaAlpha)
	if r == 0 {
		return callError("SetLayeredWindowAttributes", err)
	}
	return nil
}

func (windowsNative) SetDisplayAffinity(h Handle, affinity uint32) error {
	r, _, err := procSetWindowDisplayAffinity.Call(uintptr(h), uintptr(affinity))
	if r == 0 {
		return callError("SetWindowDisplayAffinity", err)
	}
	return nil
}

func (windowsNative) Rect(h Handle) (Rect, error) {
	var rect Rect
	r, _, err := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&rect)))
	if r == 0 {
		return Rect{}, callError("GetWindowRect", err)
	}
	return rect, nil
}

func (windowsNative) IsForeground(h Handle) bool {
	r, _, _ := procGetForegroundWindow.Call()
	return r != 0 && Handle(r) == h
}

// DropFocus hands foreground focus to the shell (or desktop as a fallback) so
// a click-through overlay never keeps swallowing keystrokes.
func (windowsNative) DropFocus(h Handle) error {
	target, _, _ := procGetShellWindow.Call()
	if target == 0 {
		target, _, _ = procGetDesktopWindow.Call()
	}
	if target == 0 {
		return &NativeError{Call: "GetShellWindow", Code: 0}
	}
	r, _, err := procSetForegroundWindow.Call(target)
	if r == 0 {
		return callError("SetForegroundWindow", err)
	}
	return nil
}

func callError(call string, err error) error {
	if errno, ok := err.(windows.Errno); ok {
		return &NativeError{Call: call, Code: uint32(errno)}
	}
	return &NativeError{Call: call}
}
