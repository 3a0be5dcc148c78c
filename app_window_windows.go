//go:build windows

package main

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"ghostnote/internal/winstyle"
)

var (
	user32      = windows.NewLazySystemDLL("user32.dll")
	findWindowW = user32.NewProc("FindWindowW")
)

// findOverlayWindow resolves the overlay's native handle by title. Wails has
// created the window by the time startup runs, but the title can land a tick
// later, so a short retry rides that out.
func findOverlayWindow(title string) (winstyle.Handle, error) {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, fmt.Errorf("invalid window title %q: %w", title, err)
	}

	const attempts = 10
	for i := 0; i < attempts; i++ {
		hwnd, _, _ := findWindowW.Call(0, uintptr(unsafe.Pointer(titlePtr)))
		if hwnd != 0 {
			return winstyle.Handle(hwnd), nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return 0, fmt.Errorf("window %q not found", title)
}
