// Package winstyle mutates the overlay window's extended style bits and
// display affinity.
//
// All style mutation in the application goes through this package so that the
// read-modify-write discipline on GWL_EXSTYLE is enforced in one place;
// callers never touch the style word directly. The Win32 surface is abstracted
// behind the Native interface, with a golang.org/x/sys implementation on
// Windows and an in-memory one elsewhere.
package winstyle

import "fmt"

// Handle is an opaque native window handle (HWND on Windows).
type Handle uintptr

// Extended window style bits (winuser.h).
const (
	ExLayered     uint32 = 0x00080000 // WS_EX_LAYERED
	ExTransparent uint32 = 0x00000020 // WS_EX_TRANSPARENT
	ExToolWindow  uint32 = 0x00000080 // WS_EX_TOOLWINDOW
)

// Display affinity values (SetWindowDisplayAffinity).
const (
	AffinityNone           uint32 = 0x00000000 // WDA_NONE
	AffinityExcludeCapture uint32 = 0x00000011 // WDA_EXCLUDEFROMCAPTURE, Windows 10 2004+
)

// layeredAlpha is the constant alpha applied via SetLayeredWindowAttributes.
// It is always fully opaque: the user-visible opacity is realized by the
// rendering surface, never by the OS layered alpha. Capture exclusion only
// composes correctly with a constant-alpha layered window; a per-pixel-alpha
// window captures as a solid black rectangle instead of being omitted.
const layeredAlpha byte = 255

// Rect is a window bounding rectangle in screen coordinates.
type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// Contains reports whether the screen point (x, y) lies within the rectangle.
// Edges are inclusive, matching PtInRect-style hit testing for hook events.
func (r Rect) Contains(x, y int32) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// NativeError is a failed OS call, carrying the OS error code.
type NativeError struct {
	Call string
	Code uint32
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("%s failed (code %d)", e.Call, e.Code)
}

// Native is the OS window surface used by the controllers. Implementations
// must be safe for concurrent use; the hook callbacks query Rect while the
// UI goroutine mutates styles.
type Native interface {
	// ExStyle reads the extended style word.
	ExStyle(h Handle) (uint32, error)
	// SetExStyle writes the extended style word.
	SetExStyle(h Handle, style uint32) error
	// SetLayeredAlpha applies constant-alpha blending. The window must
	// already carry ExLayered.
	SetLayeredAlpha(h Handle, alpha byte) error
	// SetDisplayAffinity sets the capture affinity.
	SetDisplayAffinity(h Handle, affinity uint32) error
	// Rect returns the window's current screen rectangle.
	Rect(h Handle) (Rect, error)
	// IsForeground reports whether the window currently holds focus.
	IsForeground(h Handle) bool
	// DropFocus moves foreground focus away from the window.
	DropFocus(h Handle) error
}
