//go:build windows

package hook

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"ghostnote/internal/winstyle"
)

var (
	wheelCallbackOnce sync.Once
	wheelCallback     uintptr
	activeWheel       atomic.Pointer[Wheel]
)

// RectFunc returns the overlay's current screen rectangle. It is called on
// the hook thread for every wheel event, so the window may move or resize
// between events without the hook going stale. ok is false when the rectangle
// cannot be determined; the event then passes through.
type RectFunc func() (rect winstyle.Rect, ok bool)

// DeltaFunc receives the signed scroll delta of a consumed wheel event.
// It runs on the hook thread and must not block.
type DeltaFunc func(delta int32)

// Wheel is the WH_MOUSE_LL hook that redirects scrolling over the overlay.
type Wheel struct {
	mu        sync.Mutex
	loop      hookLoop
	rect      RectFunc
	deliver   DeltaFunc
	installed bool
}

// NewWheel creates a wheel hook routed through rect and deliver.
func NewWheel(rect RectFunc, deliver DeltaFunc) *Wheel {
	return &Wheel{rect: rect, deliver: deliver}
}

// Install installs the hook on its own thread. Idempotent.
func (w *Wheel) Install() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.installed {
		return nil
	}

	wheelCallbackOnce.Do(func() {
		wheelCallback = syscall.NewCallback(wheelProc)
	})
	activeWheel.Store(w)

	if err := w.loop.run(whMouseLL, wheelCallback); err != nil {
		activeWheel.Store(nil)
		return err
	}
	w.installed = true
	slog.Info("[hook] wheel hook installed")
	return nil
}

// Uninstall removes the hook and waits for its thread to exit. Idempotent.
func (w *Wheel) Uninstall() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.installed {
		return nil
	}

	activeWheel.Store(nil)
	err := w.loop.stop()
	w.installed = false
	if err != nil {
		slog.Warn("[hook] wheel hook teardown", "error", err)
		return err
	}
	slog.Info("[hook] wheel hook removed")
	return nil
}

// Installed reports whether the hook is currently active.
func (w *Wheel) Installed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.installed
}

// wheelProc consumes wheel events inside the overlay rectangle and forwards
// their delta; everything else, including all other mouse messages, passes
// through untouched.
func wheelProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= 0 && wParam == wmMouseWheel {
		if w := activeWheel.Load(); w != nil {
			ms := (*msllHookStruct)(unsafe.Pointer(lParam))
			if rect, ok := w.rect(); ok && rect.Contains(ms.Pt.X, ms.Pt.Y) {
				w.deliver(wheelDelta(ms.MouseData))
				return 1
			}
		}
	}
	return callNextHook(nCode, wParam, lParam)
}
