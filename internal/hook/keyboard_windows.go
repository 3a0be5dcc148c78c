//go:build windows

package hook

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"
)

var (
	keyboardCallbackOnce sync.Once
	keyboardCallback     uintptr
	activeKeyboard       atomic.Pointer[Keyboard]
)

// Keyboard is the WH_KEYBOARD_LL hook watching for Escape.
type Keyboard struct {
	mu        sync.Mutex
	loop      hookLoop
	signal    chan<- struct{}
	installed bool
}

// NewKeyboard creates a keyboard hook that posts to signal on every Escape
// key-down. signal must be buffered; sends never block.
func NewKeyboard(signal chan<- struct{}) *Keyboard {
	return &Keyboard{signal: signal}
}

// Install installs the hook on its own thread. Installing an installed hook
// is a no-op.
func (k *Keyboard) Install() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.installed {
		return nil
	}

	keyboardCallbackOnce.Do(func() {
		keyboardCallback = syscall.NewCallback(keyboardProc)
	})
	activeKeyboard.Store(k)

	if err := k.loop.run(whKeyboardLL, keyboardCallback); err != nil {
		activeKeyboard.Store(nil)
		return err
	}
	k.installed = true
	slog.Info("[hook] keyboard hook installed")
	return nil
}

// Uninstall removes the hook and waits for its thread to exit. Uninstalling
// an uninstalled hook is a no-op.
func (k *Keyboard) Uninstall() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.installed {
		return nil
	}

	activeKeyboard.Store(nil)
	err := k.loop.stop()
	k.installed = false
	if err != nil {
		slog.Warn("[hook] keyboard hook teardown", "error", err)
		return err
	}
	slog.Info("[hook] keyboard hook removed")
	return nil
}

// Installed reports whether the hook is currently active.
func (k *Keyboard) Installed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.installed
}

// keyboardProc runs on the hook thread inside the keystroke delivery path.
// It never consumes the event; Escape must keep reaching other applications.
func keyboardProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= 0 {
		kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
		if escapePressed(wParam, kb.VkCode) {
			if k := activeKeyboard.Load(); k != nil {
				signalNonBlocking(k.signal)
			}
		}
	}
	return callNextHook(nCode, wParam, lParam)
}
