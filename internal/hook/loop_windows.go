//go:build windows

package hook

import (
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetCurrentThreadId  = kernel32.NewProc("GetCurrentThreadId")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14
	wmQuit       = 0x0012

	// stopTimeout bounds the wait for the hook thread during teardown.
	// A hook thread wedged inside GetMessage must not block shutdown.
	stopTimeout = 2 * time.Second
)

type point struct {
	X int32
	Y int32
}

type msg struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

type kbdllHookStruct struct {
	VkCode    uint32
	ScanCode  uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type msllHookStruct struct {
	Pt        point
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// hookLoop owns the dedicated OS thread a low-level hook requires. The hook
// is installed on that thread and a message loop keeps it alive; teardown
// posts WM_QUIT and waits for the thread to unhook and exit.
type hookLoop struct {
	mu       sync.Mutex
	threadID uint32
	done     chan struct{}
}

func (l *hookLoop) run(idHook uintptr, callback uintptr) error {
	ready := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		// SetWindowsHookEx binds the hook to the installing thread's
		// message queue; the goroutine must stay on one OS thread.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)

		tid, _, _ := procGetCurrentThreadId.Call()
		hhk, _, callErr := procSetWindowsHookExW.Call(idHook, callback, 0, 0)
		if hhk == 0 {
			ready <- fmt.Errorf("SetWindowsHookExW(%d): %w", idHook, callErr)
			return
		}
		defer procUnhookWindowsHookEx.Call(hhk)

		l.mu.Lock()
		l.threadID = uint32(tid)
		l.mu.Unlock()
		ready <- nil

		var m msg
		for {
			r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if r == 0 || int32(r) == -1 {
				return
			}
			// No windows live on this thread; the loop only pumps the
			// hook callbacks until WM_QUIT arrives.
		}
	}()

	if err := <-ready; err != nil {
		return err
	}
	l.mu.Lock()
	l.done = done
	l.mu.Unlock()
	return nil
}

func (l *hookLoop) stop() error {
	l.mu.Lock()
	tid := l.threadID
	done := l.done
	l.threadID = 0
	l.done = nil
	l.mu.Unlock()

	if done == nil {
		return nil
	}

	procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0)
	select {
	case <-done:
		return nil
	case <-time.After(stopTimeout):
		return fmt.Errorf("hook thread %d did not exit within %s", tid, stopTimeout)
	}
}

func callNextHook(nCode, wParam, lParam uintptr) uintptr {
	r, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return r
}
