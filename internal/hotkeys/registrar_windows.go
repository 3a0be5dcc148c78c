//go:build windows

package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"
)

var (
	user32DLL = syscall.NewLazyDLL("user32.dll")
	kernelDLL = syscall.NewLazyDLL("kernel32.dll")

	procRegisterHotKey     = user32DLL.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32DLL.NewProc("UnregisterHotKey")
	procGetMessageW        = user32DLL.NewProc("GetMessageW")
	procTranslateMessage   = user32DLL.NewProc("TranslateMessage")
	procDispatchMessageW   = user32DLL.NewProc("DispatchMessageW")
	procPostThreadMessageW = user32DLL.NewProc("PostThreadMessageW")
	procPeekMessageW       = user32DLL.NewProc("PeekMessageW")
	procGetCurrentThreadID = kernelDLL.NewProc("GetCurrentThreadId")
)

const (
	wmHotkey   = 0x0312
	wmQuit     = 0x0012
	wmApp      = 0x8000
	pmNoRemove = 0x0000

	// modNoRepeat suppresses auto-repeat triggers while a hotkey stays held.
	modNoRepeat = 0x4000
)

// point mirrors the Win32 POINT struct.
type point struct {
	x int32
	y int32
}

// winMsg mirrors the Win32 MSG struct (tagMSG from winuser.h).
// Field order and types must not be changed -- the layout must match
// the Win32 binary layout on both 32-bit and 64-bit Windows.
type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32 // reserved by Windows; required for correct struct size
}

type loopReady struct {
	threadID uint32
	err      error
}

// loopRequest marshals a register or unregister call onto the loop thread;
// RegisterHotKey binds the registration to the calling thread's queue, so
// all hotkey calls must happen there.
type loopRequest struct {
	unregister bool
	id         int32
	binding    Binding
	reply      chan error
}

// WindowsRegistrar implements Registrar on one message-loop thread shared by
// every registered hotkey.
type WindowsRegistrar struct {
	mu       sync.Mutex
	requests chan loopRequest
	threadID uint32
	doneCh   chan struct{}
	started  bool
}

// NewRegistrar returns the platform registrar.
func NewRegistrar() *WindowsRegistrar {
	return &WindowsRegistrar{}
}

// Start spins up the message loop thread.
func (w *WindowsRegistrar) Start(dispatch func(id int32)) error {
	if dispatch == nil {
		return errors.New("dispatch callback is required")
	}

	// Pre-check DLL availability so that failures produce clean errors
	// instead of panics from LazyProc.Call.
	if err := user32DLL.Load(); err != nil {
		return fmt.Errorf("user32.dll is unavailable: %w", err)
	}
	if err := kernelDLL.Load(); err != nil {
		return fmt.Errorf("kernel32.dll is unavailable: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	requests := make(chan loopRequest, 16)
	readyCh := make(chan loopReady, 1)
	doneCh := make(chan struct{})

	go runRegistrarLoop(dispatch, requests, readyCh, doneCh)

	ready := <-readyCh
	if ready.err != nil {
		return fmt.Errorf("hotkey message loop failed to start: %w", ready.err)
	}
	if ready.threadID == 0 {
		return errors.New("hotkey loop started but returned invalid thread ID 0")
	}

	w.requests = requests
	w.threadID = ready.threadID
	w.doneCh = doneCh
	w.started = true
	return nil
}

// Register registers a hotkey on the loop thread and waits for the result.
func (w *WindowsRegistrar) Register(id int32, b Binding) error {
	return w.submit(loopRequest{id: id, binding: b, reply: make(chan error, 1)})
}

// Unregister removes a hotkey registration on the loop thread.
func (w *WindowsRegistrar) Unregister(id int32) error {
	return w.submit(loopRequest{unregister: true, id: id, reply: make(chan error, 1)})
}

func (w *WindowsRegistrar) submit(req loopRequest) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return errors.New("hotkey registrar is not running")
	}
	requests := w.requests
	threadID := w.threadID
	doneCh := w.doneCh
	w.mu.Unlock()

	select {
	case requests <- req:
	case <-doneCh:
		return errors.New("hotkey message loop has exited")
	}
	if err := postWake(threadID); err != nil {
		return err
	}

	select {
	case err := <-req.reply:
		return err
	case <-doneCh:
		return errors.New("hotkey message loop exited before replying")
	}
}

// Stop posts WM_QUIT and waits for the loop thread to unregister everything
// and exit.
func (w *WindowsRegistrar) Stop() error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	threadID := w.threadID
	doneCh := w.doneCh
	w.started = false
	w.threadID = 0
	w.requests = nil
	w.doneCh = nil
	w.mu.Unlock()

	stopErr := postQuit(threadID)

	timer := time.NewTimer(2 * time.Second)
	defer timer.Stop()
	select {
	case <-doneCh:
	case <-timer.C:
		timeoutErr := fmt.Errorf("hotkey message loop stop timed out (threadID=%d)", threadID)
		slog.Warn("[hotkey] message loop stop timed out, goroutine/thread may leak", "threadID", threadID)
		stopErr = errors.Join(stopErr, timeoutErr)
	}
	return stopErr
}

func runRegistrarLoop(dispatch func(id int32), requests chan loopRequest, readyCh chan<- loopReady, doneCh chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(doneCh)

	threadID, err := getCurrentThreadID()
	if err != nil {
		readyCh <- loopReady{err: err}
		return
	}

	// PeekMessageW forces Windows to create the thread message queue so that
	// PostThreadMessageW can deliver WM_QUIT and wake messages. The return
	// value is intentionally not checked for success: queue creation is a
	// side-effect of the call itself and returns 0 when no messages exist.
	var qmsg winMsg
	ret, _, peekErr := procPeekMessageW.Call(
		uintptr(unsafe.Pointer(&qmsg)),
		0,
		0,
		0,
		pmNoRemove,
	)
	if ret == 0 && peekErr != syscall.Errno(0) {
		slog.Warn("[hotkey] PeekMessageW for queue init returned error", "error", peekErr)
	}

	// Registrations made on this thread; unregistered on exit.
	active := make(map[int32]struct{})
	defer func() {
		for id := range active {
			if err := unregisterHotKey(id); err != nil {
				slog.Error("[hotkey] unregisterHotKey on loop exit failed (resource leak)",
					"error", err, "hotkeyID", id)
			}
		}
	}()

	drain := func() {
		for {
			select {
			case req := <-requests:
				if req.unregister {
					err := unregisterHotKey(req.id)
					if err == nil {
						delete(active, req.id)
					}
					req.reply <- err
					continue
				}
				mods := uint32(req.binding.Modifiers()) | modNoRepeat
				err := registerHotKey(req.id, mods, uint32(req.binding.Key()))
				if err == nil {
					active[req.id] = struct{}{}
				}
				req.reply <- err
			default:
				return
			}
		}
	}

	readyCh <- loopReady{threadID: threadID}

	for {
		var msg winMsg
		ret, _, lastErr := procGetMessageW.Call(
			uintptr(unsafe.Pointer(&msg)),
			0,
			0,
			0,
		)
		switch int32(ret) {
		case -1:
			slog.Warn("[hotkey] GetMessageW returned error, exiting loop", "error", lastErr)
			return
		case 0:
			// WM_QUIT received -- normal shutdown path.
			return
		}

		switch msg.message {
		case wmHotkey:
			dispatch(int32(msg.wParam))
			continue
		case wmApp:
			drain()
			continue
		}

		// TranslateMessage and DispatchMessageW return values are informational
		// (whether the message was translated / window procedure result) and are
		// not error indicators for a thread-level message loop without a window.
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

func registerHotKey(hotkeyID int32, modifiers uint32, key uint32) error {
	res, _, err := procRegisterHotKey.Call(
		0,
		uintptr(hotkeyID),
		uintptr(modifiers),
		uintptr(key),
	)
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("RegisterHotKey failed")
	}
	return err
}

func unregisterHotKey(hotkeyID int32) error {
	res, _, err := procUnregisterHotKey.Call(0, uintptr(hotkeyID))
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("UnregisterHotKey failed")
	}
	return err
}

func postQuit(threadID uint32) error {
	return postThreadMessage(threadID, wmQuit)
}

func postWake(threadID uint32) error {
	return postThreadMessage(threadID, wmApp)
}

func postThreadMessage(threadID uint32, message uintptr) error {
	if threadID == 0 {
		return errors.New("cannot post message: threadID is 0")
	}
	res, _, err := procPostThreadMessageW.Call(
		uintptr(threadID),
		message,
		0,
		0,
	)
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("PostThreadMessageW failed")
	}
	return err
}

func getCurrentThreadID() (uint32, error) {
	tid, _, err := procGetCurrentThreadID.Call()
	if tid == 0 {
		return 0, fmt.Errorf("GetCurrentThreadId returned 0: %w", err)
	}
	return uint32(tid), nil
}
