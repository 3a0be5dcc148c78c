//go:build !windows

package hook

import (
	"log/slog"
	"sync"

	"ghostnote/internal/winstyle"
)

// RectFunc returns the overlay's current screen rectangle; ok is false when
// the rectangle cannot be determined.
type RectFunc func() (rect winstyle.Rect, ok bool)

// DeltaFunc receives the signed scroll delta of a consumed wheel event.
type DeltaFunc func(delta int32)

var stubWarnOnce sync.Once

func warnStub() {
	stubWarnOnce.Do(func() {
		slog.Warn("[hook] low-level input hooks unavailable on this platform, running without them")
	})
}

// Keyboard is a stub on non-Windows platforms: install succeeds so the lock
// flow stays exercisable, but no events are ever delivered.
type Keyboard struct {
	mu        sync.Mutex
	installed bool
}

func NewKeyboard(chan<- struct{}) *Keyboard { return &Keyboard{} }

func (k *Keyboard) Install() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	warnStub()
	k.installed = true
	return nil
}

func (k *Keyboard) Uninstall() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.installed = false
	return nil
}

func (k *Keyboard) Installed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.installed
}

// Wheel is a stub on non-Windows platforms.
type Wheel struct {
	mu        sync.Mutex
	installed bool
}

func NewWheel(RectFunc, DeltaFunc) *Wheel { return &Wheel{} }

func (w *Wheel) Install() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	warnStub()
	w.installed = true
	return nil
}

func (w *Wheel) Uninstall() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.installed = false
	return nil
}

func (w *Wheel) Installed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.installed
}
