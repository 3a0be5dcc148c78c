//go:build !windows

package winstyle

import (
	"log/slog"
	"sync"
)

// memoryNative emulates the window style surface in memory so the controllers
// and their callers stay exercisable off Windows. Mutations are tracked per
// handle; the first call logs that the process is running without a real
// window system.
type memoryNative struct {
	mu       sync.Mutex
	warnOnce sync.Once
	styles   map[Handle]uint32
	affinity map[Handle]uint32
	alpha    map[Handle]byte
	rects    map[Handle]Rect
}

// NewNative returns the in-memory Native implementation.
func NewNative() Native {
	return &memoryNative{
		styles:   make(map[Handle]uint32),
		affinity: make(map[Handle]uint32),
		alpha:    make(map[Handle]byte),
		rects:    make(map[Handle]Rect),
	}
}

func (n *memoryNative) warn() {
	n.warnOnce.Do(func() {
		slog.Warn("[winstyle] no native window system on this platform, style operations are emulated")
	})
}

func (n *memoryNative) ExStyle(h Handle) (uint32, error) {
	n.warn()
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.styles[h], nil
}

func (n *memoryNative) SetExStyle(h Handle, style uint32) error {
	n.warn()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.styles[h] = style
	return nil
}

func (n *memoryNative) SetLayeredAlpha(h Handle, alpha byte) error {
	n.warn()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alpha[h] = alpha
	return nil
}

func (n *memoryNative) SetDisplayAffinity(h Handle, affinity uint32) error {
	n.warn()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.affinity[h] = affinity
	return nil
}

func (n *memoryNative) Rect(h Handle) (Rect, error) {
	n.warn()
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rects[h], nil
}

func (n *memoryNative) IsForeground(Handle) bool {
	return false
}

func (n *memoryNative) DropFocus(Handle) error {
	return nil
}
