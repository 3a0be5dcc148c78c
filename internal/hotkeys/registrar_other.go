//go:build !windows

package hotkeys

import (
	"fmt"
	"log/slog"
	"sync"
)

// stubRegistrar stands in for the OS hotkey surface off Windows. It records
// registrations so duplicate ids still fail, but nothing ever triggers.
type stubRegistrar struct {
	mu       sync.Mutex
	active   map[int32]Binding
	started  bool
	warnOnce sync.Once
}

// NewRegistrar returns the platform registrar.
func NewRegistrar() Registrar {
	return &stubRegistrar{active: make(map[int32]Binding)}
}

func (s *stubRegistrar) Start(dispatch func(id int32)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnOnce.Do(func() {
		slog.Warn("[hotkey] global hotkeys unavailable on this platform")
	})
	s.started = true
	return nil
}

func (s *stubRegistrar) Register(id int32, b Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return fmt.Errorf("hotkey registrar is not running")
	}
	if _, exists := s.active[id]; exists {
		return fmt.Errorf("hotkey id %d already registered", id)
	}
	s.active[id] = b
	return nil
}

func (s *stubRegistrar) Unregister(id int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
	return nil
}

func (s *stubRegistrar) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.active)
	s.started = false
	return nil
}
