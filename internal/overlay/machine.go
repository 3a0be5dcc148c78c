// Package overlay owns the lock state machine and the screen-geometry rules
// of the overlay window.
//
// The machine coordinates three mechanisms that must change together: the
// click-through window style, the Escape keyboard hook, and the scroll
// redirection hook. Its core invariant is that the hooks are installed while
// and only while the overlay is locked, and that an emergency unlock request
// wins over an in-flight lock attempt.
package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// LockState is the overlay's input mode.
type LockState int

const (
	// Unlocked: normal window, receives clicks and keystrokes.
	Unlocked LockState = iota
	// Locked: click-through, input redirected through the hooks.
	Locked
	// QuickEdit: temporarily interactive while logically locked; relocks
	// when the window loses focus.
	QuickEdit
)

func (s LockState) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case Locked:
		return "locked"
	case QuickEdit:
		return "quick-edit"
	default:
		return fmt.Sprintf("LockState(%d)", int(s))
	}
}

// ErrLockAborted is returned by Lock when an emergency unlock arrived while
// the lock sequence was still in progress.
var ErrLockAborted = errors.New("lock aborted by emergency unlock")

// StyleControl is the subset of window-style operations the machine drives.
// ReassertExclusion re-applies capture exclusion; extended-style writes can
// reset layered-window attributes as a side effect, so the machine invokes it
// after every transition that touched the style word.
type StyleControl interface {
	SetClickThrough(enabled bool) error
	ReleaseFocus() error
	ReassertExclusion() error
}

// Hook abstracts an installable input hook.
type Hook interface {
	Install() error
	Uninstall() error
	Installed() bool
}

// Machine is the overlay lock state machine. All transitions serialize on an
// internal mutex; HandleEmergencyUnlock may be called concurrently with Lock
// and takes priority over it.
type Machine struct {
	mu       sync.Mutex
	state    LockState
	style    StyleControl
	keyboard Hook
	wheel    Hook

	// unlockPending is set outside the mutex so an emergency unlock can
	// preempt a Lock that is between steps.
	unlockPending atomic.Bool

	// persist records the logical locked flag; notify announces state
	// changes to the UI. Both may be nil.
	persist func(locked bool)
	notify  func(LockState)
}

// NewMachine creates a machine in the Unlocked state.
func NewMachine(style StyleControl, keyboard, wheel Hook, persist func(locked bool), notify func(LockState)) *Machine {
	return &Machine{
		style:    style,
		keyboard: keyboard,
		wheel:    wheel,
		persist:  persist,
		notify:   notify,
	}
}

// State returns the current lock state.
func (m *Machine) State() LockState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Lock transitions to Locked. The sequence releases focus first, then makes
// the window click-through, then installs the keyboard and scroll hooks; a
// failure or a pending emergency unlock at any step rolls back everything
// already done and leaves the machine Unlocked.
func (m *Machine) Lock() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Locked {
		return nil
	}
	if m.unlockPending.Load() {
		m.unlockPending.Store(false)
		return ErrLockAborted
	}

	if err := m.style.ReleaseFocus(); err != nil {
		// Focus release failing is survivable; the click-through style
		// still prevents new clicks from focusing the window.
		slog.Warn("[overlay] focus release before lock failed", "error", err)
	}

	if err := m.style.SetClickThrough(true); err != nil {
		return fmt.Errorf("enable click-through: %w", err)
	}
	if m.aborted() {
		m.rollback(false, false)
		return ErrLockAborted
	}

	if err := m.keyboard.Install(); err != nil {
		m.rollback(false, false)
		return fmt.Errorf("install keyboard hook: %w", err)
	}
	if m.aborted() {
		m.rollback(true, false)
		return ErrLockAborted
	}

	if err := m.wheel.Install(); err != nil {
		m.rollback(true, false)
		return fmt.Errorf("install scroll hook: %w", err)
	}
	if m.aborted() {
		m.rollback(true, true)
		return ErrLockAborted
	}

	m.reassert()
	m.setState(Locked)
	return nil
}

// Unlock transitions to Unlocked unconditionally. Teardown is best-effort:
// every step runs even if an earlier one fails, and the machine always ends
// Unlocked so the user is never stuck behind a half-broken lock.
func (m *Machine) Unlock() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unlockLocked()
}

func (m *Machine) unlockLocked() error {
	defer m.unlockPending.Store(false)

	var errs []error
	if err := m.wheel.Uninstall(); err != nil {
		errs = append(errs, fmt.Errorf("remove scroll hook: %w", err))
	}
	if err := m.keyboard.Uninstall(); err != nil {
		errs = append(errs, fmt.Errorf("remove keyboard hook: %w", err))
	}
	if err := m.style.SetClickThrough(false); err != nil {
		errs = append(errs, fmt.Errorf("disable click-through: %w", err))
	}
	m.reassert()

	if m.state != Unlocked {
		m.setState(Unlocked)
	}
	return errors.Join(errs...)
}

// Toggle flips between Unlocked and Locked. QuickEdit toggles to Unlocked.
func (m *Machine) Toggle() error {
	if m.State() == Unlocked {
		return m.Lock()
	}
	return m.Unlock()
}

// BeginQuickEdit makes a locked overlay temporarily interactive: hooks come
// off and the window accepts input again, but the logical locked flag stays
// set and losing focus relocks. No-op unless Locked.
func (m *Machine) BeginQuickEdit() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Locked {
		return nil
	}

	var errs []error
	if err := m.wheel.Uninstall(); err != nil {
		errs = append(errs, err)
	}
	if err := m.keyboard.Uninstall(); err != nil {
		errs = append(errs, err)
	}
	if err := m.style.SetClickThrough(false); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("enter quick edit: %w", err)
	}

	m.reassert()
	m.setState(QuickEdit)
	return nil
}

// NotifyFocusLost relocks after a quick edit ends. Called by the UI layer
// whenever the overlay window loses focus; ignored in every other state.
func (m *Machine) NotifyFocusLost() error {
	if m.State() != QuickEdit {
		return nil
	}
	// Relock runs the full sequence so its abort and rollback rules apply.
	m.mu.Lock()
	if m.state == QuickEdit {
		m.state = Unlocked
	}
	m.mu.Unlock()
	return m.Lock()
}

// HandleEmergencyUnlock services an Escape signal from the keyboard hook.
// The pending flag is raised before taking the mutex so that an in-flight
// Lock observes it between steps and aborts rather than finishing.
func (m *Machine) HandleEmergencyUnlock() error {
	m.unlockPending.Store(true)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Unlocked {
		m.unlockPending.Store(false)
		return nil
	}
	slog.Info("[overlay] emergency unlock")
	return m.unlockLocked()
}

// Shutdown removes any installed hooks without touching window styles or
// persisted state; the window is about to be destroyed anyway.
func (m *Machine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.wheel.Installed() {
		if err := m.wheel.Uninstall(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.keyboard.Installed() {
		if err := m.keyboard.Uninstall(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Machine) aborted() bool {
	return m.unlockPending.Load()
}

// rollback undoes completed lock steps in reverse order. Click-through is
// always reverted; the hook arguments say which of them were installed.
func (m *Machine) rollback(keyboard, wheel bool) {
	defer m.unlockPending.Store(false)

	if wheel {
		if err := m.wheel.Uninstall(); err != nil {
			slog.Warn("[overlay] rollback: scroll hook removal failed", "error", err)
		}
	}
	if keyboard {
		if err := m.keyboard.Uninstall(); err != nil {
			slog.Warn("[overlay] rollback: keyboard hook removal failed", "error", err)
		}
	}
	if err := m.style.SetClickThrough(false); err != nil {
		slog.Warn("[overlay] rollback: click-through revert failed", "error", err)
	}
	m.reassert()
}

// reassert restores capture exclusion after a style write. Failure is logged,
// not propagated: a missed re-assert degrades capture hiding but must not
// wedge a lock transition.
func (m *Machine) reassert() {
	if err := m.style.ReassertExclusion(); err != nil {
		slog.Warn("[overlay] capture exclusion re-assert failed", "error", err)
	}
}

func (m *Machine) setState(s LockState) {
	m.state = s
	if m.persist != nil {
		m.persist(s != Unlocked)
	}
	if m.notify != nil {
		m.notify(s)
	}
}
