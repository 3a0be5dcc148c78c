package overlay

import (
	"errors"
	"sync"
	"testing"
)

// fakeStyle records click-through transitions, focus releases and exclusion
// re-asserts. ops keeps the interleaving so tests can check that re-asserts
// come after the style write they repair.
type fakeStyle struct {
	mu           sync.Mutex
	clickThrough bool
	focusDrops   int
	history      []bool
	ops          []string

	failSet      error
	failOnCount  int // fail the Nth SetClickThrough call, 0 = use failSet always
	failReassert error
	setCalls     int
	reasserts    int
}

func (f *fakeStyle) SetClickThrough(enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.failSet != nil && (f.failOnCount == 0 || f.setCalls == f.failOnCount) {
		return f.failSet
	}
	f.clickThrough = enabled
	f.history = append(f.history, enabled)
	if enabled {
		f.ops = append(f.ops, "click-through:on")
	} else {
		f.ops = append(f.ops, "click-through:off")
	}
	return nil
}

func (f *fakeStyle) ReleaseFocus() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focusDrops++
	return nil
}

func (f *fakeStyle) ReassertExclusion() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReassert != nil {
		return f.failReassert
	}
	f.reasserts++
	f.ops = append(f.ops, "reassert")
	return nil
}

func (f *fakeStyle) isClickThrough() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clickThrough
}

func (f *fakeStyle) reassertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reasserts
}

func (f *fakeStyle) opLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

// fakeHook counts installs and can fail, and can run a callback mid-install
// to interleave an emergency unlock with the lock sequence.
type fakeHook struct {
	mu          sync.Mutex
	installed   bool
	installs    int
	uninstalls  int
	failInstall error
	onInstall   func()
}

func (f *fakeHook) Install() error {
	f.mu.Lock()
	cb := f.onInstall
	f.mu.Unlock()
	if cb != nil {
		cb()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInstall != nil {
		return f.failInstall
	}
	f.installed = true
	f.installs++
	return nil
}

func (f *fakeHook) Uninstall() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installed = false
	f.uninstalls++
	return nil
}

func (f *fakeHook) Installed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installed
}

type harness struct {
	machine  *Machine
	style    *fakeStyle
	keyboard *fakeHook
	wheel    *fakeHook
	persists []bool
	states   []LockState
}

func newHarness() *harness {
	h := &harness{
		style:    &fakeStyle{},
		keyboard: &fakeHook{},
		wheel:    &fakeHook{},
	}
	h.machine = NewMachine(
		h.style,
		h.keyboard,
		h.wheel,
		func(locked bool) { h.persists = append(h.persists, locked) },
		func(s LockState) { h.states = append(h.states, s) },
	)
	return h
}

// hooksMatchLocked checks the central invariant: hooks installed exactly when
// locked.
func (h *harness) hooksMatchLocked(t *testing.T) {
	t.Helper()
	locked := h.machine.State() == Locked
	if h.keyboard.Installed() != locked {
		t.Errorf("keyboard hook installed=%v with state %s", h.keyboard.Installed(), h.machine.State())
	}
	if h.wheel.Installed() != locked {
		t.Errorf("wheel hook installed=%v with state %s", h.wheel.Installed(), h.machine.State())
	}
}

func TestLockInstallsEverything(t *testing.T) {
	h := newHarness()

	if err := h.machine.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if h.machine.State() != Locked {
		t.Fatalf("state = %s", h.machine.State())
	}
	if !h.style.isClickThrough() {
		t.Error("window not click-through")
	}
	if h.style.focusDrops != 1 {
		t.Errorf("focus released %d times, want 1", h.style.focusDrops)
	}
	h.hooksMatchLocked(t)

	if len(h.persists) != 1 || !h.persists[0] {
		t.Errorf("persisted %v, want [true]", h.persists)
	}
	if len(h.states) != 1 || h.states[0] != Locked {
		t.Errorf("notified %v, want [Locked]", h.states)
	}
}

func TestLockIdempotent(t *testing.T) {
	h := newHarness()
	if err := h.machine.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := h.machine.Lock(); err != nil {
		t.Fatalf("second Lock: %v", err)
	}
	if h.keyboard.installs != 1 || h.wheel.installs != 1 {
		t.Errorf("installs = %d/%d, want 1/1", h.keyboard.installs, h.wheel.installs)
	}
}

func TestUnlockRemovesEverything(t *testing.T) {
	h := newHarness()
	if err := h.machine.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := h.machine.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if h.machine.State() != Unlocked {
		t.Fatalf("state = %s", h.machine.State())
	}
	if h.style.isClickThrough() {
		t.Error("window still click-through")
	}
	h.hooksMatchLocked(t)

	if len(h.persists) != 2 || h.persists[1] {
		t.Errorf("persisted %v, want [true false]", h.persists)
	}
}

func TestTransitionsReassertExclusion(t *testing.T) {
	h := newHarness()

	if err := h.machine.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if got := h.style.opLog(); len(got) != 2 || got[0] != "click-through:on" || got[1] != "reassert" {
		t.Fatalf("ops after lock = %v, want the click-through write then a reassert", got)
	}

	if err := h.machine.BeginQuickEdit(); err != nil {
		t.Fatalf("BeginQuickEdit: %v", err)
	}
	if got := h.style.reassertCount(); got != 2 {
		t.Errorf("reasserts after quick edit = %d, want 2", got)
	}

	if err := h.machine.NotifyFocusLost(); err != nil {
		t.Fatalf("NotifyFocusLost: %v", err)
	}
	if got := h.style.reassertCount(); got != 3 {
		t.Errorf("reasserts after relock = %d, want 3", got)
	}

	if err := h.machine.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	ops := h.style.opLog()
	if ops[len(ops)-1] != "reassert" {
		t.Errorf("ops after unlock = %v, want a trailing reassert", ops)
	}
	if got := h.style.reassertCount(); got != 4 {
		t.Errorf("reasserts after unlock = %d, want 4", got)
	}
}

func TestReassertFailureDoesNotBlockTransitions(t *testing.T) {
	h := newHarness()
	h.style.failReassert = errors.New("affinity refused")

	if err := h.machine.Lock(); err != nil {
		t.Fatalf("Lock with failing reassert: %v", err)
	}
	if h.machine.State() != Locked {
		t.Errorf("state = %s", h.machine.State())
	}
	if err := h.machine.Unlock(); err != nil {
		t.Fatalf("Unlock with failing reassert: %v", err)
	}
	if h.machine.State() != Unlocked {
		t.Errorf("state = %s", h.machine.State())
	}
}

func TestLockRollsBackWhenKeyboardHookFails(t *testing.T) {
	h := newHarness()
	h.keyboard.failInstall = errors.New("hook refused")

	err := h.machine.Lock()
	if err == nil {
		t.Fatal("Lock succeeded despite keyboard hook failure")
	}
	if h.machine.State() != Unlocked {
		t.Errorf("state = %s, want unlocked", h.machine.State())
	}
	if h.style.isClickThrough() {
		t.Error("click-through retained after failed lock")
	}
	h.hooksMatchLocked(t)
	if len(h.persists) != 0 {
		t.Errorf("failed lock persisted state: %v", h.persists)
	}
	if got := h.style.reassertCount(); got != 1 {
		t.Errorf("reasserts after rollback = %d, want 1", got)
	}
}

func TestLockRollsBackWhenWheelHookFails(t *testing.T) {
	h := newHarness()
	h.wheel.failInstall = errors.New("hook refused")

	if err := h.machine.Lock(); err == nil {
		t.Fatal("Lock succeeded despite wheel hook failure")
	}
	if h.machine.State() != Unlocked {
		t.Errorf("state = %s", h.machine.State())
	}
	if h.keyboard.Installed() {
		t.Error("keyboard hook left installed after rollback")
	}
	if h.style.isClickThrough() {
		t.Error("click-through retained after rollback")
	}
}

func TestLockFailsWhenClickThroughFails(t *testing.T) {
	h := newHarness()
	h.style.failSet = errors.New("style locked down")

	if err := h.machine.Lock(); err == nil {
		t.Fatal("Lock succeeded despite style failure")
	}
	if h.machine.State() != Unlocked {
		t.Errorf("state = %s", h.machine.State())
	}
	if h.keyboard.installs != 0 {
		t.Error("keyboard hook installed after style failure")
	}
}

func TestEmergencyUnlockWhileLocked(t *testing.T) {
	h := newHarness()
	if err := h.machine.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	if err := h.machine.HandleEmergencyUnlock(); err != nil {
		t.Fatalf("HandleEmergencyUnlock: %v", err)
	}
	if h.machine.State() != Unlocked {
		t.Fatalf("state = %s", h.machine.State())
	}
	h.hooksMatchLocked(t)
}

func TestEmergencyUnlockWhileUnlockedIsNoOp(t *testing.T) {
	h := newHarness()
	if err := h.machine.HandleEmergencyUnlock(); err != nil {
		t.Fatalf("HandleEmergencyUnlock: %v", err)
	}
	if h.keyboard.uninstalls != 0 || h.wheel.uninstalls != 0 {
		t.Error("no-op emergency unlock touched the hooks")
	}
	if len(h.states) != 0 {
		t.Errorf("no-op emergency unlock notified: %v", h.states)
	}

	// A pending flag left behind would abort the next Lock.
	if err := h.machine.Lock(); err != nil {
		t.Fatalf("Lock after no-op emergency unlock: %v", err)
	}
}

func TestEmergencyUnlockPreemptsInFlightLock(t *testing.T) {
	h := newHarness()

	// Raise the pending flag between the click-through step and the
	// keyboard hook step, as if Escape arrived mid-sequence.
	h.keyboard.onInstall = func() {
		h.machine.unlockPending.Store(true)
	}

	err := h.machine.Lock()
	if !errors.Is(err, ErrLockAborted) {
		t.Fatalf("Lock error = %v, want ErrLockAborted", err)
	}
	if h.machine.State() != Unlocked {
		t.Errorf("state = %s after aborted lock", h.machine.State())
	}
	if h.style.isClickThrough() {
		t.Error("click-through retained after aborted lock")
	}
	h.hooksMatchLocked(t)

	// The abort consumed the pending flag; locking again works.
	h.keyboard.onInstall = nil
	if err := h.machine.Lock(); err != nil {
		t.Fatalf("Lock after aborted lock: %v", err)
	}
}

func TestQuickEditRoundTrip(t *testing.T) {
	h := newHarness()
	if err := h.machine.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	if err := h.machine.BeginQuickEdit(); err != nil {
		t.Fatalf("BeginQuickEdit: %v", err)
	}
	if h.machine.State() != QuickEdit {
		t.Fatalf("state = %s", h.machine.State())
	}
	if h.style.isClickThrough() {
		t.Error("click-through still on during quick edit")
	}
	if h.keyboard.Installed() || h.wheel.Installed() {
		t.Error("hooks still installed during quick edit")
	}
	// Quick edit is still logically locked.
	if last := h.persists[len(h.persists)-1]; !last {
		t.Error("quick edit persisted as unlocked")
	}

	if err := h.machine.NotifyFocusLost(); err != nil {
		t.Fatalf("NotifyFocusLost: %v", err)
	}
	if h.machine.State() != Locked {
		t.Fatalf("state after focus loss = %s, want locked", h.machine.State())
	}
	h.hooksMatchLocked(t)
}

func TestQuickEditIgnoredWhenUnlocked(t *testing.T) {
	h := newHarness()
	if err := h.machine.BeginQuickEdit(); err != nil {
		t.Fatalf("BeginQuickEdit: %v", err)
	}
	if h.machine.State() != Unlocked {
		t.Errorf("state = %s", h.machine.State())
	}
}

func TestFocusLossIgnoredOutsideQuickEdit(t *testing.T) {
	h := newHarness()
	if err := h.machine.NotifyFocusLost(); err != nil {
		t.Fatalf("NotifyFocusLost: %v", err)
	}
	if h.machine.State() != Unlocked {
		t.Errorf("state = %s", h.machine.State())
	}

	if err := h.machine.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := h.machine.NotifyFocusLost(); err != nil {
		t.Fatalf("NotifyFocusLost while locked: %v", err)
	}
	if h.machine.State() != Locked {
		t.Errorf("focus loss while locked changed state to %s", h.machine.State())
	}
}

func TestToggle(t *testing.T) {
	h := newHarness()
	if err := h.machine.Toggle(); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if h.machine.State() != Locked {
		t.Fatalf("state = %s", h.machine.State())
	}
	if err := h.machine.Toggle(); err != nil {
		t.Fatalf("second Toggle: %v", err)
	}
	if h.machine.State() != Unlocked {
		t.Fatalf("state = %s", h.machine.State())
	}
}

func TestShutdownRemovesHooksOnly(t *testing.T) {
	h := newHarness()
	if err := h.machine.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	styleWrites := len(h.style.history)

	if err := h.machine.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if h.keyboard.Installed() || h.wheel.Installed() {
		t.Error("hooks survived shutdown")
	}
	if len(h.style.history) != styleWrites {
		t.Error("shutdown touched window styles")
	}
	if got := h.style.reassertCount(); got != 1 {
		t.Errorf("reasserts after shutdown = %d, want 1 (lock only)", got)
	}
	if h.persists[len(h.persists)-1] != true {
		t.Error("shutdown rewrote the persisted locked flag")
	}
}
