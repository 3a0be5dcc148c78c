package main

import (
	"context"
	"log/slog"
	"time"

	"ghostnote/internal/config"
	"ghostnote/internal/hook"
	"ghostnote/internal/hotkeys"
	"ghostnote/internal/ipc"
	"ghostnote/internal/overlay"
	"ghostnote/internal/snippets"
	"ghostnote/internal/winstyle"
	"ghostnote/internal/workerutil"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Wails runtime seams, overridable in tests.
var (
	runtimeEventsEmitFn           = runtime.EventsEmit
	runtimeWindowShowFn           = runtime.WindowShow
	runtimeWindowHideFn           = runtime.WindowHide
	runtimeWindowSetPositionFn    = runtime.WindowSetPosition
	runtimeWindowSetSizeFn        = runtime.WindowSetSize
	runtimeWindowSetAlwaysOnTopFn = runtime.WindowSetAlwaysOnTop
	runtimeClipboardGetTextFn     = runtime.ClipboardGetText
	runtimeClipboardSetTextFn     = runtime.ClipboardSetText
	runtimeScreenGetAllFn         = runtime.ScreenGetAll
	runtimeQuitFn                 = runtime.Quit

	newPipeServerFn = ipc.NewPipeServer
	openSnippetsFn  = snippets.Open
)

const shutdownWaitTimeout = 5 * time.Second

func (a *App) startup(ctx context.Context) {
	setConsoleUTF8()

	a.setRuntimeContext(ctx)
	a.setWindowVisible(true)

	cfg := a.getConfigSnapshot()

	// Resolve the native window handle and wire the style controllers. A
	// resolution failure leaves hwnd zero; style operations then degrade to
	// a plain always-on-top window instead of blocking startup.
	a.native = winstyle.NewNative()
	hwnd, err := findOverlayWindow(windowTitle)
	if err != nil {
		slog.Warn("[app] window handle resolution failed, capture exclusion disabled", "error", err)
	}
	a.hwnd = hwnd
	a.affinity = winstyle.NewAffinityController(a.native, winstyle.SupportsCaptureExclusion())
	a.clickThrough = winstyle.NewClickThroughController(a.native)

	if a.hwnd != 0 {
		if err := a.affinity.Apply(a.hwnd); err != nil {
			slog.Error("[app] capture exclusion failed, overlay will be visible in captures", "error", err)
		}
		if err := a.affinity.HideFromSwitcher(a.hwnd); err != nil {
			slog.Warn("[app] hiding from the window switcher failed", "error", err)
		}
	}

	// Lock machine over the hooks. The wheel hook re-queries the window
	// rect per event so moves and resizes need no re-registration.
	keyboard := hook.NewKeyboard(a.unlockCh)
	wheel := hook.NewWheel(a.windowRect, a.deliverScroll)
	a.machine = overlay.NewMachine(
		appStyle{a},
		keyboard,
		wheel,
		a.persistLocked,
		a.notifyLockState,
	)

	a.applyGeometry(cfg.Geometry())

	// Hotkeys before lock restore, so the unlock combo works from the
	// first frame of a restored locked overlay.
	a.router = hotkeys.NewRouter(hotkeys.NewRegistrar(), a.dispatchHotkey)
	if err := a.router.Start(); err != nil {
		slog.Error("[app] hotkey registrar failed to start", "error", err)
	} else {
		layout, _ := hotkeys.ParseLayout(cfg.KeyboardLayout)
		reportBindingFailures(a.router.RegisterAll(layout))
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	a.bgCancel = cancel

	workerutil.RunWithPanicRecovery(bgCtx, "emergency-unlock", &a.bgWG, a.runUnlockListener, workerutil.RecoveryOptions{
		IsShutdown: a.shuttingDown.Load,
	})

	a.pipeServer = newPipeServerFn(ipc.DefaultPipeName(), a)
	if err := a.pipeServer.Start(); err != nil {
		slog.Warn("[app] ipc pipe server failed to start, remote control unavailable", "error", err)
	}

	if store, err := openSnippetsFn(snippets.DefaultPath()); err != nil {
		slog.Warn("[app] snippet store unavailable", "error", err)
	} else {
		a.store = store
	}

	if w, err := config.NewWatcher(a.configPath, a.onConfigReload); err != nil {
		slog.Warn("[app] config watcher unavailable, external edits need a restart", "error", err)
	} else {
		a.watcher = w
	}

	if cfg.Locked {
		if err := a.machine.Lock(); err != nil {
			slog.Warn("[app] restoring locked state failed, starting unlocked", "error", err)
		}
	}

	if cfg.CheckUpdates {
		workerutil.RunWithPanicRecovery(bgCtx, "update-check", &a.bgWG, a.runUpdateCheck, workerutil.RecoveryOptions{
			MaxRetries: 1,
			IsShutdown: a.shuttingDown.Load,
		})
	}

	if !cfg.FirstRunShown {
		a.emitRuntimeEvent(eventFirstRun, nil)
	}
}

func (a *App) shutdown(_ context.Context) {
	a.shuttingDown.Store(true)

	// Hooks first. A low-level hook owned by a dying process stalls input
	// system-wide until the OS times it out.
	if a.machine != nil {
		if err := a.machine.Shutdown(); err != nil {
			slog.Warn("[app] hook teardown failed during shutdown", "error", err)
		}
	}
	if a.router != nil {
		if err := a.router.Stop(); err != nil {
			slog.Warn("[app] hotkey teardown failed during shutdown", "error", err)
		}
	}
	if a.pipeServer != nil {
		if err := a.pipeServer.Stop(); err != nil {
			slog.Warn("[app] pipe server stop failed", "error", err)
		}
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			slog.Warn("[app] config watcher close failed", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("[app] snippet store close failed", "error", err)
		}
	}

	if a.bgCancel != nil {
		a.bgCancel()
	}
	if !waitWithTimeout(a.bgWG.Wait, shutdownWaitTimeout) {
		slog.Warn("[app] timed out waiting for background workers during shutdown")
	}
}

// runUnlockListener consumes Escape signals from the keyboard hook. The
// channel is buffered with capacity one; a burst of Escapes collapses into a
// single unlock.
func (a *App) runUnlockListener(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.unlockCh:
			if err := a.machine.HandleEmergencyUnlock(); err != nil {
				slog.Warn("[app] emergency unlock incomplete", "error", err)
			}
			a.emitRuntimeEvent(eventEmergencyUnlock, nil)
		}
	}
}

// runUpdateCheck performs the one-shot background release check.
func (a *App) runUpdateCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rel, newer, err := a.checker.Check(checkCtx)
	if err != nil {
		slog.Debug("[app] update check failed", "error", err)
		return
	}
	if newer {
		a.emitRuntimeEvent(eventUpdateAvailable, rel)
	}
}

// onConfigReload applies an externally edited config file. Geometry and
// appearance follow the file; the lock state does not, so an external edit
// cannot silently lock the user out.
func (a *App) onConfigReload(cfg config.Config) {
	current := a.getConfigSnapshot()
	cfg.Locked = current.Locked
	a.setConfigSnapshot(cfg)

	a.applyGeometry(cfg.Geometry())
	if cfg.KeyboardLayout != current.KeyboardLayout {
		layout, _ := hotkeys.ParseLayout(cfg.KeyboardLayout)
		reportBindingFailures(a.router.Rebind(layout))
	}
	a.emitRuntimeEvent(eventConfigReloaded, cfg)
}

// persistLocked records the logical locked flag whenever the machine changes
// state. Wired as the machine's persist callback.
func (a *App) persistLocked(locked bool) {
	a.updateConfig(func(c *config.Config) {
		c.Locked = locked
	})
}

// notifyLockState announces machine transitions to the frontend.
func (a *App) notifyLockState(state overlay.LockState) {
	a.emitRuntimeEvent(eventLockChanged, state.String())
}

// windowRect feeds the wheel hook the overlay's current screen rectangle.
func (a *App) windowRect() (winstyle.Rect, bool) {
	if a.hwnd == 0 {
		return winstyle.Rect{}, false
	}
	rect, err := a.native.Rect(a.hwnd)
	if err != nil {
		return winstyle.Rect{}, false
	}
	return rect, true
}

// deliverScroll forwards a consumed wheel delta to the frontend, which
// scrolls the note text accordingly.
func (a *App) deliverScroll(delta int32) {
	a.emitRuntimeEvent(eventScroll, delta)
}

// appStyle adapts the app's controllers to the machine's StyleControl.
type appStyle struct{ a *App }

func (s appStyle) SetClickThrough(enabled bool) error {
	if s.a.hwnd == 0 {
		return nil
	}
	return s.a.clickThrough.Set(s.a.hwnd, enabled)
}

func (s appStyle) ReleaseFocus() error {
	if s.a.hwnd == 0 {
		return nil
	}
	return s.a.clickThrough.ReleaseFocus(s.a.hwnd)
}

func (s appStyle) ReassertExclusion() error {
	if s.a.hwnd == 0 {
		return nil
	}
	return s.a.affinity.Reassert(s.a.hwnd)
}

// reassertExclusion re-applies capture exclusion after window operations
// outside the lock machine that can disturb layered attributes, such as a
// show/hide cycle.
func (a *App) reassertExclusion() {
	if a.hwnd == 0 || a.affinity == nil {
		return
	}
	if err := a.affinity.Reassert(a.hwnd); err != nil {
		slog.Warn("[app] capture exclusion re-assert failed", "error", err)
	}
}

func reportBindingFailures(results []hotkeys.Result) {
	for _, res := range results {
		if res.Err != nil {
			slog.Warn("[app] hotkey unavailable", "action", res.Action, "spec", res.Spec, "error", res.Err)
		}
	}
}

func waitWithTimeout(waitFn func(), timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		waitFn()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
