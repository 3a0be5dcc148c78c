package main

import (
	"log/slog"

	"ghostnote/internal/alertlog"
)

// Runtime event names shared with the frontend.
const (
	// eventLockChanged carries the lock state as a string: "unlocked",
	// "locked" or "quick-edit".
	eventLockChanged = "overlay:lock-changed"

	// eventEmergencyUnlock fires after Escape forced the overlay unlocked.
	eventEmergencyUnlock = "overlay:emergency-unlock"

	// eventScroll carries a consumed wheel delta (multiples of 120,
	// positive away from the user).
	eventScroll = "overlay:scroll"

	// eventConfigReloaded carries the new config after an external edit.
	eventConfigReloaded = "config:reloaded"

	// eventUpdateAvailable carries an updater.Release.
	eventUpdateAvailable = "app:update-available"

	// eventAlert carries an alertlog.Alert for the in-overlay notice area.
	eventAlert = "app:alert"

	// eventFirstRun asks the frontend to show the one-time usage notice.
	eventFirstRun = "app:first-run"

	// eventHelp carries the active hotkey bindings for the help panel.
	eventHelp = "app:help"
)

// emitRuntimeEvent emits a runtime event when the app context is ready;
// events before startup or after shutdown are dropped with a log line.
func (a *App) emitRuntimeEvent(name string, payload any) {
	ctx := a.runtimeContext()
	if ctx == nil {
		slog.Debug("[event] dropped, runtime context not ready", "event", name)
		return
	}
	runtimeEventsEmitFn(ctx, name, payload)
}

// notifyAlert forwards captured warn/error log records to the frontend. It
// is installed as the alertlog notifier in main, before startup, so it must
// tolerate a nil runtime context.
func (a *App) notifyAlert(alert alertlog.Alert) {
	a.emitRuntimeEvent(eventAlert, alert)
}
