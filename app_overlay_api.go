package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"ghostnote/internal/alertlog"
	"ghostnote/internal/config"
	"ghostnote/internal/hotkeys"
	"ghostnote/internal/overlay"
	"ghostnote/internal/snippets"
	"ghostnote/internal/updater"
)

var errSnippetsUnavailable = errors.New("snippet store is unavailable")

// GetConfig returns the current settings for the frontend to render.
func (a *App) GetConfig() config.Config {
	return a.getConfigSnapshot()
}

// GetText returns the persisted note text.
func (a *App) GetText() string {
	return a.getConfigSnapshot().Text
}

// SetText stores the note text. Called by the frontend on every edit pause.
func (a *App) SetText(text string) {
	a.updateConfig(func(c *config.Config) {
		c.Text = text
	})
}

// SetAppearance updates font and color settings. Out-of-range values are
// clamped by the config layer on save.
func (a *App) SetAppearance(fontFamily string, fontSize int, fontColor, bgColor string) config.Config {
	return a.updateConfig(func(c *config.Config) {
		c.FontFamily = fontFamily
		c.FontSize = fontSize
		c.FontColor = fontColor
		c.BgColor = bgColor
	})
}

// AdjustFontSize bumps the font size by delta points, clamped on save.
func (a *App) AdjustFontSize(delta int) config.Config {
	return a.updateConfig(func(c *config.Config) {
		c.FontSize += delta
	})
}

// CycleOpacity advances to the next opacity step and returns the new value.
func (a *App) CycleOpacity() float64 {
	cfg := a.updateConfig(func(c *config.Config) {
		c.Opacity = overlay.NextOpacity(c.Opacity)
	})
	return cfg.Opacity
}

// SetOpacity applies an explicit opacity, clamped to the supported range.
func (a *App) SetOpacity(v float64) float64 {
	cfg := a.updateConfig(func(c *config.Config) {
		c.Opacity = overlay.ClampOpacity(v)
	})
	return cfg.Opacity
}

// LockState returns the current lock state as a string.
func (a *App) LockState() string {
	return a.machine.State().String()
}

// ToggleLock flips between locked and unlocked.
func (a *App) ToggleLock() error {
	return a.machine.Toggle()
}

// LockOverlay locks the overlay (click-through plus input hooks).
func (a *App) LockOverlay() error {
	return a.machine.Lock()
}

// UnlockOverlay unlocks the overlay.
func (a *App) UnlockOverlay() error {
	return a.machine.Unlock()
}

// BeginQuickEdit makes a locked overlay temporarily editable.
func (a *App) BeginQuickEdit() error {
	return a.machine.BeginQuickEdit()
}

// NotifyFocusLost relocks after a quick edit. The frontend calls this on
// window blur.
func (a *App) NotifyFocusLost() error {
	return a.machine.NotifyFocusLost()
}

// ToggleVisibility hides or shows the overlay window.
func (a *App) ToggleVisibility() {
	// CAS guard prevents double-toggle when a second trigger fires while
	// OS window operations are still in progress.
	if !a.windowToggling.CompareAndSwap(false, true) {
		return
	}
	defer a.windowToggling.Store(false)

	ctx := a.runtimeContext()
	if ctx == nil {
		return
	}

	a.windowMu.Lock()
	visible := a.windowVisible
	a.windowMu.Unlock()

	if visible {
		runtimeWindowHideFn(ctx)
	} else {
		a.raiseWindow(ctx)
	}
	a.setWindowVisible(!visible)
}

// bringToFront shows and raises the overlay. Used when a second instance
// signals the first through the pipe.
func (a *App) bringToFront() {
	ctx := a.runtimeContext()
	if ctx == nil {
		slog.Warn("[app] activation dropped, runtime context not ready")
		return
	}
	a.raiseWindow(ctx)
	a.setWindowVisible(true)
}

func (a *App) raiseWindow(ctx context.Context) {
	runtimeWindowShowFn(ctx)
	runtimeWindowSetAlwaysOnTopFn(ctx, true)
	a.reassertExclusion()
}

func (a *App) setWindowVisible(visible bool) {
	a.windowMu.Lock()
	a.windowVisible = visible
	a.windowMu.Unlock()
}

// screen returns the primary display's dimensions for geometry math. Falls
// back to a common desktop size when the runtime cannot enumerate screens.
func (a *App) screen() overlay.Screen {
	fallback := overlay.Screen{Width: 1920, Height: 1080}
	ctx := a.runtimeContext()
	if ctx == nil {
		return fallback
	}
	all, err := runtimeScreenGetAllFn(ctx)
	if err != nil || len(all) == 0 {
		return fallback
	}
	for _, s := range all {
		if s.IsPrimary {
			return overlay.Screen{Width: s.Width, Height: s.Height}
		}
	}
	return overlay.Screen{Width: all[0].Width, Height: all[0].Height}
}

// applyGeometry moves and sizes the window and persists the result.
func (a *App) applyGeometry(g overlay.Geometry) {
	g = g.ClampSize().ClampToScreen(a.screen())
	if ctx := a.runtimeContext(); ctx != nil {
		runtimeWindowSetSizeFn(ctx, g.Width, g.Height)
		runtimeWindowSetPositionFn(ctx, g.X, g.Y)
	}
	a.updateConfig(func(c *config.Config) {
		c.SetGeometry(g)
	})
}

// SaveGeometry records a frontend-driven move or resize.
func (a *App) SaveGeometry(x, y, width, height int) {
	g := overlay.Geometry{X: x, Y: y, Width: width, Height: height}.ClampSize()
	a.updateConfig(func(c *config.Config) {
		c.SetGeometry(g)
	})
}

// ResetGeometry restores the default window placement.
func (a *App) ResetGeometry() {
	def := config.DefaultConfig()
	a.applyGeometry(def.Geometry())
}

// ApplyPreset snaps the window to one of the nine screen-grid positions,
// numbered like a numeric keypad.
func (a *App) ApplyPreset(n int) {
	cfg := a.getConfigSnapshot()
	a.applyGeometry(cfg.Geometry().Preset(n, a.screen()))
}

// NudgeWindow moves the window by one nudge step per axis unit.
func (a *App) NudgeWindow(dx, dy int) {
	cfg := a.getConfigSnapshot()
	a.applyGeometry(cfg.Geometry().Nudge(dx, dy, a.screen()))
}

// SetKeyboardLayout switches the hotkey table and persists the choice.
func (a *App) SetKeyboardLayout(layout string) error {
	parsed, err := hotkeys.ParseLayout(layout)
	if err != nil {
		return err
	}
	reportBindingFailures(a.router.Rebind(parsed))
	a.updateConfig(func(c *config.Config) {
		c.KeyboardLayout = string(parsed)
	})
	return nil
}

// HotkeyBindings returns the currently bound spec per action, for the help
// panel. Actions whose registration failed are absent.
func (a *App) HotkeyBindings() map[string]string {
	out := map[string]string{}
	for action := range hotkeys.Bindings(a.router.ActiveLayout()) {
		if spec, ok := a.router.BoundSpec(action); ok {
			out[string(action)] = spec
		}
	}
	return out
}

// MarkFirstRunShown records that the usage notice was acknowledged.
func (a *App) MarkFirstRunShown() {
	a.updateConfig(func(c *config.Config) {
		c.FirstRunShown = true
	})
}

// CopyTextToClipboard puts the note text on the system clipboard.
func (a *App) CopyTextToClipboard() error {
	ctx := a.runtimeContext()
	if ctx == nil {
		return errors.New("runtime not ready")
	}
	return runtimeClipboardSetTextFn(ctx, a.GetText())
}

// PasteTextFromClipboard appends the clipboard contents to the note.
func (a *App) PasteTextFromClipboard() (string, error) {
	ctx := a.runtimeContext()
	if ctx == nil {
		return "", errors.New("runtime not ready")
	}
	text, err := runtimeClipboardGetTextFn(ctx)
	if err != nil {
		return "", err
	}
	cfg := a.updateConfig(func(c *config.Config) {
		c.Text += text
	})
	return cfg.Text, nil
}

// ClearText empties the note.
func (a *App) ClearText() {
	a.updateConfig(func(c *config.Config) {
		c.Text = ""
	})
}

// Alerts returns the captured warn/error log records, oldest first.
func (a *App) Alerts() []alertlog.Alert {
	return a.alerts.Snapshot()
}

// ListSnippets returns the snippet library, most recently used first.
func (a *App) ListSnippets() ([]snippets.Snippet, error) {
	if a.store == nil {
		return nil, errSnippetsUnavailable
	}
	return a.store.List(context.Background())
}

// CreateSnippet adds a snippet to the library.
func (a *App) CreateSnippet(title, body string) (snippets.Snippet, error) {
	if a.store == nil {
		return snippets.Snippet{}, errSnippetsUnavailable
	}
	return a.store.Create(context.Background(), title, body)
}

// UpdateSnippet rewrites a snippet's title and body.
func (a *App) UpdateSnippet(id, title, body string) (snippets.Snippet, error) {
	if a.store == nil {
		return snippets.Snippet{}, errSnippetsUnavailable
	}
	return a.store.Update(context.Background(), id, title, body)
}

// DeleteSnippet removes a snippet from the library.
func (a *App) DeleteSnippet(id string) error {
	if a.store == nil {
		return errSnippetsUnavailable
	}
	return a.store.Delete(context.Background(), id)
}

// UseSnippet marks a snippet used, appends its body to the note and returns
// the new note text.
func (a *App) UseSnippet(id string) (string, error) {
	if a.store == nil {
		return "", errSnippetsUnavailable
	}
	sn, err := a.store.Get(context.Background(), id)
	if err != nil {
		return "", err
	}
	if err := a.store.Touch(context.Background(), sn.ID); err != nil {
		slog.Warn("[app] snippet use not recorded", "id", sn.ID, "error", err)
	}
	cfg := a.updateConfig(func(c *config.Config) {
		c.Text += sn.Body
	})
	return cfg.Text, nil
}

// CheckForUpdate queries the release feed on demand.
func (a *App) CheckForUpdate() (updater.Release, bool, error) {
	return a.checker.Check(context.Background())
}

// InstallUpdate downloads the release installer and launches it. The
// installer runs detached; the app keeps running until the user closes it.
func (a *App) InstallUpdate(rel updater.Release) error {
	dir := filepath.Join(os.TempDir(), "ghostnote-update")
	path, err := a.checker.Download(context.Background(), rel, dir)
	if err != nil {
		return err
	}
	return updater.LaunchInstaller(path)
}

// Quit shuts the application down.
func (a *App) Quit() {
	if ctx := a.runtimeContext(); ctx != nil {
		runtimeQuitFn(ctx)
	}
}
