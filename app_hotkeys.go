package main

import (
	"log/slog"

	"ghostnote/internal/hotkeys"
)

// dispatchHotkey routes a triggered hotkey to its operation. Runs on a
// router goroutine, never on the hotkey message loop thread.
func (a *App) dispatchHotkey(action hotkeys.Action) {
	switch action {
	case hotkeys.ActionToggleVisibility:
		a.ToggleVisibility()
	case hotkeys.ActionToggleLock:
		if err := a.ToggleLock(); err != nil {
			slog.Warn("[app] lock toggle failed", "error", err)
		}
	case hotkeys.ActionQuickEdit:
		if err := a.BeginQuickEdit(); err != nil {
			slog.Warn("[app] quick edit failed", "error", err)
		}
	case hotkeys.ActionCycleOpacity:
		a.CycleOpacity()
	case hotkeys.ActionFontLarger:
		a.AdjustFontSize(1)
	case hotkeys.ActionFontSmaller:
		a.AdjustFontSize(-1)
	case hotkeys.ActionResetGeometry:
		a.ResetGeometry()
	case hotkeys.ActionNudgeLeft:
		a.NudgeWindow(-1, 0)
	case hotkeys.ActionNudgeRight:
		a.NudgeWindow(1, 0)
	case hotkeys.ActionNudgeUp:
		a.NudgeWindow(0, -1)
	case hotkeys.ActionNudgeDown:
		a.NudgeWindow(0, 1)
	case hotkeys.ActionCopyText:
		if err := a.CopyTextToClipboard(); err != nil {
			slog.Warn("[app] clipboard copy failed", "error", err)
		}
	case hotkeys.ActionPasteText:
		if _, err := a.PasteTextFromClipboard(); err != nil {
			slog.Warn("[app] clipboard paste failed", "error", err)
		}
	case hotkeys.ActionClearText:
		a.ClearText()
	case hotkeys.ActionQuit:
		a.Quit()
	case hotkeys.ActionHelp:
		a.emitRuntimeEvent(eventHelp, a.HotkeyBindings())
	default:
		if n := action.PresetIndex(); n > 0 {
			a.ApplyPreset(n)
			return
		}
		slog.Warn("[app] unhandled hotkey action", "action", action)
	}
}
