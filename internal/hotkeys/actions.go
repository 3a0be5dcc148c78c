package hotkeys

import "fmt"

// Action identifies an application operation a hotkey triggers.
type Action string

const (
	ActionToggleVisibility Action = "toggle-visibility"
	ActionToggleLock       Action = "toggle-lock"
	ActionQuickEdit        Action = "quick-edit"
	ActionCycleOpacity     Action = "cycle-opacity"
	ActionFontLarger       Action = "font-larger"
	ActionFontSmaller      Action = "font-smaller"
	ActionResetGeometry    Action = "reset-geometry"
	ActionNudgeLeft        Action = "nudge-left"
	ActionNudgeRight       Action = "nudge-right"
	ActionNudgeUp          Action = "nudge-up"
	ActionNudgeDown        Action = "nudge-down"
	ActionCopyText         Action = "copy-text"
	ActionPasteText        Action = "paste-text"
	ActionClearText        Action = "clear-text"
	ActionQuit             Action = "quit"
	ActionHelp             Action = "help"

	// ActionPreset1..9 snap the window to a 3x3 screen grid; the digit is
	// carried in the action name and recovered with PresetIndex.
	ActionPreset1 Action = "preset-1"
	ActionPreset2 Action = "preset-2"
	ActionPreset3 Action = "preset-3"
	ActionPreset4 Action = "preset-4"
	ActionPreset5 Action = "preset-5"
	ActionPreset6 Action = "preset-6"
	ActionPreset7 Action = "preset-7"
	ActionPreset8 Action = "preset-8"
	ActionPreset9 Action = "preset-9"
)

// PresetIndex returns the 1..9 grid position of a preset action, or 0 for
// non-preset actions.
func (a Action) PresetIndex() int {
	s := string(a)
	if len(s) != len("preset-1") || s[:len("preset-")] != "preset-" {
		return 0
	}
	d := s[len(s)-1]
	if d < '1' || d > '9' {
		return 0
	}
	return int(d - '0')
}

// Layout selects the hotkey table variant matching the active keyboard layout.
type Layout string

const (
	// LayoutAuto resolves to the OS keyboard layout at registration time.
	LayoutAuto Layout = "auto"
	LayoutEN   Layout = "en"
	LayoutHU   Layout = "hu"
)

// ParseLayout validates a configured layout string.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case LayoutAuto, LayoutEN, LayoutHU:
		return Layout(s), nil
	case "":
		return LayoutAuto, nil
	}
	return "", fmt.Errorf("unknown keyboard layout %q (want auto, en or hu)", s)
}

// commonBindings is the layout-independent part of the hotkey surface: the
// key tokens name positions that match across the supported layouts.
var commonBindings = map[Action]string{
	ActionToggleVisibility: "Ctrl+Shift+H",
	ActionToggleLock:       "Ctrl+Shift+L",
	ActionQuickEdit:        "Ctrl+Shift+E",
	ActionCycleOpacity:     "Ctrl+Shift+O",
	ActionFontLarger:       "Ctrl+Shift+PgUp",
	ActionFontSmaller:      "Ctrl+Shift+PgDn",
	ActionResetGeometry:    "Ctrl+Shift+Home",
	ActionNudgeLeft:        "Ctrl+Shift+Left",
	ActionNudgeRight:       "Ctrl+Shift+Right",
	ActionNudgeUp:          "Ctrl+Shift+Up",
	ActionNudgeDown:        "Ctrl+Shift+Down",
	ActionCopyText:         "Ctrl+Shift+C",
	ActionPasteText:        "Ctrl+Shift+V",
	ActionClearText:        "Ctrl+Shift+Delete",
	ActionQuit:             "Ctrl+Shift+Q",
	ActionHelp:             "Ctrl+Shift+F1",
}

var presetActions = [9]Action{
	ActionPreset1, ActionPreset2, ActionPreset3,
	ActionPreset4, ActionPreset5, ActionPreset6,
	ActionPreset7, ActionPreset8, ActionPreset9,
}

// presetModifiers maps a layout to the modifier prefix of the digit presets.
// On the Hungarian layout Ctrl+Alt doubles as AltGr and the digit row types
// accented characters, so the presets move to Ctrl+Shift there.
func presetModifiers(layout Layout) string {
	if layout == LayoutHU {
		return "Ctrl+Shift"
	}
	return "Ctrl+Alt"
}

// Bindings returns the full hotkey table for a resolved layout, keyed by
// action. layout must not be LayoutAuto.
func Bindings(layout Layout) map[Action]string {
	table := make(map[Action]string, len(commonBindings)+len(presetActions))
	for action, spec := range commonBindings {
		table[action] = spec
	}
	mods := presetModifiers(layout)
	for i, action := range presetActions {
		table[action] = fmt.Sprintf("%s+%d", mods, i+1)
	}
	return table
}
