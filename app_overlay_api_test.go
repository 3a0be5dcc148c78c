package main

import (
	"strings"
	"testing"

	"ghostnote/internal/config"
	"ghostnote/internal/overlay"
)

func TestSetTextPersistsToDisk(t *testing.T) {
	app, _ := newTestApp(t)

	app.SetText("meeting notes")
	if got := app.GetText(); got != "meeting notes" {
		t.Fatalf("GetText = %q", got)
	}

	onDisk, err := config.Load(app.configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if onDisk.Text != "meeting notes" {
		t.Errorf("on-disk text = %q", onDisk.Text)
	}
}

func TestCycleOpacityWalksTheLevels(t *testing.T) {
	app, _ := newTestApp(t)

	// Default is 0.85; one full cycle returns to it.
	seen := []float64{app.CycleOpacity(), app.CycleOpacity(), app.CycleOpacity(), app.CycleOpacity()}
	want := []float64{0.70, 0.50, 1.0, 0.85}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("cycle step %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestSetOpacityClamps(t *testing.T) {
	app, _ := newTestApp(t)

	if got := app.SetOpacity(0.1); got != 0.5 {
		t.Errorf("SetOpacity(0.1) = %v, want 0.5", got)
	}
	if got := app.SetOpacity(2.0); got != 1.0 {
		t.Errorf("SetOpacity(2.0) = %v, want 1.0", got)
	}
}

func TestAdjustFontSizeClampsAtBounds(t *testing.T) {
	app, _ := newTestApp(t)

	cfg := app.AdjustFontSize(1000)
	if cfg.FontSize != 48 {
		t.Errorf("font size after large bump = %d, want 48", cfg.FontSize)
	}
	cfg = app.AdjustFontSize(-1000)
	if cfg.FontSize != 8 {
		t.Errorf("font size after large drop = %d, want 8", cfg.FontSize)
	}
}

func TestApplyPresetMovesWindow(t *testing.T) {
	app, rec := newTestApp(t)

	app.ApplyPreset(7) // top-left
	rec.mu.Lock()
	n := len(rec.positions)
	var last [2]int
	if n > 0 {
		last = rec.positions[n-1]
	}
	rec.mu.Unlock()
	if n == 0 {
		t.Fatal("no window position set")
	}
	if last != [2]int{overlay.EdgeMargin, overlay.EdgeMargin} {
		t.Errorf("preset 7 position = %v, want top-left margin", last)
	}

	cfg := app.getConfigSnapshot()
	if cfg.X != overlay.EdgeMargin || cfg.Y != overlay.EdgeMargin {
		t.Errorf("persisted position = (%d,%d)", cfg.X, cfg.Y)
	}
}

func TestNudgeWindowStaysOnScreen(t *testing.T) {
	app, _ := newTestApp(t)

	for i := 0; i < 200; i++ {
		app.NudgeWindow(-1, 0)
	}
	cfg := app.getConfigSnapshot()
	if cfg.X < 0 {
		t.Errorf("window nudged off screen: x = %d", cfg.X)
	}
}

func TestSetKeyboardLayoutRebinds(t *testing.T) {
	app, _ := newTestApp(t)

	if err := app.SetKeyboardLayout("hu"); err != nil {
		t.Fatalf("SetKeyboardLayout: %v", err)
	}
	if got := app.getConfigSnapshot().KeyboardLayout; got != "hu" {
		t.Errorf("persisted layout = %q, want hu", got)
	}

	bindings := app.HotkeyBindings()
	if spec := bindings["preset-1"]; !strings.HasPrefix(spec, "Ctrl+Shift") {
		t.Errorf("hu preset spec = %q, want Ctrl+Shift prefix", spec)
	}

	if err := app.SetKeyboardLayout("dvorak"); err == nil {
		t.Error("unknown layout accepted")
	}
}

func TestClipboardRoundTrip(t *testing.T) {
	app, rec := newTestApp(t)

	app.SetText("copy me")
	if err := app.CopyTextToClipboard(); err != nil {
		t.Fatalf("CopyTextToClipboard: %v", err)
	}
	rec.mu.Lock()
	clip := rec.clipboard
	rec.mu.Unlock()
	if clip != "copy me" {
		t.Fatalf("clipboard = %q", clip)
	}

	app.ClearText()
	got, err := app.PasteTextFromClipboard()
	if err != nil {
		t.Fatalf("PasteTextFromClipboard: %v", err)
	}
	if got != "copy me" {
		t.Errorf("pasted text = %q", got)
	}
}

func TestSnippetLifecycleThroughAPI(t *testing.T) {
	app, _ := newTestApp(t)

	sn, err := app.CreateSnippet("sig", "-- Alex")
	if err != nil {
		t.Fatalf("CreateSnippet: %v", err)
	}

	app.SetText("hello ")
	text, err := app.UseSnippet(sn.ID)
	if err != nil {
		t.Fatalf("UseSnippet: %v", err)
	}
	if text != "hello -- Alex" {
		t.Errorf("text after snippet = %q", text)
	}

	list, err := app.ListSnippets()
	if err != nil {
		t.Fatalf("ListSnippets: %v", err)
	}
	if len(list) != 1 || list[0].LastUsedAt == nil {
		t.Errorf("list = %+v", list)
	}

	if err := app.DeleteSnippet(sn.ID); err != nil {
		t.Fatalf("DeleteSnippet: %v", err)
	}
}

func TestMarkFirstRunShown(t *testing.T) {
	app, _ := newTestApp(t)

	app.MarkFirstRunShown()
	onDisk, err := config.Load(app.configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !onDisk.FirstRunShown {
		t.Error("first_run_shown not persisted")
	}
}
