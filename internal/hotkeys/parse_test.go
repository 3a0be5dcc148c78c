package hotkeys

import (
	"strings"
	"testing"
)

func TestParseBindingValid(t *testing.T) {
	tests := []struct {
		name           string
		spec           string
		wantModifiers  Modifier
		wantKey        VKey
		wantNormalized string
	}{
		{
			name:           "ctrl shift letter",
			spec:           "Ctrl+Shift+L",
			wantModifiers:  modControl | modShift,
			wantKey:        VKey('L'),
			wantNormalized: "Ctrl+Shift+L",
		},
		{
			name:           "ctrl alt digit",
			spec:           "Ctrl+Alt+5",
			wantModifiers:  modControl | modAlt,
			wantKey:        VKey('5'),
			wantNormalized: "Ctrl+Alt+5",
		},
		{
			name:           "page up",
			spec:           "Ctrl+Shift+PgUp",
			wantModifiers:  modControl | modShift,
			wantKey:        vkPgUp,
			wantNormalized: "Ctrl+Shift+PGUP",
		},
		{
			name:           "function key",
			spec:           "Ctrl+Shift+F1",
			wantModifiers:  modControl | modShift,
			wantKey:        vkF1,
			wantNormalized: "Ctrl+Shift+F1",
		},
		{
			name:           "high function key",
			spec:           "Win+F20",
			wantModifiers:  modWin,
			wantKey:        vkF1 + 19,
			wantNormalized: "Win+F20",
		},
		{
			name:           "arrow key",
			spec:           "Ctrl+Shift+Left",
			wantModifiers:  modControl | modShift,
			wantKey:        vkLeft,
			wantNormalized: "Ctrl+Shift+LEFT",
		},
		{
			name:           "case and spacing tolerated",
			spec:           "  ctrl + SHIFT + delete ",
			wantModifiers:  modControl | modShift,
			wantKey:        vkDelete,
			wantNormalized: "Ctrl+Shift+DELETE",
		},
		{
			name:           "duplicate modifier collapsed",
			spec:           "Ctrl+Control+Shift+H",
			wantModifiers:  modControl | modShift,
			wantKey:        VKey('H'),
			wantNormalized: "Ctrl+Shift+H",
		},
		{
			name:           "hex escape",
			spec:           "Ctrl+0x20",
			wantModifiers:  modControl,
			wantKey:        vkSpace,
			wantNormalized: "Ctrl+0X20",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseBinding(tt.spec)
			if err != nil {
				t.Fatalf("ParseBinding(%q): %v", tt.spec, err)
			}
			if b.Modifiers() != tt.wantModifiers {
				t.Errorf("modifiers = %#x, want %#x", b.Modifiers(), tt.wantModifiers)
			}
			if b.Key() != tt.wantKey {
				t.Errorf("key = %#x, want %#x", b.Key(), tt.wantKey)
			}
			if b.Normalized() != tt.wantNormalized {
				t.Errorf("normalized = %q, want %q", b.Normalized(), tt.wantNormalized)
			}
		})
	}
}

func TestParseBindingInvalid(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr string
	}{
		{"empty", "", "empty"},
		{"bare key", "L", "must include modifiers"},
		{"unknown modifier", "Hyper+L", "unknown modifier"},
		{"unknown key", "Ctrl+Banana", "unknown key"},
		{"missing key", "Ctrl+", "missing hotkey key"},
		{"bad hex", "Ctrl+0xZZ", "invalid hex key"},
		{"zero hex", "Ctrl+0x0", "not a valid virtual key"},
		{"f zero out of range", "Ctrl+F21", "unknown key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBinding(tt.spec)
			if err == nil {
				t.Fatalf("ParseBinding(%q) succeeded, want error containing %q", tt.spec, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestBindingsTablesParse(t *testing.T) {
	for _, layout := range []Layout{LayoutEN, LayoutHU} {
		for action, spec := range Bindings(layout) {
			if _, err := ParseBinding(spec); err != nil {
				t.Errorf("layout %s: action %s has unparseable spec %q: %v", layout, action, spec, err)
			}
		}
	}
}

func TestPresetBindingsPerLayout(t *testing.T) {
	en := Bindings(LayoutEN)
	hu := Bindings(LayoutHU)

	if en[ActionPreset1] != "Ctrl+Alt+1" {
		t.Errorf("en preset 1 = %q", en[ActionPreset1])
	}
	// Ctrl+Alt is AltGr on the Hungarian layout, so presets move off it.
	if hu[ActionPreset1] != "Ctrl+Shift+1" {
		t.Errorf("hu preset 1 = %q", hu[ActionPreset1])
	}
	if en[ActionToggleLock] != hu[ActionToggleLock] {
		t.Errorf("common binding differs across layouts: %q vs %q", en[ActionToggleLock], hu[ActionToggleLock])
	}
}

func TestPresetIndex(t *testing.T) {
	if got := ActionPreset7.PresetIndex(); got != 7 {
		t.Errorf("PresetIndex(preset-7) = %d, want 7", got)
	}
	if got := ActionToggleLock.PresetIndex(); got != 0 {
		t.Errorf("PresetIndex(toggle-lock) = %d, want 0", got)
	}
}

func TestParseLayout(t *testing.T) {
	tests := []struct {
		in      string
		want    Layout
		wantErr bool
	}{
		{"auto", LayoutAuto, false},
		{"en", LayoutEN, false},
		{"hu", LayoutHU, false},
		{"", LayoutAuto, false},
		{"de", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLayout(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLayout(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLayout(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
