package hotkeys

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	modAlt     Modifier = 0x0001
	modControl Modifier = 0x0002
	modShift   Modifier = 0x0004
	modWin     Modifier = 0x0008
)

const (
	vkSpace  VKey = 0x20
	vkTab    VKey = 0x09
	vkReturn VKey = 0x0D
	vkEscape VKey = 0x1B
	vkPgUp   VKey = 0x21
	vkPgDn   VKey = 0x22
	vkEnd    VKey = 0x23
	vkHome   VKey = 0x24
	vkLeft   VKey = 0x25
	vkUp     VKey = 0x26
	vkRight  VKey = 0x27
	vkDown   VKey = 0x28
	vkDelete VKey = 0x2E
	vkOem3   VKey = 0xC0
	vkF1     VKey = 0x70
)

var modifierByName = map[string]Modifier{
	"CTRL":    modControl,
	"CONTROL": modControl,
	"SHIFT":   modShift,
	"ALT":     modAlt,
	"WIN":     modWin,
	"SUPER":   modWin,
}

var keyByName = map[string]VKey{
	"SPACE":    vkSpace,
	"TAB":      vkTab,
	"ENTER":    vkReturn,
	"RETURN":   vkReturn,
	"ESC":      vkEscape,
	"ESCAPE":   vkEscape,
	"DELETE":   vkDelete,
	"DEL":      vkDelete,
	"LEFT":     vkLeft,
	"RIGHT":    vkRight,
	"UP":       vkUp,
	"DOWN":     vkDown,
	"PGUP":     vkPgUp,
	"PAGEUP":   vkPgUp,
	"PGDN":     vkPgDn,
	"PAGEDOWN": vkPgDn,
	"HOME":     vkHome,
	"END":      vkEnd,
}

// ParseBinding parses a binding like "Ctrl+Shift+PgUp".
func ParseBinding(spec string) (Binding, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Binding{}, fmt.Errorf("hotkey spec is empty")
	}

	parts := strings.Split(raw, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("hotkey must include modifiers and key: %s", raw)
	}

	var modifiers Modifier
	seen := map[Modifier]struct{}{}
	var normalizedMods []string

	for _, token := range parts[:len(parts)-1] {
		name := strings.ToUpper(strings.TrimSpace(token))
		mod, ok := modifierByName[name]
		if !ok {
			return Binding{}, fmt.Errorf("unknown modifier %q in hotkey %q", token, raw)
		}
		if _, exists := seen[mod]; exists {
			continue
		}
		seen[mod] = struct{}{}
		modifiers |= mod
		normalizedMods = append(normalizedMods, normalizeModifierName(mod))
	}

	keyToken := strings.TrimSpace(parts[len(parts)-1])
	key, normalizedKey, err := parseKey(keyToken)
	if err != nil {
		return Binding{}, err
	}

	if modifiers == 0 {
		return Binding{}, fmt.Errorf("at least one modifier is required: %q", raw)
	}

	normalized := strings.Join(append(normalizedMods, normalizedKey), "+")
	return Binding{
		modifiers:  modifiers,
		key:        key,
		normalized: normalized,
	}, nil
}

func parseKey(raw string) (VKey, string, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return 0, "", fmt.Errorf("missing hotkey key token")
	}

	if key, ok := keyByName[token]; ok {
		return key, token, nil
	}

	// F1..F20.
	if len(token) >= 2 && token[0] == 'F' {
		if n, err := strconv.Atoi(token[1:]); err == nil && n >= 1 && n <= 20 {
			return vkF1 + VKey(n-1), token, nil
		}
	}

	if len(token) == 1 {
		ch := token[0]
		if ch >= 'A' && ch <= 'Z' {
			return VKey(ch), token, nil
		}
		if ch >= '0' && ch <= '9' {
			return VKey(ch), token, nil
		}
		if ch == '`' {
			return vkOem3, "`", nil
		}
	}

	switch token {
	case "BACKQUOTE", "GRAVE":
		return vkOem3, "`", nil
	}

	if strings.HasPrefix(token, "0X") {
		value, err := strconv.ParseUint(token[2:], 16, 16)
		if err != nil {
			return 0, "", fmt.Errorf("invalid hex key %q", raw)
		}
		if value == 0 {
			return 0, "", fmt.Errorf("key code 0x0000 is not a valid virtual key")
		}
		return VKey(value), token, nil
	}

	return 0, "", fmt.Errorf("unknown key %q in hotkey spec", raw)
}

func normalizeModifierName(mod Modifier) string {
	switch mod {
	case modControl:
		return "Ctrl"
	case modShift:
		return "Shift"
	case modAlt:
		return "Alt"
	case modWin:
		return "Win"
	default:
		return "Mod"
	}
}
