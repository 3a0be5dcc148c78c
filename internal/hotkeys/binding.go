// Package hotkeys registers the overlay's global hotkey surface and routes
// triggers to application actions.
//
// Bindings are data: the full surface for a keyboard layout is a table, and
// switching layouts re-registers the whole table. The OS side is abstracted
// behind Registrar so the routing and layout logic is portable.
package hotkeys

// Modifier represents a Win32 hotkey modifier bitmask.
type Modifier uint32

// VKey represents a Win32 virtual-key code.
type VKey uint32

// Binding describes a parsed global hotkey.
// Construct only via ParseBinding to guarantee invariant consistency.
type Binding struct {
	modifiers  Modifier
	key        VKey
	normalized string
}

// Modifiers returns the modifier bitmask.
func (b Binding) Modifiers() Modifier { return b.modifiers }

// Key returns the virtual-key code.
func (b Binding) Key() VKey { return b.key }

// Normalized returns the canonical human-readable binding string.
func (b Binding) Normalized() string { return b.normalized }
