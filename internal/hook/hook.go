// Package hook installs the process-wide low-level keyboard and mouse hooks
// that back the locked overlay state.
//
// The keyboard hook watches for the Escape key and signals the emergency
// unlock channel; it never consumes events, so Escape keeps working in every
// other application. The wheel hook forwards scroll events that land inside
// the overlay rectangle (a click-through window receives no mouse input of
// its own) and consumes only those.
//
// Hook callbacks run on a dedicated OS thread inside the keystroke delivery
// path, so they do the minimum possible work: a pure decision followed by a
// non-blocking channel send or callback.
package hook

const (
	vkEscape     = 0x1B
	wmKeyDown    = 0x0100
	wmSysKeyDown = 0x0104
	wmMouseWheel = 0x020A
)

// escapePressed reports whether a keyboard hook event is an Escape key-down.
// Key-up and injected repeats of other keys are ignored; WM_SYSKEYDOWN covers
// Escape pressed while Alt is held.
func escapePressed(msg uintptr, vkCode uint32) bool {
	return (msg == wmKeyDown || msg == wmSysKeyDown) && vkCode == vkEscape
}

// wheelDelta extracts the signed scroll delta from the high word of a mouse
// hook event's mouseData field.
func wheelDelta(mouseData uint32) int32 {
	return int32(int16(mouseData >> 16))
}

// signalNonBlocking posts to ch without blocking. The channel is buffered;
// when the consumer is behind, coalescing repeated signals into the pending
// one is the desired behavior.
func signalNonBlocking(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
