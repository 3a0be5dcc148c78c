//go:build windows

package hotkeys

var procGetKeyboardLayout = user32DLL.NewProc("GetKeyboardLayout")

// langHungarian is the primary+sub language identifier for hu-HU.
const langHungarian = 0x040E

// DetectLayout resolves LayoutAuto against the current thread's keyboard
// layout. Only Hungarian gets its own table; everything else uses the
// US-style default.
func DetectLayout() Layout {
	hkl, _, _ := procGetKeyboardLayout.Call(0)
	if uint16(hkl) == langHungarian {
		return LayoutHU
	}
	return LayoutEN
}
