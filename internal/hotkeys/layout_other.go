//go:build !windows

package hotkeys

// DetectLayout has no OS layout to query off Windows; LayoutAuto resolves to
// the default table.
func DetectLayout() Layout {
	return LayoutEN
}
