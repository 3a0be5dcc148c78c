package winstyle

// ClickThroughController toggles WS_EX_TRANSPARENT so mouse input passes
// through the overlay to whatever window is beneath it.
//
// The toggle is a read-modify-write on the extended style word: sibling bits
// (layered, affinity prerequisite, tool-window) are never disturbed, so a
// set/clear round trip restores the style word exactly.
type ClickThroughController struct {
	native Native
}

// NewClickThroughController creates a controller over the given native surface.
func NewClickThroughController(native Native) *ClickThroughController {
	return &ClickThroughController{native: native}
}

// Set enables or disables click-through. Setting the current value is a no-op.
//
// Set does not touch focus: a window that becomes click-through while holding
// input focus keeps it, and subsequent key events meant for other applications
// would be misdirected. The orchestrator calls ReleaseFocus first.
func (c *ClickThroughController) Set(h Handle, enabled bool) error {
	style, err := c.native.ExStyle(h)
	if err != nil {
		return err
	}

	updated := style
	if enabled {
		updated |= ExTransparent
	} else {
		updated &^= ExTransparent
	}
	if updated == style {
		return nil
	}
	return c.native.SetExStyle(h, updated)
}

// Enabled reports whether the window currently has the click-through bit.
func (c *ClickThroughController) Enabled(h Handle) (bool, error) {
	style, err := c.native.ExStyle(h)
	if err != nil {
		return false, err
	}
	return style&ExTransparent != 0, nil
}

// ReleaseFocus drops input focus if the window currently holds it.
func (c *ClickThroughController) ReleaseFocus(h Handle) error {
	if !c.native.IsForeground(h) {
		return nil
	}
	return c.native.DropFocus(h)
}
