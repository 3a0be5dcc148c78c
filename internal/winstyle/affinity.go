package winstyle

import "log/slog"

// AffinityController applies and removes capture exclusion.
//
// Apply performs the order-sensitive three-step sequence:
//
//  1. add WS_EX_LAYERED to the extended style,
//  2. set constant-alpha layered attributes (opaque),
//  3. set WDA_EXCLUDEFROMCAPTURE.
//
// Step 2 before step 3 is load-bearing: applying the affinity to a window
// without a SetLayeredWindowAttributes-style blend makes capture pipelines
// render a black rectangle instead of omitting the window.
type AffinityController struct {
	native    Native
	supported bool
}

// NewAffinityController creates a controller. supported reflects the startup
// OS build check; when false, Apply and Remove become logged no-ops and the
// overlay runs without exclusion rather than failing.
func NewAffinityController(native Native, supported bool) *AffinityController {
	return &AffinityController{native: native, supported: supported}
}

// Supported reports whether capture exclusion is available on this OS build.
func (c *AffinityController) Supported() bool {
	return c.supported
}

// Apply excludes the window from screen capture. Idempotent: applying to an
// already-excluded window succeeds without observable change. On failure no
// partial application is retained; the style word is restored to its prior
// value.
func (c *AffinityController) Apply(h Handle) error {
	if !c.supported {
		slog.Debug("[affinity] capture exclusion unsupported on this OS build, skipping")
		return nil
	}

	prior, err := c.native.ExStyle(h)
	if err != nil {
		return err
	}

	if prior&ExLayered == 0 {
		if err := c.native.SetExStyle(h, prior|ExLayered); err != nil {
			return err
		}
	}

	if err := c.native.SetLayeredAlpha(h, layeredAlpha); err != nil {
		c.restoreStyle(h, prior)
		return err
	}

	if err := c.native.SetDisplayAffinity(h, AffinityExcludeCapture); err != nil {
		c.restoreStyle(h, prior)
		return err
	}

	return nil
}

// Remove clears the capture affinity. The layered style and constant alpha
// are left in place: they are harmless on their own and removing them would
// flicker the window for no benefit. Idempotent.
func (c *AffinityController) Remove(h Handle) error {
	if !c.supported {
		return nil
	}
	return c.native.SetDisplayAffinity(h, AffinityNone)
}

// Reassert re-runs Apply. Some native style operations reset layered-window
// attributes as a side effect, so orchestration re-asserts exclusion after
// any such operation; Apply's idempotence makes this safe to call eagerly.
func (c *AffinityController) Reassert(h Handle) error {
	return c.Apply(h)
}

// HideFromSwitcher adds WS_EX_TOOLWINDOW so the overlay does not appear in
// the taskbar or Alt+Tab list.
func (c *AffinityController) HideFromSwitcher(h Handle) error {
	style, err := c.native.ExStyle(h)
	if err != nil {
		return err
	}
	if style&ExToolWindow != 0 {
		return nil
	}
	return c.native.SetExStyle(h, style|ExToolWindow)
}

func (c *AffinityController) restoreStyle(h Handle, style uint32) {
	if err := c.native.SetExStyle(h, style); err != nil {
		slog.Warn("[affinity] style rollback failed", "error", err)
	}
}
