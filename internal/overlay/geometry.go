package overlay

// Window geometry rules. All coordinates are virtual-screen pixels with the
// origin at the top-left.
const (
	MinWidth  = 200
	MinHeight = 150

	// EdgeMargin keeps presets off the exact screen edge; BottomMargin is
	// larger to clear a default-height taskbar.
	EdgeMargin   = 20
	BottomMargin = 60

	// NudgeStep is the pixel distance of one arrow-key nudge.
	NudgeStep = 20
)

// Geometry is a window position and size.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Screen is the usable desktop area.
type Screen struct {
	Width  int
	Height int
}

// ClampSize enforces the minimum window size.
func (g Geometry) ClampSize() Geometry {
	if g.Width < MinWidth {
		g.Width = MinWidth
	}
	if g.Height < MinHeight {
		g.Height = MinHeight
	}
	return g
}

// ClampToScreen pulls a window fully back onto the screen. Size is clamped
// first so the result is always a legal geometry.
func (g Geometry) ClampToScreen(s Screen) Geometry {
	g = g.ClampSize()
	if g.X+g.Width > s.Width {
		g.X = s.Width - g.Width
	}
	if g.Y+g.Height > s.Height {
		g.Y = s.Height - g.Height
	}
	if g.X < 0 {
		g.X = 0
	}
	if g.Y < 0 {
		g.Y = 0
	}
	return g
}

// Preset snaps the window to position n of a 3x3 grid, keeping its size.
// Grid numbering follows the numeric keypad: 1 is bottom-left, 5 is the
// center, 9 is top-right. Out-of-range n returns g unchanged.
func (g Geometry) Preset(n int, s Screen) Geometry {
	if n < 1 || n > 9 {
		return g
	}
	g = g.ClampSize()

	col := (n - 1) % 3
	row := (n - 1) / 3 // 0 = bottom row

	switch col {
	case 0:
		g.X = EdgeMargin
	case 1:
		g.X = (s.Width - g.Width) / 2
	case 2:
		g.X = s.Width - g.Width - EdgeMargin
	}

	switch row {
	case 0:
		g.Y = s.Height - g.Height - BottomMargin
	case 1:
		g.Y = (s.Height - g.Height) / 2
	case 2:
		g.Y = EdgeMargin
	}

	return g.ClampToScreen(s)
}

// Nudge moves the window by (dx, dy) nudge steps and clamps to the screen.
func (g Geometry) Nudge(dx, dy int, s Screen) Geometry {
	g.X += dx * NudgeStep
	g.Y += dy * NudgeStep
	return g.ClampToScreen(s)
}

// OpacityLevels are the cycle stops for the opacity hotkey, most opaque
// first.
var OpacityLevels = []float64{1.0, 0.85, 0.70, 0.50}

// NextOpacity advances to the next cycle stop. Values between stops snap to
// the nearest stop first, so a hand-edited config value joins the cycle
// instead of breaking it.
func NextOpacity(current float64) float64 {
	nearest := 0
	best := -1.0
	for i, level := range OpacityLevels {
		d := current - level
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
			nearest = i
		}
	}
	return OpacityLevels[(nearest+1)%len(OpacityLevels)]
}

// ClampOpacity bounds a configured opacity to the supported range.
func ClampOpacity(v float64) float64 {
	if v < 0.5 {
		return 0.5
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
