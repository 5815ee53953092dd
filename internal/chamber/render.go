package chamber

import (
	"github.com/vovakirdan/bubble-chamber/internal/core"
)

// Glyphs used by Render.
const (
	TrailChar  = '·'
	HeadChar   = '●'
	HiddenChar = '∘'
)

// RenderOptions controls what Render draws.
type RenderOptions struct {
	Width, Height float64 // chamber size mapped onto the whole screen
	ShowHidden    bool    // draw neutral particles
	ShowFinished  bool    // draw trajectories already in the collector
}

// Render draws the chamber onto dst. Finished trajectories are drawn first
// so live particles stay on top; positive tracks are red, negative blue.
func Render(dst *core.Screen, sim *Simulation, opts RenderOptions) {
	dst.Clear()
	if opts.Width <= 0 || opts.Height <= 0 {
		return
	}
	sx := float64(dst.Width()) / opts.Width
	sy := float64(dst.Height()) / opts.Height
	cell := func(p core.Point2) (int, int) {
		return int(p.X * sx), int(p.Y * sy)
	}

	if opts.ShowFinished {
		for _, path := range sim.collector {
			drawPath(dst, path, cell, core.ColorGray)
		}
	}

	for _, v := range sim.Particles() {
		if v.Hidden {
			if opts.ShowHidden {
				x, y := cell(v.Position.XY())
				dst.SetColored(x, y, HiddenChar, core.ColorGray)
			}
			continue
		}
		trail, head := core.ColorBlue, core.ColorBrightBlue
		if v.Particle.TotalCharge > 0 {
			trail, head = core.ColorRed, core.ColorBrightRed
		}
		drawPath(dst, v.Trace, cell, trail)
		x, y := cell(v.Position.XY())
		dst.SetColored(x, y, HeadChar, head)
	}
}

// drawPath connects consecutive points with straight cell lines.
func drawPath(dst *core.Screen, path []core.Point2, cell func(core.Point2) (int, int), c core.Color) {
	for i, p := range path {
		x1, y1 := cell(p)
		if i == 0 {
			dst.SetColored(x1, y1, TrailChar, c)
			continue
		}
		x0, y0 := cell(path[i-1])
		if !nearScreen(dst, x0, y0) || !nearScreen(dst, x1, y1) {
			continue
		}
		drawLine(dst, x0, y0, x1, y1, c)
	}
}

// drawLine plots a Bresenham line between two cells.
func drawLine(dst *core.Screen, x0, y0, x1, y1 int, c core.Color) {
	dx, sx := core.Abs(x1-x0), core.Sign(x1-x0)
	dy, sy := -core.Abs(y1-y0), core.Sign(y1-y0)
	err := dx + dy
	for {
		dst.SetColored(x0, y0, TrailChar, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// nearScreen bounds line drawing for particles that left the chamber.
func nearScreen(dst *core.Screen, x, y int) bool {
	m := dst.Width() + dst.Height()
	return core.NewRect(-m, -m, dst.Width()+2*m, dst.Height()+2*m).Contains(x, y)
}
