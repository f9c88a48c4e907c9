package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/wricardo/stacktower/game/engine"
)

// Layers kept below the active tile before debris is dropped
const viewDepth = 64

// Horizontal half-extent of a side view, as a multiple of MaxBound
const viewSpan = 1.6

var (
	hudStyle  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	hintStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
	overStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true).Reverse(true)
)

// sideView projects stack space onto one half of the terminal. The
// horizontal axis is the view's axis and rows are layers.
type sideView struct {
	axis          engine.Axis
	left, width   int
	top, bottom   int
	anchor        int     // row of the camera layer
	camera        float64 // layer at the anchor row
	ratio, extent float64
}

func newSideView(axis engine.Axis, left, width, top, bottom int, s *engine.StackState, cfg *engine.Config) sideView {
	return sideView{
		axis:   axis,
		left:   left,
		width:  width,
		top:    top,
		bottom: bottom,
		anchor: top + (bottom-top)/3,
		camera: -s.StackOffset / cfg.Ratio,
		ratio:  cfg.Ratio,
		extent: cfg.MaxBound * viewSpan,
	}
}

func (v sideView) column(x float64) int {
	return v.left + int(math.Floor((x+v.extent)/(2*v.extent)*float64(v.width)))
}

func (v sideView) row(y float64) int {
	return v.anchor + int(math.Round(v.camera-y/v.ratio))
}

// fill paints the box with the given center and size as a solid bar
func (v sideView) fill(screen tcell.Screen, center, size engine.Vec3, style tcell.Style) {
	row := v.row(center.Y)
	if row < v.top || row >= v.bottom {
		return
	}
	half := size.Along(v.axis) / 2
	from := v.column(center.Along(v.axis) - half)
	to := v.column(center.Along(v.axis) + half)
	if to <= from {
		to = from + 1
	}
	for x := max(from, v.left); x < min(to, v.left+v.width); x++ {
		screen.SetContent(x, row, ' ', nil, style)
	}
}

// tileStyle turns a #rrggbb tile color into a solid background
func tileStyle(hex string) tcell.Style {
	c, err := colorful.Hex(hex)
	if err != nil {
		return tcell.StyleDefault.Reverse(true)
	}
	r, g, b := c.RGB255()
	return tcell.StyleDefault.Background(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// draw renders both side views plus the HUD
func (g *game) draw(screen tcell.Screen) {
	screen.Clear()
	width, height := screen.Size()
	s := g.engine.GetState()

	half := width / 2
	views := []sideView{
		newSideView(engine.AxisX, 0, half, 2, height-1, s, g.cfg),
		newSideView(engine.AxisZ, half, width-half, 2, height-1, s, g.cfg),
	}

	for _, v := range views {
		label := fmt.Sprintf(" %s view ", v.axis)
		if v.axis == s.Axis && !s.GameOver {
			label += "<swinging>"
		}
		drawText(screen, v.left+1, 1, hintStyle, label)

		for _, tile := range s.Tiles {
			v.fill(screen, tile.Center, tile.Size, tileStyle(tile.Color))
		}
		for _, d := range g.debris {
			v.fill(screen, d.Pos, d.Size, tileStyle(d.Color))
		}
	}

	drawText(screen, 1, 0, hudStyle, fmt.Sprintf("Score %d   Combo %d   %s", s.Score(), s.Combo, g.cfg.Name))
	if s.GameOver {
		drawText(screen, max(0, half-6), height/2, overStyle, " GAME OVER ")
	}
	drawText(screen, 1, height-1, hintStyle, "space/enter place   r reset   q quit")
	screen.Show()
}
