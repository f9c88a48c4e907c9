package engine

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// TileColor maps a score onto the four-stop palette. The position on the
// ramp cycles with sin(score*frequency), so colors drift back and forth as
// the tower grows. It is a pure function of its inputs.
func TileColor(score int, frequency float64, palette [PaletteSize]colorful.Color) colorful.Color {
	t := (math.Sin(float64(score)*frequency) + 1) / 2
	return Lerp4(palette, t)
}

// Lerp4 interpolates across four colors, one segment per third of [0,1]
func Lerp4(p [PaletteSize]colorful.Color, t float64) colorful.Color {
	const third = 1.0 / 3.0

	t = math.Max(0, math.Min(1, t))
	switch {
	case t < third:
		return p[0].BlendRgb(p[1], t/third)
	case t < 2*third:
		return p[1].BlendRgb(p[2], (t-third)/third)
	default:
		return p[2].BlendRgb(p[3], (t-2*third)/third)
	}
}

// TileColorHex is TileColor for a config, rendered as #rrggbb
func TileColorHex(config *Config, score int) string {
	return TileColor(score, config.ColorFrequency, config.palette()).Clamped().Hex()
}
