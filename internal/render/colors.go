package render

import (
	"errors"

	"github.com/banshee-data/lasview/internal/las"
)

// ErrNoColor is returned when rgb coloring is requested for a cloud whose
// point format carries no color channels.
var ErrNoColor = errors.New("point cloud has no color channels")

// Color is an RGB triple with channels in [0, 1].
type Color [3]float64

// DefaultUniformColor is the solid color used by the uniform mode.
var DefaultUniformColor = Color{0.0, 0.0, 1.0} // blue

// terrainStops defines the elevation ramp: deep blue through cyan, green
// and sand up to white at the top of the range.
var terrainStops = []struct {
	pos float64
	c   Color
}{
	{0.00, Color{0.2, 0.2, 0.6}},
	{0.15, Color{0.0, 0.6, 1.0}},
	{0.25, Color{0.0, 0.8, 0.4}},
	{0.50, Color{1.0, 1.0, 0.6}},
	{0.75, Color{0.5, 0.36, 0.33}},
	{1.00, Color{1.0, 1.0, 1.0}},
}

// Terrain maps a normalized position in [0, 1] onto the terrain ramp.
// Inputs outside the range are clamped.
func Terrain(t float64) Color {
	if t <= terrainStops[0].pos {
		return terrainStops[0].c
	}
	last := len(terrainStops) - 1
	if t >= terrainStops[last].pos {
		return terrainStops[last].c
	}

	for i := 1; i <= last; i++ {
		if t <= terrainStops[i].pos {
			lo, hi := terrainStops[i-1], terrainStops[i]
			f := (t - lo.pos) / (hi.pos - lo.pos)
			return Color{
				lo.c[0] + f*(hi.c[0]-lo.c[0]),
				lo.c[1] + f*(hi.c[1]-lo.c[1]),
				lo.c[2] + f*(hi.c[2]-lo.c[2]),
			}
		}
	}
	return terrainStops[last].c
}

// ElevationColors maps each Z onto the terrain ramp, normalized over the
// cloud's own Z range. A flat cloud (min == max) maps everything to the
// bottom of the ramp.
func ElevationColors(z []float64) []Color {
	colors := make([]Color, len(z))
	if len(z) == 0 {
		return colors
	}

	min, max := z[0], z[0]
	for _, v := range z[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	span := max - min
	for i, v := range z {
		t := 0.0
		if span > 0 {
			t = (v - min) / span
		}
		colors[i] = Terrain(t)
	}
	return colors
}

// RGBColors converts the file's 16-bit channels into display colors.
// Each channel is min-max normalized over the cloud and then compressed
// into the [0.2, 0.8] band so eye-dome lighting never clips points to
// pure black or pure white. A constant channel lands mid-band.
func RGBColors(red, green, blue []uint16) []Color {
	colors := make([]Color, len(red))
	r := normalizeChannel(red)
	g := normalizeChannel(green)
	b := normalizeChannel(blue)
	for i := range colors {
		colors[i] = Color{
			0.2 + 0.6*r[i],
			0.2 + 0.6*g[i],
			0.2 + 0.6*b[i],
		}
	}
	return colors
}

// CloudColors computes per-point display colors for the given mode.
func CloudColors(c *las.Cloud, mode ColorMode) ([]Color, error) {
	switch mode {
	case ColorUniform:
		colors := make([]Color, c.Len())
		for i := range colors {
			colors[i] = DefaultUniformColor
		}
		return colors, nil
	case ColorByRGB:
		if !c.HasColor() {
			return nil, ErrNoColor
		}
		return RGBColors(c.Red, c.Green, c.Blue), nil
	default:
		return ElevationColors(c.Z), nil
	}
}

func normalizeChannel(values []uint16) []float64 {
	norm := make([]float64, len(values))
	if len(values) == 0 {
		return norm
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		for i := range norm {
			norm[i] = 0.5
		}
		return norm
	}

	span := float64(max - min)
	for i, v := range values {
		norm[i] = float64(v-min) / span
	}
	return norm
}
