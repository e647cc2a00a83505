package render

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/lasview/internal/las"
)

func colorsClose(a, b Color, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestTerrainAnchors(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		want Color
	}{
		{"bottom", 0.0, Color{0.2, 0.2, 0.6}},
		{"cyan", 0.15, Color{0.0, 0.6, 1.0}},
		{"green", 0.25, Color{0.0, 0.8, 0.4}},
		{"sand", 0.5, Color{1.0, 1.0, 0.6}},
		{"rock", 0.75, Color{0.5, 0.36, 0.33}},
		{"top", 1.0, Color{1.0, 1.0, 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Terrain(tt.t)
			if !colorsClose(got, tt.want, 1e-12) {
				t.Errorf("Terrain(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestTerrainInterpolates(t *testing.T) {
	// Halfway between the 0.15 and 0.25 stops.
	got := Terrain(0.2)
	want := Color{0.0, 0.7, 0.7}
	if !colorsClose(got, want, 1e-9) {
		t.Errorf("Terrain(0.2) = %v, want %v", got, want)
	}
}

func TestTerrainClampsOutOfRange(t *testing.T) {
	if got := Terrain(-0.5); !colorsClose(got, Color{0.2, 0.2, 0.6}, 1e-12) {
		t.Errorf("Terrain(-0.5) = %v, want bottom of ramp", got)
	}
	if got := Terrain(1.5); !colorsClose(got, Color{1.0, 1.0, 1.0}, 1e-12) {
		t.Errorf("Terrain(1.5) = %v, want top of ramp", got)
	}
}

func TestElevationColorsSpansRamp(t *testing.T) {
	colors := ElevationColors([]float64{100, 150, 200})
	if len(colors) != 3 {
		t.Fatalf("expected 3 colors, got %d", len(colors))
	}
	if !colorsClose(colors[0], Terrain(0), 1e-12) {
		t.Errorf("lowest point = %v, want bottom of ramp", colors[0])
	}
	if !colorsClose(colors[1], Terrain(0.5), 1e-12) {
		t.Errorf("middle point = %v, want ramp midpoint", colors[1])
	}
	if !colorsClose(colors[2], Terrain(1), 1e-12) {
		t.Errorf("highest point = %v, want top of ramp", colors[2])
	}
}

func TestElevationColorsFlatCloud(t *testing.T) {
	// All points at the same elevation map to the bottom of the ramp.
	colors := ElevationColors([]float64{42, 42, 42})
	for i, c := range colors {
		if !colorsClose(c, Color{0.2, 0.2, 0.6}, 1e-12) {
			t.Errorf("point %d = %v, want bottom of ramp", i, c)
		}
	}
}

func TestElevationColorsEmpty(t *testing.T) {
	if colors := ElevationColors(nil); len(colors) != 0 {
		t.Errorf("expected no colors for empty input, got %d", len(colors))
	}
}

func TestRGBColorsBandLimits(t *testing.T) {
	red := []uint16{0, 32768, 65535}
	green := []uint16{100, 200, 300}
	blue := []uint16{5, 5, 1000}

	colors := RGBColors(red, green, blue)
	if len(colors) != 3 {
		t.Fatalf("expected 3 colors, got %d", len(colors))
	}

	for i, c := range colors {
		for ch := 0; ch < 3; ch++ {
			if c[ch] < 0.2-1e-9 || c[ch] > 0.8+1e-9 {
				t.Errorf("point %d channel %d = %v, outside [0.2, 0.8]", i, ch, c[ch])
			}
		}
	}

	// Channel extremes land exactly on the band edges.
	if math.Abs(colors[0][0]-0.2) > 1e-12 {
		t.Errorf("minimum red = %v, want 0.2", colors[0][0])
	}
	if math.Abs(colors[2][0]-0.8) > 1e-12 {
		t.Errorf("maximum red = %v, want 0.8", colors[2][0])
	}
}

func TestRGBColorsConstantChannel(t *testing.T) {
	// A channel with no variation sits mid-band instead of collapsing
	// to an edge.
	colors := RGBColors([]uint16{7, 7, 7}, []uint16{0, 100, 200}, []uint16{0, 100, 200})
	for i, c := range colors {
		if math.Abs(c[0]-0.5) > 1e-12 {
			t.Errorf("point %d red = %v, want 0.5 for constant channel", i, c[0])
		}
	}
}

func TestCloudColorsUniform(t *testing.T) {
	cloud := &las.Cloud{
		X: []float64{1, 2},
		Y: []float64{1, 2},
		Z: []float64{1, 2},
	}
	colors, err := CloudColors(cloud, ColorUniform)
	if err != nil {
		t.Fatalf("CloudColors returned error: %v", err)
	}
	for i, c := range colors {
		if c != DefaultUniformColor {
			t.Errorf("point %d = %v, want %v", i, c, DefaultUniformColor)
		}
	}
}

func TestCloudColorsRGBWithoutChannels(t *testing.T) {
	cloud := &las.Cloud{
		X: []float64{1},
		Y: []float64{1},
		Z: []float64{1},
	}
	_, err := CloudColors(cloud, ColorByRGB)
	if !errors.Is(err, ErrNoColor) {
		t.Errorf("expected ErrNoColor, got %v", err)
	}
}

func TestCloudColorsRGB(t *testing.T) {
	cloud := &las.Cloud{
		X:     []float64{1, 2},
		Y:     []float64{1, 2},
		Z:     []float64{1, 2},
		Red:   []uint16{0, 65535},
		Green: []uint16{0, 65535},
		Blue:  []uint16{0, 65535},
	}
	colors, err := CloudColors(cloud, ColorByRGB)
	if err != nil {
		t.Fatalf("CloudColors returned error: %v", err)
	}
	if !colorsClose(colors[0], Color{0.2, 0.2, 0.2}, 1e-12) {
		t.Errorf("darkest point = %v, want band floor", colors[0])
	}
	if !colorsClose(colors[1], Color{0.8, 0.8, 0.8}, 1e-12) {
		t.Errorf("brightest point = %v, want band ceiling", colors[1])
	}
}

func TestCloudColorsElevationDefault(t *testing.T) {
	cloud := &las.Cloud{
		X: []float64{1, 2},
		Y: []float64{1, 2},
		Z: []float64{100, 200},
	}
	colors, err := CloudColors(cloud, ColorByElevation)
	if err != nil {
		t.Fatalf("CloudColors returned error: %v", err)
	}
	if !colorsClose(colors[0], Terrain(0), 1e-12) {
		t.Errorf("lowest point = %v, want bottom of ramp", colors[0])
	}
	if !colorsClose(colors[1], Terrain(1), 1e-12) {
		t.Errorf("highest point = %v, want top of ramp", colors[1])
	}
}
