// Package render turns decoded point clouds into displayable artifacts:
// per-point colors, payload decimation and summary plots.
package render

import "fmt"

// ColorMode selects how points are colored when a cloud is presented.
type ColorMode int

const (
	ColorByElevation ColorMode = iota // terrain ramp over the cloud's Z range
	ColorUniform                      // single solid color for every point
	ColorByRGB                        // per-point RGB channels from the file
)

// String returns the wire name of the mode.
func (m ColorMode) String() string {
	switch m {
	case ColorByElevation:
		return "elevation"
	case ColorUniform:
		return "uniform"
	case ColorByRGB:
		return "rgb"
	default:
		return fmt.Sprintf("ColorMode(%d)", int(m))
	}
}

// ParseColorMode converts a wire name into a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "elevation":
		return ColorByElevation, nil
	case "uniform":
		return ColorUniform, nil
	case "rgb":
		return ColorByRGB, nil
	default:
		return 0, fmt.Errorf("unknown color mode %q (valid: elevation, uniform, rgb)", s)
	}
}

// Next returns the mode that follows m in the toggle cycle
// elevation -> uniform -> rgb -> elevation. Clouds without color channels
// skip the rgb step so toggling never lands on an unrenderable mode.
func (m ColorMode) Next(hasColor bool) ColorMode {
	switch m {
	case ColorByElevation:
		return ColorUniform
	case ColorUniform:
		if hasColor {
			return ColorByRGB
		}
		return ColorByElevation
	default:
		return ColorByElevation
	}
}
