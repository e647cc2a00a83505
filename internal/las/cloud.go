package las

// Cloud holds a decoded point cloud in parallel arrays. Structure-of-arrays
// layout keeps per-field iteration cache-friendly and serializes compactly.
type Cloud struct {
	Header Header

	// Real-world coordinates (raw grid steps with scale and offset applied).
	X []float64
	Y []float64
	Z []float64

	Intensity      []uint16
	Classification []uint8

	// 16-bit color channels; empty unless the point format carries RGB.
	Red   []uint16
	Green []uint16
	Blue  []uint16
}

// Len returns the number of points in the cloud.
func (c *Cloud) Len() int {
	return len(c.X)
}

// HasColor reports whether the cloud carries per-point RGB channels.
func (c *Cloud) HasColor() bool {
	return len(c.Red) == len(c.X) && len(c.X) > 0
}

// ZRange returns the minimum and maximum Z across all points.
// Returns (0, 0) for an empty cloud.
func (c *Cloud) ZRange() (min, max float64) {
	if c.Len() == 0 {
		return 0, 0
	}
	min, max = c.Z[0], c.Z[0]
	for _, z := range c.Z[1:] {
		if z < min {
			min = z
		}
		if z > max {
			max = z
		}
	}
	return min, max
}

// Clone returns a deep copy of the cloud sharing no backing arrays with
// the receiver.
func (c *Cloud) Clone() *Cloud {
	clone := &Cloud{
		Header:         c.Header,
		X:              append([]float64(nil), c.X...),
		Y:              append([]float64(nil), c.Y...),
		Z:              append([]float64(nil), c.Z...),
		Intensity:      append([]uint16(nil), c.Intensity...),
		Classification: append([]uint8(nil), c.Classification...),
	}
	if c.HasColor() {
		clone.Red = append([]uint16(nil), c.Red...)
		clone.Green = append([]uint16(nil), c.Green...)
		clone.Blue = append([]uint16(nil), c.Blue...)
	}
	return clone
}
