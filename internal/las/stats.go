package las

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the spatial distribution of a cloud.
type Stats struct {
	Count int `json:"count"`

	MinX  float64 `json:"min_x"`
	MaxX  float64 `json:"max_x"`
	MeanX float64 `json:"mean_x"`

	MinY  float64 `json:"min_y"`
	MaxY  float64 `json:"max_y"`
	MeanY float64 `json:"mean_y"`

	MinZ    float64 `json:"min_z"`
	MaxZ    float64 `json:"max_z"`
	MeanZ   float64 `json:"mean_z"`
	StdDevZ float64 `json:"stddev_z"`

	MeanIntensity float64 `json:"mean_intensity"`
}

// ComputeStats calculates summary statistics for a cloud. An empty cloud
// yields the zero Stats.
func ComputeStats(c *Cloud) Stats {
	if c == nil || c.Len() == 0 {
		return Stats{}
	}

	s := Stats{Count: c.Len()}

	s.MinX = floats.Min(c.X)
	s.MaxX = floats.Max(c.X)
	s.MeanX = stat.Mean(c.X, nil)

	s.MinY = floats.Min(c.Y)
	s.MaxY = floats.Max(c.Y)
	s.MeanY = stat.Mean(c.Y, nil)

	s.MinZ = floats.Min(c.Z)
	s.MaxZ = floats.Max(c.Z)
	s.MeanZ = stat.Mean(c.Z, nil)
	s.StdDevZ = stat.StdDev(c.Z, nil)

	if len(c.Intensity) == c.Len() {
		total := 0.0
		for _, v := range c.Intensity {
			total += float64(v)
		}
		s.MeanIntensity = total / float64(c.Len())
	}

	return s
}
