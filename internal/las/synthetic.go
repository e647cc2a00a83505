// This file provides synthetic cloud generation for tooling and tests.
package las

import (
	"math"
	"math/rand"
)

// ASPRS standard classification codes used by the generator.
const (
	ClassUnclassified = 1
	ClassGround       = 2
	ClassBuilding     = 6
)

// SyntheticOptions configures the synthetic cloud generator.
type SyntheticOptions struct {
	GroundPoints  int     // points in the ground disc
	ClusterPoints int     // points in the elevated cluster
	AreaRadius    float64 // metres, radius of the ground disc
	GroundZ       float64 // base elevation in stored Z units
	GroundNoise   float64 // ground Z jitter in stored Z units
	ClusterHeight float64 // cluster rise above ground in stored Z units
	WithColor     bool    // populate RGB channels
	Seed          int64
}

// DefaultSyntheticOptions returns generator settings that resemble a
// single traffic detection: a flat ground disc with one elevated object.
// Stored Z units are 1/100000 of a display unit, matching the survey rigs
// this viewer was built for.
func DefaultSyntheticOptions() SyntheticOptions {
	return SyntheticOptions{
		GroundPoints:  12000,
		ClusterPoints: 3000,
		AreaRadius:    40.0,
		GroundZ:       250000, // 2.5 display units
		GroundNoise:   5000,   // ±0.05 display units
		ClusterHeight: 450000, // 4.5 display units
		Seed:          1,
	}
}

// Synthetic generates a deterministic synthetic cloud: a uniform ground
// disc plus a dense elevated cluster offset from centre.
func Synthetic(opts SyntheticOptions) *Cloud {
	rng := rand.New(rand.NewSource(opts.Seed))

	n := opts.GroundPoints + opts.ClusterPoints
	c := &Cloud{
		X:              make([]float64, n),
		Y:              make([]float64, n),
		Z:              make([]float64, n),
		Intensity:      make([]uint16, n),
		Classification: make([]uint8, n),
	}
	if opts.WithColor {
		c.Red = make([]uint16, n)
		c.Green = make([]uint16, n)
		c.Blue = make([]uint16, n)
	}

	// Ground disc (uniform distribution over the disc area).
	for i := 0; i < opts.GroundPoints; i++ {
		angle := rng.Float64() * 2 * math.Pi
		r := math.Sqrt(rng.Float64()) * opts.AreaRadius

		c.X[i] = r * math.Cos(angle)
		c.Y[i] = r * math.Sin(angle)
		c.Z[i] = opts.GroundZ + (rng.Float64()*2-1)*opts.GroundNoise
		c.Classification[i] = ClassGround

		// Intensity falls off with distance from the sensor.
		intensity := 200 - int(r*3)
		if intensity < 50 {
			intensity = 50
		}
		c.Intensity[i] = uint16((intensity + rng.Intn(30)) * 200)
	}

	// Elevated cluster offset from centre.
	clusterX := opts.AreaRadius / 3
	clusterY := -opts.AreaRadius / 4
	clusterR := opts.AreaRadius / 10

	for i := opts.GroundPoints; i < n; i++ {
		angle := rng.Float64() * 2 * math.Pi
		r := math.Sqrt(rng.Float64()) * clusterR

		c.X[i] = clusterX + r*math.Cos(angle)
		c.Y[i] = clusterY + r*math.Sin(angle)
		c.Z[i] = opts.GroundZ + rng.Float64()*opts.ClusterHeight
		c.Classification[i] = ClassBuilding
		c.Intensity[i] = uint16((120 + rng.Intn(60)) * 200)
	}

	if opts.WithColor {
		colorByElevation(c, opts)
	}

	return c
}

// colorByElevation fills RGB with a simple height gradient: low points
// green-brown, high points toward white.
func colorByElevation(c *Cloud, opts SyntheticOptions) {
	span := opts.ClusterHeight + 2*opts.GroundNoise
	if span <= 0 {
		span = 1
	}
	base := opts.GroundZ - opts.GroundNoise

	for i := range c.Z {
		t := (c.Z[i] - base) / span
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
		c.Red[i] = uint16(20000 + t*40000)
		c.Green[i] = uint16(30000 + t*30000)
		c.Blue[i] = uint16(15000 + t*50000)
	}
}
