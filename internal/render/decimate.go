package render

import (
	"math"

	"github.com/banshee-data/lasview/internal/las"
)

// ToBudget returns a cloud holding at most budget points by keeping every
// Nth point. Clouds already within budget (or a budget of zero, meaning
// unlimited) come back untouched; decimation never modifies the input.
func ToBudget(c *las.Cloud, budget int) *las.Cloud {
	if budget <= 0 || c.Len() <= budget {
		return c
	}

	stride := (c.Len() + budget - 1) / budget
	idx := make([]int, 0, budget)
	for i := 0; i < c.Len() && len(idx) < budget; i += stride {
		idx = append(idx, i)
	}
	return filterByIndex(c, idx)
}

// VoxelDownsample reduces point density using a 3D voxel grid. Each cubic
// voxel of the given leaf size retains the point closest to the voxel
// centroid, preserving spatial structure better than uniform stride.
// The input cloud is never modified.
func VoxelDownsample(c *las.Cloud, leafSize float64) *las.Cloud {
	if c.Len() == 0 || leafSize <= 0 {
		return c
	}

	invLeaf := 1.0 / leafSize

	type voxelAccum struct {
		sumX, sumY, sumZ float64
		count            int
		bestIdx          int
		bestDist2        float64
	}

	voxels := make(map[[3]int64]*voxelAccum, c.Len()/4)

	for i := 0; i < c.Len(); i++ {
		key := [3]int64{
			int64(math.Floor(c.X[i] * invLeaf)),
			int64(math.Floor(c.Y[i] * invLeaf)),
			int64(math.Floor(c.Z[i] * invLeaf)),
		}
		acc, ok := voxels[key]
		if !ok {
			acc = &voxelAccum{bestIdx: i, bestDist2: math.MaxFloat64}
			voxels[key] = acc
		}
		acc.sumX += c.X[i]
		acc.sumY += c.Y[i]
		acc.sumZ += c.Z[i]
		acc.count++
	}

	for i := 0; i < c.Len(); i++ {
		key := [3]int64{
			int64(math.Floor(c.X[i] * invLeaf)),
			int64(math.Floor(c.Y[i] * invLeaf)),
			int64(math.Floor(c.Z[i] * invLeaf)),
		}
		acc := voxels[key]
		cx := acc.sumX / float64(acc.count)
		cy := acc.sumY / float64(acc.count)
		cz := acc.sumZ / float64(acc.count)
		dx, dy, dz := c.X[i]-cx, c.Y[i]-cy, c.Z[i]-cz
		d2 := dx*dx + dy*dy + dz*dz
		if d2 < acc.bestDist2 {
			acc.bestDist2 = d2
			acc.bestIdx = i
		}
	}

	keepSet := make(map[int]bool, len(voxels))
	for _, acc := range voxels {
		keepSet[acc.bestIdx] = true
	}

	idx := make([]int, 0, len(voxels))
	for i := 0; i < c.Len(); i++ {
		if keepSet[i] {
			idx = append(idx, i)
		}
	}
	return filterByIndex(c, idx)
}

// filterByIndex builds a new cloud holding only the points at the given
// indexes, in order.
func filterByIndex(c *las.Cloud, idx []int) *las.Cloud {
	out := &las.Cloud{
		Header:         c.Header,
		X:              make([]float64, len(idx)),
		Y:              make([]float64, len(idx)),
		Z:              make([]float64, len(idx)),
		Intensity:      make([]uint16, len(idx)),
		Classification: make([]uint8, len(idx)),
	}

	hasColor := c.HasColor()
	if hasColor {
		out.Red = make([]uint16, len(idx))
		out.Green = make([]uint16, len(idx))
		out.Blue = make([]uint16, len(idx))
	}

	for j, i := range idx {
		out.X[j] = c.X[i]
		out.Y[j] = c.Y[i]
		out.Z[j] = c.Z[i]
		if i < len(c.Intensity) {
			out.Intensity[j] = c.Intensity[i]
		}
		if i < len(c.Classification) {
			out.Classification[j] = c.Classification[i]
		}
		if hasColor {
			out.Red[j] = c.Red[i]
			out.Green[j] = c.Green[i]
			out.Blue[j] = c.Blue[i]
		}
	}
	return out
}
