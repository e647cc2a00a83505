package render

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lasview/internal/las"
)

// ElevationHistogramPNG renders the elevation distribution of a cloud as a
// PNG histogram. Elevations are divided by zDivisor before plotting so the
// axis matches what the viewer displays.
func ElevationHistogramPNG(c *las.Cloud, bins int, zDivisor float64) ([]byte, error) {
	if c.Len() == 0 {
		return nil, fmt.Errorf("cannot plot histogram of empty cloud")
	}
	if bins <= 0 {
		bins = 50
	}
	if zDivisor == 0 {
		zDivisor = 1
	}

	values := make(plotter.Values, c.Len())
	for i, z := range c.Z {
		values[i] = z / zDivisor
	}

	p := plot.New()
	p.Title.Text = "Elevation Distribution"
	p.X.Label.Text = "Elevation"
	p.Y.Label.Text = "Point Count"

	hist, err := plotter.NewHist(values, bins)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}
	hist.FillColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	p.Add(hist)

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render histogram: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode histogram PNG: %w", err)
	}
	return buf.Bytes(), nil
}
