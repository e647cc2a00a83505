package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lasview/internal/httputil"
	"github.com/banshee-data/lasview/internal/render"
)

// scatterView renders a self-contained top-down scatter page of the
// visible clouds. Point values carry [x, y, displayZ]; elevation mode
// drives a visual map over the third dimension, uniform mode draws solid
// blue.
func (s *Server) scatterView(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	clouds, err := sess.VisibleClouds()
	if err != nil {
		writeViewerError(w, err)
		return
	}

	budget := s.tuning.GetPointBudget()
	if raw := r.URL.Query().Get("budget"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			budget = v
		}
	}

	state := sess.State()
	divisor := state.Render.ZDisplayDivisor

	minZ, maxZ := 0.0, 0.0
	total := 0
	series := make(map[string][]opts.ScatterData, len(clouds))
	order := make([]string, 0, len(clouds))
	perCloud := budget / len(clouds)
	if budget > 0 && perCloud == 0 {
		perCloud = 1
	}
	for ci, nc := range clouds {
		thinned := render.ToBudget(nc.Cloud, perCloud)
		data := make([]opts.ScatterData, 0, thinned.Len())
		for i := 0; i < thinned.Len(); i++ {
			displayZ := thinned.Z[i] / divisor
			if ci == 0 && i == 0 {
				minZ, maxZ = displayZ, displayZ
			}
			if displayZ < minZ {
				minZ = displayZ
			}
			if displayZ > maxZ {
				maxZ = displayZ
			}
			data = append(data, opts.ScatterData{Value: []interface{}{thinned.X[i], thinned.Y[i], displayZ}})
		}
		total += len(data)
		series[nc.Name] = data
		order = append(order, nc.Name)
	}

	scatter := charts.NewScatter()
	globalOpts := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "lasview: " + state.Folder,
			Theme:     "dark",
			Width:     "900px",
			Height:    "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "LAS Point Cloud (Top-Down)",
			Subtitle: fmt.Sprintf("file=%d/%d mode=%s points=%d", state.Index+1, len(state.Files), state.Mode, total),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	}
	if state.Mode == "elevation" || state.Mode == "rgb" {
		globalOpts = append(globalOpts, charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minZ),
			Max:        float32(maxZ),
			Dimension:  "2",
			InRange: &opts.VisualMapInRange{
				Color: []string{"#333399", "#00b2b2", "#00e639", "#e6dc32", "#78503c", "#ffffff"},
			},
		}))
	}
	scatter.SetGlobalOptions(globalOpts...)

	for _, name := range order {
		seriesOpts := []charts.SeriesOpts{
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}),
		}
		if state.Mode == "uniform" {
			seriesOpts = append(seriesOpts, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#0000ff"}))
		}
		scatter.AddSeries(name, series[name], seriesOpts...)
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// elevationHistogram serves a PNG histogram of the current file's
// elevation distribution.
func (s *Server) elevationHistogram(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	cloud, err := sess.CurrentCloud()
	if err != nil {
		writeViewerError(w, err)
		return
	}

	bins := s.tuning.GetHistogramBins()
	if raw := r.URL.Query().Get("bins"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 500 {
			bins = v
		}
	}

	png, err := render.ElevationHistogramPNG(cloud, bins, sess.State().Render.ZDisplayDivisor)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render histogram: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
