package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/lasview/internal/httputil"
	"github.com/banshee-data/lasview/internal/las"
	"github.com/banshee-data/lasview/internal/render"
	"github.com/banshee-data/lasview/internal/viewer"
)

// CloudPayload is the current file's point data with per-point colors,
// ready for a thin client to draw. Coordinates are real-world; DisplayZ
// carries the flattened elevations the viewer shows.
type CloudPayload struct {
	File        string             `json:"file" msgpack:"file"`
	Index       int                `json:"index" msgpack:"index"`
	Mode        string             `json:"mode" msgpack:"mode"`
	TotalPoints int                `json:"total_points" msgpack:"total_points"`
	Count       int                `json:"count" msgpack:"count"`
	X           []float64          `json:"x" msgpack:"x"`
	Y           []float64          `json:"y" msgpack:"y"`
	Z           []float64          `json:"z" msgpack:"z"`
	DisplayZ    []float64          `json:"display_z" msgpack:"display_z"`
	Intensity   []uint16           `json:"intensity" msgpack:"intensity"`
	Colors      [][3]uint8         `json:"colors" msgpack:"colors"`
	Render      viewer.RenderHints `json:"render" msgpack:"render"`
}

// showCloud serves the current file's decimated point data. budget= caps
// the point count by uniform stride; leaf= (meters) first thins through a
// voxel grid, which keeps spatial structure stride decimation loses. JSON
// by default; msgpack when the Accept header asks for it.
func (s *Server) showCloud(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	cloud, err := sess.CurrentCloud()
	if err != nil {
		writeViewerError(w, err)
		return
	}
	entry, err := sess.CurrentEntry()
	if err != nil {
		writeViewerError(w, err)
		return
	}

	budget := s.tuning.GetPointBudget()
	if raw := r.URL.Query().Get("budget"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			httputil.BadRequest(w, "invalid budget: "+raw)
			return
		}
		budget = v
	}

	leaf := 0.0
	if raw := r.URL.Query().Get("leaf"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			httputil.BadRequest(w, "invalid leaf size: "+raw)
			return
		}
		leaf = v
	}

	mode := sess.Mode()
	thinned := cloud
	if leaf > 0 {
		thinned = render.VoxelDownsample(thinned, leaf)
	}
	thinned = render.ToBudget(thinned, budget)
	colors, err := render.CloudColors(thinned, mode)
	if err != nil {
		httputil.UnprocessableEntity(w, err.Error())
		return
	}

	state := sess.State()
	payload := &CloudPayload{
		File:        entry.Name,
		Index:       state.Index,
		Mode:        mode.String(),
		TotalPoints: cloud.Len(),
		Count:       thinned.Len(),
		X:           thinned.X,
		Y:           thinned.Y,
		Z:           thinned.Z,
		DisplayZ:    make([]float64, thinned.Len()),
		Intensity:   thinned.Intensity,
		Colors:      make([][3]uint8, len(colors)),
		Render:      state.Render,
	}
	for i, z := range thinned.Z {
		payload.DisplayZ[i] = z / state.Render.ZDisplayDivisor
	}
	for i, c := range colors {
		payload.Colors[i] = [3]uint8{
			uint8(c[0]*255 + 0.5),
			uint8(c[1]*255 + 0.5),
			uint8(c[2]*255 + 0.5),
		}
	}

	if wantsMsgpack(r) {
		httputil.WriteMsgpack(w, http.StatusOK, payload)
		return
	}
	httputil.WriteJSONOK(w, payload)
}

func wantsMsgpack(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/x-msgpack") ||
		strings.Contains(accept, "application/msgpack")
}

// showStats serves summary statistics for the current file.
func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	cloud, err := sess.CurrentCloud()
	if err != nil {
		writeViewerError(w, err)
		return
	}
	entry, err := sess.CurrentEntry()
	if err != nil {
		writeViewerError(w, err)
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"file":         entry.Name,
		"detection_id": entry.DetectionID,
		"stats":        las.ComputeStats(cloud),
	})
}
