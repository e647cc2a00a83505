package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/lasview/internal/httputil"
	"github.com/banshee-data/lasview/internal/render"
	"github.com/banshee-data/lasview/internal/security"
	"github.com/banshee-data/lasview/internal/units"
	"github.com/banshee-data/lasview/internal/viewer"
)

// decodeBody decodes a JSON request body into dst. An empty body leaves
// dst at its zero value.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type createSessionRequest struct {
	Folder string `json:"folder,omitempty"`
}

type sessionResponse struct {
	Event *viewer.Event `json:"event,omitempty"`
	State viewer.State  `json:"state"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	sess := s.manager.Create()

	resp := sessionResponse{State: sess.State()}
	if req.Folder != "" {
		ev, err := s.manager.OpenFolder(sess, req.Folder)
		if err != nil {
			// The session survives a failed open; report both.
			httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
				"state": sess.State(),
				"error": err.Error(),
			})
			return
		}
		resp.Event = &ev
		resp.State = sess.State()
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, sess.State())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.manager.Delete(id) {
		httputil.NotFound(w, "unknown session "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type openFolderRequest struct {
	Path string `json:"path"`
}

func (s *Server) openFolder(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req openFolderRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Path == "" {
		httputil.BadRequest(w, "path is required")
		return
	}

	ev, err := s.manager.OpenFolder(sess, req.Path)
	if err != nil {
		if strings.Contains(err.Error(), "allowed roots") {
			httputil.Forbidden(w, err.Error())
			return
		}
		writeViewerError(w, err)
		return
	}
	httputil.WriteJSONOK(w, sessionResponse{Event: &ev, State: sess.State()})
}

type navigateRequest struct {
	Direction string `json:"direction"`
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req navigateRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	var ev viewer.Event
	var err error
	switch req.Direction {
	case "next":
		ev, err = sess.Next()
	case "previous":
		ev, err = sess.Previous()
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown direction %q (valid: next, previous)", req.Direction))
		return
	}
	if err != nil {
		writeViewerError(w, err)
		return
	}
	httputil.WriteJSONOK(w, ev)
}

type modeRequest struct {
	Mode string `json:"mode,omitempty"`
}

// changeMode toggles the color mode, or sets it explicitly when the body
// names one.
func (s *Server) changeMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req modeRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	var ev viewer.Event
	var err error
	if req.Mode == "" {
		ev, err = sess.ToggleColorMode()
	} else {
		var mode render.ColorMode
		mode, err = render.ParseColorMode(req.Mode)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		ev, err = sess.SetColorMode(mode)
	}
	if err != nil {
		writeViewerError(w, err)
		return
	}
	httputil.WriteJSONOK(w, ev)
}

type pickRequest struct {
	Index *int     `json:"index,omitempty"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Z     *float64 `json:"z,omitempty"`
}

func (s *Server) pick(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req pickRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	var ev viewer.Event
	var err error
	switch {
	case req.Index != nil:
		ev, err = sess.PickIndex(*req.Index)
	case req.X != nil && req.Y != nil && req.Z != nil:
		ev, err = sess.Pick(*req.X, *req.Y, *req.Z)
	default:
		httputil.BadRequest(w, "pick needs either an index or x, y and z coordinates")
		return
	}
	if err != nil {
		writeViewerError(w, err)
		return
	}
	httputil.WriteJSONOK(w, ev)
}

func (s *Server) measure(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	unit := r.URL.Query().Get("units")
	if unit == "" {
		unit = units.Meters
	}
	if !units.IsValid(unit) {
		httputil.BadRequest(w, fmt.Sprintf("invalid units %q (valid: %s)", unit, units.GetValidUnitsString()))
		return
	}

	// The second pick completes measurements immediately, so a bare
	// measure request reports the last completed one. With no selection
	// and nothing measured yet, the two-point error stands.
	ev, err := sess.MeasureZDistance()
	result := ev.Measurement
	if err != nil {
		if last := sess.State().LastMeasure; errors.Is(err, viewer.ErrNeedTwoPoints) && last != nil {
			result = last
		} else {
			writeViewerError(w, err)
			return
		}
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"measurement": result,
		"z_distance":  units.ConvertDistance(result.ZDistance, unit),
		"display":     units.FormatDistance(result.ZDistance, unit),
		"units":       unit,
	})
}

type copyRequest struct {
	What string `json:"what"`
}

func (s *Server) copyPayload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req copyRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	var ev viewer.Event
	var err error
	switch req.What {
	case "detection_id":
		ev, err = sess.CopyDetectionID()
	case "coordinates":
		ev, err = sess.CopyCoordinates()
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown copy target %q (valid: detection_id, coordinates)", req.What))
		return
	}
	if err != nil {
		writeViewerError(w, err)
		return
	}
	httputil.WriteJSONOK(w, ev)
}

func (s *Server) showClipboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	payload, ok := sess.LastClipboard()
	if !ok {
		httputil.NotFound(w, "nothing has been copied in this session")
		return
	}
	httputil.WriteText(w, http.StatusOK, payload)
}

type keyRequest struct {
	Key string `json:"key"`
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req keyRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Key == "" {
		httputil.BadRequest(w, "key is required")
		return
	}

	ev, err := sess.HandleKey(req.Key)
	if err != nil {
		writeViewerError(w, err)
		return
	}
	httputil.WriteJSONOK(w, ev)
}

func (s *Server) restart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ev := sess.Restart()
	httputil.WriteJSONOK(w, sessionResponse{Event: &ev, State: sess.State()})
}

type visibleRequest struct {
	Indices []int `json:"indices"`
	Clear   bool  `json:"clear,omitempty"`
}

func (s *Server) setVisible(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req visibleRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	var ev viewer.Event
	var err error
	if req.Clear {
		ev, err = sess.ClearVisible()
	} else {
		ev, err = sess.SetVisible(req.Indices)
	}
	if err != nil {
		writeViewerError(w, err)
		return
	}
	httputil.WriteJSONOK(w, ev)
}

// browseFolders lists the subfolders of an allowed root together with how
// many .las files each holds, a server-side stand-in for the desktop
// folder dialog.
func (s *Server) browseFolders(w http.ResponseWriter, r *http.Request) {
	root := r.URL.Query().Get("root")
	if root == "" {
		httputil.WriteJSONOK(w, map[string]interface{}{"roots": s.manager.Roots()})
		return
	}
	if err := security.ValidateFolderWithinRoots(root, s.manager.Roots()); err != nil {
		httputil.Forbidden(w, err.Error())
		return
	}

	entries, err := s.fsys.ReadDir(root)
	if err != nil {
		httputil.BadRequest(w, "failed to read folder: "+err.Error())
		return
	}

	type folderInfo struct {
		Path     string `json:"path"`
		LASFiles int    `json:"las_files"`
	}

	folders := []folderInfo{{Path: root, LASFiles: 0}}
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, folderInfo{Path: filepath.Join(root, entry.Name())})
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".las") {
			folders[0].LASFiles++
		}
	}
	for i := 1; i < len(folders); i++ {
		sub, err := s.fsys.ReadDir(folders[i].Path)
		if err != nil {
			continue
		}
		for _, entry := range sub {
			if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".las") {
				folders[i].LASFiles++
			}
		}
	}

	httputil.WriteJSONOK(w, map[string]interface{}{"folders": folders})
}

func (s *Server) listMeasurements(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httputil.BadRequest(w, "invalid limit: "+raw)
			return
		}
		limit = v
	}

	measurements, err := s.manager.Measurements(r.URL.Query().Get("detection_id"), limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"measurements": measurements})
}
