// Package api exposes the viewer over HTTP: session lifecycle, folder
// navigation, color modes, picking and measurement, plus self-contained
// scatter and histogram views of the current cloud.
package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/lasview/internal/config"
	"github.com/banshee-data/lasview/internal/fsutil"
	"github.com/banshee-data/lasview/internal/httputil"
	"github.com/banshee-data/lasview/internal/render"
	"github.com/banshee-data/lasview/internal/version"
	"github.com/banshee-data/lasview/internal/viewer"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server routes viewer API requests to the session manager.
type Server struct {
	manager *viewer.Manager
	tuning  *config.TuningConfig
	fsys    fsutil.FileSystem
	started time.Time
}

// NewServer builds the HTTP surface over a session manager. A nil tuning
// config falls back to the compiled-in defaults.
func NewServer(manager *viewer.Manager, tuning *config.TuningConfig, fsys fsutil.FileSystem) *Server {
	if tuning == nil {
		tuning = config.DefaultTuningConfig()
	}
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	return &Server{
		manager: manager,
		tuning:  tuning,
		fsys:    fsys,
		started: time.Now(),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux wires every route. Method and path-parameter matching is done
// by the mux patterns; handlers only see well-formed requests.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", s.createSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.showSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.deleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/folder", s.openFolder)
	mux.HandleFunc("POST /api/sessions/{id}/navigate", s.navigate)
	mux.HandleFunc("POST /api/sessions/{id}/mode", s.changeMode)
	mux.HandleFunc("POST /api/sessions/{id}/pick", s.pick)
	mux.HandleFunc("POST /api/sessions/{id}/measure", s.measure)
	mux.HandleFunc("POST /api/sessions/{id}/copy", s.copyPayload)
	mux.HandleFunc("GET /api/sessions/{id}/clipboard", s.showClipboard)
	mux.HandleFunc("POST /api/sessions/{id}/keys", s.handleKey)
	mux.HandleFunc("POST /api/sessions/{id}/restart", s.restart)
	mux.HandleFunc("POST /api/sessions/{id}/visible", s.setVisible)
	mux.HandleFunc("GET /api/sessions/{id}/cloud", s.showCloud)
	mux.HandleFunc("GET /api/sessions/{id}/stats", s.showStats)

	mux.HandleFunc("GET /api/folders", s.browseFolders)
	mux.HandleFunc("GET /api/measurements", s.listMeasurements)

	mux.HandleFunc("GET /view/{id}", s.scatterView)
	mux.HandleFunc("GET /view/{id}/elevation.png", s.elevationHistogram)

	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("GET /api/status", s.status)

	return mux
}

// session resolves the {id} path parameter, writing a 404 when the
// session is unknown or expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*viewer.Session, bool) {
	id := r.PathValue("id")
	sess, ok := s.manager.Get(id)
	if !ok {
		httputil.NotFound(w, "unknown session "+id)
		return nil, false
	}
	return sess, true
}

// writeViewerError maps domain errors onto HTTP statuses: missing
// preconditions are 409, unusable inputs 422, everything else 400.
func writeViewerError(w http.ResponseWriter, err error) {
	var loadErr *viewer.LoadError
	switch {
	case errors.Is(err, viewer.ErrNoFolder), errors.Is(err, viewer.ErrNotReady):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, viewer.ErrNeedTwoPoints),
		errors.Is(err, viewer.ErrNoDetectionID),
		errors.Is(err, render.ErrNoColor),
		errors.As(err, &loadErr):
		httputil.UnprocessableEntity(w, err.Error())
	default:
		httputil.BadRequest(w, err.Error())
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":    "ok",
		"service":   "lasview",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// status reports uptime, build metadata and manager activity.
func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{
		"service":  "lasview",
		"version":  version.Version,
		"git_sha":  version.GitSHA,
		"uptime_s": int64(time.Since(s.started).Seconds()),
		"manager":  s.manager.Stats(),
	})
}
