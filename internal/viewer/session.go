// Package viewer owns the LAS viewer state machine: which folder is open,
// which file the cursor is on, the active color mode, picked points and
// Z-distance measurements. Sessions hold no pixels; thin clients render
// and the session answers every state question over the API.
package viewer

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lasview/internal/catalog"
	"github.com/banshee-data/lasview/internal/las"
	"github.com/banshee-data/lasview/internal/render"
	"github.com/banshee-data/lasview/internal/timeutil"
)

var (
	// ErrNoFolder is returned by operations that need an open folder.
	ErrNoFolder = errors.New("no folder is open")

	// ErrNotReady is returned while the current file is still loading.
	ErrNotReady = errors.New("file is still loading")

	// ErrNeedTwoPoints is returned when a measurement is requested with
	// fewer than two points selected.
	ErrNeedTwoPoints = errors.New("two points must be selected to measure")

	// ErrNoDetectionID carries the dialog text verbatim.
	ErrNoDetectionID = errors.New("Could not extract Detection ID from the file name.")
)

// LoadError reports that the current file could not be parsed. The reason
// is the user-facing message for the load failure.
type LoadError struct {
	File   string
	Reason string
}

func (e *LoadError) Error() string { return e.Reason }

// Options carries per-session behavior from the tuning file.
type Options struct {
	WrapNavigation  bool
	ZDisplayDivisor float64
	EyeDomeLighting bool
	Background      string
}

// FileState is one catalog entry plus its load outcome.
type FileState struct {
	Entry   catalog.FileEntry `json:"entry"`
	Loaded  bool              `json:"loaded"`
	LoadErr string            `json:"load_error,omitempty"`
}

// Session is one viewer's complete state. All methods are safe for
// concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	opts   Options
	clock  timeutil.Clock
	record func(catalog.Measurement)

	mu            sync.Mutex
	generation    int
	folder        *catalog.Folder
	files         []FileState
	clouds        []*las.Cloud
	index         int
	mode          render.ColorMode
	selection     []PickedPoint
	lastMeasure   *MeasurementResult
	lastClipboard string
	visible       []int
	loading       bool
	loaded        int
	lastTouched   time.Time
}

// NewSession builds an idle session. record receives every completed
// measurement and may be nil.
func NewSession(id string, opts Options, clock timeutil.Clock, record func(catalog.Measurement)) *Session {
	if opts.ZDisplayDivisor <= 0 {
		opts.ZDisplayDivisor = 100000
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	now := clock.Now()
	return &Session{
		ID:          id,
		CreatedAt:   now,
		opts:        opts,
		clock:       clock,
		record:      record,
		mode:        render.ColorByElevation,
		lastTouched: now,
	}
}

// Touch marks the session as recently used for TTL cleanup.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTouched = s.clock.Now()
}

// LastTouched returns the last keep-alive time.
func (s *Session) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouched
}

// SetFolder installs a scanned folder and resets the cursor to the first
// file. Clouds arrive later via AttachCloud; the returned generation ties
// those deliveries to this folder.
func (s *Session) SetFolder(folder *catalog.Folder) (Event, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.folder = folder
	s.files = make([]FileState, len(folder.Files))
	for i, entry := range folder.Files {
		s.files[i] = FileState{Entry: entry}
	}
	s.clouds = make([]*las.Cloud, len(folder.Files))
	s.index = 0
	s.selection = nil
	s.lastMeasure = nil
	s.visible = nil
	s.loading = true
	s.loaded = 0

	msg := fmt.Sprintf("Loaded folder %s (%d LAS files).", folder.Path, len(folder.Files))
	return s.eventLocked(EventFolderOpened, msg), s.generation
}

// AttachCloud delivers one background-loaded cloud (or its load error).
// Deliveries for a superseded folder generation are dropped and report
// false so the loader can stop.
func (s *Session) AttachCloud(generation, i int, cloud *las.Cloud, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || s.folder == nil || i < 0 || i >= len(s.files) {
		return false
	}

	s.files[i].Loaded = true
	s.files[i].LoadErr = loadErrorText(err)
	s.clouds[i] = cloud
	s.loaded++
	if s.loaded == len(s.files) {
		s.loading = false
	}
	return true
}

func loadErrorText(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, las.ErrNoPoints) {
		return MsgNoPoints
	}
	return err.Error()
}

// Progress reports background load completion, 0-100.
func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

func (s *Session) progressLocked() int {
	if len(s.files) == 0 {
		return 0
	}
	return s.loaded * 100 / len(s.files)
}

// Next moves the cursor to the following file. At the last file it stays
// put and reports the boundary dialog, unless wrap navigation is on.
// With overlays visible, navigation continues from the highest one.
func (s *Session) Next() (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.folder == nil {
		return Event{}, ErrNoFolder
	}

	from := s.index
	if len(s.visible) > 0 {
		from = s.visible[len(s.visible)-1]
	}
	if from >= len(s.files)-1 {
		if !s.opts.WrapNavigation {
			return s.eventLocked(EventAtEnd, MsgLastFile), nil
		}
		s.moveToLocked(0)
		return s.eventLocked(EventFileChanged, ""), nil
	}
	s.moveToLocked(from + 1)
	return s.eventLocked(EventFileChanged, ""), nil
}

// Previous moves the cursor to the preceding file, clamping at the first
// with its boundary dialog unless wrap navigation is on.
func (s *Session) Previous() (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.folder == nil {
		return Event{}, ErrNoFolder
	}

	from := s.index
	if len(s.visible) > 0 {
		from = s.visible[0]
	}
	if from <= 0 {
		if !s.opts.WrapNavigation {
			return s.eventLocked(EventAtStart, MsgFirstFile), nil
		}
		s.moveToLocked(len(s.files) - 1)
		return s.eventLocked(EventFileChanged, ""), nil
	}
	s.moveToLocked(from - 1)
	return s.eventLocked(EventFileChanged, ""), nil
}

// moveToLocked repositions the cursor. Navigation collapses any overlay
// set and clears the point selection.
func (s *Session) moveToLocked(i int) {
	s.index = i
	s.visible = nil
	s.selection = nil
}

// ToggleColorMode advances the color mode cycle. RGB is skipped when the
// current cloud carries no color channels, so two toggles return to the
// starting mode on colorless files.
func (s *Session) ToggleColorMode() (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hasColor := false
	if cloud := s.currentCloudLocked(); cloud != nil {
		hasColor = cloud.HasColor()
	}
	s.mode = s.mode.Next(hasColor)
	return s.eventLocked(EventModeChanged, ""), nil
}

// SetColorMode sets an explicit mode. Asking for rgb on a colorless cloud
// is an error; the mode is left unchanged.
func (s *Session) SetColorMode(mode render.ColorMode) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == render.ColorByRGB {
		cloud := s.currentCloudLocked()
		if cloud == nil || !cloud.HasColor() {
			return Event{}, render.ErrNoColor
		}
	}
	s.mode = mode
	return s.eventLocked(EventModeChanged, ""), nil
}

// Mode returns the active color mode.
func (s *Session) Mode() render.ColorMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Pick selects the point nearest to the given real-world coordinates in
// the current cloud. The second pick completes a measurement immediately.
func (s *Session) Pick(x, y, z float64) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cloud, err := s.currentCloudErrLocked()
	if err != nil {
		return Event{}, err
	}
	return s.pickIndexLocked(cloud, nearestPoint(cloud, x, y, z))
}

// PickIndex selects a point by its index in the current cloud.
func (s *Session) PickIndex(i int) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cloud, err := s.currentCloudErrLocked()
	if err != nil {
		return Event{}, err
	}
	if i < 0 || i >= cloud.Len() {
		return Event{}, fmt.Errorf("point index %d out of range (cloud has %d points)", i, cloud.Len())
	}
	return s.pickIndexLocked(cloud, i)
}

func (s *Session) pickIndexLocked(cloud *las.Cloud, i int) (Event, error) {
	p := PickedPoint{
		Index:    i,
		X:        cloud.X[i],
		Y:        cloud.Y[i],
		Z:        cloud.Z[i],
		DisplayZ: cloud.Z[i] / s.opts.ZDisplayDivisor,
	}
	s.selection = append(s.selection, p)

	if len(s.selection) < 2 {
		return s.eventLocked(EventPointPicked, "Pick a second point to measure Z-distance."), nil
	}
	return s.measureLocked()
}

// nearestPoint finds the index of the point closest to (x, y, z) by
// squared euclidean distance.
func nearestPoint(cloud *las.Cloud, x, y, z float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for i := 0; i < cloud.Len(); i++ {
		dx := cloud.X[i] - x
		dy := cloud.Y[i] - y
		dz := cloud.Z[i] - z
		d := dx*dx + dy*dy + dz*dz
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// MeasureZDistance computes |z2-z1| between the two selected points.
// Fewer than two selected points is an error and computes nothing.
func (s *Session) MeasureZDistance() (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.folder == nil {
		return Event{}, ErrNoFolder
	}
	return s.measureLocked()
}

func (s *Session) measureLocked() (Event, error) {
	if len(s.selection) != 2 {
		return Event{}, ErrNeedTwoPoints
	}

	first, second := s.selection[0], s.selection[1]
	zd := math.Round(math.Abs(second.Z-first.Z)*1000) / 1000
	result := &MeasurementResult{
		ZDistance: zd,
		Text:      fmt.Sprintf("Z-distance: %.1f", zd),
		First:     first,
		Second:    second,
	}
	s.lastMeasure = result
	s.selection = nil

	if s.record != nil {
		entry := s.currentEntryLocked()
		s.record(catalog.Measurement{
			SessionID:   s.ID,
			DetectionID: entry.DetectionID,
			FilePath:    entry.Path,
			ZDistance:   zd,
			X1:          first.X,
			Y1:          first.Y,
			Z1:          first.Z,
			X2:          second.X,
			Y2:          second.Y,
			Z2:          second.Z,
		})
	}

	ev := s.eventLocked(EventMeasured, result.Text)
	ev.Measurement = result
	return ev, nil
}

// CopyDetectionID returns the current file's detection ID as a clipboard
// payload. Files without the Detection_<id>.las pattern are an error and
// leave the last payload unchanged.
func (s *Session) CopyDetectionID() (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.folder == nil {
		return Event{}, ErrNoFolder
	}

	id := s.currentEntryLocked().DetectionID
	if id == "" {
		return Event{}, ErrNoDetectionID
	}

	s.lastClipboard = id
	ev := s.eventLocked(EventCopied, fmt.Sprintf("Detection ID '%s' copied to clipboard.", id))
	ev.Clipboard = id
	return ev, nil
}

// CopyCoordinates returns "<mean Y>, <mean X>" of the current cloud as a
// clipboard payload, Y before X in lat/lon order. A cloud with
// no points yields the "No points available." payload.
func (s *Session) CopyCoordinates() (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cloud, err := s.currentCloudErrLocked()
	if err != nil {
		return Event{}, err
	}

	payload := MsgNoneAvail
	if cloud.Len() > 0 {
		payload = fmt.Sprintf("%.6f, %.6f", stat.Mean(cloud.Y, nil), stat.Mean(cloud.X, nil))
	}

	s.lastClipboard = payload
	ev := s.eventLocked(EventCopied, fmt.Sprintf("Coordinates '%s' copied to clipboard.", payload))
	ev.Clipboard = payload
	return ev, nil
}

// LastClipboard returns the most recent copy payload.
func (s *Session) LastClipboard() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastClipboard, s.lastClipboard != ""
}

// SetVisible overlays the given file indexes on the view in addition to
// the cursor file. Indexes are deduplicated and kept sorted.
func (s *Session) SetVisible(indices []int) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.folder == nil {
		return Event{}, ErrNoFolder
	}

	seen := make(map[int]bool, len(indices))
	visible := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(s.files) {
			return Event{}, fmt.Errorf("file index %d out of range (folder has %d files)", i, len(s.files))
		}
		if !seen[i] {
			seen[i] = true
			visible = append(visible, i)
		}
	}
	sort.Ints(visible)
	s.visible = visible
	return s.eventLocked(EventVisibility, ""), nil
}

// ClearVisible drops all overlays, leaving only the cursor file visible.
func (s *Session) ClearVisible() (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.folder == nil {
		return Event{}, ErrNoFolder
	}
	s.visible = nil
	return s.eventLocked(EventVisibility, ""), nil
}

// Restart discards the folder, file list, cursor, selection and
// measurement, returning the session to the idle no-folder state. The
// color mode and last clipboard payload survive, like an OS clipboard
// would.
func (s *Session) Restart() Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.folder = nil
	s.files = nil
	s.clouds = nil
	s.index = 0
	s.selection = nil
	s.lastMeasure = nil
	s.visible = nil
	s.loading = false
	s.loaded = 0

	return s.eventLocked(EventRestarted, MsgSelectFolder)
}

// CurrentCloud returns the cursor file's parsed cloud. It errors while
// idle, while the file is still loading (ErrNotReady), and when the file
// failed to parse (LoadError with the user-facing reason).
func (s *Session) CurrentCloud() (*las.Cloud, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentCloudErrLocked()
}

// NamedCloud pairs a cloud with the file it came from, for multi-file
// scatter views.
type NamedCloud struct {
	Index int
	Name  string
	Cloud *las.Cloud
}

// VisibleClouds returns the cursor file's cloud plus any loaded overlay
// clouds. Overlays that failed to load are skipped; the cursor file's
// errors are reported.
func (s *Session) VisibleClouds() ([]NamedCloud, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cloud, err := s.currentCloudErrLocked()
	if err != nil {
		return nil, err
	}

	clouds := []NamedCloud{{Index: s.index, Name: s.files[s.index].Entry.Name, Cloud: cloud}}
	for _, i := range s.visible {
		if i == s.index || s.clouds[i] == nil || s.files[i].LoadErr != "" {
			continue
		}
		clouds = append(clouds, NamedCloud{Index: i, Name: s.files[i].Entry.Name, Cloud: s.clouds[i]})
	}
	return clouds, nil
}

// CurrentEntry returns the catalog entry under the cursor.
func (s *Session) CurrentEntry() (catalog.FileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.folder == nil {
		return catalog.FileEntry{}, ErrNoFolder
	}
	return s.currentEntryLocked(), nil
}

func (s *Session) currentEntryLocked() catalog.FileEntry {
	if s.folder == nil || s.index >= len(s.files) {
		return catalog.FileEntry{}
	}
	return s.files[s.index].Entry
}

func (s *Session) currentCloudLocked() *las.Cloud {
	if s.folder == nil || s.index >= len(s.clouds) {
		return nil
	}
	return s.clouds[s.index]
}

func (s *Session) currentCloudErrLocked() (*las.Cloud, error) {
	if s.folder == nil {
		return nil, ErrNoFolder
	}
	state := s.files[s.index]
	if !state.Loaded {
		return nil, fmt.Errorf("%w (%d%% complete)", ErrNotReady, s.progressLocked())
	}
	if state.LoadErr != "" {
		return nil, &LoadError{File: state.Entry.Name, Reason: state.LoadErr}
	}
	return s.clouds[s.index], nil
}

func (s *Session) eventLocked(kind, message string) Event {
	ev := Event{
		Kind:    kind,
		Message: message,
		Index:   s.index,
		Mode:    s.mode.String(),
	}
	if s.folder != nil && s.index < len(s.files) {
		ev.File = s.files[s.index].Entry.Name
	}
	if len(s.selection) > 0 {
		ev.Selection = append([]PickedPoint(nil), s.selection...)
	}
	return ev
}

// RenderHints are client-side rendering preferences forwarded with the
// session state.
type RenderHints struct {
	EyeDomeLighting bool    `json:"eye_dome_lighting"`
	Background      string  `json:"background"`
	ZDisplayDivisor float64 `json:"z_display_divisor"`
}

// State is a full JSON snapshot of the session.
type State struct {
	ID            string             `json:"id"`
	Folder        string             `json:"folder,omitempty"`
	Files         []FileState        `json:"files,omitempty"`
	Index         int                `json:"index"`
	Mode          string             `json:"mode"`
	Selection     []PickedPoint      `json:"selection,omitempty"`
	LastMeasure   *MeasurementResult `json:"last_measurement,omitempty"`
	LastClipboard string             `json:"last_clipboard,omitempty"`
	Visible       []int              `json:"visible,omitempty"`
	Loading       bool               `json:"loading"`
	Progress      int                `json:"progress"`
	Render        RenderHints        `json:"render"`
	CreatedAt     time.Time          `json:"created_at"`
}

// State snapshots the whole session for clients.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:            s.ID,
		Index:         s.index,
		Mode:          s.mode.String(),
		LastMeasure:   s.lastMeasure,
		LastClipboard: s.lastClipboard,
		Loading:       s.loading,
		Progress:      s.progressLocked(),
		CreatedAt:     s.CreatedAt,
		Render: RenderHints{
			EyeDomeLighting: s.opts.EyeDomeLighting,
			Background:      s.opts.Background,
			ZDisplayDivisor: s.opts.ZDisplayDivisor,
		},
	}
	if s.folder != nil {
		st.Folder = s.folder.Path
		st.Files = append([]FileState(nil), s.files...)
	}
	if len(s.selection) > 0 {
		st.Selection = append([]PickedPoint(nil), s.selection...)
	}
	if len(s.visible) > 0 {
		st.Visible = append([]int(nil), s.visible...)
	}
	return st
}
