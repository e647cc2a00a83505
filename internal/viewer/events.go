package viewer

// Event kinds reported by session operations.
const (
	EventFolderOpened   = "folder_opened"
	EventFileChanged    = "file_changed"
	EventAtStart        = "at_start"
	EventAtEnd          = "at_end"
	EventModeChanged    = "mode_changed"
	EventPointPicked    = "point_picked"
	EventMeasureArmed   = "measure_armed"
	EventMeasured       = "measured"
	EventCopied         = "copied"
	EventRestarted      = "restarted"
	EventVisibility     = "visibility_changed"
	EventCloseRequested = "close_requested"
	EventUnhandled      = "unhandled"
)

// Dialog texts shown by the desktop viewer, kept verbatim so clients can
// display them unchanged.
const (
	MsgLastFile     = "This is the last LAS file."
	MsgFirstFile    = "This is the first LAS file."
	MsgNoPoints     = "No points found in the LAS file."
	MsgNoneAvail    = "No points available."
	MsgSelectFolder = "Select Folder Containing LAS Files"
	MsgPickTwo      = "Pick two points to measure Z-distance."
)

// Event describes the outcome of one viewer operation so thin clients can
// update without re-fetching the whole session.
type Event struct {
	Kind        string             `json:"kind"`
	Message     string             `json:"message,omitempty"`
	Index       int                `json:"index"`
	File        string             `json:"file,omitempty"`
	Mode        string             `json:"mode"`
	Selection   []PickedPoint      `json:"selection,omitempty"`
	Measurement *MeasurementResult `json:"measurement,omitempty"`
	Clipboard   string             `json:"clipboard,omitempty"`
}

// PickedPoint is one selected point in real coordinates, plus the
// flattened Z the viewer displays.
type PickedPoint struct {
	Index    int     `json:"index"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	DisplayZ float64 `json:"display_z"`
}

// MeasurementResult is a completed two-point Z-distance measurement.
// ZDistance is |z2-z1| on real coordinates, rounded to millimeters; Text
// renders it the way the measurement dialog does.
type MeasurementResult struct {
	ZDistance float64     `json:"z_distance"`
	Text      string      `json:"text"`
	First     PickedPoint `json:"first"`
	Second    PickedPoint `json:"second"`
}
