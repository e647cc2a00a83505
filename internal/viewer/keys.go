package viewer

import "errors"

// Key names accepted by HandleKey. Arrow keys carry both the Qt-style and
// browser-style names so either client kind can forward events untouched.
const (
	KeyRight         = "Right"
	KeyArrowRight    = "ArrowRight"
	KeyLeft          = "Left"
	KeyArrowLeft     = "ArrowLeft"
	KeyToggleMode    = "t"
	KeyCopyDetection = "d"
	KeyCopyCoords    = "c"
	KeyMeasure       = "p"
	KeyRestart       = "r"
)

// HandleKey dispatches one keyboard event to the matching operation:
// Right/Left navigate, t toggles the color mode, d copies the detection
// ID, c copies coordinates, p measures (or arms a two-point pick when
// fewer than two points are selected), r restarts. Unknown keys report an
// unhandled event rather than an error so clients can forward every
// keypress blindly.
func (s *Session) HandleKey(key string) (Event, error) {
	switch key {
	case KeyRight, KeyArrowRight:
		return s.Next()
	case KeyLeft, KeyArrowLeft:
		return s.Previous()
	case KeyToggleMode, "T":
		return s.ToggleColorMode()
	case KeyCopyDetection:
		return s.CopyDetectionID()
	case KeyCopyCoords:
		return s.CopyCoordinates()
	case KeyMeasure:
		ev, err := s.MeasureZDistance()
		if errors.Is(err, ErrNeedTwoPoints) {
			return s.armMeasure(), nil
		}
		return ev, err
	case KeyRestart:
		return s.Restart(), nil
	default:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.eventLocked(EventUnhandled, "key '"+key+"' is not bound"), nil
	}
}

// armMeasure reports that a two-point pick is in progress. Any existing
// single selection is kept so the next pick completes the pair.
func (s *Session) armMeasure() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventLocked(EventMeasureArmed, MsgPickTwo)
}
