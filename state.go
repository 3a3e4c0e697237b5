package pagecap

// CaptureState identifies the lifecycle state of a capture session.
// Exactly one state exists per session at any instant; it is the single
// source of truth for which operations are currently valid.
type CaptureState string

// Capture session lifecycle states.
const (
	StateIdle      CaptureState = "idle"      // no active run; surface may or may not be attached
	StateReady     CaptureState = "ready"     // surface attached, no loop running
	StateCapturing CaptureState = "capturing" // capture loop active
	StatePaused    CaptureState = "paused"    // capture loop suspended
	StateCompleted CaptureState = "completed" // loop exhausted, frames awaiting save
)

// stateEdges defines the legal lifecycle transitions. A disconnect or a
// fatal loop error lands back on StateIdle from any state.
var stateEdges = map[CaptureState][]CaptureState{
	StateIdle:      {StateReady, StateIdle},
	StateReady:     {StateCapturing, StateReady, StateIdle},
	StateCapturing: {StatePaused, StateCompleted, StateIdle},
	StatePaused:    {StateCapturing, StateCompleted, StateIdle},
	StateCompleted: {StateIdle},
}

// CanBecome reports whether the edge from s to next is one of the defined
// lifecycle transitions.
func (s CaptureState) CanBecome(next CaptureState) bool {
	for _, edge := range stateEdges[s] {
		if edge == next {
			return true
		}
	}
	return false
}

// Active reports whether a capture loop currently owns the session.
func (s CaptureState) Active() bool {
	return s == StateCapturing || s == StatePaused
}
