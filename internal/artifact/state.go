package artifact

import (
	"errors"
	"strings"
)

// State represents the lifecycle of a session artifact.
type State string

const (
	StateIdle        State = "idle"
	StateGenerating  State = "generating"
	StatePreviewable State = "previewable"
	StateSent        State = "sent"
	StateFailed      State = "failed"
)

var allStates = []State{
	StateIdle,
	StateGenerating,
	StatePreviewable,
	StateSent,
	StateFailed,
}

// ParseState normalizes a state label.
func ParseState(raw string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(raw)))
	for _, state := range allStates {
		if state == normalized {
			return state, true
		}
	}
	return "", false
}

var (
	// ErrBusy is returned when a generation or send is already in flight.
	ErrBusy = errors.New("artifact: generation in progress")
	// ErrNotPreviewable is returned when no previewable artifact exists.
	ErrNotPreviewable = errors.New("artifact: no previewable artifact")
	// ErrClosed is returned after the session was torn down.
	ErrClosed = errors.New("artifact: session closed")
)
