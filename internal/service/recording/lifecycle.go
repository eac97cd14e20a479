package recording

import (
	"errors"
	"fmt"
)

// State is the recording state of a session.
type State int

const (
	// StateIdle - no input stream is held; the transcript may be edited.
	StateIdle State = iota
	// StateRecording - audio is captured and the minute loop runs.
	StateRecording
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRecording:
		return "RECORDING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for invalid transitions.
var (
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("not recording")
)

// Lifecycle is the transition table of a session. Every Start opens a new
// generation; callbacks carry the generation they were wired with and are
// dropped once it is no longer the active one.
//
// State transitions:
//
//	IDLE ──begin()──→ RECORDING ──end()──→ IDLE
//	                      │
//	                      └──abort()──→ IDLE
//
// Lifecycle is not safe for concurrent use; Session guards it with its own
// mutex.
type Lifecycle struct {
	state      State
	generation uint64
}

// State returns the current state.
func (l *Lifecycle) State() State {
	return l.state
}

// Generation returns the generation opened by the last begin.
func (l *Lifecycle) Generation() uint64 {
	return l.generation
}

// Active reports whether gen is the generation currently recording.
func (l *Lifecycle) Active(gen uint64) bool {
	return l.state == StateRecording && l.generation == gen
}

func (l *Lifecycle) begin() (uint64, error) {
	if l.state == StateRecording {
		return 0, ErrAlreadyRecording
	}
	l.generation++
	l.state = StateRecording
	return l.generation, nil
}

func (l *Lifecycle) end() (uint64, error) {
	if l.state != StateRecording {
		return 0, ErrNotRecording
	}
	l.state = StateIdle
	return l.generation, nil
}

// abort returns to IDLE after a failed start of gen.
func (l *Lifecycle) abort(gen uint64) {
	if l.Active(gen) {
		l.state = StateIdle
	}
}
