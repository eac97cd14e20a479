package push

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a transcription listener.
type State int

const (
	// StateListening - results are accepted and forwarded.
	StateListening State = iota
	// StateStopped - the listener was stopped; late results are ignored.
	StateStopped
	// StateFailed - the provider reported an error; nothing further is
	// forwarded. A half-heard utterance is better lost than guessed.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateListening:
		return "LISTENING"
	case StateStopped:
		return "STOPPED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (STOPPED or FAILED).
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}

// Errors for results arriving outside the listening state.
var (
	ErrTranscriptionStopped = errors.New("transcription stopped")
	ErrTranscriptionFailed  = errors.New("transcription failed")
)

// Lifecycle guards a transcription listener against callbacks that arrive
// after it stopped or failed. Thread-safe for concurrent access.
//
// State transitions:
//
//	LISTENING ──Stop()──→ STOPPED
//	    │
//	    └──────Fail()──→ FAILED
type Lifecycle struct {
	mu         sync.RWMutex
	id         string
	state      State
	utterances int
}

// NewLifecycle creates a lifecycle in LISTENING state.
func NewLifecycle(id string) *Lifecycle {
	return &Lifecycle{id: id, state: StateListening}
}

// ID returns the listener id.
func (l *Lifecycle) ID() string {
	return l.id
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Utterances returns the number of finalized utterances.
func (l *Lifecycle) Utterances() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.utterances
}

// Accept reports whether an interim result may be forwarded.
func (l *Lifecycle) Accept() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.check()
}

// Finalize records a finalized utterance and returns its 1-based number.
func (l *Lifecycle) Finalize() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(); err != nil {
		return 0, err
	}
	l.utterances++
	return l.utterances, nil
}

func (l *Lifecycle) check() error {
	switch l.state {
	case StateListening:
		return nil
	case StateStopped:
		return ErrTranscriptionStopped
	case StateFailed:
		return ErrTranscriptionFailed
	default:
		return fmt.Errorf("unexpected state: %v", l.state)
	}
}

// Stop transitions to STOPPED unless already failed. Idempotent.
func (l *Lifecycle) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateListening {
		l.state = StateStopped
	}
}

// Fail transitions to FAILED. Returns false if already in a terminal state.
func (l *Lifecycle) Fail() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = StateFailed
	return true
}
