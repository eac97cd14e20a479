package recording

import (
	"errors"
	"testing"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "IDLE"},
		{StateRecording, "RECORDING"},
		{State(7), "UNKNOWN(7)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_Transitions(t *testing.T) {
	var l Lifecycle

	if l.State() != StateIdle {
		t.Fatalf("expected IDLE, got %v", l.State())
	}
	if _, err := l.end(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("expected ErrNotRecording, got %v", err)
	}

	gen, err := l.begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if gen != 1 {
		t.Errorf("expected generation 1, got %d", gen)
	}
	if !l.Active(gen) {
		t.Error("expected generation to be active")
	}
	if _, err := l.begin(); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("expected ErrAlreadyRecording, got %v", err)
	}

	if _, err := l.end(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if l.Active(gen) {
		t.Error("expected generation inactive after end")
	}

	next, _ := l.begin()
	if next != 2 {
		t.Errorf("expected generation 2, got %d", next)
	}
	if l.Active(gen) {
		t.Error("previous generation must stay inactive")
	}
}

func TestLifecycle_AbortOnlyCurrentGeneration(t *testing.T) {
	var l Lifecycle

	gen, _ := l.begin()
	l.abort(gen + 1)
	if l.State() != StateRecording {
		t.Error("abort of a stale generation must not change state")
	}
	l.abort(gen)
	if l.State() != StateIdle {
		t.Errorf("expected IDLE after abort, got %v", l.State())
	}
}
