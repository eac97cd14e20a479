// Package capture abstracts the audio input capabilities a live recording
// needs: a permissioned input stream, a chunked recorder over it, a level
// tap for metering and an incremental speech-to-text listener.
package capture

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied is returned by AcquireInputStream when the user
	// refused access to the input device.
	ErrPermissionDenied = errors.New("input device permission denied")

	// ErrCapabilityMissing is returned by StartIncrementalTranscription when
	// no speech-to-text provider is available. Callers fall back to manual
	// transcript entry.
	ErrCapabilityMissing = errors.New("speech-to-text capability missing")
)

// Stream is an acquired audio input. Release frees the underlying handle and
// is safe to call more than once.
type Stream interface {
	ID() string
	Release() error
}

// Recorder buffers binary chunks of a stream until stopped.
type Recorder interface {
	// Stop halts recording and returns the finalized audio blob.
	Stop() ([]byte, error)
}

// Level is one amplitude reading, both values in [0,1].
type Level struct {
	RMS  float64 `json:"rms"`
	Peak float64 `json:"peak"`
}

// LevelTap meters a stream for visualization.
type LevelTap interface {
	Level() Level
	Close()
}

// TranscriptSink receives incremental transcription results. Interim text
// always replaces the previous interim; final text is appended.
type TranscriptSink interface {
	OnInterim(text string)
	OnFinal(text string)
	OnError(err error)
}

// Transcription is a running speech-to-text listener.
type Transcription interface {
	Stop() error
}

// Device provides the capture capabilities for one recording.
type Device interface {
	AcquireInputStream(ctx context.Context) (Stream, error)
	StartChunkedRecording(s Stream) (Recorder, error)
	CreateLevelTap(s Stream) (LevelTap, error)
	StartIncrementalTranscription(ctx context.Context, s Stream, sink TranscriptSink) (Transcription, error)
}
