// Package stt defines the interface for Speech-to-Text adapters.
package stt

import "context"

// Provider names accepted by configuration.
const (
	ProviderMock   = "mock"
	ProviderGoogle = "google"
	ProviderNone   = "none"
)

// Callback receives transcript results from the STT provider.
type Callback interface {
	// OnPartial is called when an interim transcript is received. Each call
	// replaces the previous interim text.
	OnPartial(text string)

	// OnFinal is called when a finalized transcript segment is received.
	OnFinal(text string, confidence float64)

	// OnEndOfUtterance is called when the provider detects the speaker paused.
	OnEndOfUtterance()

	// OnError is called when an error occurs during transcription.
	OnError(err error)
}

// Adapter defines the interface for STT providers.
type Adapter interface {
	// Start begins a streaming transcription session.
	Start(ctx context.Context, cb Callback) error

	// SendAudio sends audio bytes to the STT provider.
	SendAudio(ctx context.Context, audio []byte) error

	// Close ends the session and releases resources.
	Close() error
}
