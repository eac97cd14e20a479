// Package mock provides a scripted STT adapter for running without cloud
// credentials. Each audio frame advances the current utterance by one
// partial; once the partials are exhausted the next frame emits the final
// text and an end-of-utterance, and the adapter moves on to the next
// scripted answer.
package mock

import (
	"context"
	"sync"
	"time"

	"ai-interview-eval-service/internal/service/stt"
)

// SimulatedUtterance represents a mock utterance with progressive transcripts.
type SimulatedUtterance struct {
	Partials   []string // Progressive partial transcripts
	Final      string   // Final transcript text
	Confidence float64  // Confidence score for final
}

// DefaultUtterances are fragments of a spoken interview answer.
var DefaultUtterances = []SimulatedUtterance{
	{
		Partials:   []string{"In my role", "In my role as a backend", "In my role as a backend engineer"},
		Final:      "In my role as a backend engineer at my previous company we had a latency problem",
		Confidence: 0.93,
	},
	{
		Partials:   []string{"My responsibility", "My responsibility was to"},
		Final:      "My responsibility was to um find the bottleneck before the holiday launch",
		Confidence: 0.88,
	},
	{
		Partials:   []string{"I decided", "I decided to profile", "I decided to profile every"},
		Final:      "I decided to profile every service and I implemented a caching layer",
		Confidence: 0.95,
	},
	{
		Partials:   []string{"I worked", "I worked closely with"},
		Final:      "I worked closely with the database team and basically we redesigned the queries",
		Confidence: 0.9,
	},
	{
		Partials:   []string{"As a result", "As a result we reduced"},
		Final:      "As a result we reduced latency by 40% and I was really proud of the team",
		Confidence: 0.96,
	},
}

// Adapter implements stt.Adapter with scripted responses.
type Adapter struct {
	cb           stt.Callback
	mu           sync.Mutex
	next         int                // Index of the next utterance to simulate
	utterance    SimulatedUtterance // Current utterance being simulated
	partialIndex int                // Next partial to send
	finalSent    bool               // Ensures only one final per utterance
	closed       bool
	delay        time.Duration
}

// utteranceCounter staggers the starting utterance across adapters.
var (
	utteranceCounter int
	counterMu        sync.Mutex
)

// New creates a new mock STT adapter.
func New() *Adapter {
	counterMu.Lock()
	idx := utteranceCounter % len(DefaultUtterances)
	utteranceCounter++
	counterMu.Unlock()

	return &Adapter{
		next:      (idx + 1) % len(DefaultUtterances),
		utterance: DefaultUtterances[idx],
		delay:     50 * time.Millisecond,
	}
}

// Start begins a mock transcription session.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = cb
	return nil
}

// SendAudio advances the simulation by one step.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.cb == nil {
		return nil
	}

	if a.partialIndex < len(a.utterance.Partials) {
		partial := a.utterance.Partials[a.partialIndex]
		a.partialIndex++
		go a.emit(func(cb stt.Callback) { cb.OnPartial(partial) })
		return nil
	}

	if !a.finalSent {
		a.finalSent = true
		utt := a.utterance
		go a.emit(func(cb stt.Callback) {
			cb.OnFinal(utt.Final, utt.Confidence)
			cb.OnEndOfUtterance()
		})
		return nil
	}

	// Previous utterance is complete; begin the next one.
	a.utterance = DefaultUtterances[a.next]
	a.next = (a.next + 1) % len(DefaultUtterances)
	a.partialIndex = 0
	a.finalSent = false
	return nil
}

// emit delivers a callback after the simulated processing delay unless the
// adapter was closed in the meantime.
func (a *Adapter) emit(fn func(cb stt.Callback)) {
	time.Sleep(a.delay)
	a.mu.Lock()
	cb := a.cb
	closed := a.closed
	a.mu.Unlock()
	if closed || cb == nil {
		return
	}
	fn(cb)
}

// Close ends the mock session. An utterance cut off mid-way is finalized
// with its full text, delivered asynchronously as a real provider would.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	if a.cb != nil && a.partialIndex > 0 && !a.finalSent {
		a.finalSent = true
		cb := a.cb
		utt := a.utterance
		delay := a.delay
		go func() {
			time.Sleep(delay)
			cb.OnFinal(utt.Final, utt.Confidence)
		}()
	}

	return nil
}
