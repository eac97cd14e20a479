// Package recording runs a live answer recording: it owns the transcript,
// the elapsed-time display and the per-minute scoring loop, and wires the
// capture sources for the lifetime of each take.
package recording

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-eval-service/internal/observability/logging"
	"ai-interview-eval-service/internal/observability/metrics"
	"ai-interview-eval-service/internal/scoring"
	"ai-interview-eval-service/internal/service/capture"
)

// Config controls the recording loop.
type Config struct {
	// MinuteWindow is the segmentation interval of the minute loop.
	MinuteWindow time.Duration
	// TickInterval drives the elapsed-time display.
	TickInterval time.Duration
	// MinSegmentWords is the word count a window must exceed to be scored.
	MinSegmentWords int
	// MaxDuration stops a recording automatically; 0 disables the limit.
	MaxDuration time.Duration
}

// DefaultConfig returns the standard one-minute loop.
func DefaultConfig() Config {
	return Config{
		MinuteWindow:    time.Minute,
		TickInterval:    time.Second,
		MinSegmentWords: 5,
	}
}

// Listener observes a session. Calls are made without the session lock
// held and may come from different goroutines. A listener must not call
// Stop or Close synchronously.
type Listener interface {
	OnStateChange(recordingID string, state State)
	OnTick(recordingID string, elapsedSecs int)
	OnTranscript(recordingID, final, interim string)
	OnMinuteScore(recordingID string, score scoring.MinuteScore)
}

// ListenerFuncs adapts optional functions to a Listener.
type ListenerFuncs struct {
	StateChange func(recordingID string, state State)
	Tick        func(recordingID string, elapsedSecs int)
	Transcript  func(recordingID, final, interim string)
	MinuteScore func(recordingID string, score scoring.MinuteScore)
}

func (f ListenerFuncs) OnStateChange(id string, state State) {
	if f.StateChange != nil {
		f.StateChange(id, state)
	}
}

func (f ListenerFuncs) OnTick(id string, elapsed int) {
	if f.Tick != nil {
		f.Tick(id, elapsed)
	}
}

func (f ListenerFuncs) OnTranscript(id, final, interim string) {
	if f.Transcript != nil {
		f.Transcript(id, final, interim)
	}
}

func (f ListenerFuncs) OnMinuteScore(id string, score scoring.MinuteScore) {
	if f.MinuteScore != nil {
		f.MinuteScore(id, score)
	}
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID           string                `json:"id"`
	State        string                `json:"state"`
	ElapsedSecs  int                   `json:"elapsedSecs"`
	Transcript   string                `json:"transcript"`
	Interim      string                `json:"interim"`
	Transcribing bool                  `json:"transcribing"`
	Level        capture.Level         `json:"level"`
	Minutes      []scoring.MinuteScore `json:"minutes"`
	Latest       *scoring.MinuteScore  `json:"latest,omitempty"`
	AudioBytes   int                   `json:"audioBytes"`
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithMetrics replaces the default metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithLogger replaces the recording-scoped logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// handles are the capture sources wired for one take.
type handles struct {
	stream        capture.Stream
	recorder      capture.Recorder
	tap           capture.LevelTap
	transcription capture.Transcription
}

// teardown stops every wired source, most recent first, and returns the
// finalized audio blob.
func (h handles) teardown(logger zerolog.Logger) []byte {
	var audio []byte
	if h.transcription != nil {
		if err := h.transcription.Stop(); err != nil {
			logger.Warn().Err(err).Msg("Failed to stop transcription")
		}
	}
	if h.recorder != nil {
		blob, err := h.recorder.Stop()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to finalize recording")
		}
		audio = blob
	}
	if h.tap != nil {
		h.tap.Close()
	}
	if h.stream != nil {
		if err := h.stream.Release(); err != nil {
			logger.Warn().Err(err).Msg("Failed to release input stream")
		}
	}
	return audio
}

// Session is one live recording. It is safe for concurrent use.
type Session struct {
	id      string
	device  capture.Device
	cfg     Config
	clock   Clock
	metrics *metrics.Metrics
	logger  zerolog.Logger

	lmu       sync.Mutex
	listeners map[int]Listener
	nextL     int

	mu           sync.Mutex
	lifecycle    Lifecycle
	final        string
	interim      string
	elapsed      int
	window       int
	snapshot     string
	minutes      []scoring.MinuteScore
	latest       *scoring.MinuteScore
	audio        []byte
	transcribing bool
	startedAt    time.Time
	h            handles
	cancel       context.CancelFunc
	done         chan struct{}
}

// New creates an idle session that captures from device.
func New(id string, device capture.Device, cfg Config, opts ...Option) *Session {
	def := DefaultConfig()
	if cfg.MinuteWindow <= 0 {
		cfg.MinuteWindow = def.MinuteWindow
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.MinSegmentWords < 0 {
		cfg.MinSegmentWords = def.MinSegmentWords
	}

	s := &Session{
		id:        id,
		device:    device,
		cfg:       cfg,
		clock:     RealClock(),
		metrics:   metrics.DefaultMetrics,
		logger:    logging.WithRecording(id, ""),
		listeners: make(map[int]Listener),
		minutes:   []scoring.MinuteScore{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the recording id.
func (s *Session) ID() string {
	return s.id
}

// Subscribe registers l and returns a function that removes it.
func (s *Session) Subscribe(l Listener) (unsubscribe func()) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	key := s.nextL
	s.nextL++
	s.listeners[key] = l
	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, key)
	}
}

func (s *Session) each(fn func(Listener)) {
	s.lmu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.lmu.Unlock()
	for _, l := range ls {
		fn(l)
	}
}

// Start acquires the input stream, wires the level tap, the chunked
// recorder and the transcription listener, and starts the tick and minute
// loops. A denied permission leaves the session idle. A missing
// transcription capability is not an error: the session records and the
// transcript is filled by manual entry.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	gen, err := s.lifecycle.begin()
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.final, s.interim, s.snapshot = "", "", ""
	s.elapsed, s.window = 0, 0
	s.minutes = []scoring.MinuteScore{}
	s.latest = nil
	s.audio = nil

	h, transcribing, runCtx, cancel, err := s.wire(ctx, gen)
	if err != nil {
		s.lifecycle.abort(gen)
		s.mu.Unlock()
		return err
	}

	s.h = h
	s.transcribing = transcribing
	s.startedAt = s.clock.Now()
	s.cancel = cancel
	s.done = make(chan struct{})
	tick := s.clock.NewTicker(s.cfg.TickInterval)
	minute := s.clock.NewTicker(s.cfg.MinuteWindow)
	go s.run(runCtx, gen, tick, minute, s.done)
	s.mu.Unlock()

	s.metrics.RecordRecordingStart(transcribing)
	s.logger.Info().Bool("transcribing", transcribing).Uint64("generation", gen).Msg("Recording started")
	s.each(func(l Listener) { l.OnStateChange(s.id, StateRecording) })
	return nil
}

// wire acquires and connects the capture sources. On failure everything
// already wired is torn down and the stream released.
func (s *Session) wire(ctx context.Context, gen uint64) (h handles, transcribing bool, runCtx context.Context, cancel context.CancelFunc, err error) {
	stream, err := s.device.AcquireInputStream(ctx)
	if err != nil {
		if errors.Is(err, capture.ErrPermissionDenied) {
			s.logger.Warn().Msg("Input permission denied, recording not started")
		}
		return handles{}, false, nil, nil, fmt.Errorf("acquire input stream: %w", err)
	}
	h.stream = stream

	// The take outlives the request that started it.
	runCtx, cancel = context.WithCancel(context.WithoutCancel(ctx))
	fail := func(what string, err error) (handles, bool, context.Context, context.CancelFunc, error) {
		cancel()
		h.teardown(s.logger)
		return handles{}, false, nil, nil, fmt.Errorf("%s: %w", what, err)
	}

	if h.tap, err = s.device.CreateLevelTap(stream); err != nil {
		return fail("create level tap", err)
	}
	if h.recorder, err = s.device.StartChunkedRecording(stream); err != nil {
		return fail("start recorder", err)
	}

	h.transcription, err = s.device.StartIncrementalTranscription(runCtx, stream, &sink{s: s, gen: gen})
	switch {
	case err == nil:
		transcribing = true
	case errors.Is(err, capture.ErrCapabilityMissing):
		s.logger.Warn().Err(err).Msg("Speech-to-text unavailable, transcript needs manual entry")
	default:
		return fail("start transcription", err)
	}
	return h, transcribing, runCtx, cancel, nil
}

func (s *Session) run(ctx context.Context, gen uint64, tick, minute Ticker, done chan struct{}) {
	defer close(done)
	defer tick.Stop()
	defer minute.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C():
			s.onTick(gen)
		case <-minute.C():
			s.onMinute(gen)
		}
	}
}

func (s *Session) onTick(gen uint64) {
	s.mu.Lock()
	if !s.lifecycle.Active(gen) {
		s.mu.Unlock()
		return
	}
	s.elapsed = int(s.clock.Now().Sub(s.startedAt) / time.Second)
	elapsed := s.elapsed
	s.mu.Unlock()

	s.each(func(l Listener) { l.OnTick(s.id, elapsed) })

	if s.cfg.MaxDuration > 0 && time.Duration(elapsed)*time.Second >= s.cfg.MaxDuration {
		s.metrics.RecordLimitExceeded("duration")
		s.logger.Warn().Int("elapsedSecs", elapsed).Dur("limit", s.cfg.MaxDuration).Msg("Recording duration limit reached, stopping")
		go func() {
			if err := s.stop(gen); err != nil && !errors.Is(err, ErrNotRecording) {
				s.logger.Error().Err(err).Msg("Failed to stop recording")
			}
		}()
	}
}

// onMinute scores the finalized text added since the previous window. A
// window with too few new words leaves a gap in the history.
func (s *Session) onMinute(gen uint64) {
	s.mu.Lock()
	if !s.lifecycle.Active(gen) {
		s.mu.Unlock()
		return
	}
	s.window++
	current := s.final
	segment := current
	if strings.HasPrefix(current, s.snapshot) {
		segment = current[len(s.snapshot):]
	}
	s.snapshot = current

	if scoring.WordCount(segment) <= s.cfg.MinSegmentWords {
		window := s.window
		s.mu.Unlock()
		s.metrics.RecordMinuteSkipped()
		s.logger.Debug().Int("minute", window).Msg("Minute window skipped, not enough speech")
		return
	}

	ms := scoring.ScoreMinute(segment, s.window)
	s.minutes = append(s.minutes, ms)
	latest := ms
	s.latest = &latest
	s.mu.Unlock()

	s.metrics.RecordMinuteScore(string(ms.Label), ms.Score)
	s.logger.Debug().
		Int("minute", ms.Minute).
		Int("score", ms.Score).
		Int("wpm", ms.WordsPerMinute).
		Msg("Minute scored")
	s.each(func(l Listener) { l.OnMinuteScore(s.id, ms) })
}

// Stop cancels both loops, stops the transcription listener and the
// recorder, and releases the input stream. Once Stop returns no tick fires
// and late transcription results are dropped.
func (s *Session) Stop() error {
	s.mu.Lock()
	gen := s.lifecycle.Generation()
	s.mu.Unlock()
	return s.stop(gen)
}

func (s *Session) stop(gen uint64) error {
	s.mu.Lock()
	if !s.lifecycle.Active(gen) {
		s.mu.Unlock()
		return ErrNotRecording
	}
	if _, err := s.lifecycle.end(); err != nil {
		s.mu.Unlock()
		return err
	}
	h, cancel, done := s.h, s.cancel, s.done
	s.h, s.cancel, s.done = handles{}, nil, nil
	s.interim = ""
	s.elapsed = int(s.clock.Now().Sub(s.startedAt) / time.Second)
	elapsed := s.elapsed
	s.mu.Unlock()

	cancel()
	<-done
	audio := h.teardown(s.logger)

	s.mu.Lock()
	if s.lifecycle.Generation() == gen {
		s.audio = audio
	}
	s.mu.Unlock()

	s.metrics.RecordRecordingStop(float64(elapsed))
	s.logger.Info().Int("elapsedSecs", elapsed).Int("audioBytes", len(audio)).Msg("Recording stopped")
	s.each(func(l Listener) { l.OnStateChange(s.id, StateIdle) })
	return nil
}

// Close stops a running recording and drops all listeners.
func (s *Session) Close() error {
	err := s.Stop()
	if errors.Is(err, ErrNotRecording) {
		err = nil
	}
	s.lmu.Lock()
	clear(s.listeners)
	s.lmu.Unlock()
	return err
}

// AppendText adds manually entered text as a finalized segment.
func (s *Session) AppendText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.mu.Lock()
	s.appendFinal(text)
	final, interim := s.final, s.interim
	s.mu.Unlock()
	s.each(func(l Listener) { l.OnTranscript(s.id, final, interim) })
}

// SetTranscript replaces the finalized transcript, e.g. after manual edits.
func (s *Session) SetTranscript(text string) {
	s.mu.Lock()
	s.final = strings.TrimSpace(text)
	final, interim := s.final, s.interim
	s.mu.Unlock()
	s.each(func(l Listener) { l.OnTranscript(s.id, final, interim) })
}

func (s *Session) appendFinal(text string) {
	if s.final == "" {
		s.final = text
		return
	}
	s.final += " " + text
}

// Analyse scores the finalized transcript in voice mode. It does not
// change the transcript or the minute history.
func (s *Session) Analyse(questionType string) (*scoring.Evaluation, error) {
	s.mu.Lock()
	text := s.final
	s.mu.Unlock()

	ev := scoring.Evaluate(text, questionType, scoring.Voice)
	if ev == nil {
		return nil, scoring.ErrInsufficientInput
	}
	return ev, nil
}

// State returns the recording state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle.State()
}

// Transcript returns the finalized transcript.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.final
}

// Minutes returns a copy of the minute history.
func (s *Session) Minutes() []scoring.MinuteScore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scoring.MinuteScore{}, s.minutes...)
}

// ElapsedSecs returns the elapsed recording time.
func (s *Session) ElapsedSecs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Audio returns the audio blob finalized by the last Stop.
func (s *Session) Audio() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:           s.id,
		State:        s.lifecycle.State().String(),
		ElapsedSecs:  s.elapsed,
		Transcript:   s.final,
		Interim:      s.interim,
		Transcribing: s.transcribing && s.lifecycle.State() == StateRecording,
		Minutes:      append([]scoring.MinuteScore{}, s.minutes...),
		AudioBytes:   len(s.audio),
	}
	if s.latest != nil {
		latest := *s.latest
		snap.Latest = &latest
	}
	if s.h.tap != nil {
		snap.Level = s.h.tap.Level()
	}
	return snap
}

// sink receives transcription results for one generation.
type sink struct {
	s   *Session
	gen uint64
}

func (k *sink) OnInterim(text string) {
	s := k.s
	s.mu.Lock()
	if !s.lifecycle.Active(k.gen) {
		s.mu.Unlock()
		return
	}
	s.interim = text
	final := s.final
	s.mu.Unlock()
	s.each(func(l Listener) { l.OnTranscript(s.id, final, text) })
}

func (k *sink) OnFinal(text string) {
	s := k.s
	s.mu.Lock()
	if !s.lifecycle.Active(k.gen) {
		s.mu.Unlock()
		return
	}
	s.interim = ""
	if t := strings.TrimSpace(text); t != "" {
		s.appendFinal(t)
	}
	final := s.final
	s.mu.Unlock()
	s.each(func(l Listener) { l.OnTranscript(s.id, final, "") })
}

func (k *sink) OnError(err error) {
	s := k.s
	s.mu.Lock()
	if !s.lifecycle.Active(k.gen) {
		s.mu.Unlock()
		return
	}
	s.transcribing = false
	s.interim = ""
	s.mu.Unlock()
	s.logger.Warn().Err(err).Msg("Transcription lost, transcript needs manual entry")
}
