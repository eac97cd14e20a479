// Package push implements the capture capabilities over audio frames pushed
// by a client. Frames written to the acquired stream fan out to the chunked
// recorder, the level tap and the speech-to-text bridge.
package push

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"ai-interview-eval-service/internal/observability/logging"
	"ai-interview-eval-service/internal/observability/metrics"
	"ai-interview-eval-service/internal/service/capture"
	"ai-interview-eval-service/internal/service/stt"
)

// ErrNoStream is returned by Write when no input stream is acquired.
var ErrNoStream = errors.New("no input stream acquired")

// AdapterFactory opens a new STT adapter for one transcription.
type AdapterFactory func(ctx context.Context) (stt.Adapter, error)

// Config holds the per-recording capture settings.
type Config struct {
	// Permission is the client's answer to the input-device prompt.
	Permission bool
	// Provider names the STT provider for logs and metrics.
	Provider string
	// NewAdapter opens the STT adapter. Nil means no speech-to-text.
	NewAdapter AdapterFactory
	// MaxAudioBytes caps the recorder buffer; 0 is unlimited.
	MaxAudioBytes int64
	Metrics       *metrics.Metrics
}

// Device implements capture.Device for one recording.
type Device struct {
	cfg         Config
	recordingID string
	logger      zerolog.Logger
	streams     atomic.Uint64

	mu     sync.Mutex
	stream *Stream
}

var _ capture.Device = (*Device)(nil)

// New creates a push device for recordingID.
func New(recordingID string, cfg Config) *Device {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.DefaultMetrics
	}
	return &Device{
		cfg:         cfg,
		recordingID: recordingID,
		logger:      logging.WithStream(recordingID, cfg.Provider),
	}
}

// AcquireInputStream opens the input stream if the client granted
// permission.
func (d *Device) AcquireInputStream(ctx context.Context) (capture.Stream, error) {
	if !d.cfg.Permission {
		d.cfg.Metrics.RecordPermissionDenied()
		return nil, capture.ErrPermissionDenied
	}

	n := d.streams.Add(1)
	s := &Stream{id: fmt.Sprintf("%s-in-%d", d.recordingID, n), device: d}

	d.mu.Lock()
	old := d.stream
	d.stream = s
	d.mu.Unlock()

	if old != nil {
		_ = old.release()
	}
	return s, nil
}

// Write pushes one PCM16 frame into the acquired stream.
func (d *Device) Write(ctx context.Context, frame []byte) error {
	d.mu.Lock()
	s := d.stream
	d.mu.Unlock()
	if s == nil {
		return ErrNoStream
	}
	d.cfg.Metrics.RecordAudioReceived(len(frame))
	return s.write(ctx, frame)
}

// StartChunkedRecording buffers every frame written to s.
func (d *Device) StartChunkedRecording(s capture.Stream) (capture.Recorder, error) {
	ps, err := d.own(s)
	if err != nil {
		return nil, err
	}
	r := &recorder{stream: ps, limit: d.cfg.MaxAudioBytes, metrics: d.cfg.Metrics, logger: d.logger}
	if err := ps.attach(r); err != nil {
		return nil, err
	}
	return r, nil
}

// CreateLevelTap meters frames written to s.
func (d *Device) CreateLevelTap(s capture.Stream) (capture.LevelTap, error) {
	ps, err := d.own(s)
	if err != nil {
		return nil, err
	}
	t := &levelTap{stream: ps}
	if err := ps.attach(t); err != nil {
		return nil, err
	}
	return t, nil
}

// StartIncrementalTranscription opens an STT adapter fed from s. Without a
// provider, or when the provider cannot be opened, it returns
// capture.ErrCapabilityMissing.
func (d *Device) StartIncrementalTranscription(ctx context.Context, s capture.Stream, sink capture.TranscriptSink) (capture.Transcription, error) {
	ps, err := d.own(s)
	if err != nil {
		return nil, err
	}
	if d.cfg.NewAdapter == nil {
		return nil, capture.ErrCapabilityMissing
	}

	adapter, err := d.cfg.NewAdapter(ctx)
	if err != nil {
		d.cfg.Metrics.RecordSTTError(d.cfg.Provider, "connect")
		return nil, fmt.Errorf("%w: %v", capture.ErrCapabilityMissing, err)
	}

	b := &bridge{
		adapter:   adapter,
		sink:      sink,
		lifecycle: NewLifecycle(ps.id + "-stt"),
		provider:  d.cfg.Provider,
		metrics:   d.cfg.Metrics,
		logger:    d.logger,
		stream:    ps,
	}
	if err := adapter.Start(ctx, b); err != nil {
		_ = adapter.Close()
		d.cfg.Metrics.RecordSTTError(d.cfg.Provider, "start")
		return nil, fmt.Errorf("%w: %v", capture.ErrCapabilityMissing, err)
	}
	if err := ps.attach(b); err != nil {
		b.lifecycle.Stop()
		_ = adapter.Close()
		return nil, err
	}
	return b, nil
}

func (d *Device) own(s capture.Stream) (*Stream, error) {
	ps, ok := s.(*Stream)
	if !ok || ps.device != d {
		return nil, fmt.Errorf("stream %s was not acquired from this device", s.ID())
	}
	return ps, nil
}

func (d *Device) released(s *Stream) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == s {
		d.stream = nil
	}
}
