package push

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"ai-interview-eval-service/internal/observability/metrics"
	"ai-interview-eval-service/internal/service/capture"
)

// recorder keeps each written frame as one chunk.
type recorder struct {
	stream  *Stream
	limit   int64
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu      sync.Mutex
	chunks  [][]byte
	size    int64
	stopped bool
	capped  bool
}

func (r *recorder) consume(_ context.Context, frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	if r.limit > 0 && r.size+int64(len(frame)) > r.limit {
		if !r.capped {
			r.capped = true
			r.metrics.RecordLimitExceeded("audio_bytes")
			r.logger.Warn().
				Int64("bufferedBytes", r.size).
				Int64("maxBytes", r.limit).
				Msg("Recording buffer full, dropping further audio")
		}
		return
	}
	r.chunks = append(r.chunks, bytes.Clone(frame))
	r.size += int64(len(frame))
}

// Stop detaches the recorder and joins the chunks into one blob.
func (r *recorder) Stop() ([]byte, error) {
	r.stream.detach(r)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return bytes.Join(r.chunks, nil), nil
}

// levelTap tracks the amplitude of the latest frame.
type levelTap struct {
	stream *Stream

	mu     sync.RWMutex
	level  capture.Level
	closed bool
}

func (t *levelTap) consume(_ context.Context, frame []byte) {
	lvl := measureLevel(frame)
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.level = lvl
	}
}

func (t *levelTap) Level() capture.Level {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.level
}

func (t *levelTap) Close() {
	t.stream.detach(t)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.level = capture.Level{}
}

// measureLevel reads frame as little-endian signed 16-bit mono PCM. A
// trailing odd byte is ignored.
func measureLevel(frame []byte) capture.Level {
	n := len(frame) / 2
	if n == 0 {
		return capture.Level{}
	}
	var sumSquares, peak float64
	for i := 0; i < n; i++ {
		v := float64(int16(binary.LittleEndian.Uint16(frame[2*i:]))) / 32768
		sumSquares += v * v
		peak = math.Max(peak, math.Abs(v))
	}
	return capture.Level{
		RMS:  math.Min(1, math.Sqrt(sumSquares/float64(n))),
		Peak: math.Min(1, peak),
	}
}
