package push

import (
	"context"

	"github.com/rs/zerolog"

	"ai-interview-eval-service/internal/observability/metrics"
	"ai-interview-eval-service/internal/service/capture"
	"ai-interview-eval-service/internal/service/stt"
)

// bridge feeds stream frames to an STT adapter and relays its results to a
// transcript sink. It implements stt.Callback and capture.Transcription.
type bridge struct {
	adapter   stt.Adapter
	sink      capture.TranscriptSink
	lifecycle *Lifecycle
	provider  string
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	stream    *Stream
}

func (b *bridge) consume(ctx context.Context, frame []byte) {
	if b.lifecycle.State().IsTerminal() {
		return
	}
	if err := b.adapter.SendAudio(ctx, frame); err != nil {
		b.metrics.RecordSTTError(b.provider, "send")
		b.logger.Warn().Err(err).Msg("Failed to send audio to STT")
	}
}

// Stop stops forwarding and closes the adapter. Results the provider still
// delivers afterwards are dropped.
func (b *bridge) Stop() error {
	b.lifecycle.Stop()
	b.stream.detach(b)
	return b.adapter.Close()
}

// --- stt.Callback implementation ---

func (b *bridge) OnPartial(text string) {
	if err := b.lifecycle.Accept(); err != nil {
		b.logger.Debug().Err(err).Str("state", b.lifecycle.State().String()).Msg("Interim transcript ignored")
		return
	}
	b.metrics.RecordPartialTranscript()
	b.sink.OnInterim(text)
}

func (b *bridge) OnFinal(text string, confidence float64) {
	n, err := b.lifecycle.Finalize()
	if err != nil {
		b.logger.Debug().Err(err).Str("state", b.lifecycle.State().String()).Msg("Final transcript ignored")
		return
	}
	b.metrics.RecordFinalTranscript()
	b.logger.Debug().
		Int("utterance", n).
		Float64("confidence", confidence).
		Msg("Final transcript")
	b.sink.OnFinal(text)
}

func (b *bridge) OnEndOfUtterance() {
	if b.lifecycle.State().IsTerminal() {
		return
	}
	b.metrics.RecordUtterance()
}

func (b *bridge) OnError(err error) {
	if !b.lifecycle.Fail() {
		return
	}
	b.metrics.RecordSTTError(b.provider, "stream")
	b.logger.Error().Err(err).Str("listener", b.lifecycle.ID()).Msg("STT error, transcription stopped")
	b.sink.OnError(err)
}
