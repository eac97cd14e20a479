package google

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc"
)

// fakeStream replays queued responses, then returns end.
type fakeStream struct {
	grpc.ClientStream

	mu         sync.Mutex
	responses  []*speechpb.StreamingRecognizeResponse
	end        error
	sent       []*speechpb.StreamingRecognizeRequest
	closeSends int
}

func (f *fakeStream) Send(req *speechpb.StreamingRecognizeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeStream) Recv() (*speechpb.StreamingRecognizeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil, f.end
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeStream) CloseSend() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeSends++
	return nil
}

type recordedCallback struct {
	partials []string
	finals   []string
	ends     int
	errs     []error
}

func (c *recordedCallback) OnPartial(text string)          { c.partials = append(c.partials, text) }
func (c *recordedCallback) OnFinal(text string, _ float64) { c.finals = append(c.finals, text) }
func (c *recordedCallback) OnEndOfUtterance()              { c.ends++ }
func (c *recordedCallback) OnError(err error)              { c.errs = append(c.errs, err) }

func result(text string, final bool) *speechpb.StreamingRecognitionResult {
	return &speechpb.StreamingRecognitionResult{
		IsFinal:      final,
		Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: text, Confidence: 0.9}},
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LanguageCode != "en-US" || cfg.SampleRateHz != 8000 || !cfg.InterimResults || cfg.AudioEncoding != "LINEAR16" {
		t.Errorf("unexpected default config %+v", cfg)
	}
}

func TestParseAudioEncoding(t *testing.T) {
	tests := []struct {
		input    string
		expected speechpb.RecognitionConfig_AudioEncoding
	}{
		{"LINEAR16", speechpb.RecognitionConfig_LINEAR16},
		{"MULAW", speechpb.RecognitionConfig_MULAW},
		{"FLAC", speechpb.RecognitionConfig_FLAC},
		{"AMR_WB", speechpb.RecognitionConfig_AMR_WB},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS},
		{"WEBM_OPUS", speechpb.RecognitionConfig_WEBM_OPUS},
		{"webm_opus", speechpb.RecognitionConfig_LINEAR16},
		{"", speechpb.RecognitionConfig_LINEAR16},
	}

	for _, tt := range tests {
		if got := parseAudioEncoding(tt.input); got != tt.expected {
			t.Errorf("parseAudioEncoding(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestAdapter_ClosedBeforeStart(t *testing.T) {
	a := &Adapter{cfg: DefaultConfig(), closed: true}

	if err := a.SendAudio(context.Background(), []byte{0, 1}); err != nil {
		t.Errorf("expected SendAudio on closed adapter to be a no-op, got %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("expected repeated Close to be a no-op, got %v", err)
	}
}

func TestAdapter_SendAudioThenCloseIsIdempotent(t *testing.T) {
	stream := &fakeStream{end: io.EOF}
	a := &Adapter{cfg: DefaultConfig(), stream: stream}

	if err := a.SendAudio(context.Background(), []byte{1, 2}); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}
	if len(stream.sent) != 1 || string(stream.sent[0].GetAudioContent()) != "\x01\x02" {
		t.Errorf("expected one audio request, got %v", stream.sent)
	}

	for i := 0; i < 2; i++ {
		if err := a.Close(); err != nil {
			t.Errorf("Close #%d: %v", i+1, err)
		}
	}
	if stream.closeSends != 1 {
		t.Errorf("expected CloseSend once, got %d", stream.closeSends)
	}
	if err := a.SendAudio(context.Background(), []byte{3}); err != nil {
		t.Errorf("expected SendAudio after Close to be a no-op, got %v", err)
	}
	if len(stream.sent) != 1 {
		t.Errorf("expected no audio after Close, got %d requests", len(stream.sent))
	}
}

func TestAdapter_ListenDispatchesUntilEOF(t *testing.T) {
	stream := &fakeStream{
		end: io.EOF,
		responses: []*speechpb.StreamingRecognizeResponse{
			{Results: []*speechpb.StreamingRecognitionResult{result("I led", false)}},
			{Results: []*speechpb.StreamingRecognitionResult{result("I led the team", true), {}}},
			{SpeechEventType: speechpb.StreamingRecognizeResponse_END_OF_SINGLE_UTTERANCE},
		},
	}
	cb := &recordedCallback{}
	a := &Adapter{cfg: DefaultConfig(), stream: stream}

	a.listen(stream, cb)

	if len(cb.partials) != 1 || cb.partials[0] != "I led" {
		t.Errorf("unexpected partials %v", cb.partials)
	}
	if len(cb.finals) != 1 || cb.finals[0] != "I led the team" {
		t.Errorf("unexpected finals %v", cb.finals)
	}
	if cb.ends != 1 {
		t.Errorf("expected one end of utterance, got %d", cb.ends)
	}
	if len(cb.errs) != 0 {
		t.Errorf("expected no error on EOF, got %v", cb.errs)
	}
}

func TestAdapter_ListenReportsStreamError(t *testing.T) {
	boom := errors.New("stream reset")

	tests := []struct {
		name     string
		closed   bool
		wantErrs int
	}{
		{"open adapter reports", false, 1},
		{"closed adapter stays quiet", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := &fakeStream{end: boom}
			cb := &recordedCallback{}
			a := &Adapter{cfg: DefaultConfig(), stream: stream, closed: tt.closed}

			a.listen(stream, cb)

			if len(cb.errs) != tt.wantErrs {
				t.Fatalf("expected %d errors, got %v", tt.wantErrs, cb.errs)
			}
			if tt.wantErrs > 0 && !errors.Is(cb.errs[0], boom) {
				t.Errorf("expected %v, got %v", boom, cb.errs[0])
			}
		})
	}
}
