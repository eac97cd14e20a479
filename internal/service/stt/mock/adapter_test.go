package mock

import (
	"context"
	"sync"
	"testing"
	"time"
)

// testCallback implements stt.Callback for testing
type testCallback struct {
	mu         sync.Mutex
	partials   []string
	finals     []string
	errors     []error
	utterances int
}

func (c *testCallback) OnPartial(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partials = append(c.partials, text)
}

func (c *testCallback) OnFinal(text string, confidence float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finals = append(c.finals, text)
}

func (c *testCallback) OnEndOfUtterance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.utterances++
}

func (c *testCallback) OnError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

func (c *testCallback) counts() (partials, finals, utterances int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.partials), len(c.finals), c.utterances
}

func newTestAdapter(idx int) *Adapter {
	return &Adapter{
		utterance: DefaultUtterances[idx],
		next:      (idx + 1) % len(DefaultUtterances),
		delay:     time.Millisecond,
	}
}

func TestAdapter_New(t *testing.T) {
	adapter := New()
	if adapter == nil {
		t.Fatal("expected non-nil adapter")
	}
	if adapter.closed {
		t.Error("expected adapter to not be closed initially")
	}
	if adapter.finalSent {
		t.Error("expected finalSent to be false initially")
	}
}

func TestAdapter_SendAudio_TriggersPartials(t *testing.T) {
	adapter := newTestAdapter(0)
	cb := &testCallback{}
	adapter.Start(context.Background(), cb)

	for i := 0; i < 3; i++ {
		if err := adapter.SendAudio(context.Background(), []byte("audio")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	time.Sleep(100 * time.Millisecond)

	partials, finals, _ := cb.counts()
	if partials != 3 {
		t.Errorf("expected 3 partials, got %d", partials)
	}
	if finals != 0 {
		t.Errorf("expected no final yet, got %d", finals)
	}
}

func TestAdapter_SendAudio_TriggersFinalAndUtterance(t *testing.T) {
	adapter := newTestAdapter(0)
	cb := &testCallback{}
	adapter.Start(context.Background(), cb)

	// Three partials, then the final.
	for i := 0; i < 4; i++ {
		adapter.SendAudio(context.Background(), []byte("audio"))
	}

	time.Sleep(100 * time.Millisecond)

	_, finals, utterances := cb.counts()
	if finals != 1 {
		t.Errorf("expected 1 final, got %d", finals)
	}
	if utterances != 1 {
		t.Errorf("expected 1 utterance, got %d", utterances)
	}
}

func TestAdapter_CyclesToNextUtterance(t *testing.T) {
	adapter := newTestAdapter(0)
	cb := &testCallback{}
	adapter.Start(context.Background(), cb)

	// 3 partials + final, advance, 2 partials + final.
	for i := 0; i < 8; i++ {
		adapter.SendAudio(context.Background(), []byte("audio"))
	}

	time.Sleep(100 * time.Millisecond)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if len(cb.finals) != 2 {
		t.Fatalf("expected 2 finals, got %d", len(cb.finals))
	}
	if cb.finals[0] != DefaultUtterances[0].Final || cb.finals[1] != DefaultUtterances[1].Final {
		t.Errorf("unexpected finals order: %v", cb.finals)
	}
}

func TestAdapter_Close_Idempotent(t *testing.T) {
	adapter := newTestAdapter(0)
	adapter.Start(context.Background(), &testCallback{})

	adapter.Close()
	if err := adapter.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
	if !adapter.closed {
		t.Error("expected adapter to be closed")
	}
}

func TestAdapter_SendAudio_AfterClose(t *testing.T) {
	adapter := newTestAdapter(0)
	cb := &testCallback{}
	adapter.Start(context.Background(), cb)
	adapter.Close()

	if err := adapter.SendAudio(context.Background(), []byte("audio")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if partials, _, _ := cb.counts(); partials != 0 {
		t.Errorf("expected no partials after close, got %d", partials)
	}
}

func TestAdapter_Close_FinalizesInterruptedUtterance(t *testing.T) {
	adapter := newTestAdapter(2)
	cb := &testCallback{}
	adapter.Start(context.Background(), cb)

	adapter.SendAudio(context.Background(), []byte("audio"))
	time.Sleep(20 * time.Millisecond)
	adapter.Close()

	time.Sleep(50 * time.Millisecond)

	_, finals, _ := cb.counts()
	if finals != 1 {
		t.Errorf("expected 1 final on close, got %d", finals)
	}
}

func TestAdapter_Close_WithoutAudio_NoFinal(t *testing.T) {
	adapter := newTestAdapter(0)
	cb := &testCallback{}
	adapter.Start(context.Background(), cb)
	adapter.Close()

	time.Sleep(50 * time.Millisecond)

	if _, finals, _ := cb.counts(); finals != 0 {
		t.Errorf("expected no final, got %d", finals)
	}
}

func TestDefaultUtterances(t *testing.T) {
	if len(DefaultUtterances) != 5 {
		t.Errorf("expected 5 default utterances, got %d", len(DefaultUtterances))
	}

	for i, utt := range DefaultUtterances {
		if len(utt.Partials) == 0 {
			t.Errorf("utterance %d has no partials", i)
		}
		if utt.Final == "" {
			t.Errorf("utterance %d has empty final", i)
		}
		if utt.Confidence <= 0 || utt.Confidence > 1 {
			t.Errorf("utterance %d has invalid confidence %f", i, utt.Confidence)
		}
	}
}

func TestAdapter_ThreadSafety(t *testing.T) {
	adapter := newTestAdapter(0)
	adapter.Start(context.Background(), &testCallback{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				adapter.SendAudio(context.Background(), []byte("audio"))
				time.Sleep(time.Millisecond)
			}
		}()
	}

	wg.Wait()
	adapter.Close()
}

func TestAdapter_NoCallbackSet(t *testing.T) {
	adapter := New()

	if err := adapter.SendAudio(context.Background(), []byte("audio")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := adapter.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
