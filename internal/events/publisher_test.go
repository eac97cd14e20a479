package events

import (
	"context"
	"errors"
	"testing"

	"ai-interview-eval-service/internal/models"
	"ai-interview-eval-service/internal/scoring"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerMinute != nil {
				t.Error("expected nil minute writer when disabled")
			}
			if p.writerEvaluation != nil {
				t.Error("expected nil evaluation writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:         false,
		Brokers:         []string{"localhost:9092"},
		TopicMinute:     "test.minute",
		TopicEvaluation: "test.evaluation",
		Principal:       "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicMinute != "test.minute" {
		t.Errorf("expected minute topic 'test.minute', got %s", p.topicMinute)
	}
	if p.topicEvaluation != "test.evaluation" {
		t.Errorf("expected evaluation topic 'test.evaluation', got %s", p.topicEvaluation)
	}
}

func TestNew_EnabledCreatesWriters(t *testing.T) {
	p := New(&Config{
		Enabled:         true,
		Brokers:         []string{"localhost:9092"},
		TopicMinute:     "m",
		TopicEvaluation: "e",
	})
	defer p.Close()

	if !p.enabled {
		t.Fatal("expected publisher to be enabled")
	}
	if p.writerMinute == nil || p.writerMinute.Topic != "m" {
		t.Error("expected minute writer on topic 'm'")
	}
	if p.writerEvaluation == nil || p.writerEvaluation.Topic != "e" {
		t.Error("expected evaluation writer on topic 'e'")
	}
}

func TestPublisher_PublishMinute_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false, TopicMinute: "test.minute"})

	event := &models.MinuteScored{
		RecordingID: "rec-1",
		Score:       scoring.MinuteScore{Minute: 1, Score: 90, Label: scoring.LabelGreat},
	}
	if err := p.PublishMinute(context.Background(), event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
	if event.EventType != models.EventMinuteScored {
		t.Errorf("expected event type to default to %s, got %s", models.EventMinuteScored, event.EventType)
	}
}

func TestPublisher_PublishEvaluation_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false, TopicEvaluation: "test.evaluation"})

	event := &models.EvaluationCompleted{
		SessionID:   "sess-1",
		SessionType: "behavioral",
		Overall:     72.5,
		Grade:       "B",
	}
	if err := p.PublishEvaluation(context.Background(), event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
	if event.EventType != models.EventEvaluationCompleted {
		t.Errorf("expected event type to default to %s, got %s", models.EventEvaluationCompleted, event.EventType)
	}
}

func TestPublisher_Publish_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Channels cannot be marshaled
	err := p.publish(context.Background(), nil, "t", "x", "k", make(chan int))
	if err == nil {
		t.Error("expected error for unmarshalable event")
	}
}

type rejectingValidator struct{ called string }

func (v *rejectingValidator) Validate(schema string, _ any) error {
	v.called = schema
	return errors.New("missing field")
}

func TestPublisher_ValidatorRejects(t *testing.T) {
	v := &rejectingValidator{}
	p := New(&Config{Enabled: false, Validator: v})

	err := p.PublishEvaluation(context.Background(), &models.EvaluationCompleted{SessionID: "s"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if v.called != models.EventEvaluationCompleted {
		t.Errorf("expected validator called with %s, got %s", models.EventEvaluationCompleted, v.called)
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}
