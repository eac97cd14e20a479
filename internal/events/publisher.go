// Package events publishes scored-answer events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-interview-eval-service/internal/models"
	"ai-interview-eval-service/internal/observability/metrics"
)

// Validator checks a payload against a named schema before it is written.
type Validator interface {
	Validate(schema string, v any) error
}

// Publisher publishes minute and evaluation events to separate Kafka topics.
type Publisher struct {
	writerMinute     *kafka.Writer
	writerEvaluation *kafka.Writer
	principal        string
	topicMinute      string
	topicEvaluation  string
	enabled          bool
	validator        Validator
	metrics          *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers         []string
	TopicMinute     string
	TopicEvaluation string
	Principal       string
	Enabled         bool
	Validator       Validator
}

// New creates a Kafka event publisher. When disabled, or with no brokers, it
// only logs events.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:       cfg.Principal,
			topicMinute:     cfg.TopicMinute,
			topicEvaluation: cfg.TopicEvaluation,
			enabled:         false,
			validator:       cfg.Validator,
			metrics:         m,
		}
	}

	// Longer dial timeout for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicMinute", cfg.TopicMinute).
		Str("topicEvaluation", cfg.TopicEvaluation).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerMinute:     newWriter(cfg.Brokers, cfg.TopicMinute, transport),
		writerEvaluation: newWriter(cfg.Brokers, cfg.TopicEvaluation, transport),
		principal:        cfg.Principal,
		topicMinute:      cfg.TopicMinute,
		topicEvaluation:  cfg.TopicEvaluation,
		enabled:          true,
		validator:        cfg.Validator,
		metrics:          m,
	}
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// PublishMinute publishes a minute score keyed by recording.
func (p *Publisher) PublishMinute(ctx context.Context, event *models.MinuteScored) error {
	if event.EventType == "" {
		event.EventType = models.EventMinuteScored
	}
	return p.publish(ctx, p.writerMinute, p.topicMinute, models.EventMinuteScored, event.RecordingID, event)
}

// PublishEvaluation publishes a completed evaluation keyed by session.
func (p *Publisher) PublishEvaluation(ctx context.Context, event *models.EvaluationCompleted) error {
	if event.EventType == "" {
		event.EventType = models.EventEvaluationCompleted
	}
	return p.publish(ctx, p.writerEvaluation, p.topicEvaluation, models.EventEvaluationCompleted, event.SessionID, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	if p.validator != nil {
		if err := p.validator.Validate(eventType, event); err != nil {
			log.Error().Err(err).Str("eventType", eventType).Msg("Event failed schema validation")
			return fmt.Errorf("validate %s: %w", eventType, err)
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerMinute != nil {
		if e := p.writerMinute.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing minute writer")
			err = e
		}
	}
	if p.writerEvaluation != nil {
		if e := p.writerEvaluation.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing evaluation writer")
			err = e
		}
	}
	return err
}
