// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_interview_eval"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// gRPC stream metrics
	StreamsTotal   prometheus.Counter
	StreamsActive  prometheus.Gauge
	StreamDuration prometheus.Histogram

	// Recording metrics
	RecordingsStarted  prometheus.Counter
	RecordingsActive   prometheus.Gauge
	RecordingsDenied   prometheus.Counter
	RecordingsDegraded prometheus.Counter
	RecordingDuration  prometheus.Histogram
	LimitExceeded      *prometheus.CounterVec

	// Minute loop metrics
	MinuteScores       *prometheus.CounterVec
	MinuteScoreValue   prometheus.Histogram
	MinuteWindowsEmpty prometheus.Counter

	// Evaluation metrics
	Evaluations         *prometheus.CounterVec
	EvaluationScore     *prometheus.HistogramVec
	EvaluationsRejected *prometheus.CounterVec

	// Transcript metrics
	TranscriptsPartial prometheus.Counter
	TranscriptsFinal   prometheus.Counter

	// Audio metrics
	AudioBytesReceived  prometheus.Counter
	AudioFramesReceived prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// STT metrics
	STTErrors         *prometheus.CounterVec
	STTUtteranceCount prometheus.Counter

	// Persistence metrics
	StoreOperations *prometheus.CounterVec
	Uploads         *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		StreamsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_streams_total",
			Help:      "Total number of gRPC streams started",
		}),
		StreamsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grpc_streams_active",
			Help:      "Number of currently active gRPC streams",
		}),
		StreamDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_stream_duration_seconds",
			Help:      "Duration of gRPC streams in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 30, 60, 300, 1800},
		}),

		RecordingsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_started_total",
			Help:      "Total number of live recordings started",
		}),
		RecordingsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recordings_active",
			Help:      "Number of recordings currently capturing audio",
		}),
		RecordingsDenied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_denied_total",
			Help:      "Total number of recordings refused input permission",
		}),
		RecordingsDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_degraded_total",
			Help:      "Total number of recordings running without speech-to-text",
		}),
		RecordingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recording_duration_seconds",
			Help:      "Duration of stopped recordings in seconds",
			Buckets:   []float64{10, 30, 60, 120, 180, 300, 600, 1200},
		}),
		LimitExceeded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recording_limit_exceeded_total",
			Help:      "Total number of times recording limits were exceeded",
		}, []string{"limit_type"}),

		MinuteScores: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minute_scores_total",
			Help:      "Total number of per-minute scores produced",
		}, []string{"label"}),
		MinuteScoreValue: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "minute_score",
			Help:      "Distribution of per-minute scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		MinuteWindowsEmpty: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minute_windows_skipped_total",
			Help:      "Total number of minute windows skipped for too few words",
		}),

		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total number of answer evaluations",
		}, []string{"mode", "grade"}),
		EvaluationScore: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_score",
			Help:      "Distribution of overall evaluation scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}, []string{"mode"}),
		EvaluationsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_rejected_total",
			Help:      "Total number of evaluations rejected for insufficient input",
		}, []string{"mode"}),

		TranscriptsPartial: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_partial_total",
			Help:      "Total number of interim transcripts received",
		}),
		TranscriptsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_final_total",
			Help:      "Total number of final transcripts received",
		}),

		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received",
		}),
		AudioFramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total audio frames received",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		STTErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total number of STT errors",
		}, []string{"provider", "error_type"}),
		STTUtteranceCount: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_utterances_total",
			Help:      "Total number of utterances detected",
		}),

		StoreOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of session store operations",
		}, []string{"operation", "result"}),
		Uploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_uploads_total",
			Help:      "Total number of remote audio upload attempts",
		}, []string{"result"}),
	}
}

// RecordStreamStart records a new gRPC stream starting.
func (m *Metrics) RecordStreamStart() {
	m.StreamsTotal.Inc()
	m.StreamsActive.Inc()
}

// RecordStreamEnd records a gRPC stream ending.
func (m *Metrics) RecordStreamEnd(durationSeconds float64) {
	m.StreamsActive.Dec()
	m.StreamDuration.Observe(durationSeconds)
}

// RecordRecordingStart records a recording entering the recording state.
func (m *Metrics) RecordRecordingStart(transcribing bool) {
	m.RecordingsStarted.Inc()
	m.RecordingsActive.Inc()
	if !transcribing {
		m.RecordingsDegraded.Inc()
	}
}

// RecordRecordingStop records a recording returning to idle.
func (m *Metrics) RecordRecordingStop(durationSeconds float64) {
	m.RecordingsActive.Dec()
	m.RecordingDuration.Observe(durationSeconds)
}

// RecordPermissionDenied records a refused input stream.
func (m *Metrics) RecordPermissionDenied() {
	m.RecordingsDenied.Inc()
}

// RecordLimitExceeded records when a recording limit is exceeded.
func (m *Metrics) RecordLimitExceeded(limitType string) {
	m.LimitExceeded.WithLabelValues(limitType).Inc()
}

// RecordMinuteScore records a per-minute score.
func (m *Metrics) RecordMinuteScore(label string, score int) {
	m.MinuteScores.WithLabelValues(label).Inc()
	m.MinuteScoreValue.Observe(float64(score))
}

// RecordMinuteSkipped records a minute window with too few words.
func (m *Metrics) RecordMinuteSkipped() {
	m.MinuteWindowsEmpty.Inc()
}

// RecordEvaluation records a completed evaluation.
func (m *Metrics) RecordEvaluation(mode, grade string, overall float64) {
	m.Evaluations.WithLabelValues(mode, grade).Inc()
	m.EvaluationScore.WithLabelValues(mode).Observe(overall)
}

// RecordEvaluationRejected records an evaluation with insufficient input.
func (m *Metrics) RecordEvaluationRejected(mode string) {
	m.EvaluationsRejected.WithLabelValues(mode).Inc()
}

// RecordPartialTranscript records an interim transcript received.
func (m *Metrics) RecordPartialTranscript() {
	m.TranscriptsPartial.Inc()
}

// RecordFinalTranscript records a final transcript received.
func (m *Metrics) RecordFinalTranscript() {
	m.TranscriptsFinal.Inc()
}

// RecordAudioReceived records audio bytes and frames received.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
	m.AudioFramesReceived.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordSTTError records an STT error.
func (m *Metrics) RecordSTTError(provider, errorType string) {
	m.STTErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordUtterance records an utterance boundary detection.
func (m *Metrics) RecordUtterance() {
	m.STTUtteranceCount.Inc()
}

// RecordStoreOperation records a session store call.
func (m *Metrics) RecordStoreOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StoreOperations.WithLabelValues(operation, result).Inc()
}

// RecordUpload records a remote audio upload attempt.
func (m *Metrics) RecordUpload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Uploads.WithLabelValues(result).Inc()
}
