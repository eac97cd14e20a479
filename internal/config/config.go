// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	STT           STTConfig
	Recording     RecordingConfig
	Kafka         KafkaConfig
	Store         StoreConfig
	Upload        UploadConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service and its listeners.
type ServiceConfig struct {
	Principal   string
	Environment string
	HTTPPort    string
	GRPCPort    string
	MetricsPort string
}

// STTConfig selects and tunes the speech-to-text provider.
type STTConfig struct {
	Provider       string // mock, google, none
	LanguageCode   string
	SampleRateHz   int
	InterimResults bool
	AudioEncoding  string
}

// RecordingConfig controls the live recording loop.
type RecordingConfig struct {
	MinuteWindow    time.Duration
	TickInterval    time.Duration
	MinSegmentWords int
	MaxAudioBytes   int64
	MaxDuration     time.Duration
}

// KafkaConfig controls event publishing.
type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	TopicMinute     string
	TopicEvaluation string
	Principal       string
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	Backend  string // memory, sqlite, postgres, mysql
	DSN      string
	Capacity int
}

// UploadConfig points at the remote audio backup endpoint. An empty
// Endpoint disables uploads.
type UploadConfig struct {
	Endpoint string
	Timeout  time.Duration
	UserID   string
}

// ObservabilityConfig controls logging.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Load reads the configuration from environment variables, falling back to
// defaults for anything unset or unparsable.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-interview-eval")

	return &Config{
		Service: ServiceConfig{
			Principal:   principal,
			Environment: envOrDefault("ENV", "prod"),
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:    envOrDefault("GRPC_PORT", "50051"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		STT: STTConfig{
			Provider:       envOrDefault("STT_PROVIDER", "mock"),
			LanguageCode:   envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			SampleRateHz:   envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
			InterimResults: envOrDefaultBool("STT_INTERIM_RESULTS", true),
			AudioEncoding:  envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
		},
		Recording: RecordingConfig{
			MinuteWindow:    envOrDefaultDuration("RECORDING_MINUTE_WINDOW", time.Minute),
			TickInterval:    envOrDefaultDuration("RECORDING_TICK_INTERVAL", time.Second),
			MinSegmentWords: envOrDefaultInt("RECORDING_MIN_SEGMENT_WORDS", 5),
			MaxAudioBytes:   envOrDefaultInt64("RECORDING_MAX_AUDIO_BYTES", 64*1024*1024),
			MaxDuration:     envOrDefaultDuration("RECORDING_MAX_DURATION", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled:         envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:         envOrDefaultList("KAFKA_BROKERS", nil),
			TopicMinute:     envOrDefault("KAFKA_TOPIC_MINUTE", "interview.minute.scored"),
			TopicEvaluation: envOrDefault("KAFKA_TOPIC_EVALUATION", "interview.evaluation.completed"),
			Principal:       envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Store: StoreConfig{
			Backend:  envOrDefault("STORE_BACKEND", "memory"),
			DSN:      envOrDefault("STORE_DSN", ""),
			Capacity: envOrDefaultInt("STORE_CAPACITY", 100),
		},
		Upload: UploadConfig{
			Endpoint: envOrDefault("UPLOAD_ENDPOINT", ""),
			Timeout:  envOrDefaultDuration("UPLOAD_TIMEOUT", 15*time.Second),
			UserID:   envOrDefault("UPLOAD_USER_ID", "guest"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
