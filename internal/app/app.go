package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-eval-service/internal/config"
	"ai-interview-eval-service/internal/events"
	"ai-interview-eval-service/internal/observability/logging"
	"ai-interview-eval-service/internal/observability/metrics"
	"ai-interview-eval-service/internal/questions"
	"ai-interview-eval-service/internal/schema"
	"ai-interview-eval-service/internal/service/capture/push"
	"ai-interview-eval-service/internal/service/practice"
	"ai-interview-eval-service/internal/service/recording"
	"ai-interview-eval-service/internal/service/stt"
	"ai-interview-eval-service/internal/service/stt/google"
	"ai-interview-eval-service/internal/service/stt/mock"
	"ai-interview-eval-service/internal/store"
	"ai-interview-eval-service/internal/upload"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Metrics   *metrics.Metrics
	Validator *schema.Validator
	Store     store.Store
	Publisher *events.Publisher
	Uploader  *upload.Client
	Questions *questions.Bank
	Practice  *practice.Service

	ready atomic.Bool
}

// New constructs the Application and its collaborators from cfg.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	a := &Application{
		Cfg:     cfg,
		Metrics: metrics.DefaultMetrics,
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	v, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("compile schemas: %w", err)
	}
	a.Validator = v

	bank, err := questions.Load()
	if err != nil {
		return nil, err
	}
	a.Questions = bank

	st, err := store.Open(ctx, cfg.Store.Backend, cfg.Store.DSN, cfg.Store.Capacity, store.WithValidator(v))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	a.Store = store.WithMetrics(st, a.Metrics)

	a.Publisher = events.New(&events.Config{
		Enabled:         cfg.Kafka.Enabled,
		Brokers:         cfg.Kafka.Brokers,
		TopicMinute:     cfg.Kafka.TopicMinute,
		TopicEvaluation: cfg.Kafka.TopicEvaluation,
		Principal:       cfg.Kafka.Principal,
		Validator:       v,
	})

	a.Uploader = upload.New(upload.Config{
		Endpoint: cfg.Upload.Endpoint,
		Timeout:  cfg.Upload.Timeout,
		UserID:   cfg.Upload.UserID,
	})

	a.Practice = practice.New(practice.Config{
		Store:     a.Store,
		Publisher: a.Publisher,
		Uploader:  a.Uploader,
		NewDevice: a.NewDevice,
		Recording: recording.Config{
			MinuteWindow:    cfg.Recording.MinuteWindow,
			TickInterval:    cfg.Recording.TickInterval,
			MinSegmentWords: cfg.Recording.MinSegmentWords,
			MaxDuration:     cfg.Recording.MaxDuration,
		},
		Metrics:      a.Metrics,
		Capacity:     cfg.Store.Capacity,
		SampleRateHz: cfg.STT.SampleRateHz,
	})

	appLogger.Info().
		Str("store", cfg.Store.Backend).
		Str("sttProvider", cfg.STT.Provider).
		Bool("kafka", cfg.Kafka.Enabled).
		Bool("upload", a.Uploader.Enabled()).
		Msg("AI interview evaluation service application created")
	return a, nil
}

// setupLogger configures zerolog for the service.
func (a *Application) setupLogger() {
	logging.Init(logging.Config{
		Level:      a.Cfg.Observability.LogLevel,
		Format:     a.Cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a.Logger = logging.Logger().With().
		Str("service", "ai-interview-eval-service").
		Str("component", "application").
		Logger()

	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("environment", a.Cfg.Service.Environment).
		Msg("Logger setup completed")
}

// NewDevice builds the capture device of a new recording. The STT provider
// is opened per transcription.
func (a *Application) NewDevice(recordingID string, permission bool) practice.AudioDevice {
	return push.New(recordingID, push.Config{
		Permission:    permission,
		Provider:      a.Cfg.STT.Provider,
		NewAdapter:    a.adapterFactory(),
		MaxAudioBytes: a.Cfg.Recording.MaxAudioBytes,
		Metrics:       a.Metrics,
	})
}

func (a *Application) adapterFactory() push.AdapterFactory {
	switch a.Cfg.STT.Provider {
	case stt.ProviderMock:
		return func(context.Context) (stt.Adapter, error) {
			return mock.New(), nil
		}
	case stt.ProviderGoogle:
		gcfg := google.Config{
			LanguageCode:   a.Cfg.STT.LanguageCode,
			SampleRateHz:   a.Cfg.STT.SampleRateHz,
			InterimResults: a.Cfg.STT.InterimResults,
			AudioEncoding:  a.Cfg.STT.AudioEncoding,
		}
		return func(ctx context.Context) (stt.Adapter, error) {
			return google.New(ctx, gcfg)
		}
	default:
		return nil
	}
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	a.ready.Store(true)
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Msg("AI interview evaluation service starting")

	return nil
}

// Ready reports whether Start completed and Shutdown has not begun.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Shutdown stops live recordings and closes the publisher and the store.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	a.ready.Store(false)
	a.Practice.Close()
	if err := a.Publisher.Close(); err != nil {
		shutdownLogger.Warn().Err(err).Msg("Failed to close event publisher")
	}
	if err := a.Store.Close(); err != nil {
		shutdownLogger.Warn().Err(err).Msg("Failed to close session store")
	}

	shutdownLogger.Info().Msg("AI interview evaluation service shutting down")
}
