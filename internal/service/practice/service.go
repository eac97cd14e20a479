// Package practice orchestrates practice answers: it scores typed and
// spoken answers, persists them, publishes events, backs recordings up
// remotely and keeps the registry of live recordings.
package practice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-interview-eval-service/internal/analytics"
	"ai-interview-eval-service/internal/models"
	"ai-interview-eval-service/internal/observability/logging"
	"ai-interview-eval-service/internal/observability/metrics"
	"ai-interview-eval-service/internal/scoring"
	"ai-interview-eval-service/internal/service/capture"
	"ai-interview-eval-service/internal/service/recording"
	"ai-interview-eval-service/internal/store"
	"ai-interview-eval-service/internal/upload"
)

// ErrUnknownRecording is returned for recording ids not in the registry.
var ErrUnknownRecording = errors.New("unknown recording")

// publishTimeout bounds event publishing so it never stalls a caller.
const publishTimeout = 5 * time.Second

const defaultSampleRateHz = 16000

// Publisher sends scored-answer events.
type Publisher interface {
	PublishMinute(ctx context.Context, ev *models.MinuteScored) error
	PublishEvaluation(ctx context.Context, ev *models.EvaluationCompleted) error
}

// Uploader backs recordings up to a remote endpoint.
type Uploader interface {
	Enabled() bool
	Upload(ctx context.Context, p upload.Payload) error
}

// AudioDevice is a capture device that accepts pushed audio frames.
type AudioDevice interface {
	capture.Device
	Write(ctx context.Context, frame []byte) error
}

// DeviceFactory creates the capture device of a new recording. permission
// is the client's answer to the input-device prompt.
type DeviceFactory func(recordingID string, permission bool) AudioDevice

// Config wires the service's collaborators. Store and NewDevice are
// required.
type Config struct {
	Store     store.Store
	Publisher Publisher
	Uploader  Uploader
	NewDevice DeviceFactory
	Recording recording.Config
	Clock     recording.Clock
	Metrics   *metrics.Metrics
	// Capacity bounds the records Analytics reads; it should match the
	// store's retention. Defaults to store.DefaultCapacity.
	Capacity int
	// SampleRateHz is the rate of the captured PCM16 mono audio, written
	// into the uploaded WAV header. Defaults to 16000.
	SampleRateHz int
}

// Question identifies what an answer responds to.
type Question struct {
	ID   string `json:"question_id,omitempty"`
	Text string `json:"question_text"`
	Type string `json:"question_type"`
}

// AnswerRequest is a typed behavioral answer.
type AnswerRequest struct {
	Question
	Answer       string `json:"answer"`
	DurationSecs int    `json:"duration_secs"`
}

// TranscriptRequest is a spoken answer already transcribed by the client.
type TranscriptRequest struct {
	Question
	Transcript   string                `json:"transcript"`
	DurationSecs int                   `json:"duration_secs"`
	MinuteLogs   []scoring.MinuteScore `json:"minute_logs,omitempty"`
}

// Result is an evaluation together with the record it was stored as.
type Result struct {
	Evaluation *scoring.Evaluation `json:"evaluation"`
	Record     store.Record        `json:"record"`
}

// StartRequest opens a live recording.
type StartRequest struct {
	Question
	UserID     string `json:"user_id"`
	Permission bool   `json:"permission"`
}

// Recording is a registered live recording.
type Recording struct {
	ID       string
	UserID   string
	Question Question
	Session  *recording.Session

	device      AudioDevice
	unsubscribe func()
	backedUp    atomic.Bool
}

// BackedUp reports whether the audio reached the remote endpoint.
func (r *Recording) BackedUp() bool {
	return r.backedUp.Load()
}

// Service is the practice orchestrator. It is safe for concurrent use.
type Service struct {
	store     store.Store
	publisher Publisher
	uploader  Uploader
	newDevice DeviceFactory
	recCfg    recording.Config
	clock     recording.Clock
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	capacity  int
	rateHz    int

	mu         sync.RWMutex
	recordings map[string]*Recording
}

// New creates the service.
func New(cfg Config) *Service {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.DefaultMetrics
	}
	if cfg.Clock == nil {
		cfg.Clock = recording.RealClock()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = store.DefaultCapacity
	}
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = defaultSampleRateHz
	}
	return &Service{
		store:      cfg.Store,
		publisher:  cfg.Publisher,
		uploader:   cfg.Uploader,
		newDevice:  cfg.NewDevice,
		recCfg:     cfg.Recording,
		clock:      cfg.Clock,
		metrics:    cfg.Metrics,
		logger:     logging.WithComponent("practice"),
		capacity:   cfg.Capacity,
		rateHz:     cfg.SampleRateHz,
		recordings: make(map[string]*Recording),
	}
}

// EvaluateBehavioral scores a typed answer and stores it.
func (s *Service) EvaluateBehavioral(ctx context.Context, req AnswerRequest) (*Result, error) {
	ev := scoring.Evaluate(req.Answer, req.Type, scoring.Behavioral)
	if ev == nil {
		s.metrics.RecordEvaluationRejected(scoring.ModeBehavioral)
		return nil, scoring.ErrInsufficientInput
	}
	return s.persist(ctx, ev, req.Question, req.DurationSecs, nil, "", false)
}

// EvaluateVoice scores a spoken answer's transcript and stores it.
func (s *Service) EvaluateVoice(ctx context.Context, req TranscriptRequest) (*Result, error) {
	ev := scoring.Evaluate(req.Transcript, req.Type, scoring.Voice)
	if ev == nil {
		s.metrics.RecordEvaluationRejected(scoring.ModeVoice)
		return nil, scoring.ErrInsufficientInput
	}
	return s.persist(ctx, ev, req.Question, req.DurationSecs, req.MinuteLogs, "", false)
}

func (s *Service) persist(ctx context.Context, ev *scoring.Evaluation, q Question, duration int, minutes []scoring.MinuteScore, recordingID string, backedUp bool) (*Result, error) {
	s.metrics.RecordEvaluation(ev.Mode, ev.Grade, ev.Overall)

	rec, err := s.store.Append(ctx, store.Record{
		SessionType:      ev.Mode,
		QuestionText:     q.Text,
		QuestionType:     q.Type,
		OverallScore:     ev.Overall,
		Grade:            ev.Grade,
		DurationSecs:     duration,
		WordCount:        ev.Readability.Words,
		FillerCount:      ev.FillerCount,
		VocalFillerCount: ev.VocalFillerCount,
		STARFulfilled:    ev.STARFilled,
		DimScores:        ev.DimScores(),
		MinuteLogs:       minutes,
	})
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	logger := logging.WithSession(rec.ID, rec.SessionType)
	logger.Info().
		Float64("overall", rec.OverallScore).
		Str("grade", rec.Grade).
		Int("words", rec.WordCount).
		Msg("Session stored")

	s.publishEvaluation(rec, recordingID, backedUp)
	return &Result{Evaluation: ev, Record: rec}, nil
}

func (s *Service) publishEvaluation(rec store.Record, recordingID string, backedUp bool) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := s.publisher.PublishEvaluation(ctx, &models.EvaluationCompleted{
		SessionID:    rec.ID,
		RecordingID:  recordingID,
		Timestamp:    s.clock.Now().UnixMilli(),
		SessionType:  rec.SessionType,
		QuestionType: rec.QuestionType,
		Overall:      rec.OverallScore,
		Grade:        rec.Grade,
		WordCount:    rec.WordCount,
		FillerCount:  rec.FillerCount,
		DimScores:    rec.DimScores,
		BackedUp:     backedUp,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("sessionId", rec.ID).Msg("Failed to publish evaluation event")
	}
}

// Sessions lists stored sessions, newest first.
func (s *Service) Sessions(ctx context.Context, f store.Filter) ([]store.Record, error) {
	return s.store.Query(ctx, f)
}

// DeleteSession removes a stored session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	return s.store.DeleteByID(ctx, id)
}

// Analytics summarizes every stored session. It returns nil when nothing is
// stored.
func (s *Service) Analytics(ctx context.Context) (*analytics.Summary, error) {
	records, err := s.store.Query(ctx, store.Filter{Limit: s.capacity})
	if err != nil {
		return nil, err
	}
	return analytics.Compute(records, s.clock.Now()), nil
}

// StartRecording registers a new recording and starts capturing. A denied
// permission returns capture.ErrPermissionDenied and registers nothing.
func (s *Service) StartRecording(ctx context.Context, req StartRequest) (*Recording, error) {
	if s.newDevice == nil {
		return nil, capture.ErrCapabilityMissing
	}
	if req.UserID == "" {
		req.UserID = "guest"
	}

	id := uuid.NewString()
	device := s.newDevice(id, req.Permission)
	session := recording.New(id, device, s.recCfg,
		recording.WithClock(s.clock),
		recording.WithMetrics(s.metrics),
		recording.WithLogger(logging.WithRecording(id, req.UserID)),
	)

	r := &Recording{
		ID:       id,
		UserID:   req.UserID,
		Question: req.Question,
		Session:  session,
		device:   device,
	}
	r.unsubscribe = session.Subscribe(recording.ListenerFuncs{
		MinuteScore: func(recordingID string, ms scoring.MinuteScore) {
			s.publishMinute(r, ms)
		},
	})

	if err := session.Start(ctx); err != nil {
		r.unsubscribe()
		return nil, err
	}

	s.mu.Lock()
	s.recordings[id] = r
	s.mu.Unlock()
	return r, nil
}

func (s *Service) publishMinute(r *Recording, ms scoring.MinuteScore) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := s.publisher.PublishMinute(ctx, &models.MinuteScored{
		RecordingID:   r.ID,
		UserID:        r.UserID,
		Timestamp:     s.clock.Now().UnixMilli(),
		QuestionType:  r.Question.Type,
		ElapsedSecs:   r.Session.ElapsedSecs(),
		Score:         ms,
		TranscriptLen: scoring.WordCount(r.Session.Transcript()),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("recordingId", r.ID).Int("minute", ms.Minute).Msg("Failed to publish minute event")
	}
}

// Recording looks up a registered recording.
func (s *Service) Recording(id string) (*Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recordings[id]
	if !ok {
		return nil, ErrUnknownRecording
	}
	return r, nil
}

// WriteAudio pushes one audio frame into a recording.
func (s *Service) WriteAudio(ctx context.Context, id string, frame []byte) error {
	r, err := s.Recording(id)
	if err != nil {
		return err
	}
	return r.device.Write(ctx, frame)
}

// StopRecording stops capturing. The recording stays registered so it can
// be analysed and uploaded.
func (s *Service) StopRecording(id string) error {
	r, err := s.Recording(id)
	if err != nil {
		return err
	}
	return r.Session.Stop()
}

// AnalyseRecording scores the recording's transcript in voice mode and
// stores the result with the minute history.
func (s *Service) AnalyseRecording(ctx context.Context, id string) (*Result, error) {
	r, err := s.Recording(id)
	if err != nil {
		return nil, err
	}
	ev, err := r.Session.Analyse(r.Question.Type)
	if err != nil {
		s.metrics.RecordEvaluationRejected(scoring.ModeVoice)
		return nil, err
	}
	return s.persist(ctx, ev, r.Question, r.Session.ElapsedSecs(), r.Session.Minutes(), r.ID, r.BackedUp())
}

// UploadRecording backs the finalized audio up remotely. Failures are
// logged and reported as backedUp=false; they never return an error.
func (s *Service) UploadRecording(ctx context.Context, id string) (backedUp bool, err error) {
	r, err := s.Recording(id)
	if err != nil {
		return false, err
	}
	if s.uploader == nil || !s.uploader.Enabled() {
		return false, nil
	}

	audio := r.Session.Audio()
	if len(audio) == 0 {
		s.logger.Warn().Str("recordingId", id).Msg("No finalized audio to upload")
		return false, nil
	}

	uerr := s.uploader.Upload(ctx, upload.Payload{
		Audio:        upload.WAV(audio, s.rateHz),
		Filename:     fmt.Sprintf("rec-%d.wav", s.clock.Now().UnixMilli()),
		QuestionID:   r.Question.ID,
		QuestionText: r.Question.Text,
		QuestionType: r.Question.Type,
		Transcript:   r.Session.Transcript(),
		DurationSecs: r.Session.ElapsedSecs(),
		MinuteLogs:   r.Session.Minutes(),
		UserID:       r.UserID,
	})
	s.metrics.RecordUpload(uerr)
	if uerr != nil {
		s.logger.Warn().Err(uerr).Str("recordingId", id).Msg("Backend offline, recording kept locally only")
		return false, nil
	}
	r.backedUp.Store(true)
	return true, nil
}

// CloseRecording stops a recording if needed and forgets it.
func (s *Service) CloseRecording(id string) error {
	s.mu.Lock()
	r, ok := s.recordings[id]
	delete(s.recordings, id)
	s.mu.Unlock()
	if !ok {
		return ErrUnknownRecording
	}
	r.unsubscribe()
	return r.Session.Close()
}

// Close stops every live recording.
func (s *Service) Close() {
	s.mu.Lock()
	recs := s.recordings
	s.recordings = make(map[string]*Recording)
	s.mu.Unlock()

	for id, r := range recs {
		r.unsubscribe()
		if err := r.Session.Close(); err != nil {
			s.logger.Warn().Err(err).Str("recordingId", id).Msg("Failed to close recording")
		}
	}
}
