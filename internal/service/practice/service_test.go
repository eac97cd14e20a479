package practice

import (
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interview-eval-service/internal/models"
	"ai-interview-eval-service/internal/scoring"
	"ai-interview-eval-service/internal/service/capture"
	"ai-interview-eval-service/internal/service/capture/push"
	"ai-interview-eval-service/internal/store"
	"ai-interview-eval-service/internal/upload"
)

const strongAnswer = "When I was working on the payments team our checkout latency was too high. " +
	"I was responsible for fixing it, so I decided to profile the service and implemented a caching layer. " +
	"As a result we reduced latency by 40% and improved conversion for our users."

type recordingPublisher struct {
	mu          sync.Mutex
	minutes     []*models.MinuteScored
	evaluations []*models.EvaluationCompleted
}

func (p *recordingPublisher) PublishMinute(_ context.Context, ev *models.MinuteScored) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minutes = append(p.minutes, ev)
	return nil
}

func (p *recordingPublisher) PublishEvaluation(_ context.Context, ev *models.EvaluationCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evaluations = append(p.evaluations, ev)
	return nil
}

func (p *recordingPublisher) lastEvaluation() *models.EvaluationCompleted {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.evaluations) == 0 {
		return nil
	}
	return p.evaluations[len(p.evaluations)-1]
}

func pushDevices(id string, permission bool) AudioDevice {
	return push.New(id, push.Config{Permission: permission, Provider: "none"})
}

func newTestService(t *testing.T, up Uploader) (*Service, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc := New(Config{
		Store:     store.NewMemory(store.DefaultCapacity),
		Publisher: pub,
		Uploader:  up,
		NewDevice: pushDevices,
	})
	t.Cleanup(svc.Close)
	return svc, pub
}

func TestService_EvaluateBehavioral(t *testing.T) {
	svc, pub := newTestService(t, nil)
	ctx := context.Background()

	res, err := svc.EvaluateBehavioral(ctx, AnswerRequest{
		Question: Question{Text: "Tell me about a time you improved performance", Type: "Technical"},
		Answer:   strongAnswer,
	})
	require.NoError(t, err)

	assert.Equal(t, scoring.ModeBehavioral, res.Record.SessionType)
	assert.NotEmpty(t, res.Record.ID)
	assert.Equal(t, res.Evaluation.Overall, res.Record.OverallScore)
	assert.Equal(t, res.Evaluation.DimScores(), res.Record.DimScores)

	ev := pub.lastEvaluation()
	require.NotNil(t, ev)
	assert.Equal(t, res.Record.ID, ev.SessionID)
	assert.False(t, ev.BackedUp)

	stored, err := svc.Sessions(ctx, store.Filter{SessionType: scoring.ModeBehavioral})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, res.Record.DimScores, stored[0].DimScores)
}

func TestService_InsufficientInputNotStored(t *testing.T) {
	svc, pub := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.EvaluateBehavioral(ctx, AnswerRequest{Answer: "too short to score"})
	assert.ErrorIs(t, err, scoring.ErrInsufficientInput)

	_, err = svc.EvaluateVoice(ctx, TranscriptRequest{Transcript: "   "})
	assert.ErrorIs(t, err, scoring.ErrInsufficientInput)

	stored, err := svc.Sessions(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Nil(t, pub.lastEvaluation())
}

func TestService_EvaluateVoiceKeepsMinuteLogs(t *testing.T) {
	svc, _ := newTestService(t, nil)

	logs := []scoring.MinuteScore{scoring.ScoreMinute("I built the pipeline and we shipped it early", 1)}
	res, err := svc.EvaluateVoice(context.Background(), TranscriptRequest{
		Question:     Question{Text: "Why this role?", Type: "HR"},
		Transcript:   strongAnswer,
		DurationSecs: 75,
		MinuteLogs:   logs,
	})
	require.NoError(t, err)
	assert.Equal(t, scoring.ModeVoice, res.Record.SessionType)
	assert.Equal(t, 75, res.Record.DurationSecs)
	require.Len(t, res.Record.MinuteLogs, 1)
	assert.Equal(t, 1, res.Record.MinuteLogs[0].Minute)
}

func TestService_AnalyticsAndDelete(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	summary, err := svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Nil(t, summary)

	res, err := svc.EvaluateVoice(ctx, TranscriptRequest{Transcript: strongAnswer, Question: Question{Type: "Behavioral"}})
	require.NoError(t, err)

	summary, err = svc.Analytics(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.TotalSessions)
	assert.Equal(t, 1, summary.StreakDays)

	require.NoError(t, svc.DeleteSession(ctx, res.Record.ID))
	assert.ErrorIs(t, svc.DeleteSession(ctx, res.Record.ID), store.ErrNotFound)
}

func TestService_AnalyticsHonoursCapacity(t *testing.T) {
	const capacity = 150
	svc := New(Config{
		Store:    store.NewMemory(capacity),
		Capacity: capacity,
	})
	t.Cleanup(svc.Close)
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		_, err := svc.EvaluateBehavioral(ctx, AnswerRequest{Answer: strongAnswer, Question: Question{Type: "Behavioral"}})
		require.NoError(t, err)
	}

	summary, err := svc.Analytics(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 120, summary.TotalSessions)
}

func TestService_StartRecordingPermissionDenied(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.StartRecording(context.Background(), StartRequest{Permission: false})
	require.ErrorIs(t, err, capture.ErrPermissionDenied)

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.Empty(t, svc.recordings)
}

func TestService_RecordingFlow(t *testing.T) {
	var received struct {
		sync.Mutex
		fields   map[string]string
		audio    []byte
		filename string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received.Lock()
		defer received.Unlock()
		received.fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			received.fields[k] = v[0]
		}
		hdr := r.MultipartForm.File["audio"][0]
		f, err := hdr.Open()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		received.audio, _ = io.ReadAll(f)
		received.filename = hdr.Filename
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	svc, pub := newTestService(t, upload.New(upload.Config{Endpoint: srv.URL}))
	ctx := context.Background()

	rec, err := svc.StartRecording(ctx, StartRequest{
		Question:   Question{ID: "3", Text: "Describe a conflict", Type: "Behavioral"},
		UserID:     "u-1",
		Permission: true,
	})
	require.NoError(t, err)

	require.NoError(t, svc.WriteAudio(ctx, rec.ID, []byte{0x00, 0x10, 0x00, 0x20}))
	require.NoError(t, svc.WriteAudio(ctx, rec.ID, []byte{0x00, 0x30}))
	rec.Session.AppendText(strongAnswer)

	require.NoError(t, svc.StopRecording(rec.ID))
	assert.Len(t, rec.Session.Audio(), 6)

	backedUp, err := svc.UploadRecording(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, backedUp)

	received.Lock()
	assert.Equal(t, "3", received.fields["question_id"])
	assert.Equal(t, "u-1", received.fields["user_id"])
	assert.Equal(t, strongAnswer, received.fields["transcript"])
	require.Len(t, received.audio, 44+6)
	assert.Equal(t, "RIFF", string(received.audio[0:4]))
	assert.Equal(t, "WAVE", string(received.audio[8:12]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(received.audio[24:28]))
	assert.Equal(t, []byte{0x00, 0x10, 0x00, 0x20, 0x00, 0x30}, received.audio[44:])
	assert.True(t, strings.HasPrefix(received.filename, "rec-"))
	assert.True(t, strings.HasSuffix(received.filename, ".wav"))
	received.Unlock()

	res, err := svc.AnalyseRecording(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, scoring.ModeVoice, res.Record.SessionType)
	assert.Equal(t, "Behavioral", res.Record.QuestionType)

	ev := pub.lastEvaluation()
	require.NotNil(t, ev)
	assert.Equal(t, rec.ID, ev.RecordingID)
	assert.True(t, ev.BackedUp)

	require.NoError(t, svc.CloseRecording(rec.ID))
	_, err = svc.Recording(rec.ID)
	assert.ErrorIs(t, err, ErrUnknownRecording)
}

func TestService_UploadFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc, _ := newTestService(t, upload.New(upload.Config{Endpoint: srv.URL}))
	ctx := context.Background()

	rec, err := svc.StartRecording(ctx, StartRequest{Permission: true})
	require.NoError(t, err)
	require.NoError(t, svc.WriteAudio(ctx, rec.ID, []byte{0x01, 0x02}))
	require.NoError(t, svc.StopRecording(rec.ID))

	backedUp, err := svc.UploadRecording(ctx, rec.ID)
	assert.NoError(t, err)
	assert.False(t, backedUp)
	assert.False(t, rec.BackedUp())
}

func TestService_UploadDisabled(t *testing.T) {
	svc, _ := newTestService(t, upload.New(upload.Config{}))
	ctx := context.Background()

	rec, err := svc.StartRecording(ctx, StartRequest{Permission: true})
	require.NoError(t, err)
	require.NoError(t, svc.StopRecording(rec.ID))

	backedUp, err := svc.UploadRecording(ctx, rec.ID)
	assert.NoError(t, err)
	assert.False(t, backedUp)
}

func TestService_UnknownRecording(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.StopRecording("nope"), ErrUnknownRecording)
	assert.ErrorIs(t, svc.WriteAudio(ctx, "nope", []byte{0}), ErrUnknownRecording)
	assert.ErrorIs(t, svc.CloseRecording("nope"), ErrUnknownRecording)
	_, err := svc.AnalyseRecording(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownRecording)
	_, err = svc.UploadRecording(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownRecording)
}

func TestService_AnalyseEmptyRecording(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	rec, err := svc.StartRecording(ctx, StartRequest{Permission: true})
	require.NoError(t, err)

	_, err = svc.AnalyseRecording(ctx, rec.ID)
	assert.ErrorIs(t, err, scoring.ErrInsufficientInput)
}
