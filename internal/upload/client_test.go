package upload

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interview-eval-service/internal/scoring"
)

func TestUpload_Disabled(t *testing.T) {
	c := New(Config{})
	assert.False(t, c.Enabled())
	assert.ErrorIs(t, c.Upload(context.Background(), Payload{}), ErrDisabled)
}

func TestUpload_SendsMultipartForm(t *testing.T) {
	type received struct {
		fields map[string]string
		audio       []byte
		name        string
		contentType string
	}
	got := make(chan received, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("audio")
		require.NoError(t, err)
		defer f.Close()
		audio, _ := io.ReadAll(f)

		fields := map[string]string{}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		got <- received{fields: fields, audio: audio, name: hdr.Filename, contentType: hdr.Header.Get("Content-Type")}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, Timeout: time.Second})
	err := c.Upload(context.Background(), Payload{
		Audio:        WAV([]byte{1, 2, 3, 4}, 16000),
		Filename:     "rec-1.wav",
		QuestionID:   "4",
		QuestionText: "What is your biggest technical achievement?",
		QuestionType: "Technical",
		Transcript:   "I led the migration",
		DurationSecs: 61,
		MinuteLogs:   []scoring.MinuteScore{{Minute: 1, Score: 82, Issues: []string{}, Label: scoring.LabelGreat}},
	})
	require.NoError(t, err)

	r := <-got
	assert.Equal(t, []byte{1, 2, 3, 4}, r.audio[wavHeaderLen:])
	assert.Equal(t, "rec-1.wav", r.name)
	assert.Equal(t, "audio/wav", r.contentType)
	assert.Equal(t, "4", r.fields["question_id"])
	assert.Equal(t, "Technical", r.fields["question_type"])
	assert.Equal(t, "I led the migration", r.fields["transcript"])
	assert.Equal(t, "61", r.fields["duration_secs"])
	assert.Equal(t, "guest", r.fields["user_id"])

	var logs []scoring.MinuteScore
	require.NoError(t, json.Unmarshal([]byte(r.fields["minute_logs"]), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, 82, logs[0].Score)
}

func TestUpload_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(Config{Endpoint: srv.URL}).Upload(context.Background(), Payload{Audio: []byte{0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestUpload_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(Config{Endpoint: url, Timeout: time.Second}).Upload(context.Background(), Payload{})
	assert.Error(t, err)
}

func TestWAV_Header(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xff, 0x7f}
	out := WAV(pcm, 8000)

	require.Len(t, out, wavHeaderLen+len(pcm))
	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(out[4:8]))
	assert.Equal(t, "WAVE", string(out[8:12]))
	assert.Equal(t, "fmt ", string(out[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(out[20:22]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(out[22:24]))
	assert.Equal(t, uint32(8000), binary.LittleEndian.Uint32(out[24:28]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(out[28:32]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(out[34:36]))
	assert.Equal(t, "data", string(out[36:40]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(out[40:44]))
	assert.Equal(t, pcm, out[wavHeaderLen:])
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "audio/wav", contentTypeFor(WAV(nil, 16000)))
	assert.Equal(t, "application/octet-stream", contentTypeFor([]byte{1, 2, 3}))
}
