// Package upload sends finalized recordings to a remote backup endpoint.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"ai-interview-eval-service/internal/scoring"
)

// ErrDisabled is returned when no endpoint is configured.
var ErrDisabled = errors.New("audio upload disabled")

// Payload is one recording and its metadata.
type Payload struct {
	Audio        []byte
	Filename     string
	QuestionID   string
	QuestionText string
	QuestionType string
	Transcript   string
	DurationSecs int
	MinuteLogs   []scoring.MinuteScore
	UserID       string
}

// Config holds the upload target.
type Config struct {
	Endpoint string
	Timeout  time.Duration
	UserID   string
}

// Client posts multipart recordings.
type Client struct {
	endpoint string
	userID   string
	http     *http.Client
}

// New creates an upload client. An empty endpoint yields a client whose
// Upload always returns ErrDisabled.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserID == "" {
		cfg.UserID = "guest"
	}
	return &Client{
		endpoint: cfg.Endpoint,
		userID:   cfg.UserID,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c.endpoint != ""
}

// Upload posts the payload. Any transport failure or non-2xx status is
// returned as an error.
func (c *Client) Upload(ctx context.Context, p Payload) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	body, contentType, err := c.encode(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload recording: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload recording: unexpected status %d", resp.StatusCode)
	}

	log.Debug().
		Str("endpoint", c.endpoint).
		Str("questionId", p.QuestionID).
		Int("bytes", len(p.Audio)).
		Msg("Recording uploaded")
	return nil
}

func (c *Client) encode(p Payload) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := p.Filename
	if filename == "" {
		filename = fmt.Sprintf("rec-%d.wav", time.Now().UnixMilli())
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, filename))
	h.Set("Content-Type", contentTypeFor(p.Audio))
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create audio part: %w", err)
	}
	if _, err := part.Write(p.Audio); err != nil {
		return nil, "", fmt.Errorf("write audio part: %w", err)
	}

	logs := p.MinuteLogs
	if logs == nil {
		logs = []scoring.MinuteScore{}
	}
	minuteLogs, err := json.Marshal(logs)
	if err != nil {
		return nil, "", fmt.Errorf("marshal minute logs: %w", err)
	}

	userID := p.UserID
	if userID == "" {
		userID = c.userID
	}

	fields := []struct{ name, value string }{
		{"question_id", p.QuestionID},
		{"question_text", p.QuestionText},
		{"question_type", p.QuestionType},
		{"transcript", p.Transcript},
		{"duration_secs", strconv.Itoa(p.DurationSecs)},
		{"minute_logs", string(minuteLogs)},
		{"user_id", userID},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
