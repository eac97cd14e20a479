package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ai-interview-eval-service/internal/questions"
	"ai-interview-eval-service/internal/scoring"
	"ai-interview-eval-service/internal/service/capture"
	"ai-interview-eval-service/internal/service/capture/push"
	"ai-interview-eval-service/internal/service/practice"
	"ai-interview-eval-service/internal/service/recording"
	"ai-interview-eval-service/internal/store"
)

const (
	maxJSONBody  = 1 << 20
	maxAudioBody = 4 << 20
)

type handler struct {
	practice  *practice.Service
	questions *questions.Bank
	logger    zerolog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scoring.ErrInsufficientInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, capture.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, practice.ErrUnknownRecording), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, recording.ErrAlreadyRecording),
		errors.Is(err, recording.ErrNotRecording),
		errors.Is(err, push.ErrNoStream),
		errors.Is(err, push.ErrStreamReleased):
		return http.StatusConflict
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// --- questions and stateless scoring ---

func (h *handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = scoring.ModeBehavioral
	}
	qs, err := h.questions.ForMode(mode)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (h *handler) evaluateBehavioral(w http.ResponseWriter, r *http.Request) {
	var req practice.AnswerRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.practice.EvaluateBehavioral(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) evaluateVoice(w http.ResponseWriter, r *http.Request) {
	var req practice.TranscriptRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.practice.EvaluateVoice(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type minuteRequest struct {
	Transcript string `json:"transcript"`
	Minute     int    `json:"minute"`
}

func (h *handler) scoreMinute(w http.ResponseWriter, r *http.Request) {
	var req minuteRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Minute <= 0 {
		req.Minute = 1
	}
	if scoring.WordCount(req.Transcript) == 0 {
		h.fail(w, r, scoring.ErrInsufficientInput)
		return
	}
	writeJSON(w, http.StatusOK, scoring.ScoreMinute(req.Transcript, req.Minute))
}

// --- live recordings ---

type recordingResponse struct {
	practice.Question
	UserID   string             `json:"user_id"`
	BackedUp bool               `json:"backed_up"`
	Snapshot recording.Snapshot `json:"snapshot"`
}

func respondRecording(w http.ResponseWriter, status int, rec *practice.Recording) {
	writeJSON(w, status, recordingResponse{
		Question: rec.Question,
		UserID:   rec.UserID,
		BackedUp: rec.BackedUp(),
		Snapshot: rec.Session.Snapshot(),
	})
}

func (h *handler) startRecording(w http.ResponseWriter, r *http.Request) {
	var req practice.StartRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.practice.StartRecording(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondRecording(w, http.StatusCreated, rec)
}

func (h *handler) recording(w http.ResponseWriter, r *http.Request) (*practice.Recording, bool) {
	rec, err := h.practice.Recording(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return rec, true
}

func (h *handler) getRecording(w http.ResponseWriter, r *http.Request) {
	if rec, ok := h.recording(w, r); ok {
		respondRecording(w, http.StatusOK, rec)
	}
}

func (h *handler) writeAudio(w http.ResponseWriter, r *http.Request) {
	frame, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBody))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: read audio: %v", errBadRequest, err))
		return
	}
	if err := h.practice.WriteAudio(r.Context(), chi.URLParam(r, "id"), frame); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type transcriptRequest struct {
	Text    string `json:"text"`
	Replace bool   `json:"replace"`
}

func (h *handler) editTranscript(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.recording(w, r)
	if !ok {
		return
	}
	var req transcriptRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Replace {
		rec.Session.SetTranscript(req.Text)
	} else {
		rec.Session.AppendText(req.Text)
	}
	respondRecording(w, http.StatusOK, rec)
}

func (h *handler) stopRecording(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.practice.StopRecording(id); err != nil {
		h.fail(w, r, err)
		return
	}
	if rec, ok := h.recording(w, r); ok {
		respondRecording(w, http.StatusOK, rec)
	}
}

func (h *handler) analyseRecording(w http.ResponseWriter, r *http.Request) {
	res, err := h.practice.AnalyseRecording(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type uploadResponse struct {
	BackedUp bool `json:"backed_up"`
}

func (h *handler) uploadRecording(w http.ResponseWriter, r *http.Request) {
	backedUp, err := h.practice.UploadRecording(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{BackedUp: backedUp})
}

func (h *handler) closeRecording(w http.ResponseWriter, r *http.Request) {
	if err := h.practice.CloseRecording(chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- stored sessions ---

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	f := store.Filter{SessionType: r.URL.Query().Get("type")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.fail(w, r, fmt.Errorf("%w: limit must be a non-negative integer", errBadRequest))
			return
		}
		f.Limit = n
	}
	records, err := h.practice.Sessions(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.practice.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) analytics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.practice.Analytics(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// null when nothing is stored yet
	writeJSON(w, http.StatusOK, summary)
}
