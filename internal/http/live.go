package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"ai-interview-eval-service/internal/scoring"
	"ai-interview-eval-service/internal/service/recording"
)

const (
	liveBuffer     = 64
	liveWriteWait  = 5 * time.Second
	maxLiveMessage = 1 << 20
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev
	},
}

// LiveMessage is one server-to-client message on the live channel.
type LiveMessage struct {
	Type        string               `json:"type"` // snapshot, state, tick, transcript, minute, error
	State       string               `json:"state,omitempty"`
	ElapsedSecs int                  `json:"elapsedSecs,omitempty"`
	Final       string               `json:"final,omitempty"`
	Interim     string               `json:"interim,omitempty"`
	Minute      *scoring.MinuteScore `json:"minute,omitempty"`
	Snapshot    *recording.Snapshot  `json:"snapshot,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// LiveCommand is a client-to-server text message. Binary messages carry
// audio frames.
type LiveCommand struct {
	Action string `json:"action"` // stop, append, replace
	Text   string `json:"text,omitempty"`
}

// live streams audio in and recording events out over one WebSocket.
func (h *handler) live(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.recording(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	conn.SetReadLimit(maxLiveMessage)

	id := chi.URLParam(r, "id")
	logger := h.logger.With().Str("recordingId", id).Logger()

	out := make(chan LiveMessage, liveBuffer)
	var (
		mu     sync.Mutex
		closed bool
	)
	send := func(m LiveMessage) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- m:
		default:
			logger.Debug().Str("type", m.Type).Msg("Live client too slow, message dropped")
		}
	}

	snap := rec.Session.Snapshot()
	out <- LiveMessage{Type: "snapshot", Snapshot: &snap}

	unsubscribe := rec.Session.Subscribe(recording.ListenerFuncs{
		StateChange: func(_ string, st recording.State) {
			send(LiveMessage{Type: "state", State: st.String()})
		},
		Tick: func(_ string, elapsed int) {
			send(LiveMessage{Type: "tick", ElapsedSecs: elapsed})
		},
		Transcript: func(_ string, final, interim string) {
			send(LiveMessage{Type: "transcript", Final: final, Interim: interim})
		},
		MinuteScore: func(_ string, ms scoring.MinuteScore) {
			send(LiveMessage{Type: "minute", Minute: &ms})
		},
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for m := range out {
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(m); err != nil {
				logger.Debug().Err(err).Msg("Live write error")
				// Drain so senders never block on a dead client.
				for range out {
				}
				return
			}
		}
	}()

	logger.Info().Msg("Live client connected")
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		switch kind {
		case websocket.BinaryMessage:
			if err := h.practice.WriteAudio(r.Context(), id, data); err != nil {
				send(LiveMessage{Type: "error", Error: err.Error()})
			}
		case websocket.TextMessage:
			h.handleCommand(rec.Session, data, send)
		}
	}

	unsubscribe()
	mu.Lock()
	closed = true
	close(out)
	mu.Unlock()
	<-done
	_ = conn.Close()
	logger.Info().Msg("Live client disconnected")
}

func (h *handler) handleCommand(s *recording.Session, data []byte, send func(LiveMessage)) {
	var cmd LiveCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		send(LiveMessage{Type: "error", Error: "invalid command: " + err.Error()})
		return
	}
	switch cmd.Action {
	case "stop":
		if err := s.Stop(); err != nil {
			send(LiveMessage{Type: "error", Error: err.Error()})
		}
	case "append":
		s.AppendText(cmd.Text)
	case "replace":
		s.SetTranscript(cmd.Text)
	default:
		send(LiveMessage{Type: "error", Error: "unknown action " + cmd.Action})
	}
}
