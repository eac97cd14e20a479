package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ai-interview-eval-service/internal/app"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	h := &handler{
		practice:  application.Practice,
		questions: application.Questions,
		logger:    application.Logger.With().Str("component", "http").Logger(),
	}

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if !application.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/questions", h.listQuestions)

		r.Route("/evaluations", func(r chi.Router) {
			r.Post("/behavioral", h.evaluateBehavioral)
			r.Post("/voice", h.evaluateVoice)
			r.Post("/minute", h.scoreMinute)
		})

		r.Route("/recordings", func(r chi.Router) {
			r.Post("/", h.startRecording)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getRecording)
				r.Delete("/", h.closeRecording)
				r.Post("/audio", h.writeAudio)
				r.Post("/transcript", h.editTranscript)
				r.Post("/stop", h.stopRecording)
				r.Post("/analyse", h.analyseRecording)
				r.Post("/upload", h.uploadRecording)
				r.Get("/live", h.live)
			})
		})

		r.Get("/sessions", h.listSessions)
		r.Delete("/sessions/{id}", h.deleteSession)
		r.Get("/analytics", h.analytics)
	})

	return r
}
