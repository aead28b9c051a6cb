// Package http exposes the worker over a JSON HTTP API.
package http

import (
	"encoding/json"
	"net/http"

	"audio-transcription-worker/internal/observability"
	"audio-transcription-worker/internal/service/transcription"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// errorEnvelope is the uniform failure body: a single message, nothing
// about the failing stage.
type errorEnvelope struct {
	Error string `json:"error"`
}

// NewRouter constructs the HTTP router for the worker.
func NewRouter(handler *transcription.Handler) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestLogger)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/transcriptions", func(w http.ResponseWriter, req *http.Request) {
			var body transcription.Request
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}

			result, reqErr := handler.Handle(req.Context(), body)
			if reqErr != nil {
				writeError(w, statusFor(reqErr.Kind), reqErr.Message)
				return
			}

			writeJSON(w, http.StatusOK, result)
		})
	})

	return r
}

// statusFor maps a pipeline failure stage onto an HTTP status code.
func statusFor(kind transcription.ErrorKind) int {
	switch kind {
	case transcription.KindInput:
		return http.StatusBadRequest
	case transcription.KindSecurity:
		return http.StatusForbidden
	case transcription.KindDownload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{Error: message})
}
