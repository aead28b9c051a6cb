package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"audio-transcription-worker/internal/engine"
	"audio-transcription-worker/internal/engine/mock"
	"audio-transcription-worker/internal/events"
	"audio-transcription-worker/internal/fetch"
	"audio-transcription-worker/internal/security"
	"audio-transcription-worker/internal/service/transcription"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, url string) (*fetch.Media, error) {
	tmp, err := os.CreateTemp("", "router-test-*.media")
	if err != nil {
		return nil, err
	}
	tmp.Close()
	return &fetch.Media{Path: tmp.Name()}, nil
}

type stubTranscriber struct {
	eng *mock.Engine
}

func (s stubTranscriber) Provider() string { return s.eng.Name() }

func (s stubTranscriber) Transcribe(ctx context.Context, path string, opts engine.Options) ([]engine.Segment, engine.Info, error) {
	stream, info, err := s.eng.Transcribe(ctx, path, opts)
	if err != nil {
		return nil, engine.Info{}, err
	}
	segments, err := engine.Drain(stream)
	return segments, info, err
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	handler := transcription.NewHandler(
		security.NewValidator(security.NewAllowList("", "")),
		stubFetcher{},
		stubTranscriber{eng: mock.New()},
		events.New(&events.Config{Enabled: false}),
		transcription.Defaults{},
	)
	return NewRouter(handler)
}

func TestLiveness(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/liveness", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %q", rec.Body.String())
	}
}

func TestReadiness(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/readiness", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestTranscriptions_Success(t *testing.T) {
	router := newTestRouter(t)

	body := `{"audioUrl": "https://files.lawia.app/call.mp3"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/transcriptions", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if result["status"] != "completed" {
		t.Errorf("expected status completed, got %v", result["status"])
	}
	if _, ok := result["segments"]; !ok {
		t.Error("expected segments in response")
	}
	if _, ok := result["error"]; ok {
		t.Error("success response must not carry an error field")
	}
}

func TestTranscriptions_MissingURL(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/transcriptions", strings.NewReader(`{}`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	assertErrorEnvelope(t, rec)
}

func TestTranscriptions_InvalidJSON(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/transcriptions", strings.NewReader(`{not json`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	assertErrorEnvelope(t, rec)
}

func TestTranscriptions_DeniedURL(t *testing.T) {
	router := newTestRouter(t)

	tests := []string{
		`{"audioUrl": "http://169.254.169.254/latest/meta-data/"}`,
		`{"audioUrl": "ftp://files.lawia.app/a.mp3"}`,
		`{"audioUrl": "https://attacker.example/a.mp3"}`,
	}
	for _, body := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/transcriptions", strings.NewReader(body)))

		if rec.Code != http.StatusForbidden {
			t.Errorf("body %s: expected 403, got %d", body, rec.Code)
		}
		assertErrorEnvelope(t, rec)
	}
}

// assertErrorEnvelope checks the failure body is exactly {"error": msg}.
func assertErrorEnvelope(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()

	var envelope map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("error body is not valid JSON: %v", err)
	}
	msg, ok := envelope["error"].(string)
	if !ok || msg == "" {
		t.Errorf("expected non-empty error message, got %v", envelope)
	}
	if len(envelope) != 1 {
		t.Errorf("error envelope must carry only the error field, got %v", envelope)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind transcription.ErrorKind
		want int
	}{
		{transcription.KindInput, http.StatusBadRequest},
		{transcription.KindSecurity, http.StatusForbidden},
		{transcription.KindDownload, http.StatusBadGateway},
		{transcription.KindEngine, http.StatusInternalServerError},
		{transcription.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.kind); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
