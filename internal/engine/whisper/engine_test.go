package whisper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"audio-transcription-worker/internal/engine"
)

func tempAudioFile(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "audio-*.media")
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("fake audio bytes")
	f.Close()
	return f.Name()
}

func verboseFixture() map[string]any {
	return map[string]any{
		"language":             "es",
		"language_probability": 0.98,
		"duration":             5.1,
		"text":                 "Hola mundo. Adios.",
		"segments": []map[string]any{
			{
				"start": 0.0,
				"end":   2.5,
				"text":  " Hola mundo.",
				"words": []map[string]any{
					{"word": " Hola", "start": 0.0, "end": 0.5, "probability": 0.97},
					{"word": " mundo.", "start": 0.6, "end": 2.5, "probability": 0.95},
				},
			},
			{"start": 2.8, "end": 5.1, "text": " Adios."},
		},
	}
}

func TestTranscribe_ParsesVerboseJSON(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
		}
		if got := r.FormValue("model"); got != "large-v3" {
			t.Errorf("expected model large-v3, got %q", got)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("expected verbose_json, got %q", got)
		}
		if got := r.FormValue("language"); got != "es" {
			t.Errorf("expected language es, got %q", got)
		}
		if got := r.FormValue("beam_size"); got != "5" {
			t.Errorf("expected beam_size 5, got %q", got)
		}
		if got := r.FormValue("vad_filter"); got != "true" {
			t.Errorf("expected vad_filter true, got %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("expected uploaded file: %v", err)
		}
		json.NewEncoder(w).Encode(verboseFixture())
	}))
	defer server.Close()

	e := New(server.URL, "")
	opts := engine.DefaultOptions()
	opts.WordTimestamps = true

	stream, info, err := e.Transcribe(context.Background(), tempAudioFile(t), opts)
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if gotPath != "/v1/audio/transcriptions" {
		t.Errorf("unexpected request path %q", gotPath)
	}

	segments, err := engine.Drain(stream)
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Text != " Hola mundo." {
		t.Errorf("unexpected first segment text %q", segments[0].Text)
	}
	if len(segments[0].Words) != 2 {
		t.Errorf("expected 2 words in first segment, got %d", len(segments[0].Words))
	}
	if segments[0].Words[0].Probability == nil || *segments[0].Words[0].Probability != 0.97 {
		t.Error("expected first word probability 0.97")
	}
	if len(segments[1].Words) != 0 {
		t.Error("expected no words on segment without word data")
	}
	if info.Language != "es" || info.LanguageProbability != 0.98 {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestTranscribe_WordsDroppedWhenNotRequested(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(verboseFixture())
	}))
	defer server.Close()

	e := New(server.URL, "")

	stream, _, err := e.Transcribe(context.Background(), tempAudioFile(t), engine.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	segments, _ := engine.Drain(stream)
	for i, seg := range segments {
		if len(seg.Words) != 0 {
			t.Errorf("segment %d: words present without word timestamps requested", i)
		}
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	e := New(server.URL, "tiny")

	if _, _, err := e.Transcribe(context.Background(), tempAudioFile(t), engine.DefaultOptions()); err == nil {
		t.Fatal("expected error for server failure")
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	e := New("http://localhost:1", "")

	if _, _, err := e.Transcribe(context.Background(), "/nonexistent/a.mp3", engine.DefaultOptions()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
