package mock

import (
	"context"
	"errors"
	"io"
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
	f.WriteString("fake audio")
	f.Close()
	return f.Name()
}

func TestTranscribe_ReturnsCannedSegments(t *testing.T) {
	e := New()
	path := tempAudioFile(t)

	stream, info, err := e.Transcribe(context.Background(), path, engine.DefaultOptions())
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}

	segments, err := engine.Drain(stream)
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	if len(segments) != len(DefaultSegments) {
		t.Errorf("expected %d segments, got %d", len(DefaultSegments), len(segments))
	}
	if info.Language != "es" {
		t.Errorf("expected language es, got %s", info.Language)
	}
}

func TestTranscribe_StreamIsSinglePass(t *testing.T) {
	e := New()
	path := tempAudioFile(t)

	stream, _, err := e.Transcribe(context.Background(), path, engine.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	first, err := engine.Drain(stream)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) == 0 {
		t.Fatal("expected segments on first pass")
	}

	// A drained stream yields nothing, which is exactly why callers must
	// materialize it before making a second pass.
	if _, err := stream.Next(); err != io.EOF {
		t.Errorf("expected io.EOF on second pass, got %v", err)
	}
}

func TestTranscribe_WordsOnlyWhenRequested(t *testing.T) {
	e := New()
	path := tempAudioFile(t)

	opts := engine.DefaultOptions()
	stream, _, _ := e.Transcribe(context.Background(), path, opts)
	segments, _ := engine.Drain(stream)
	for i, seg := range segments {
		if len(seg.Words) != 0 {
			t.Errorf("segment %d: expected no words without word timestamps", i)
		}
	}

	opts.WordTimestamps = true
	stream, _, _ = e.Transcribe(context.Background(), path, opts)
	segments, _ = engine.Drain(stream)
	for i, seg := range segments {
		if len(seg.Words) == 0 {
			t.Errorf("segment %d: expected words with word timestamps", i)
		}
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	e := New()

	if _, _, err := e.Transcribe(context.Background(), "/nonexistent/audio.mp3", engine.DefaultOptions()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTranscribe_InjectedError(t *testing.T) {
	e := New()
	e.Err = errors.New("model exploded")

	if _, _, err := e.Transcribe(context.Background(), tempAudioFile(t), engine.DefaultOptions()); err == nil {
		t.Fatal("expected injected error")
	}
}
