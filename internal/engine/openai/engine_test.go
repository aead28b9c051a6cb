package openai

import "testing"

func TestWrapTranscript(t *testing.T) {
	segments, info := wrapTranscript("  hola mundo  ", "es")

	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Text != "hola mundo" {
		t.Errorf("expected trimmed text, got %q", segments[0].Text)
	}
	if segments[0].Start != 0 || segments[0].End != 0 {
		t.Error("expected untimed segment")
	}
	if info.Language != "es" {
		t.Errorf("expected language es, got %q", info.Language)
	}
}

func TestWrapTranscript_Empty(t *testing.T) {
	segments, _ := wrapTranscript("   ", "es")
	if len(segments) != 0 {
		t.Errorf("expected no segments for blank transcript, got %d", len(segments))
	}
}
