package transcribe

import (
	"context"
	"errors"
	"sync"
	"testing"

	"audio-transcription-worker/internal/engine"
)

// onePassEngine returns a genuinely single-pass stream and records whether
// two calls ever overlap.
type onePassEngine struct {
	segments []engine.Segment
	err      error

	mu      sync.Mutex
	active  int
	maxSeen int
}

func (e *onePassEngine) Name() string { return "test" }

func (e *onePassEngine) Transcribe(ctx context.Context, path string, opts engine.Options) (engine.Stream, engine.Info, error) {
	e.mu.Lock()
	e.active++
	if e.active > e.maxSeen {
		e.maxSeen = e.active
	}
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.active--
		e.mu.Unlock()
	}()

	if e.err != nil {
		return nil, engine.Info{}, e.err
	}
	return engine.NewSliceStream(e.segments), engine.Info{Language: "es"}, nil
}

func TestOrchestrator_MaterializesStreamOnce(t *testing.T) {
	eng := &onePassEngine{segments: []engine.Segment{
		{Start: 0, End: 1, Text: "a"},
		{Start: 1, End: 2, Text: "b"},
	}}
	o := NewOrchestrator(eng)

	segments, info, err := o.Transcribe(context.Background(), "/tmp/a.mp3", engine.DefaultOptions())
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if info.Language != "es" {
		t.Errorf("expected language es, got %s", info.Language)
	}

	// The materialized slice supports as many passes as callers need.
	total := 0
	for range segments {
		total++
	}
	for range segments {
		total++
	}
	if total != 4 {
		t.Errorf("expected slice to be reusable, counted %d", total)
	}
}

func TestOrchestrator_PropagatesEngineError(t *testing.T) {
	eng := &onePassEngine{err: errors.New("corrupt audio")}
	o := NewOrchestrator(eng)

	if _, _, err := o.Transcribe(context.Background(), "/tmp/a.mp3", engine.DefaultOptions()); err == nil {
		t.Fatal("expected engine error to propagate")
	}
}

func TestOrchestrator_SerializesEngineAccess(t *testing.T) {
	eng := &onePassEngine{segments: []engine.Segment{{Start: 0, End: 1, Text: "a"}}}
	o := NewOrchestrator(eng)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.Transcribe(context.Background(), "/tmp/a.mp3", engine.DefaultOptions())
		}()
	}
	wg.Wait()

	if eng.maxSeen > 1 {
		t.Errorf("expected at most one concurrent engine call, saw %d", eng.maxSeen)
	}
}
