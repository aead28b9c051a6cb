// Package mock provides a deterministic engine for tests and for running
// the worker without model weights or cloud credentials.
package mock

import (
	"context"
	"fmt"
	"os"

	"audio-transcription-worker/internal/engine"
)

// DefaultSegments are the canned segments returned when none are injected.
var DefaultSegments = []engine.Segment{
	{
		Start: 0.0,
		End:   2.5,
		Text:  " Hola, bienvenidos a la audiencia.",
		Words: []engine.Word{
			{Word: " Hola,", Start: 0.0, End: 0.6, Probability: engine.Float64(0.97)},
			{Word: " bienvenidos", Start: 0.7, End: 1.4, Probability: engine.Float64(0.95)},
			{Word: " a", Start: 1.5, End: 1.6, Probability: engine.Float64(0.99)},
			{Word: " la", Start: 1.6, End: 1.8, Probability: engine.Float64(0.99)},
			{Word: " audiencia.", Start: 1.9, End: 2.5, Probability: engine.Float64(0.93)},
		},
	},
	{
		Start: 2.8,
		End:   5.1,
		Text:  " Comenzamos con el primer testigo. ",
		Words: []engine.Word{
			{Word: " Comenzamos", Start: 2.8, End: 3.5, Probability: engine.Float64(0.96)},
			{Word: " con", Start: 3.6, End: 3.8, Probability: engine.Float64(0.99)},
			{Word: " el", Start: 3.8, End: 3.9, Probability: engine.Float64(0.99)},
			{Word: " primer", Start: 4.0, End: 4.4, Probability: engine.Float64(0.97)},
			{Word: " testigo.", Start: 4.5, End: 5.1, Probability: engine.Float64(0.94)},
		},
	},
}

// Engine implements engine.Engine with canned results. Segments, Info and
// Err can be overridden per test.
type Engine struct {
	Segments []engine.Segment
	Info     engine.Info
	Err      error

	// LastOptions records the options of the most recent call.
	LastOptions engine.Options
	// Calls counts Transcribe invocations.
	Calls int
}

// New creates a mock engine with the default canned segments.
func New() *Engine {
	return &Engine{
		Segments: DefaultSegments,
		Info:     engine.Info{Language: "es", LanguageProbability: 0.99},
	}
}

// Name identifies the provider.
func (e *Engine) Name() string {
	return "mock"
}

// Transcribe returns the canned segments as a single-pass stream. The file
// at path must exist, mirroring a real engine failing on a missing input.
// Word data is attached only when word timestamps were requested.
func (e *Engine) Transcribe(ctx context.Context, path string, opts engine.Options) (engine.Stream, engine.Info, error) {
	e.Calls++
	e.LastOptions = opts

	if e.Err != nil {
		return nil, engine.Info{}, e.Err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, engine.Info{}, fmt.Errorf("audio file not readable: %w", err)
	}

	segments := make([]engine.Segment, len(e.Segments))
	copy(segments, e.Segments)
	if !opts.WordTimestamps {
		for i := range segments {
			segments[i].Words = nil
		}
	}

	return engine.NewSliceStream(segments), e.Info, nil
}
