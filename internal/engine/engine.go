// Package engine defines the interface for speech-recognition engines.
package engine

import (
	"context"
	"io"
)

// Options configures one transcribe call. Zero values mean "engine default";
// the worker applies its own defaults before invoking an engine.
type Options struct {
	Language             string
	Task                 string
	BeamSize             int
	BestOf               int
	VADFilter            bool
	MinSilenceDurationMs int
	WordTimestamps       bool
}

// DefaultOptions returns the worker's standard decoding options.
func DefaultOptions() Options {
	return Options{
		Language:             "es",
		Task:                 "transcribe",
		BeamSize:             5,
		BestOf:               5,
		VADFilter:            true,
		MinSilenceDurationMs: 500,
	}
}

// Word is a word-level timestamp as emitted by an engine. Probability is
// nil when the engine does not score words; it is never fabricated.
type Word struct {
	Word        string
	Start       float64
	End         float64
	Probability *float64
}

// Segment is a raw engine segment, before assembly. Ids are not carried
// here: engines are not trusted to number segments.
type Segment struct {
	Start float64
	End   float64
	Text  string
	Words []Word
}

// Info carries engine-level result metadata.
type Info struct {
	Language            string
	LanguageProbability float64
}

// Stream is a single-pass source of segments in emission order. Next
// returns io.EOF once exhausted; a drained stream stays empty, so callers
// must materialize it before making multiple passes over the segments.
type Stream interface {
	Next() (Segment, error)
}

// Engine transcribes a local audio file. Implementations may be unsafe for
// concurrent Transcribe calls on one handle; the orchestrator serializes.
type Engine interface {
	// Name identifies the provider for logging and metrics.
	Name() string

	// Transcribe runs recognition on the file at path.
	Transcribe(ctx context.Context, path string, opts Options) (Stream, Info, error)
}

// Drain materializes a stream into a concrete slice, consuming it fully.
func Drain(s Stream) ([]Segment, error) {
	var out []Segment
	for {
		seg, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
}

type sliceStream struct {
	segments []Segment
	pos      int
}

// NewSliceStream wraps an in-memory segment list as a single-pass Stream.
func NewSliceStream(segments []Segment) Stream {
	return &sliceStream{segments: segments}
}

func (s *sliceStream) Next() (Segment, error) {
	if s.pos >= len(s.segments) {
		return Segment{}, io.EOF
	}
	seg := s.segments[s.pos]
	s.pos++
	return seg, nil
}

// Float64 returns a pointer to v, for optional word probabilities.
func Float64(v float64) *float64 {
	return &v
}
