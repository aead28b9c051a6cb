// Package transcribe coordinates engine invocation and assembles raw
// engine output into the canonical result document.
package transcribe

import (
	"context"
	"sync"
	"time"

	"audio-transcription-worker/internal/engine"
	"audio-transcription-worker/internal/observability/metrics"

	"github.com/rs/zerolog/log"
)

// Orchestrator owns the process-wide engine handle. Engines are not
// assumed safe for concurrent Transcribe calls on one handle, so access
// is serialized.
type Orchestrator struct {
	eng     engine.Engine
	mu      sync.Mutex
	metrics *metrics.Metrics
}

// NewOrchestrator wraps an engine handle loaded at startup.
func NewOrchestrator(eng engine.Engine) *Orchestrator {
	return &Orchestrator{
		eng:     eng,
		metrics: metrics.DefaultMetrics,
	}
}

// Provider returns the engine provider name.
func (o *Orchestrator) Provider() string {
	return o.eng.Name()
}

// Transcribe runs the engine on path and materializes its single-pass
// segment stream exactly once. Every later pass over the transcript works
// on the returned slice; touching the stream again would silently yield
// nothing.
func (o *Orchestrator) Transcribe(ctx context.Context, path string, opts engine.Options) ([]engine.Segment, engine.Info, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()

	stream, info, err := o.eng.Transcribe(ctx, path, opts)
	if err != nil {
		o.metrics.RecordEngine(o.eng.Name(), time.Since(start).Seconds(), err)
		return nil, engine.Info{}, err
	}

	segments, err := engine.Drain(stream)
	o.metrics.RecordEngine(o.eng.Name(), time.Since(start).Seconds(), err)
	if err != nil {
		return nil, engine.Info{}, err
	}

	log.Debug().
		Str("provider", o.eng.Name()).
		Int("segments", len(segments)).
		Str("language", info.Language).
		Dur("duration", time.Since(start)).
		Msg("Engine transcription completed")

	return segments, info, nil
}
