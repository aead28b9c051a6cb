// Package transcription implements the one-shot request handler that wires
// URL validation, media fetch, engine invocation and result assembly.
package transcription

import (
	"context"
	"net/url"
	"strings"
	"time"

	"audio-transcription-worker/internal/engine"
	"audio-transcription-worker/internal/events"
	"audio-transcription-worker/internal/fetch"
	"audio-transcription-worker/internal/models"
	"audio-transcription-worker/internal/observability/metrics"
	"audio-transcription-worker/internal/security"
	"audio-transcription-worker/internal/transcribe"

	"github.com/rs/zerolog/log"
)

// Request is the invocation input. AudioURL is the only required field.
type Request struct {
	AudioURL       string `json:"audioUrl"`
	Language       string `json:"language,omitempty"`
	Task           string `json:"task,omitempty"`
	WordTimestamps bool   `json:"wordTimestamps,omitempty"`
}

// URLValidator renders an allow/deny verdict for a raw URL.
type URLValidator interface {
	Validate(rawURL string) security.Verdict
}

// MediaFetcher downloads a validated URL into a scoped temporary file.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Media, error)
}

// Transcriber runs the engine and returns materialized segments.
type Transcriber interface {
	Provider() string
	Transcribe(ctx context.Context, path string, opts engine.Options) ([]engine.Segment, engine.Info, error)
}

// Defaults are applied to request fields the caller omitted.
type Defaults struct {
	Language string
	Task     string
}

// Handler processes one transcription invocation at a time. All
// collaborators are read-only after construction.
type Handler struct {
	validator URLValidator
	fetcher   MediaFetcher
	engine    Transcriber
	publisher *events.Publisher
	defaults  Defaults
	metrics   *metrics.Metrics
}

// NewHandler wires the pipeline stages together.
func NewHandler(validator URLValidator, fetcher MediaFetcher, eng Transcriber, publisher *events.Publisher, defaults Defaults) *Handler {
	if defaults.Language == "" {
		defaults.Language = "es"
	}
	if defaults.Task == "" {
		defaults.Task = "transcribe"
	}
	return &Handler{
		validator: validator,
		fetcher:   fetcher,
		engine:    eng,
		publisher: publisher,
		defaults:  defaults,
		metrics:   metrics.DefaultMetrics,
	}
}

// Handle runs one invocation: input check, URL validation, fetch,
// transcribe, assemble. The temporary media file is released exactly once
// on every exit path past the fetch.
func (h *Handler) Handle(ctx context.Context, req Request) (*models.TranscriptionResult, *RequestError) {
	start := time.Now()

	result, reqErr := h.handle(ctx, req, start)
	if reqErr != nil {
		h.metrics.RecordRequest(reqErr.Kind.String(), time.Since(start).Seconds())
		return nil, reqErr
	}

	h.metrics.RecordRequest("success", time.Since(start).Seconds())
	return result, nil
}

func (h *Handler) handle(ctx context.Context, req Request, start time.Time) (*models.TranscriptionResult, *RequestError) {
	if strings.TrimSpace(req.AudioURL) == "" {
		return nil, inputError("audioUrl is required")
	}

	verdict := h.validator.Validate(req.AudioURL)
	if !verdict.Allowed {
		// Warn level: a denial here is a potential SSRF attempt and
		// feeds the audit trail. The full reason stays server-side.
		log.Warn().
			Str("url", req.AudioURL).
			Str("reason", verdict.Reason).
			Msg("URL blocked by SSRF validator")
		h.metrics.RecordDenial(denialClass(verdict.Reason))
		return nil, securityError("URL not allowed: " + verdict.Reason)
	}

	media, err := h.fetcher.Fetch(ctx, req.AudioURL)
	if err != nil {
		log.Error().Err(err).Str("url", req.AudioURL).Str("stage", "download").Msg("Media download failed")
		return nil, downloadError(err)
	}
	defer media.Cleanup()

	opts := engine.DefaultOptions()
	opts.Language = h.defaults.Language
	opts.Task = h.defaults.Task
	if req.Language != "" {
		opts.Language = req.Language
	}
	if req.Task != "" {
		opts.Task = req.Task
	}
	opts.WordTimestamps = req.WordTimestamps

	segments, info, err := h.engine.Transcribe(ctx, media.Path, opts)
	if err != nil {
		log.Error().Err(err).Str("url", req.AudioURL).Str("stage", "engine").Msg("Engine transcription failed")
		return nil, engineError(err)
	}

	result := transcribe.Assemble(segments, info, opts.WordTimestamps)
	if result.Language == "" {
		result.Language = opts.Language
	}
	h.metrics.RecordSegments(result.SegmentsCount)

	log.Info().
		Str("provider", h.engine.Provider()).
		Str("language", result.Language).
		Float64("durationSeconds", result.DurationSeconds).
		Int("segments", result.SegmentsCount).
		Int("chars", len(result.Text)).
		Dur("elapsed", time.Since(start)).
		Msg("Transcription completed")

	h.publishCompleted(ctx, req.AudioURL, result)

	return result, nil
}

// publishCompleted emits the completion event. Publishing is best-effort:
// a broker failure never fails a finished transcription.
func (h *Handler) publishCompleted(ctx context.Context, rawURL string, result *models.TranscriptionResult) {
	if h.publisher == nil {
		return
	}

	host := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		host = parsed.Hostname()
	}

	event := models.TranscriptionCompleted{
		EventType:       models.EventTranscriptionCompleted,
		SourceHost:      host,
		Language:        result.Language,
		DurationSeconds: result.DurationSeconds,
		SegmentsCount:   result.SegmentsCount,
		Timestamp:       time.Now().UnixMilli(),
	}

	if err := h.publisher.PublishCompleted(ctx, host, event); err != nil {
		log.Error().Err(err).Msg("Failed to publish completion event")
	}
}

// denialClass buckets validator reasons into low-cardinality metric labels.
func denialClass(reason string) string {
	switch {
	case strings.HasPrefix(reason, "scheme"):
		return "scheme"
	case strings.HasPrefix(reason, "metadata"):
		return "metadata_ip"
	case strings.HasPrefix(reason, "IP"):
		return "private_ip"
	case strings.HasPrefix(reason, "missing"):
		return "missing_hostname"
	default:
		return "host_not_allowed"
	}
}
