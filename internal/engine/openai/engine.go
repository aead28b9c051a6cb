// Package openai provides an engine backed by the hosted OpenAI audio
// transcription API.
package openai

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"

	"audio-transcription-worker/internal/engine"
)

const defaultModel = "whisper-1"

// Engine implements engine.Engine using the OpenAI SDK. The hosted API
// returns plain text without timestamps in its JSON format, so the result
// is wrapped as a single untimed segment; word timestamps are unsupported.
type Engine struct {
	client openai.Client
	model  string
}

// New creates an OpenAI engine. The API key is read from OPENAI_API_KEY by
// the SDK.
func New(model string) *Engine {
	if model == "" {
		model = defaultModel
	}
	return &Engine{
		client: openai.NewClient(),
		model:  model,
	}
}

// Name identifies the provider.
func (e *Engine) Name() string {
	return "openai"
}

// Transcribe uploads the file and wraps the transcript as one segment.
func (e *Engine) Transcribe(ctx context.Context, path string, opts engine.Options) (engine.Stream, engine.Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, engine.Info{}, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(e.model),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if opts.Language != "" {
		params.Language = param.NewOpt(opts.Language)
	}

	resp, err := e.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, engine.Info{}, fmt.Errorf("transcription request failed: %w", err)
	}
	if resp == nil {
		return nil, engine.Info{}, fmt.Errorf("transcription API returned nil response")
	}

	segments, info := wrapTranscript(resp.Text, opts.Language)
	return engine.NewSliceStream(segments), info, nil
}

// wrapTranscript turns a plain transcript into the engine segment shape.
// An empty transcript yields zero segments, which downstream treats as a
// valid completed result.
func wrapTranscript(text, language string) ([]engine.Segment, engine.Info) {
	info := engine.Info{Language: language}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, info
	}
	return []engine.Segment{{Text: trimmed}}, info
}
