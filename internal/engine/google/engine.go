// Package google provides an engine backed by Google Cloud Speech-to-Text.
package google

import (
	"context"
	"fmt"
	"os"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"audio-transcription-worker/internal/engine"
)

// Engine implements engine.Engine using the synchronous Recognize API.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
type Engine struct {
	client *speech.Client
}

// New creates a Google engine. The client is created once and reused for
// the process lifetime.
func New(ctx context.Context) (*Engine, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &Engine{client: c}, nil
}

// Name identifies the provider.
func (e *Engine) Name() string {
	return "google"
}

// Close releases the underlying client.
func (e *Engine) Close() error {
	return e.client.Close()
}

// Transcribe reads the fetched file and runs one Recognize call. Encoding
// is left unspecified so the service infers it from the container header.
func (e *Engine) Transcribe(ctx context.Context, path string, opts engine.Options) (engine.Stream, engine.Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.Info{}, fmt.Errorf("read audio file: %w", err)
	}

	resp, err := e.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              speechpb.RecognitionConfig_ENCODING_UNSPECIFIED,
			LanguageCode:          languageCode(opts.Language),
			EnableWordTimeOffsets: opts.WordTimestamps,
			EnableWordConfidence:  opts.WordTimestamps,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return nil, engine.Info{}, fmt.Errorf("recognize: %w", err)
	}

	segments, info := convertResponse(resp, opts)
	return engine.NewSliceStream(segments), info, nil
}

// convertResponse maps Recognize results onto the engine segment shape.
// Each result becomes one segment; word offsets bound the segment times.
func convertResponse(resp *speechpb.RecognizeResponse, opts engine.Options) ([]engine.Segment, engine.Info) {
	var segments []engine.Segment
	info := engine.Info{Language: opts.Language}

	for _, result := range resp.GetResults() {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		alt := result.GetAlternatives()[0]

		seg := engine.Segment{
			Text: alt.GetTranscript(),
			End:  result.GetResultEndTime().AsDuration().Seconds(),
		}
		if lang := result.GetLanguageCode(); lang != "" {
			info.Language = lang
		}
		if info.LanguageProbability == 0 {
			info.LanguageProbability = float64(alt.GetConfidence())
		}

		words := alt.GetWords()
		if len(words) > 0 {
			seg.Start = words[0].GetStartTime().AsDuration().Seconds()
			seg.End = words[len(words)-1].GetEndTime().AsDuration().Seconds()
			if opts.WordTimestamps {
				for _, w := range words {
					word := engine.Word{
						Word:  w.GetWord(),
						Start: w.GetStartTime().AsDuration().Seconds(),
						End:   w.GetEndTime().AsDuration().Seconds(),
					}
					if c := w.GetConfidence(); c > 0 {
						word.Probability = engine.Float64(float64(c))
					}
					seg.Words = append(seg.Words, word)
				}
			}
		} else if len(segments) > 0 {
			seg.Start = segments[len(segments)-1].End
		}

		segments = append(segments, seg)
	}

	return segments, info
}

// languageCode widens bare ISO-639-1 codes to the BCP-47 form the API
// expects; full codes pass through untouched.
func languageCode(lang string) string {
	switch lang {
	case "", "es":
		return "es-ES"
	case "en":
		return "en-US"
	case "pt":
		return "pt-BR"
	case "fr":
		return "fr-FR"
	case "de":
		return "de-DE"
	default:
		return lang
	}
}
