// Package whisper provides an engine backed by a faster-whisper server
// speaking the OpenAI-compatible audio transcription API.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"audio-transcription-worker/internal/engine"
)

const defaultModel = "large-v3"

// Engine uploads the fetched file to a faster-whisper server and parses
// the verbose_json response, timestamps included.
type Engine struct {
	endpoint string
	model    string
	client   *http.Client
}

// New creates a whisper engine. endpoint is the server base URL, e.g.
// http://whisper:8000.
func New(endpoint, model string) *Engine {
	if model == "" {
		model = defaultModel
	}
	return &Engine{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client: &http.Client{
			// Long ceiling: large files on CPU inference are slow. The
			// request context still bounds individual calls.
			Timeout: 30 * time.Minute,
		},
	}
}

// Name identifies the provider.
func (e *Engine) Name() string {
	return "whisper"
}

type verboseWord struct {
	Word        string   `json:"word"`
	Start       float64  `json:"start"`
	End         float64  `json:"end"`
	Probability *float64 `json:"probability"`
}

type verboseSegment struct {
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Text  string        `json:"text"`
	Words []verboseWord `json:"words"`
}

type verboseResponse struct {
	Language            string           `json:"language"`
	LanguageProbability float64          `json:"language_probability"`
	Duration            float64          `json:"duration"`
	Text                string           `json:"text"`
	Segments            []verboseSegment `json:"segments"`
}

// Transcribe uploads the file and returns the server's segments as a
// single-pass stream.
func (e *Engine) Transcribe(ctx context.Context, path string, opts engine.Options) (engine.Stream, engine.Info, error) {
	body, contentType, err := e.buildForm(path, opts)
	if err != nil {
		return nil, engine.Info{}, err
	}

	url := e.endpoint + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, engine.Info{}, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, engine.Info{}, fmt.Errorf("whisper server request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, engine.Info{}, fmt.Errorf("read whisper server response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, engine.Info{}, fmt.Errorf("whisper server returned %s: %s",
			resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed verboseResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, engine.Info{}, fmt.Errorf("parse whisper server response: %w", err)
	}

	segments := make([]engine.Segment, 0, len(parsed.Segments))
	for _, s := range parsed.Segments {
		seg := engine.Segment{Start: s.Start, End: s.End, Text: s.Text}
		if opts.WordTimestamps {
			for _, w := range s.Words {
				seg.Words = append(seg.Words, engine.Word{
					Word:        w.Word,
					Start:       w.Start,
					End:         w.End,
					Probability: w.Probability,
				})
			}
		}
		segments = append(segments, seg)
	}

	info := engine.Info{
		Language:            parsed.Language,
		LanguageProbability: parsed.LanguageProbability,
	}
	return engine.NewSliceStream(segments), info, nil
}

func (e *Engine) buildForm(path string, opts engine.Options) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := map[string]string{
		"model":           e.model,
		"response_format": "verbose_json",
	}
	if opts.Language != "" {
		fields["language"] = opts.Language
	}
	if opts.Task != "" {
		fields["task"] = opts.Task
	}
	if opts.BeamSize > 0 {
		fields["beam_size"] = strconv.Itoa(opts.BeamSize)
	}
	if opts.BestOf > 0 {
		fields["best_of"] = strconv.Itoa(opts.BestOf)
	}
	if opts.VADFilter {
		fields["vad_filter"] = "true"
		if opts.MinSilenceDurationMs > 0 {
			fields["min_silence_duration_ms"] = strconv.Itoa(opts.MinSilenceDurationMs)
		}
	}
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}
	if opts.WordTimestamps {
		if err := mw.WriteField("timestamp_granularities[]", "word"); err != nil {
			return nil, "", err
		}
		if err := mw.WriteField("timestamp_granularities[]", "segment"); err != nil {
			return nil, "", err
		}
	}

	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, "", fmt.Errorf("copy audio into form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return &body, mw.FormDataContentType(), nil
}
