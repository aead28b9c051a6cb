// Package models defines the transcription result documents and events.
package models

// StatusCompleted is the status reported on every successful result,
// including empty transcripts.
const StatusCompleted = "completed"

// TranscriptWord is a word-level timestamp within a segment. Probability
// is omitted when the engine did not score the word.
type TranscriptWord struct {
	Word        string   `json:"word"`
	Start       float64  `json:"start"`
	End         float64  `json:"end"`
	Probability *float64 `json:"probability,omitempty"`
}

// TranscriptSegment is one contiguous span of transcribed audio. Ids are
// sequential and assigned by the assembler, never taken from the engine.
type TranscriptSegment struct {
	ID      int              `json:"id"`
	Start   float64          `json:"start"`
	End     float64          `json:"end"`
	StartMs int64            `json:"startMs"`
	EndMs   int64            `json:"endMs"`
	Text    string           `json:"text"`
	Words   []TranscriptWord `json:"words,omitempty"`
}

// TranscriptionResult is the response document for one invocation.
// Transcription mirrors Text for callers that expect the legacy key.
type TranscriptionResult struct {
	Text                string              `json:"text"`
	Transcription       string              `json:"transcription"`
	Language            string              `json:"language"`
	LanguageProbability float64             `json:"languageProbability"`
	DurationSeconds     float64             `json:"durationSeconds"`
	SegmentsCount       int                 `json:"segmentsCount"`
	Segments            []TranscriptSegment `json:"segments"`
	HasWordTimestamps   bool                `json:"hasWordTimestamps"`
	Status              string              `json:"status"`
}

// TranscriptionCompleted is the event published after a successful
// invocation. Only the source host is carried, never the full URL, so
// signed query parameters stay out of the event stream.
type TranscriptionCompleted struct {
	EventType       string  `json:"eventType"`
	SourceHost      string  `json:"sourceHost"`
	Language        string  `json:"language"`
	DurationSeconds float64 `json:"durationSeconds"`
	SegmentsCount   int     `json:"segmentsCount"`
	Timestamp       int64   `json:"timestamp"`
}

// EventTranscriptionCompleted is the eventType value for TranscriptionCompleted.
const EventTranscriptionCompleted = "transcription.completed"
