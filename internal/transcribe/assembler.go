package transcribe

import (
	"math"
	"strings"

	"audio-transcription-worker/internal/engine"
	"audio-transcription-worker/internal/models"
)

// Assemble builds the response document from materialized engine segments,
// in emission order. Ids are assigned here, sequentially from 0; engine
// numbering is not trusted. An empty segment list is a valid completed
// result, not an error.
func Assemble(segments []engine.Segment, info engine.Info, wordTimestamps bool) *models.TranscriptionResult {
	texts := make([]string, 0, len(segments))
	out := make([]models.TranscriptSegment, 0, len(segments))

	for idx, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		texts = append(texts, text)

		assembled := models.TranscriptSegment{
			ID:      idx,
			Start:   round3(seg.Start),
			End:     round3(seg.End),
			StartMs: toMillis(seg.Start),
			EndMs:   toMillis(seg.End),
			Text:    text,
		}

		if wordTimestamps && len(seg.Words) > 0 {
			assembled.Words = make([]models.TranscriptWord, 0, len(seg.Words))
			for _, w := range seg.Words {
				word := models.TranscriptWord{
					Word:  w.Word,
					Start: round3(w.Start),
					End:   round3(w.End),
				}
				if w.Probability != nil {
					p := round3(*w.Probability)
					word.Probability = &p
				}
				assembled.Words = append(assembled.Words, word)
			}
		}

		out = append(out, assembled)
	}

	var duration float64
	if len(out) > 0 {
		duration = out[len(out)-1].End
	}

	return &models.TranscriptionResult{
		Text:                strings.Join(texts, " "),
		Transcription:       strings.Join(texts, " "),
		Language:            info.Language,
		LanguageProbability: info.LanguageProbability,
		DurationSeconds:     duration,
		SegmentsCount:       len(out),
		Segments:            out,
		HasWordTimestamps:   wordTimestamps,
		Status:              models.StatusCompleted,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// toMillis rounds rather than truncates: 2.501 is stored as 2500.999...
// in binary, and truncation would drop a whole millisecond.
func toMillis(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}
