package transcript

import "time"

// Segment is one timed span of transcribed speech. Start and End are
// absolute seconds from the beginning of the original recording once a
// result has been merged; before merging they are relative to the chunk.
type Segment struct {
	ID               int     `json:"id"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	Temperature      float64 `json:"temperature,omitempty"`
	AvgLogprob       float64 `json:"avg_logprob,omitempty"`
	CompressionRatio float64 `json:"compression_ratio,omitempty"`
	NoSpeechProb     float64 `json:"no_speech_prob,omitempty"`
}

// Word is a single word with its timing.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// RawResult is the structured response for one chunk as returned by the
// transcription API. Timestamps are relative to the chunk's own start.
type RawResult struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Words    []Word    `json:"words"`
}

// Empty reports whether the result carries no speech at all.
func (r RawResult) Empty() bool {
	return r.Text == "" && len(r.Segments) == 0 && len(r.Words) == 0
}

// ChunkResult pairs one chunk's raw result with its position in the
// original recording. Index is the chunk's ordinal in planning order and
// Offset is the absolute start of the chunk's window.
type ChunkResult struct {
	Index  int
	Offset time.Duration
	Result RawResult
}

// Merged is the reassembled transcript for the whole recording. Segments
// and Words are ordered by time and carry absolute timestamps.
type Merged struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Words    []Word    `json:"words"`
}
