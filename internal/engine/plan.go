package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidChunking reports a chunk/overlap configuration that cannot
// make progress through the recording.
var ErrInvalidChunking = errors.New("invalid chunking configuration")

// Window is one planned slice of the recording. Consecutive windows
// overlap by the configured overlap; the last window always ends at the
// total duration.
type Window struct {
	Index int
	Start time.Duration
	End   time.Duration
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.End - w.Start
}

func (w Window) String() string {
	return fmt.Sprintf("window %d: %s-%s", w.Index, w.Start, w.End)
}

// Plan computes the chunk windows covering [0, total]. Each window spans
// at most chunkLength and starts chunkLength-overlap after the previous
// one, so every boundary is heard twice. A zero total yields no windows;
// the caller short-circuits with an empty transcript.
func Plan(total, chunkLength, overlap time.Duration) ([]Window, error) {
	if chunkLength <= 0 {
		return nil, fmt.Errorf("%w: chunk length %s must be positive", ErrInvalidChunking, chunkLength)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %s must not be negative", ErrInvalidChunking, overlap)
	}
	if overlap >= chunkLength {
		return nil, fmt.Errorf("%w: overlap %s must be shorter than chunk length %s", ErrInvalidChunking, overlap, chunkLength)
	}
	if total <= 0 {
		return nil, nil
	}

	step := chunkLength - overlap
	var windows []Window
	for pos := time.Duration(0); pos < total; pos += step {
		end := pos + chunkLength
		if end > total {
			end = total
		}
		windows = append(windows, Window{Index: len(windows), Start: pos, End: end})
		if end >= total {
			break
		}
	}

	// Covering the audio beats honoring the configured chunk length.
	if len(windows) == 0 {
		windows = append(windows, Window{Index: 0, Start: 0, End: total})
	}

	return windows, nil
}
