package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/longscribe/longscribe/internal/transcript"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatSRT  = "srt"
)

func (a *appState) writeResult(merged *transcript.Merged) error {
	out := a.outWriter()
	if a.outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(a.outputPath), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		f, err := os.Create(a.outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return renderTranscript(out, merged, a.format)
}

func renderTranscript(out io.Writer, merged *transcript.Merged, format string) error {
	switch format {
	case formatText, "":
		_, err := fmt.Fprintln(out, merged.Text)
		return err
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(merged)
	case formatSRT:
		return renderSRT(out, merged)
	default:
		return fmt.Errorf("unknown output format %q (want text, json, or srt)", format)
	}
}

// renderSRT writes the merged segments as SubRip subtitles, one cue per
// segment, numbered from 1.
func renderSRT(out io.Writer, merged *transcript.Merged) error {
	cue := 0
	for _, s := range merged.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		cue++
		if _, err := fmt.Fprintf(out, "%d\n%s --> %s\n%s\n\n",
			cue, srtTimestamp(s.Start), srtTimestamp(s.End), text); err != nil {
			return err
		}
	}
	return nil
}

func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int64(math.Round(seconds * 1000))
	h := millis / 3_600_000
	m := (millis % 3_600_000) / 60_000
	s := (millis % 60_000) / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
