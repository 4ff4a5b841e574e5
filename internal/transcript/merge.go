package transcript

import (
	"math"
	"sort"
	"strings"
)

// charsPerSecond approximates speech rate. It bounds how far back we
// search for duplicated text where two chunks overlap in time. The
// estimate is deliberately rough; real speech varies, but there is no
// ground truth alignment available at merge time.
const charsPerSecond = 15.0

// Merge reassembles per-chunk results into one transcript with absolute
// timestamps. Chunks may be passed in any order; ordinals and offsets
// carried by each ChunkResult determine the outcome deterministically.
func Merge(chunks []ChunkResult) Merged {
	words := collectWords(chunks)
	segments := collectSegments(chunks)

	merged := Merged{
		Segments: resolveOverlaps(segments),
		Words:    dedupeWords(words),
	}

	for i := range merged.Segments {
		merged.Segments[i].ID = i
	}
	merged.Text = joinSegmentTexts(merged.Segments)
	return merged
}

type ordinalWord struct {
	Word
	ordinal int
}

type ordinalSegment struct {
	Segment
	ordinal int
}

func collectWords(chunks []ChunkResult) []ordinalWord {
	var words []ordinalWord
	for _, chunk := range chunks {
		offset := chunk.Offset.Seconds()
		for _, w := range chunk.Result.Words {
			w.Start += offset
			w.End += offset
			words = append(words, ordinalWord{Word: w, ordinal: chunk.Index})
		}
	}

	sort.SliceStable(words, func(i, j int) bool {
		if words[i].Start != words[j].Start {
			return words[i].Start < words[j].Start
		}
		return words[i].ordinal < words[j].ordinal
	})
	return words
}

func collectSegments(chunks []ChunkResult) []ordinalSegment {
	var segments []ordinalSegment
	for _, chunk := range chunks {
		offset := chunk.Offset.Seconds()
		for _, s := range chunk.Result.Segments {
			s.Start += offset
			s.End += offset
			segments = append(segments, ordinalSegment{Segment: s, ordinal: chunk.Index})
		}
	}

	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].Start != segments[j].Start {
			return segments[i].Start < segments[j].Start
		}
		return segments[i].ordinal < segments[j].ordinal
	})
	return segments
}

// dedupeWords drops words that a neighbouring chunk already produced.
// Two words are duplicates when their start times round to the same
// hundredth of a second and their text matches exactly.
func dedupeWords(words []ordinalWord) []Word {
	type wordKey struct {
		centis int64
		text   string
	}

	out := make([]Word, 0, len(words))
	seen := make(map[wordKey]int, len(words))
	for _, w := range words {
		key := wordKey{centis: int64(math.Round(w.Start * 100)), text: w.Word.Word}
		if first, ok := seen[key]; ok && first != w.ordinal {
			continue
		}
		seen[key] = w.ordinal
		out = append(out, w.Word)
	}
	return out
}

// resolveOverlaps folds time-sorted segments into a non-overlapping
// sequence. A segment starting strictly before the current one ends is
// reconciled textually; everything else starts a new output segment.
func resolveOverlaps(segments []ordinalSegment) []Segment {
	out := make([]Segment, 0, len(segments))

	var current Segment
	haveCurrent := false
	for _, next := range segments {
		if !haveCurrent {
			current = next.Segment
			haveCurrent = true
			continue
		}

		if next.Start < current.End {
			current.Text = reconcileTexts(current.Text, next.Text, current.End-next.Start)
			if next.End > current.End {
				current.End = next.End
			}
			// confidence fields stay as reported for the first segment
			continue
		}

		out = append(out, current)
		current = next.Segment
	}
	if haveCurrent {
		out = append(out, current)
	}
	return out
}

// reconcileTexts splices the texts of two time-overlapping segments.
// overlapSeconds is how far the first segment extends past the start of
// the second; it bounds the duplicated-text search via charsPerSecond.
func reconcileTexts(first, second string, overlapSeconds float64) string {
	a := strings.TrimSpace(first)
	b := strings.TrimSpace(second)
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}

	// One side fully contained in the other: the shorter is redundant.
	if strings.Contains(a, b) {
		return a
	}
	if strings.Contains(b, a) {
		return b
	}

	ar := []rune(a)
	br := []rune(b)
	bound := int(overlapSeconds * charsPerSecond)
	if bound > len(ar) {
		bound = len(ar)
	}
	if bound > len(br) {
		bound = len(br)
	}

	for k := bound; k > 0; k-- {
		if string(ar[len(ar)-k:]) == string(br[:k]) {
			return a + string(br[k:])
		}
	}

	// No shared text found within the estimated overlap; treat the
	// segments as adjacent content.
	return a + " " + b
}

func joinSegmentTexts(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}
