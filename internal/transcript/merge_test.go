package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMergeEmptyInput(t *testing.T) {
	t.Parallel()

	merged := Merge(nil)
	require.Empty(t, merged.Text)
	require.Empty(t, merged.Segments)
	require.Empty(t, merged.Words)
}

func TestMergeSingleChunkIsIdentity(t *testing.T) {
	t.Parallel()

	raw := RawResult{
		Text: "hello world",
		Segments: []Segment{
			{ID: 0, Start: 0.0, End: 1.2, Text: "hello world", AvgLogprob: -0.3, NoSpeechProb: 0.01},
		},
		Words: []Word{
			{Word: "hello", Start: 0.0, End: 0.5},
			{Word: "world", Start: 0.6, End: 1.2},
		},
	}

	merged := Merge([]ChunkResult{{Index: 0, Offset: 0, Result: raw}})

	require.Equal(t, "hello world", merged.Text)
	require.Len(t, merged.Segments, 1)
	require.InDelta(t, 0.0, merged.Segments[0].Start, 1e-9)
	require.InDelta(t, 1.2, merged.Segments[0].End, 1e-9)
	require.InDelta(t, -0.3, merged.Segments[0].AvgLogprob, 1e-9)
	require.Equal(t, raw.Words, merged.Words)
}

func TestMergeAbsolutizesTimestamps(t *testing.T) {
	t.Parallel()

	raw := RawResult{
		Text:     "later words",
		Segments: []Segment{{Start: 1.0, End: 3.0, Text: "later words"}},
		Words: []Word{
			{Word: "later", Start: 1.0, End: 1.8},
			{Word: "words", Start: 2.0, End: 3.0},
		},
	}

	merged := Merge([]ChunkResult{{Index: 1, Offset: 90 * time.Second, Result: raw}})

	require.InDelta(t, 91.0, merged.Segments[0].Start, 1e-9)
	require.InDelta(t, 93.0, merged.Segments[0].End, 1e-9)
	require.InDelta(t, 91.0, merged.Words[0].Start, 1e-9)
	require.InDelta(t, 93.0, merged.Words[1].End, 1e-9)
}

func TestMergeSplicesOverlappingSegmentText(t *testing.T) {
	t.Parallel()

	// Chunk 1 re-hears the trailing words of chunk 0; the shared text
	// must appear exactly once in the merged segment.
	chunkA := ChunkResult{
		Index:  0,
		Offset: 0,
		Result: RawResult{
			Segments: []Segment{{Start: 0.0, End: 12.0, Text: "the quick brown fox jumps over", AvgLogprob: -0.2}},
		},
	}
	chunkB := ChunkResult{
		Index:  1,
		Offset: 10 * time.Second,
		Result: RawResult{
			Segments: []Segment{{Start: 0.0, End: 6.0, Text: "jumps over the lazy dog", AvgLogprob: -0.9}},
		},
	}

	merged := Merge([]ChunkResult{chunkA, chunkB})

	require.Len(t, merged.Segments, 1)
	require.Equal(t, "the quick brown fox jumps over the lazy dog", merged.Segments[0].Text)
	require.Equal(t, "the quick brown fox jumps over the lazy dog", merged.Text)
	require.InDelta(t, 0.0, merged.Segments[0].Start, 1e-9)
	require.InDelta(t, 16.0, merged.Segments[0].End, 1e-9)
	// metadata comes from the first segment of the merge, not averaged
	require.InDelta(t, -0.2, merged.Segments[0].AvgLogprob, 1e-9)
}

func TestMergeKeepsLongerTextWhenOneContainsTheOther(t *testing.T) {
	t.Parallel()

	chunkA := ChunkResult{
		Index:  0,
		Result: RawResult{Segments: []Segment{{Start: 0.0, End: 10.0, Text: "we will discuss the budget today"}}},
	}
	chunkB := ChunkResult{
		Index:  1,
		Offset: 8 * time.Second,
		Result: RawResult{Segments: []Segment{{Start: 0.0, End: 2.0, Text: "the budget"}}},
	}

	merged := Merge([]ChunkResult{chunkA, chunkB})

	require.Len(t, merged.Segments, 1)
	require.Equal(t, "we will discuss the budget today", merged.Segments[0].Text)
}

func TestMergeFallsBackToSpaceJoinWithoutTextualOverlap(t *testing.T) {
	t.Parallel()

	chunkA := ChunkResult{
		Index:  0,
		Result: RawResult{Segments: []Segment{{Start: 0.0, End: 10.0, Text: "completely different"}}},
	}
	chunkB := ChunkResult{
		Index:  1,
		Offset: 9 * time.Second,
		Result: RawResult{Segments: []Segment{{Start: 0.0, End: 4.0, Text: "unrelated material"}}},
	}

	merged := Merge([]ChunkResult{chunkA, chunkB})

	require.Len(t, merged.Segments, 1)
	require.Equal(t, "completely different unrelated material", merged.Segments[0].Text)
}

func TestMergeKeepsNonOverlappingSegmentsSeparate(t *testing.T) {
	t.Parallel()

	chunkA := ChunkResult{
		Index:  0,
		Result: RawResult{Segments: []Segment{{Start: 0.0, End: 4.0, Text: "first thought"}}},
	}
	chunkB := ChunkResult{
		Index:  1,
		Offset: 5 * time.Second,
		Result: RawResult{Segments: []Segment{{Start: 0.0, End: 3.0, Text: "second thought"}}},
	}

	merged := Merge([]ChunkResult{chunkA, chunkB})

	require.Len(t, merged.Segments, 2)
	require.Equal(t, 0, merged.Segments[0].ID)
	require.Equal(t, 1, merged.Segments[1].ID)
	require.Equal(t, "first thought second thought", merged.Text)
	require.LessOrEqual(t, merged.Segments[0].End, merged.Segments[1].Start)
}

func TestMergeDeduplicatesBoundaryWords(t *testing.T) {
	t.Parallel()

	chunkA := ChunkResult{
		Index: 0,
		Result: RawResult{Words: []Word{
			{Word: "hello", Start: 598.0, End: 598.4},
			{Word: "there", Start: 598.5, End: 599.0},
		}},
	}
	// Chunk 1 starts at 585s and re-hears "there" at 13.501s, which
	// rounds to the same hundredth as chunk 0's 598.5.
	chunkB := ChunkResult{
		Index:  1,
		Offset: 585 * time.Second,
		Result: RawResult{Words: []Word{
			{Word: "there", Start: 13.501, End: 14.0},
			{Word: "friend", Start: 14.2, End: 14.8},
		}},
	}

	merged := Merge([]ChunkResult{chunkA, chunkB})

	require.Len(t, merged.Words, 3)
	require.Equal(t, "hello", merged.Words[0].Word)
	require.Equal(t, "there", merged.Words[1].Word)
	require.Equal(t, "friend", merged.Words[2].Word)
}

func TestMergeIsOrderIndependent(t *testing.T) {
	t.Parallel()

	chunkA := ChunkResult{
		Index:  0,
		Result: RawResult{Segments: []Segment{{Start: 0.0, End: 4.0, Text: "alpha"}}},
	}
	chunkB := ChunkResult{
		Index:  1,
		Offset: 5 * time.Second,
		Result: RawResult{Segments: []Segment{{Start: 0.0, End: 3.0, Text: "beta"}}},
	}

	forward := Merge([]ChunkResult{chunkA, chunkB})
	reversed := Merge([]ChunkResult{chunkB, chunkA})

	require.Equal(t, forward, reversed)
	require.Equal(t, "alpha beta", forward.Text)
}

func TestMergeBreaksStartTimeTiesByOrdinal(t *testing.T) {
	t.Parallel()

	chunkA := ChunkResult{
		Index:  0,
		Offset: 10 * time.Second,
		Result: RawResult{Segments: []Segment{{Start: 0.0, End: 2.0, Text: "from chunk zero"}}},
	}
	chunkB := ChunkResult{
		Index:  1,
		Result: RawResult{Segments: []Segment{{Start: 10.0, End: 12.0, Text: "from chunk one"}}},
	}

	merged := Merge([]ChunkResult{chunkB, chunkA})

	require.Len(t, merged.Segments, 1)
	// identical starts: the earlier chunk wins the tie and leads the text
	require.True(t, len(merged.Segments[0].Text) >= len("from chunk zero"))
	require.Equal(t, "from chunk zero from chunk one", merged.Segments[0].Text)
}

func TestMergeSkipsEmptySegmentTexts(t *testing.T) {
	t.Parallel()

	chunkA := ChunkResult{
		Index: 0,
		Result: RawResult{Segments: []Segment{
			{Start: 0.0, End: 1.0, Text: "  "},
			{Start: 2.0, End: 3.0, Text: "kept"},
		}},
	}

	merged := Merge([]ChunkResult{chunkA})
	require.Equal(t, "kept", merged.Text)
}
