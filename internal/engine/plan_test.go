package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPlanRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		chunkLength time.Duration
		overlap     time.Duration
	}{
		{name: "zero chunk length", chunkLength: 0, overlap: 0},
		{name: "negative chunk length", chunkLength: -time.Minute, overlap: 0},
		{name: "negative overlap", chunkLength: time.Minute, overlap: -time.Second},
		{name: "overlap equals chunk length", chunkLength: time.Minute, overlap: time.Minute},
		{name: "overlap exceeds chunk length", chunkLength: time.Minute, overlap: 2 * time.Minute},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Plan(time.Hour, tt.chunkLength, tt.overlap)
			require.ErrorIs(t, err, ErrInvalidChunking)
		})
	}
}

func TestPlanZeroDurationYieldsNoWindows(t *testing.T) {
	t.Parallel()

	windows, err := Plan(0, 10*time.Minute, 15*time.Second)
	require.NoError(t, err)
	require.Empty(t, windows)
}

func TestPlanTwoWindowScenario(t *testing.T) {
	t.Parallel()

	// 1000s recording, 600s chunks, 15s overlap: second window starts
	// at 585s and is truncated to the total duration.
	windows, err := Plan(1000*time.Second, 600*time.Second, 15*time.Second)
	require.NoError(t, err)
	require.Len(t, windows, 2)

	require.Equal(t, Window{Index: 0, Start: 0, End: 600 * time.Second}, windows[0])
	require.Equal(t, Window{Index: 1, Start: 585 * time.Second, End: 1000 * time.Second}, windows[1])
}

func TestPlanSingleWindowForShortInput(t *testing.T) {
	t.Parallel()

	windows, err := Plan(30*time.Second, 10*time.Minute, 15*time.Second)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	require.Equal(t, Window{Index: 0, Start: 0, End: 30 * time.Second}, windows[0])
}

func TestPlanCoversDurationWithOverlap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		total       time.Duration
		chunkLength time.Duration
		overlap     time.Duration
	}{
		{name: "even split", total: time.Hour, chunkLength: 10 * time.Minute, overlap: 15 * time.Second},
		{name: "uneven tail", total: 47*time.Minute + 13*time.Second, chunkLength: 10 * time.Minute, overlap: 30 * time.Second},
		{name: "tiny chunks", total: 61 * time.Second, chunkLength: 10 * time.Second, overlap: 2 * time.Second},
		{name: "overlap dominates", total: 5 * time.Minute, chunkLength: 90 * time.Second, overlap: 80 * time.Second},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			windows, err := Plan(tt.total, tt.chunkLength, tt.overlap)
			require.NoError(t, err)
			require.NotEmpty(t, windows)

			require.Equal(t, time.Duration(0), windows[0].Start)
			require.Equal(t, tt.total, windows[len(windows)-1].End)

			step := tt.chunkLength - tt.overlap
			for i, w := range windows {
				require.Equal(t, i, w.Index)
				require.Greater(t, w.End, w.Start)
				require.LessOrEqual(t, w.Duration(), tt.chunkLength)

				if i == 0 {
					continue
				}
				prev := windows[i-1]
				// consecutive windows overlap: no gap at any boundary
				require.Less(t, w.Start, prev.End)
				require.Equal(t, prev.Start+step, w.Start)
			}
		})
	}
}

func TestWindowString(t *testing.T) {
	t.Parallel()

	w := Window{Index: 2, Start: 10 * time.Minute, End: 20 * time.Minute}
	require.Equal(t, "window 2: 10m0s-20m0s", w.String())
	require.Equal(t, 10*time.Minute, w.Duration())
}
