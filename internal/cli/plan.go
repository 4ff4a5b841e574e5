package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/longscribe/longscribe/internal/engine"
)

// newPlanCmd prints the chunk windows a transcription run would use,
// without calling the transcription API. Useful for sizing chunk-length
// and overlap before spending API quota.
func newPlanCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <audio-file>",
		Short: "Show the chunk windows planned for an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planFn := app.planFn
			if planFn == nil {
				planFn = app.planAudio
			}

			windows, err := planFn(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if len(windows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no chunks: recording has no audible duration")
				return nil
			}

			for _, w := range windows {
				fmt.Fprintf(cmd.OutOrStdout(), "chunk %3d  %12s  ->  %12s  (%s)\n",
					w.Index, w.Start, w.End, w.Duration())
			}
			return nil
		},
	}
}

func (a *appState) planAudio(ctx context.Context, audioPath string) ([]engine.Window, error) {
	audioPath = filepath.Clean(audioPath)
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	ffmpeg := a.newFFmpeg()
	if !ffmpeg.Available() {
		return nil, fmt.Errorf("ffmpeg not found in PATH")
	}

	total, err := ffmpeg.ProbeDuration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}

	a.log().Debug("probed input duration", zap.String("audio", audioPath), zap.Duration("total", total))
	return engine.Plan(total, a.chunkLength, a.overlap)
}
