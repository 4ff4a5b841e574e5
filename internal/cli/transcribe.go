package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/longscribe/longscribe/internal/transcript"
)

func (a *appState) runTranscribe(ctx context.Context, audioPath string) error {
	transcribeFn := a.transcribeFn
	if transcribeFn == nil {
		transcribeFn = a.transcribeAudio
	}

	merged, err := transcribeFn(ctx, audioPath)
	if err != nil {
		return err
	}

	if merged.Text == "" {
		a.log().Warn("no speech detected in the recording")
	}

	return a.writeResult(merged)
}

func (a *appState) transcribeAudio(ctx context.Context, audioPath string) (*transcript.Merged, error) {
	audioPath = filepath.Clean(audioPath)
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	eng, err := a.newEngine()
	if err != nil {
		return nil, err
	}

	a.log().Info("transcribing...",
		zap.String("audio", audioPath),
		zap.String("model", a.model),
		zap.String("language", a.language),
		zap.Duration("chunk_length", a.chunkLength),
		zap.Duration("overlap", a.overlap))
	started := time.Now()

	merged, err := eng.Transcribe(ctx, audioPath)
	if err != nil {
		a.log().Warn("transcription failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return nil, err
	}
	a.log().Info("transcription finished",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("segments", len(merged.Segments)),
		zap.Int("words", len(merged.Words)))

	return merged, nil
}
