package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/longscribe/longscribe/internal/audio"
	"github.com/longscribe/longscribe/internal/transcript"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stage names reported through Observer.JobFailed and error messages.
const (
	StagePreprocessing = "preprocessing"
	StagePlanning      = "planning"
	StageTranscribing  = "transcribing"
)

// Preprocessor normalizes arbitrary input audio into the canonical
// format and reports its duration.
type Preprocessor interface {
	Normalize(ctx context.Context, inputPath string) (audio.Handle, error)
}

// Extractor cuts one window out of the canonical audio.
type Extractor interface {
	Extract(ctx context.Context, src audio.Handle, start, length time.Duration) (audio.ChunkFile, error)
}

// ChunkTranscriber sends one extracted chunk to the transcription
// backend and returns its structured result.
type ChunkTranscriber interface {
	Transcribe(ctx context.Context, chunk audio.ChunkFile, index int) (transcript.RawResult, error)
}

// Config carries the chunking and concurrency settings for one engine.
type Config struct {
	ChunkLength time.Duration
	Overlap     time.Duration
	// Parallelism bounds concurrent extract+transcribe work; values
	// below 1 mean sequential processing.
	Parallelism int
	// SilenceGate skips the remote call for chunks whose audio is
	// below SilenceThresholdDBFS; they become empty results.
	SilenceGate          bool
	SilenceThresholdDBFS float64
}

// Engine runs the chunk-and-merge transcription pipeline: normalize,
// plan, extract and transcribe every window, then merge the per-chunk
// results into one transcript with absolute timestamps.
type Engine struct {
	pre Preprocessor
	ext Extractor
	tr  ChunkTranscriber
	cfg Config
	obs Observer
	log *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver installs a stage-transition observer.
func WithObserver(obs Observer) Option {
	return func(e *Engine) {
		if obs != nil {
			e.obs = obs
		}
	}
}

// WithLogger installs a logger; nil falls back to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

// New assembles an engine from its collaborators.
func New(pre Preprocessor, ext Extractor, tr ChunkTranscriber, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		pre: pre,
		ext: ext,
		tr:  tr,
		cfg: cfg,
		obs: NopObserver{},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transcribe runs one job end to end. It returns either a complete
// merged transcript or a single error identifying the failed stage and
// chunk; no partial transcript is ever produced. All temporary audio is
// released on every exit path.
func (e *Engine) Transcribe(ctx context.Context, inputPath string) (*transcript.Merged, error) {
	jobID := uuid.NewString()
	e.obs.JobStarted(jobID, inputPath)
	e.log.Info("transcription job started", zap.String("job", jobID), zap.String("input", inputPath))

	// Validate chunking before any I/O happens.
	if _, err := Plan(time.Second, e.cfg.ChunkLength, e.cfg.Overlap); err != nil {
		e.obs.JobFailed(jobID, StagePlanning, err)
		return nil, err
	}

	handle, err := e.pre.Normalize(ctx, inputPath)
	if err != nil {
		err = fmt.Errorf("%s: %w", StagePreprocessing, err)
		e.obs.JobFailed(jobID, StagePreprocessing, err)
		return nil, err
	}
	defer func() {
		if err := handle.Release(); err != nil {
			e.log.Warn("failed to remove canonical audio", zap.String("path", handle.Path), zap.Error(err))
		}
	}()

	e.obs.Preprocessed(jobID, handle.Duration)

	if handle.Duration <= 0 {
		e.log.Info("input has no audible duration; returning empty transcript", zap.String("job", jobID))
		e.obs.Merged(jobID, 0, 0)
		return &transcript.Merged{}, nil
	}

	windows, err := Plan(handle.Duration, e.cfg.ChunkLength, e.cfg.Overlap)
	if err != nil {
		e.obs.JobFailed(jobID, StagePlanning, err)
		return nil, err
	}
	e.obs.Planned(jobID, windows)
	e.log.Info("chunk plan ready",
		zap.String("job", jobID),
		zap.Duration("total", handle.Duration),
		zap.Int("chunks", len(windows)))

	results := make([]transcript.ChunkResult, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	if e.cfg.Parallelism > 0 {
		g.SetLimit(e.cfg.Parallelism)
	} else {
		g.SetLimit(1)
	}

	for _, w := range windows {
		w := w
		g.Go(func() error {
			raw, err := e.processChunk(gctx, jobID, handle, w)
			if err != nil {
				return err
			}
			results[w.Index] = transcript.ChunkResult{Index: w.Index, Offset: w.Start, Result: raw}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.obs.JobFailed(jobID, StageTranscribing, err)
		return nil, err
	}

	merged := transcript.Merge(results)
	e.obs.Merged(jobID, len(merged.Segments), len(merged.Words))
	e.log.Info("transcription job finished",
		zap.String("job", jobID),
		zap.Int("segments", len(merged.Segments)),
		zap.Int("words", len(merged.Words)))
	return &merged, nil
}

func (e *Engine) processChunk(ctx context.Context, jobID string, src audio.Handle, w Window) (transcript.RawResult, error) {
	e.obs.ChunkStarted(jobID, w.Index)

	chunk, err := e.ext.Extract(ctx, src, w.Start, w.Duration())
	if err != nil {
		return transcript.RawResult{}, fmt.Errorf("extract chunk %d: %w", w.Index, err)
	}
	defer func() {
		if err := chunk.Release(); err != nil {
			e.log.Warn("failed to remove chunk audio", zap.Int("chunk", w.Index), zap.Error(err))
		}
	}()

	if e.cfg.SilenceGate && !chunk.Empty() {
		silent, metrics, err := audio.IsSilentWAV(chunk.Path, e.cfg.SilenceThresholdDBFS)
		if err != nil {
			e.log.Warn("silence gate analysis failed; transcribing chunk anyway",
				zap.Int("chunk", w.Index), zap.Error(err))
		} else if silent {
			e.log.Info("chunk considered silent; skipping remote call",
				zap.Int("chunk", w.Index),
				zap.Float64("rms_dbfs", metrics.RMSdBFS),
				zap.Float64("peak_dbfs", metrics.PeakdBFS))
			e.obs.ChunkFinished(jobID, w.Index)
			return transcript.RawResult{}, nil
		}
	}

	raw, err := e.tr.Transcribe(ctx, chunk, w.Index)
	if err != nil {
		return transcript.RawResult{}, err
	}

	e.obs.ChunkFinished(jobID, w.Index)
	return raw, nil
}
