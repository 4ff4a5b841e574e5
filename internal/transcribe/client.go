package transcribe

import (
	"context"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/longscribe/longscribe/internal/audio"
	"github.com/longscribe/longscribe/internal/transcript"
)

// Client sends chunk audio to the remote transcription API. Each chunk
// is uploaded as a verbose-json request with segment and word timestamp
// granularity; transient failures are retried within the configured
// budget.
type Client struct {
	api    *openai.Client
	params Params
	log    *zap.Logger

	// sleep is swappable in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a client for the given API key. baseURL overrides the
// endpoint for tests and self-hosted gateways; empty keeps the default.
func NewClient(apiKey, baseURL string, params Params, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: params.APITimeout}

	return &Client{
		api:    openai.NewClientWithConfig(cfg),
		params: params,
		log:    logger,
		sleep:  sleepCtx,
	}
}

// Transcribe uploads one chunk and returns its structured result with
// chunk-relative timestamps. Empty or undersized chunks short-circuit to
// an empty result without a network call; that is a defined no-speech
// case, not an error.
func (c *Client) Transcribe(ctx context.Context, chunk audio.ChunkFile, index int) (transcript.RawResult, error) {
	if chunk.Empty() || chunk.Size < c.params.MinChunkBytes {
		c.log.Debug("chunk below minimum size; skipping remote call",
			zap.Int("chunk", index), zap.Int64("bytes", chunk.Size))
		return transcript.RawResult{}, nil
	}

	req := openai.AudioRequest{
		Model:       c.params.Model,
		FilePath:    chunk.Path,
		Language:    c.params.Language,
		Prompt:      c.params.Prompt,
		Temperature: c.params.Temperature,
		Format:      openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
			openai.TranscriptionTimestampGranularityWord,
		},
	}

	remaining := c.params.Retries
	for {
		started := time.Now()
		resp, err := c.api.CreateTranscription(ctx, req)
		elapsed := time.Since(started)

		if err == nil {
			c.log.Debug("chunk transcribed",
				zap.Int("chunk", index),
				zap.Duration("elapsed", elapsed),
				zap.Int("segments", len(resp.Segments)),
				zap.Int("words", len(resp.Words)))
			return fromAudioResponse(resp), nil
		}

		if ctx.Err() != nil {
			return transcript.RawResult{}, ctx.Err()
		}

		if classify(err) == outcomeTransient {
			if remaining > 0 {
				remaining--
				c.log.Warn("transient transcription failure; retrying",
					zap.Int("chunk", index),
					zap.Duration("elapsed", elapsed),
					zap.Duration("delay", c.params.RetryDelay),
					zap.Int("retries_left", remaining),
					zap.Error(err))
				if sleepErr := c.sleep(ctx, c.params.RetryDelay); sleepErr != nil {
					return transcript.RawResult{}, sleepErr
				}
				continue
			}

			status, _ := statusCode(err)
			return transcript.RawResult{}, &TranscriptionError{
				ChunkIndex: index,
				StatusCode: status,
				Body:       responseBody(err),
				Exhausted:  true,
				Err:        err,
			}
		}

		if isUndecodableAudio(err) {
			c.log.Error("chunk audio rejected as undecodable", zap.Int("chunk", index), zap.Error(err))
		}

		status, _ := statusCode(err)
		return transcript.RawResult{}, &TranscriptionError{
			ChunkIndex: index,
			StatusCode: status,
			Body:       responseBody(err),
			Err:        err,
		}
	}
}

func fromAudioResponse(resp openai.AudioResponse) transcript.RawResult {
	result := transcript.RawResult{Text: resp.Text}

	for _, s := range resp.Segments {
		result.Segments = append(result.Segments, transcript.Segment{
			ID:               s.ID,
			Start:            s.Start,
			End:              s.End,
			Text:             s.Text,
			Temperature:      s.Temperature,
			AvgLogprob:       s.AvgLogprob,
			CompressionRatio: s.CompressionRatio,
			NoSpeechProb:     s.NoSpeechProb,
		})
	}

	for _, w := range resp.Words {
		result.Words = append(result.Words, transcript.Word{
			Word:  w.Word,
			Start: w.Start,
			End:   w.End,
		})
	}

	return result
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
