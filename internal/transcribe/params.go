package transcribe

import "time"

// Defaults for the transcription request and retry configuration.
const (
	DefaultModel       = "whisper-1"
	DefaultRetries     = 3
	DefaultRetryDelay  = 5 * time.Second
	DefaultAPITimeout  = 10 * time.Minute
	DefaultTemperature = 0.0

	// DefaultMinChunkBytes guards against near-silent or zero-length
	// slices the API cannot decode. A canonical WAV header alone is 44
	// bytes; anything under 1 KiB carries no usable speech.
	DefaultMinChunkBytes = 1024
)

// Params configures per-chunk transcription requests.
type Params struct {
	Model       string
	Language    string
	Temperature float32
	Prompt      string

	Retries       int
	RetryDelay    time.Duration
	APITimeout    time.Duration
	MinChunkBytes int64
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		Model:         DefaultModel,
		Temperature:   DefaultTemperature,
		Retries:       DefaultRetries,
		RetryDelay:    DefaultRetryDelay,
		APITimeout:    DefaultAPITimeout,
		MinChunkBytes: DefaultMinChunkBytes,
	}
}
