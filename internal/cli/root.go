package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/longscribe/longscribe/internal/audio"
	"github.com/longscribe/longscribe/internal/engine"
	"github.com/longscribe/longscribe/internal/logging"
	"github.com/longscribe/longscribe/internal/transcribe"
	"github.com/longscribe/longscribe/internal/transcript"
	"github.com/longscribe/longscribe/internal/version"
)

type appState struct {
	verbose    bool
	jsonLogs   bool
	noProgress bool

	chunkLength time.Duration
	overlap     time.Duration
	parallelism int

	model       string
	language    string
	temperature float64
	prompt      string

	retries    int
	retryDelay time.Duration
	apiTimeout time.Duration
	apiBase    string

	silenceGate bool
	silenceDBFS float64

	workDir    string
	outputPath string
	format     string

	logger *zap.Logger
	out    io.Writer

	transcribeFn func(ctx context.Context, audioPath string) (*transcript.Merged, error)
	planFn       func(ctx context.Context, audioPath string) ([]engine.Window, error)
}

func NewRootCmd() *cobra.Command {
	app := &appState{
		chunkLength: 10 * time.Minute,
		overlap:     15 * time.Second,
		parallelism: 4,
		model:       transcribe.DefaultModel,
		language:    "auto",
		retries:     transcribe.DefaultRetries,
		retryDelay:  transcribe.DefaultRetryDelay,
		apiTimeout:  transcribe.DefaultAPITimeout,
		silenceDBFS: -65,
		format:      formatText,
		out:         os.Stdout,
	}
	app.transcribeFn = app.transcribeAudio
	app.planFn = app.planAudio

	cmd := &cobra.Command{
		Use:           "longscribe <audio-file>",
		Short:         "Transcribe long recordings by chunking them through a remote speech-to-text API",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.language = sanitizeLanguage(app.language)
			app.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTranscribe(cmd.Context(), args[0])
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindLoggingFlags(cmd, app)
	bindProgressFlag(cmd, app)
	bindChunkingFlags(cmd, app)
	bindRequestFlags(cmd, app)
	bindRetryFlags(cmd, app)
	bindSilenceFlags(cmd, app)
	bindOutputFlags(cmd, app)

	cmd.AddCommand(newPlanCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
}

func bindProgressFlag(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindChunkingFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().DurationVar(&app.chunkLength, "chunk-length", app.chunkLength, "Length of each transcription chunk")
	cmd.PersistentFlags().DurationVar(&app.overlap, "overlap", app.overlap, "Overlap between consecutive chunks; must be shorter than chunk length")
	cmd.PersistentFlags().IntVar(&app.parallelism, "parallelism", app.parallelism, "Number of chunks processed concurrently")
	cmd.PersistentFlags().StringVar(&app.workDir, "work-dir", app.workDir, "Directory for temporary audio files (defaults to the OS temp dir)")
}

func bindRequestFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.model, "model", app.model, "Transcription model name")
	cmd.Flags().StringVar(&app.language, "language", app.language, "Language code (auto|en|de|...) for transcription")
	cmd.Flags().Float64Var(&app.temperature, "temperature", app.temperature, "Sampling temperature passed to the API")
	cmd.Flags().StringVar(&app.prompt, "prompt", app.prompt, "Optional prompt to bias the transcription")
	cmd.Flags().StringVar(&app.apiBase, "api-base", app.apiBase, "Override the transcription API base URL")
}

func bindRetryFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().IntVar(&app.retries, "retries", app.retries, "Retry budget per chunk for transient API failures")
	cmd.Flags().DurationVar(&app.retryDelay, "retry-delay", app.retryDelay, "Delay before retrying a transient API failure")
	cmd.Flags().DurationVar(&app.apiTimeout, "api-timeout", app.apiTimeout, "Timeout for a single transcription request")
}

func bindSilenceFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.silenceGate, "silence-gate", app.silenceGate, "Skip the remote call for near-silent chunks")
	cmd.Flags().Float64Var(&app.silenceDBFS, "silence-threshold-dbfs", app.silenceDBFS, "Silence gate threshold in dBFS")
}

func bindOutputFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVarP(&app.outputPath, "output", "o", app.outputPath, "Write the transcript to a file instead of stdout")
	cmd.Flags().StringVar(&app.format, "format", app.format, "Output format: text|json|srt")
}

// newEngine wires the pipeline from the flag state. The API key comes
// from the environment so it never appears in argv.
func (a *appState) newEngine() (*engine.Engine, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set; export it or put it in a .env file")
	}

	ffmpeg := a.newFFmpeg()
	if !ffmpeg.Available() {
		return nil, fmt.Errorf("ffmpeg not found in PATH; install it to transcribe audio")
	}

	params := transcribe.DefaultParams()
	params.Model = a.model
	params.Temperature = float32(a.temperature)
	params.Prompt = a.prompt
	params.Retries = a.retries
	params.RetryDelay = a.retryDelay
	params.APITimeout = a.apiTimeout
	if a.language != "auto" {
		params.Language = a.language
	}

	client := transcribe.NewClient(apiKey, a.apiBase, params, a.log())

	cfg := engine.Config{
		ChunkLength:          a.chunkLength,
		Overlap:              a.overlap,
		Parallelism:          a.parallelism,
		SilenceGate:          a.silenceGate,
		SilenceThresholdDBFS: a.silenceDBFS,
	}

	opts := []engine.Option{engine.WithLogger(a.log())}
	if observer := a.newProgressObserver(); observer != nil {
		opts = append(opts, engine.WithObserver(observer))
	}

	return engine.New(ffmpeg, ffmpeg, client, cfg, opts...), nil
}

func (a *appState) newFFmpeg() *audio.FFmpeg {
	return audio.NewFFmpeg(a.workDir, a.log())
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (a *appState) outWriter() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

func sanitizeLanguage(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return "auto"
	}
	return trimmed
}
