package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Canonical format for all intermediate audio: lossless 16 kHz mono PCM.
const (
	canonicalSampleRate = 16000
	canonicalChannels   = 1
	canonicalCodec      = "pcm_s16le"
)

// Handle references a canonical-format audio file with a known total
// duration. It is read-only once produced and safe to share across
// concurrent chunk extractions.
type Handle struct {
	Path     string
	Duration time.Duration
}

// Release removes the underlying file. Releasing a missing file is not
// an error.
func (h Handle) Release() error {
	return removeFile(h.Path)
}

// ChunkFile is the extracted audio for one chunk window. A zero value is
// the empty placeholder produced for degenerate windows.
type ChunkFile struct {
	Path string
	Size int64
}

// Empty reports whether the chunk carries no audio worth uploading.
func (c ChunkFile) Empty() bool {
	return c.Path == "" || c.Size == 0
}

// Release removes the underlying file, if any.
func (c ChunkFile) Release() error {
	return removeFile(c.Path)
}

func removeFile(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ExtractionError reports a failed codec tool invocation together with
// the tool's diagnostic output.
type ExtractionError struct {
	Args   []string
	Output string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("ffmpeg %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("ffmpeg %s: %v (%s)", strings.Join(e.Args, " "), e.Err, e.Output)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// FFmpeg normalizes input audio and extracts chunk windows by invoking
// the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
	WorkDir     string
	Logger      *zap.Logger

	// run is swappable in tests; it returns combined output.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewFFmpeg builds an FFmpeg processor writing temporaries to workDir.
// Empty workDir falls back to the OS temp directory.
func NewFFmpeg(workDir string, logger *zap.Logger) *FFmpeg {
	if workDir == "" {
		workDir = os.TempDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpeg{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		WorkDir:     workDir,
		Logger:      logger,
		run:         runCombined,
	}
}

func runCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Available reports whether the ffmpeg binary can be found.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.FFmpegPath)
	return err == nil
}

// Normalize transcodes inputPath into the canonical format and probes
// its duration. The caller owns the returned handle and must Release it.
func (f *FFmpeg) Normalize(ctx context.Context, inputPath string) (Handle, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return Handle{}, fmt.Errorf("input audio not found: %w", err)
	}

	out := filepath.Join(f.WorkDir, fmt.Sprintf("canonical-%s.wav", uuid.NewString()))
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-i", inputPath,
		"-ac", strconv.Itoa(canonicalChannels),
		"-ar", strconv.Itoa(canonicalSampleRate),
		"-c:a", canonicalCodec,
		out,
	}

	f.Logger.Debug("normalizing audio", zap.String("input", inputPath), zap.Strings("args", args))
	output, err := f.run(ctx, f.FFmpegPath, args...)
	if err != nil {
		_ = removeFile(out)
		return Handle{}, &ExtractionError{Args: args, Output: trimOutput(output), Err: err}
	}

	duration, err := f.ProbeDuration(ctx, out)
	if err != nil {
		_ = removeFile(out)
		return Handle{}, fmt.Errorf("probe duration of %s: %w", out, err)
	}

	return Handle{Path: out, Duration: duration}, nil
}

// Extract cuts [start, start+length) out of the canonical audio into a
// standalone file. Degenerate spans return an empty placeholder without
// invoking the codec tool.
func (f *FFmpeg) Extract(ctx context.Context, src Handle, start, length time.Duration) (ChunkFile, error) {
	if length <= 0 {
		return ChunkFile{}, nil
	}

	out := filepath.Join(f.WorkDir, fmt.Sprintf("chunk-%s.wav", uuid.NewString()))
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-ss", formatFFmpegTime(start),
		"-t", formatFFmpegTime(length),
		"-i", src.Path,
		"-ac", strconv.Itoa(canonicalChannels),
		"-ar", strconv.Itoa(canonicalSampleRate),
		"-c:a", canonicalCodec,
		out,
	}

	f.Logger.Debug("extracting chunk", zap.Duration("start", start), zap.Duration("length", length))
	output, err := f.run(ctx, f.FFmpegPath, args...)
	if err != nil {
		_ = removeFile(out)
		return ChunkFile{}, &ExtractionError{Args: args, Output: trimOutput(output), Err: err}
	}

	info, err := os.Stat(out)
	if err != nil {
		return ChunkFile{}, fmt.Errorf("stat extracted chunk: %w", err)
	}

	return ChunkFile{Path: out, Size: info.Size()}, nil
}

// ProbeDuration asks ffprobe for the total duration of an audio file and
// falls back to parsing ffmpeg's banner output when ffprobe is missing.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	output, err := f.run(ctx, f.FFprobePath, args...)
	if err == nil {
		if d, parseErr := parseProbeSeconds(string(output)); parseErr == nil {
			return d, nil
		}
	}

	// ffprobe unavailable or unparseable: ffmpeg prints the duration on
	// stderr even when asked to produce no output.
	output, err = f.run(ctx, f.FFmpegPath, "-i", path, "-f", "null", "-")
	if err != nil && len(output) == 0 {
		return 0, err
	}
	return parseDurationFromBanner(string(output))
}

func parseProbeSeconds(output string) (time.Duration, error) {
	trimmed := strings.TrimSpace(output)
	seconds, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe output %q: %w", trimmed, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

var bannerDurationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)

func parseDurationFromBanner(output string) (time.Duration, error) {
	matches := bannerDurationRe.FindStringSubmatch(output)
	if matches == nil {
		return 0, errors.New("could not parse duration from ffmpeg output")
	}

	h, _ := strconv.Atoi(matches[1])
	m, _ := strconv.Atoi(matches[2])
	s, _ := strconv.Atoi(matches[3])

	frac := matches[4]
	ms, _ := strconv.Atoi(frac)
	switch len(frac) {
	case 1:
		ms *= 100
	case 2:
		ms *= 10
	case 3:
	default:
		for i := len(frac); i > 3; i-- {
			ms /= 10
		}
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// formatFFmpegTime renders a duration as HH:MM:SS.mmm for -ss/-t.
func formatFFmpegTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

func trimOutput(output []byte) string {
	const limit = 2048
	text := strings.TrimSpace(string(output))
	if len(text) > limit {
		text = text[len(text)-limit:]
	}
	return text
}
