package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"prama/internal/logging"
	"prama/internal/media"
	"prama/internal/services"
)

const (
	// DefaultSampleRate is the rate voice-cloning models expect for reference clips.
	DefaultSampleRate = 16000
	// denoiseFilter removes broadband noise and low rumble from speech.
	denoiseFilter = "highpass=f=80,afftdn=nf=-25"
)

// Extractor wraps ffmpeg for reference audio preparation.
type Extractor struct {
	ffmpeg     string
	sampleRate int
	run        services.CommandRunner
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCommandRunner injects the command runner used for ffmpeg (for testing).
func WithCommandRunner(r services.CommandRunner) Option {
	return func(e *Extractor) {
		e.run = r
	}
}

// WithSampleRate overrides the output sample rate.
func WithSampleRate(rate int) Option {
	return func(e *Extractor) {
		if rate > 0 {
			e.sampleRate = rate
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor constructs an Extractor for the given ffmpeg binary.
func NewExtractor(ffmpeg string, opts ...Option) *Extractor {
	ffmpeg = strings.TrimSpace(ffmpeg)
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	e := &Extractor{ffmpeg: ffmpeg, sampleRate: DefaultSampleRate, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "audio")
	return e
}

// ExtractReference writes the first audio track of video to dest as mono
// 16-bit PCM WAV.
func (e *Extractor) ExtractReference(ctx context.Context, video, dest string) error {
	args := []string{
		"-y",
		"-i", video,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(e.sampleRate),
		"-ac", "1",
		dest,
	}
	return e.ffmpegTo(ctx, "extract reference audio", args, dest)
}

// Denoise filters src into dest, keeping the reference clip format.
func (e *Extractor) Denoise(ctx context.Context, src, dest string) error {
	args := []string{
		"-y",
		"-i", src,
		"-af", denoiseFilter,
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(e.sampleRate),
		"-ac", "1",
		dest,
	}
	return e.ffmpegTo(ctx, "denoise reference audio", args, dest)
}

func (e *Extractor) ffmpegTo(ctx context.Context, op string, args []string, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("%s: create output directory: %w", op, err)
	}
	cmd := services.Command{Name: e.ffmpeg, Args: args}
	e.logger.Debug("running ffmpeg", logging.String("op", op), logging.String("command", cmd.String()))
	if _, err := services.Run(ctx, e.run, cmd); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := media.RequireOutput(e.ffmpeg, dest); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	e.logger.Info("audio written", logging.String("op", op), logging.String("path", dest))
	return nil
}
