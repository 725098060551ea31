// Package wav2lip re-times the mouth in a face video to match a speech track
// using Wav2Lip's inference.py.
package wav2lip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"prama/internal/config"
	"prama/internal/logging"
	"prama/internal/media"
	"prama/internal/services"
)

// Service invokes Wav2Lip.
type Service struct {
	python     string
	script     string
	checkpoint string
	run        services.CommandRunner
	logger     *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithCommandRunner injects the command runner (for testing).
func WithCommandRunner(r services.CommandRunner) Option {
	return func(s *Service) {
		s.run = r
	}
}

// NewService builds a Service from configuration.
func NewService(cfg *config.Config, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		python:     cfg.Wav2Lip.Python,
		script:     cfg.Wav2LipScript(),
		checkpoint: cfg.Wav2Lip.Checkpoint,
		logger:     logging.NewComponentLogger(logger, "wav2lip"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync writes a lip-synced copy of face driven by audio to out and returns out.
// The path is returned only when the file was actually produced.
func (s *Service) Sync(ctx context.Context, face, audio, out string) (string, error) {
	if face == "" || audio == "" || out == "" {
		return "", errors.New("wav2lip sync: face, audio and output paths are required")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("wav2lip sync: create output dir: %w", err)
	}
	cmd := services.Command{
		Name: s.python,
		Args: []string{
			s.script,
			"--checkpoint_path", s.checkpoint,
			"--face", face,
			"--audio", audio,
			"--outfile", out,
		},
	}
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("wav2lip started", logging.String("face", face), logging.String("audio", audio))
	started := time.Now()
	if _, err := services.Run(ctx, s.run, cmd); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "wav2lip", "sync", "", err)
	}
	if err := media.RequireOutput("wav2lip", out); err != nil {
		return "", err
	}
	logger.Info("wav2lip completed", logging.String("video_path", out), logging.Duration("elapsed", time.Since(started)))
	return out, nil
}
