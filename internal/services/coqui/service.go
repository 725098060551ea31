// Package coqui turns text into a driving audio clip with the Coqui TTS
// command line tool.
package coqui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"prama/internal/config"
	"prama/internal/logging"
	"prama/internal/media"
	"prama/internal/services"
)

// ErrDisabled reports that text-to-speech is switched off on this host.
var ErrDisabled = fmt.Errorf("text to speech is disabled: %w", services.ErrUnavailable)

// Service runs the `tts` CLI.
type Service struct {
	enabled bool
	command string
	model   string
	run     services.CommandRunner
	logger  *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithCommandRunner injects the command runner (for testing).
func WithCommandRunner(r services.CommandRunner) Option {
	return func(s *Service) {
		s.run = r
	}
}

// NewService builds a Service. TTS is never enabled on Windows.
func NewService(cfg *config.Config, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		enabled: cfg.TTS.Enabled && runtime.GOOS != "windows",
		command: cfg.TTS.Command,
		model:   strings.TrimSpace(cfg.TTS.Model),
		logger:  logging.NewComponentLogger(logger, "coqui"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether Speak can be used.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled
}

// Speak synthesizes text into the WAV file at out.
func (s *Service) Speak(ctx context.Context, text, out string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return services.Wrap(services.ErrValidation, "coqui", "speak", "text is required", nil)
	}
	if out == "" {
		return errors.New("coqui speak: output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("coqui speak: create output dir: %w", err)
	}

	args := []string{"--text", text, "--out_path", out}
	if s.model != "" {
		args = append(args, "--model_name", s.model)
	}
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("coqui tts started", logging.Int("characters", len([]rune(text))), logging.String("out", out))
	if _, err := services.Run(ctx, s.run, services.Command{Name: s.command, Args: args}); err != nil {
		return services.Wrap(services.ErrExternalTool, "coqui", "speak", "", err)
	}
	if err := media.RequireOutput(s.command, out); err != nil {
		return err
	}
	logger.Info("coqui tts completed", logging.String("out", out))
	return nil
}
