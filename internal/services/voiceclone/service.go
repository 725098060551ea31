// Package voiceclone synthesizes speech in the voice of a reference clip
// using the Chatterbox multilingual voice-cloning pipeline.
//
// Chatterbox is a Python library, so the package ships a small bridge script
// that is written to the state directory and run with the configured
// interpreter.
package voiceclone

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"prama/internal/config"
	"prama/internal/language"
	"prama/internal/logging"
	"prama/internal/media"
	"prama/internal/media/audio"
	"prama/internal/services"
)

//go:embed voiceclone.py
var bridgeScript []byte

const bridgeName = "voiceclone.py"

// Request is one synthesis job.
type Request struct {
	Text      string
	Reference string
	Output    string
	Language  string
}

// Service runs the bridge script.
type Service struct {
	python    string
	model     string
	device    string
	bridgeDir string
	run       services.CommandRunner
	logger    *slog.Logger
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
		python:    cfg.VoiceClone.Python,
		model:     cfg.VoiceClone.Model,
		device:    cfg.VoiceClone.Device,
		bridgeDir: cfg.BridgeDir(),
		logger:    logging.NewComponentLogger(logger, "voiceclone"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize speaks req.Text in the voice of req.Reference and writes a WAV to
// req.Output. The output is decoded before returning so a truncated or empty
// file is reported as a failure.
func (s *Service) Synthesize(ctx context.Context, req Request) (audio.WAVInfo, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return audio.WAVInfo{}, services.Wrap(services.ErrValidation, "voiceclone", "synthesize", "script is required", nil)
	}
	if req.Reference == "" || req.Output == "" {
		return audio.WAVInfo{}, errors.New("voiceclone synthesize: reference and output paths are required")
	}
	lang := language.ToISO2(req.Language)
	if lang == "" {
		lang = "en"
	}

	script, err := s.ensureBridge()
	if err != nil {
		return audio.WAVInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return audio.WAVInfo{}, fmt.Errorf("voiceclone synthesize: create output dir: %w", err)
	}
	textFile := strings.TrimSuffix(req.Output, filepath.Ext(req.Output)) + ".txt"
	if err := os.WriteFile(textFile, []byte(text), 0o644); err != nil {
		return audio.WAVInfo{}, fmt.Errorf("voiceclone synthesize: write script: %w", err)
	}

	cmd := services.Command{
		Name: s.python,
		Args: []string{
			script,
			"--model", s.model,
			"--text-file", textFile,
			"--reference", req.Reference,
			"--output", req.Output,
			"--language", lang,
			"--device", s.device,
		},
	}
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("voice cloning started",
		logging.String("reference", req.Reference),
		logging.String("language", language.DisplayName(lang)),
		logging.Int("characters", len([]rune(text))),
	)
	if _, err := services.Run(ctx, s.run, cmd); err != nil {
		return audio.WAVInfo{}, services.Wrap(services.ErrExternalTool, "voiceclone", "synthesize", "", err)
	}
	if err := media.RequireOutput("voiceclone", req.Output); err != nil {
		return audio.WAVInfo{}, err
	}
	info, err := audio.InspectWAV(req.Output)
	if err != nil {
		return audio.WAVInfo{}, fmt.Errorf("voiceclone synthesize: %w", err)
	}
	logger.Info("voice cloning completed",
		logging.String("output", req.Output),
		logging.Duration("duration", info.Duration),
		logging.Int("sample_rate", info.SampleRate),
	)
	return info, nil
}

// ensureBridge writes the embedded script when missing or stale and returns its path.
func (s *Service) ensureBridge() (string, error) {
	path := filepath.Join(s.bridgeDir, bridgeName)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, bridgeScript) {
		return path, nil
	}
	if err := os.MkdirAll(s.bridgeDir, 0o755); err != nil {
		return "", fmt.Errorf("voiceclone bridge: create dir: %w", err)
	}
	if err := os.WriteFile(path, bridgeScript, 0o755); err != nil {
		return "", fmt.Errorf("voiceclone bridge: write script: %w", err)
	}
	return path, nil
}
