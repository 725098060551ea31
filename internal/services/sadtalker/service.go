package sadtalker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"prama/internal/config"
	"prama/internal/fileutil"
	"prama/internal/logging"
	"prama/internal/media"
	"prama/internal/services"
)

// generatedMarker prefixes the line inference.py prints after saving the video.
const generatedMarker = "The generated video is named:"

// Request is one generation job.
type Request struct {
	SourceImage string
	DrivenAudio string
	ResultDir   string
	Options     Options
}

// Service invokes SadTalker.
type Service struct {
	python        string
	dir           string
	checkpointDir string
	enhancer      string
	run           services.CommandRunner
	logger        *slog.Logger
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
		python:        cfg.SadTalker.Python,
		dir:           cfg.SadTalker.Dir,
		checkpointDir: cfg.SadTalker.CheckpointDir,
		enhancer:      cfg.SadTalker.Enhancer,
		logger:        logging.NewComponentLogger(logger, "sadtalker"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate runs inference and returns the path of the produced video.
func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	if err := req.Options.Validate(); err != nil {
		return "", err
	}
	if req.SourceImage == "" || req.DrivenAudio == "" {
		return "", fmt.Errorf("%w: source image and driven audio are required", ErrInvalidOptions)
	}
	if req.ResultDir == "" {
		return "", errors.New("sadtalker generate: result directory is required")
	}
	resultDir, err := filepath.Abs(req.ResultDir)
	if err != nil {
		return "", fmt.Errorf("sadtalker generate: resolve result dir: %w", err)
	}
	if err := os.MkdirAll(resultDir, 0o755); err != nil {
		return "", fmt.Errorf("sadtalker generate: create result dir: %w", err)
	}

	cmd := services.Command{
		Name: s.python,
		Args: s.buildArgs(req, resultDir),
		Dir:  s.dir,
	}
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("sadtalker inference started",
		logging.String("source_image", req.SourceImage),
		logging.String("driven_audio", req.DrivenAudio),
		logging.String("preprocess", req.Options.Preprocess),
		logging.Int("size", req.Options.Size),
		logging.Int("batch_size", req.Options.BatchSize),
		logging.Bool("still", req.Options.StillMode),
		logging.Bool("enhancer", req.Options.UseEnhancer),
	)
	started := time.Now()
	output, err := services.Run(ctx, s.run, cmd)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "sadtalker", "inference", "", err)
	}

	video := s.reportedVideo(output)
	if video == "" || !fileutil.Exists(video) {
		video, err = newestVideo(resultDir)
		if err != nil {
			return "", err
		}
	}
	logger.Info("sadtalker inference completed",
		logging.String("video_path", video),
		logging.Duration("elapsed", time.Since(started)),
	)
	return video, nil
}

func (s *Service) buildArgs(req Request, resultDir string) []string {
	opts := req.Options
	args := []string{
		"inference.py",
		"--driven_audio", absOrSelf(req.DrivenAudio),
		"--source_image", absOrSelf(req.SourceImage),
		"--result_dir", resultDir,
		"--checkpoint_dir", absOrSelf(s.checkpointDir),
		"--preprocess", opts.Preprocess,
		"--batch_size", strconv.Itoa(opts.BatchSize),
		"--size", strconv.Itoa(opts.Size),
		"--pose_style", strconv.Itoa(opts.PoseStyle),
	}
	if opts.StillMode {
		args = append(args, "--still")
	}
	if opts.UseEnhancer && s.enhancer != "" {
		args = append(args, "--enhancer", s.enhancer)
	}
	return args
}

// reportedVideo extracts the path printed by inference.py, resolved against
// the SadTalker directory when relative.
func (s *Service) reportedVideo(output []byte) string {
	var reported string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, generatedMarker); idx >= 0 {
			reported = strings.TrimSpace(line[idx+len(generatedMarker):])
		}
	}
	if reported == "" {
		return ""
	}
	if !filepath.IsAbs(reported) {
		reported = filepath.Join(s.dir, reported)
	}
	return filepath.Clean(reported)
}

func newestVideo(dir string) (string, error) {
	var newest string
	var newestMod time.Time
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".mp4") {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() == 0 {
			return nil
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest, newestMod = path, info.ModTime()
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("sadtalker locate output: %w", err)
	}
	if newest == "" {
		return "", fmt.Errorf("sadtalker: %w under %s", media.ErrOutputMissing, dir)
	}
	return newest, nil
}

func absOrSelf(path string) string {
	if path == "" {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
