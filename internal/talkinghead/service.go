package talkinghead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"prama/internal/config"
	"prama/internal/fileutil"
	"prama/internal/jobs"
	"prama/internal/logging"
	"prama/internal/services"
	"prama/internal/services/coqui"
	"prama/internal/services/sadtalker"
	"prama/internal/workspace"
)

// ErrInvalidInput reports a request that is missing an upload or carries an
// unusable one.
var ErrInvalidInput = fmt.Errorf("invalid talking head input: %w", services.ErrValidation)

// Generator runs the talking-head model.
type Generator interface {
	Generate(ctx context.Context, req sadtalker.Request) (string, error)
}

// Speaker turns text into driving audio.
type Speaker interface {
	Enabled() bool
	Speak(ctx context.Context, text, out string) error
}

// Locker grants exclusive use of the inference hardware.
type Locker interface {
	Acquire(ctx context.Context) (func(), error)
}

// Input is one generation request. DrivenAudioPath may name audio produced
// earlier by Speak in place of an uploaded file.
type Input struct {
	SourceImage     fileutil.Upload
	DrivenAudio     fileutil.Upload
	DrivenAudioPath string
	Options         sadtalker.Options
}

// Result identifies the produced video.
type Result struct {
	Tag       string `json:"result_id"`
	VideoPath string `json:"video_path"`
}

// SpeechResult identifies audio produced by Speak.
type SpeechResult struct {
	Tag       string `json:"result_id"`
	AudioPath string `json:"audio_path"`
}

type recordedInputs struct {
	SourceImage string            `json:"source_image"`
	DrivenAudio string            `json:"driven_audio"`
	Options     sadtalker.Options `json:"options"`
}

// Service coordinates uploads, the inference lock and the model.
type Service struct {
	resultsDir string
	maxUpload  int64
	generator  Generator
	speaker    Speaker
	lock       Locker
	tracker    *jobs.Tracker
	newTag     func() string
	logger     *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithSpeaker enables text-to-speech for driving audio.
func WithSpeaker(sp Speaker) Option {
	return func(s *Service) {
		s.speaker = sp
	}
}

// WithLock serializes model invocations through lock.
func WithLock(lock Locker) Option {
	return func(s *Service) {
		s.lock = lock
	}
}

// WithTracker records runs in the job ledger.
func WithTracker(t *jobs.Tracker) Option {
	return func(s *Service) {
		s.tracker = t
	}
}

// WithTagGenerator overrides run tag generation (for testing).
func WithTagGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newTag = fn
		}
	}
}

// NewService builds a Service writing under the configured results directory.
func NewService(cfg *config.Config, gen Generator, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		resultsDir: cfg.Paths.ResultsDir,
		maxUpload:  cfg.MaxUploadBytes(),
		generator:  gen,
		newTag:     workspace.NewTag,
		logger:     logging.NewComponentLogger(logger, "talkinghead"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SpeechEnabled reports whether Speak is available.
func (s *Service) SpeechEnabled() bool {
	return s.speaker != nil && s.speaker.Enabled()
}

// Generate stores the uploads and produces a talking-head video.
func (s *Service) Generate(ctx context.Context, in Input) (Result, error) {
	if !in.SourceImage.Present() {
		return Result{}, fmt.Errorf("%w: source image is required", ErrInvalidInput)
	}
	if !in.DrivenAudio.Present() && strings.TrimSpace(in.DrivenAudioPath) == "" {
		return Result{}, fmt.Errorf("%w: driven audio is required", ErrInvalidInput)
	}
	if err := in.Options.Validate(); err != nil {
		return Result{}, err
	}

	tag := s.newTag()
	dirs, err := workspace.TalkingHead(s.resultsDir, tag)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(dirs.Input, 0o755); err != nil {
		return Result{}, fmt.Errorf("create input directory: %w", err)
	}

	imagePath := dirs.InputPath(in.SourceImage.Name, "source_image.png")
	if err := s.save(imagePath, in.SourceImage); err != nil {
		return Result{}, err
	}
	audioPath, err := s.drivenAudio(dirs, in)
	if err != nil {
		return Result{}, err
	}

	ctx = logging.WithJobID(ctx, tag)
	run := s.tracker.Start(ctx, jobs.KindTalkingHead, tag, recordedInputs{
		SourceImage: imagePath,
		DrivenAudio: audioPath,
		Options:     in.Options,
	})

	video, err := s.withLock(ctx, func(ctx context.Context) (string, error) {
		return s.generator.Generate(ctx, sadtalker.Request{
			SourceImage: imagePath,
			DrivenAudio: audioPath,
			ResultDir:   dirs.Base,
			Options:     in.Options,
		})
	})
	if err != nil {
		run.Fail(ctx, err)
		return Result{}, err
	}
	run.Succeed(ctx, video)
	return Result{Tag: tag, VideoPath: video}, nil
}

// Speak synthesizes text into results/tts/<tag>.wav.
func (s *Service) Speak(ctx context.Context, text string) (SpeechResult, error) {
	if !s.SpeechEnabled() {
		return SpeechResult{}, coqui.ErrDisabled
	}
	if strings.TrimSpace(text) == "" {
		return SpeechResult{}, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	tag := s.newTag()
	out, err := workspace.TTSOutput(s.resultsDir, tag)
	if err != nil {
		return SpeechResult{}, err
	}

	ctx = logging.WithJobID(ctx, tag)
	run := s.tracker.Start(ctx, jobs.KindTTS, tag, map[string]string{"text": text})
	_, err = s.withLock(ctx, func(ctx context.Context) (string, error) {
		return out, s.speaker.Speak(ctx, text, out)
	})
	if err != nil {
		run.Fail(ctx, err)
		return SpeechResult{}, err
	}
	run.Succeed(ctx, out)
	return SpeechResult{Tag: tag, AudioPath: out}, nil
}

func (s *Service) drivenAudio(dirs workspace.TalkingHeadDirs, in Input) (string, error) {
	if in.DrivenAudio.Present() {
		path := dirs.InputPath(in.DrivenAudio.Name, "driven_audio.wav")
		if err := s.save(path, in.DrivenAudio); err != nil {
			return "", err
		}
		return path, nil
	}

	src := filepath.Clean(in.DrivenAudioPath)
	if !workspace.Contains(s.resultsDir, src) || !fileutil.Exists(src) {
		return "", fmt.Errorf("%w: driven audio %q is not a generated file", ErrInvalidInput, in.DrivenAudioPath)
	}
	dst := dirs.InputPath(filepath.Base(src), "driven_audio.wav")
	if err := fileutil.CopyFile(src, dst); err != nil {
		return "", fmt.Errorf("copy driven audio: %w", err)
	}
	return dst, nil
}

func (s *Service) save(path string, up fileutil.Upload) error {
	n, err := fileutil.SaveUpload(path, up.Body, s.maxUpload)
	if err != nil {
		if errors.Is(err, fileutil.ErrTooLarge) {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return fmt.Errorf("save upload %s: %w", filepath.Base(path), err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidInput, filepath.Base(path))
	}
	s.logger.Debug("upload saved", logging.String("path", path), logging.Int64("bytes", n))
	return nil
}

func (s *Service) withLock(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	if s.lock != nil {
		release, err := s.lock.Acquire(ctx)
		if err != nil {
			return "", err
		}
		defer release()
	}
	return fn(ctx)
}
