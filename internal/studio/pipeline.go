package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"prama/internal/config"
	"prama/internal/fileutil"
	"prama/internal/jobs"
	"prama/internal/language"
	"prama/internal/logging"
	"prama/internal/media/audio"
	"prama/internal/media/ffprobe"
	"prama/internal/services"
	"prama/internal/services/voiceclone"
	"prama/internal/workspace"
)

// ErrInvalidInput reports a missing upload, an unsupported file type or a
// blank script.
var ErrInvalidInput = fmt.Errorf("invalid studio input: %w", services.ErrValidation)

// Messages shown to the user as the run progresses.
const (
	MsgMissingVideo   = "Please upload a video file."
	MsgMissingScript  = "Please enter a script."
	MsgUnsupported    = "Only mp4 and mov videos are supported."
	MsgVideoUploaded  = "Video uploaded."
	MsgVideoChecked   = "Video has a usable audio track."
	MsgAudioExtracted = "Reference audio extracted."
	MsgAudioDenoised  = "Reference audio cleaned up."
	MsgTTSFailed      = "TTS audio generation failed."
	MsgTTSDone        = "Audio generated from script with voice cloning."
	MsgLipSyncFailed  = "Wav2Lip video generation failed."
	MsgLipSyncDone    = "Lip-synced video generated successfully!"
)

// Level classifies a step message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Step is one progress message.
type Step struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Prober validates the uploaded face video.
type Prober interface {
	RequireVideoWithAudio(ctx context.Context, path string) (ffprobe.Result, error)
}

// AudioProcessor derives the reference clip from the face video.
type AudioProcessor interface {
	ExtractReference(ctx context.Context, video, dest string) error
	Denoise(ctx context.Context, src, dest string) error
}

// Synthesizer speaks the script in the reference voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, req voiceclone.Request) (audio.WAVInfo, error)
}

// LipSyncer animates the face video to the synthesized speech.
type LipSyncer interface {
	Sync(ctx context.Context, face, speech, out string) (string, error)
}

// Locker grants exclusive use of the inference hardware.
type Locker interface {
	Acquire(ctx context.Context) (func(), error)
}

// Input is one studio request.
type Input struct {
	FaceVideo fileutil.Upload
	Script    string
	Language  string
}

// Result describes a run. Steps is populated even when Run returns an error.
type Result struct {
	RunID       string  `json:"result_id,omitempty"`
	FinalVideo  string  `json:"video_path,omitempty"`
	SpeechAudio string  `json:"audio_path,omitempty"`
	Duration    float64 `json:"speech_seconds,omitempty"`
	Steps       []Step  `json:"steps"`
}

func (r *Result) add(level Level, msg string) {
	r.Steps = append(r.Steps, Step{Level: level, Message: msg})
}

// Stages bundles the external tools a Pipeline drives.
type Stages struct {
	Prober      Prober
	Audio       AudioProcessor
	Synthesizer Synthesizer
	LipSync     LipSyncer
}

// Pipeline runs studio requests.
type Pipeline struct {
	uploadDir    string
	generatedDir string
	maxUpload    int64
	denoise      bool
	stages       Stages
	lock         Locker
	tracker      *jobs.Tracker
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures the Pipeline.
type Option func(*Pipeline)

// WithLock serializes model invocations through lock.
func WithLock(lock Locker) Option {
	return func(p *Pipeline) {
		p.lock = lock
	}
}

// WithTracker records runs in the job ledger.
func WithTracker(t *jobs.Tracker) Option {
	return func(p *Pipeline) {
		p.tracker = t
	}
}

// WithClock overrides the clock used for run identifiers.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPipeline builds a Pipeline from configuration.
func NewPipeline(cfg *config.Config, stages Stages, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		uploadDir:    cfg.Paths.UploadDir,
		generatedDir: cfg.Paths.GeneratedDir,
		maxUpload:    cfg.MaxUploadBytes(),
		denoise:      cfg.VoiceClone.Denoise,
		stages:       stages,
		now:          time.Now,
		logger:       logging.NewComponentLogger(logger, "studio"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline. Later stages never start after an earlier one
// fails.
func (p *Pipeline) Run(ctx context.Context, in Input) (Result, error) {
	var res Result

	if !in.FaceVideo.Present() {
		res.add(LevelWarning, MsgMissingVideo)
		return res, fmt.Errorf("%w: %s", ErrInvalidInput, MsgMissingVideo)
	}
	script := strings.TrimSpace(in.Script)
	if script == "" {
		res.add(LevelWarning, MsgMissingScript)
		return res, fmt.Errorf("%w: %s", ErrInvalidInput, MsgMissingScript)
	}
	ext := strings.ToLower(filepath.Ext(in.FaceVideo.Name))
	if ext != ".mp4" && ext != ".mov" {
		res.add(LevelWarning, MsgUnsupported)
		return res, fmt.Errorf("%w: %s (got %q)", ErrInvalidInput, MsgUnsupported, in.FaceVideo.Name)
	}

	paths, err := workspace.Studio(p.uploadDir, p.generatedDir, workspace.NewStudioRun(p.now()), ext)
	if err != nil {
		return res, err
	}
	res.RunID = paths.RunID

	n, err := fileutil.SaveUpload(paths.FaceVideo, in.FaceVideo.Body, p.maxUpload)
	if err != nil {
		if errors.Is(err, fileutil.ErrTooLarge) {
			err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		res.add(LevelError, fmt.Sprintf("Failed to save video: %v", err))
		return res, err
	}
	if n == 0 {
		res.add(LevelWarning, MsgMissingVideo)
		return res, fmt.Errorf("%w: uploaded video is empty", ErrInvalidInput)
	}
	res.add(LevelSuccess, MsgVideoUploaded)

	lang := language.ToISO2(in.Language)
	if lang == "" {
		lang = "en"
	}
	ctx = logging.WithJobID(ctx, paths.RunID)
	run := p.tracker.Start(ctx, jobs.KindStudio, paths.RunID, map[string]string{
		"face_video": paths.FaceVideo,
		"language":   lang,
		"script":     script,
	})

	if err := p.execute(ctx, &res, paths, script, lang); err != nil {
		run.Fail(ctx, err)
		return res, err
	}
	run.Succeed(ctx, res.FinalVideo)
	return res, nil
}

func (p *Pipeline) execute(ctx context.Context, res *Result, paths workspace.StudioPaths, script, lang string) error {
	if p.stages.Prober != nil {
		probe, err := p.stages.Prober.RequireVideoWithAudio(ctx, paths.FaceVideo)
		if err != nil {
			res.add(LevelError, fmt.Sprintf("Video check failed: %v", err))
			return err
		}
		p.logger.Debug("face video probed",
			logging.String(logging.FieldJobID, paths.RunID),
			logging.Float64("duration_seconds", probe.DurationSeconds()),
			logging.Int64("size_bytes", probe.SizeBytes()),
			logging.Int("audio_streams", probe.AudioStreamCount()),
		)
		res.add(LevelSuccess, MsgVideoChecked)
	}

	if err := p.stages.Audio.ExtractReference(ctx, paths.FaceVideo, paths.ReferenceAudio); err != nil {
		res.add(LevelError, fmt.Sprintf("Failed to extract audio: %v", err))
		return err
	}
	res.add(LevelSuccess, MsgAudioExtracted)

	reference := paths.ReferenceAudio
	if p.denoise {
		if err := p.stages.Audio.Denoise(ctx, paths.ReferenceAudio, paths.DenoisedAudio); err != nil {
			res.add(LevelError, fmt.Sprintf("Failed to denoise reference audio: %v", err))
			res.add(LevelError, MsgTTSFailed)
			return err
		}
		reference = paths.DenoisedAudio
		res.add(LevelSuccess, MsgAudioDenoised)
	}

	release, err := p.acquire(ctx)
	if err != nil {
		res.add(LevelError, fmt.Sprintf("Could not start generation: %v", err))
		return err
	}
	defer release()

	info, err := p.stages.Synthesizer.Synthesize(ctx, voiceclone.Request{
		Text:      script,
		Reference: reference,
		Output:    paths.SpeechAudio,
		Language:  lang,
	})
	if err != nil {
		res.add(LevelError, fmt.Sprintf("TTS generation failed (Chatterbox): %v", err))
		res.add(LevelError, MsgTTSFailed)
		return err
	}
	res.SpeechAudio = paths.SpeechAudio
	res.Duration = info.Duration.Seconds()
	res.add(LevelSuccess, MsgTTSDone)

	final, err := p.stages.LipSync.Sync(ctx, paths.FaceVideo, paths.SpeechAudio, paths.FinalVideo)
	if err != nil {
		res.add(LevelError, fmt.Sprintf("Wav2Lip failed: %v", err))
		res.add(LevelError, MsgLipSyncFailed)
		return err
	}
	res.FinalVideo = final
	res.add(LevelSuccess, MsgLipSyncDone)
	p.logger.Info("studio run complete",
		logging.String(logging.FieldJobID, paths.RunID),
		logging.String("video", final),
		logging.Float64("speech_seconds", res.Duration),
	)
	return nil
}

func (p *Pipeline) acquire(ctx context.Context) (func(), error) {
	if p.lock == nil {
		return func() {}, nil
	}
	return p.lock.Acquire(ctx)
}
