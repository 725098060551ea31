package config

import "runtime"

const (
	defaultResultsDir        = "results"
	defaultUploadDir         = "data/uploads"
	defaultGeneratedDir      = "data/generated"
	defaultStateDir          = "~/.local/share/prama"
	defaultLogDir            = "~/.local/share/prama/logs"
	defaultBind              = "127.0.0.1:7860"
	defaultMaxUploadMB       = 512
	defaultRequestTimeout    = 1800
	defaultPython            = "python"
	defaultSadTalkerDir      = "SadTalker"
	defaultSadTalkerCkptDir  = "SadTalker/checkpoints"
	defaultEnhancer          = "gfpgan"
	defaultPreprocess        = "crop"
	defaultSize              = 256
	defaultBatchSize         = 2
	defaultTTSCommand        = "tts"
	defaultVoiceCloneModel   = "chatterbox/voice-cloning-multilingual"
	defaultVoiceCloneDevice  = "cuda"
	defaultWav2LipDir        = "Wav2Lip"
	defaultWav2LipCheckpoint = "Wav2Lip/checkpoints/wav2lip_gan.pth"
	defaultFFmpeg            = "ffmpeg"
	defaultFFprobe           = "ffprobe"
	defaultSampleRate        = 16000
	defaultTranslateBaseURL  = "https://translate.googleapis.com"
	defaultTranslateSource   = "hi"
	defaultTranslateTarget   = "en"
	defaultTranslateTimeout  = 15
	defaultTranslateRetries  = 3
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

const (
	// MaxBatchSize is the largest SadTalker generation batch.
	MaxBatchSize = 10
	// MaxPoseStyle is the highest SadTalker pose style index.
	MaxPoseStyle = 46
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ResultsDir:   defaultResultsDir,
			UploadDir:    defaultUploadDir,
			GeneratedDir: defaultGeneratedDir,
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
		},
		Server: Server{
			Bind:           defaultBind,
			MaxUploadMB:    defaultMaxUploadMB,
			RequestTimeout: defaultRequestTimeout,
		},
		SadTalker: SadTalker{
			Python:        defaultPython,
			Dir:           defaultSadTalkerDir,
			CheckpointDir: defaultSadTalkerCkptDir,
			Enhancer:      defaultEnhancer,
			Preprocess:    defaultPreprocess,
			Size:          defaultSize,
			BatchSize:     defaultBatchSize,
		},
		// Coqui TTS is not available on Windows.
		TTS: TTS{
			Enabled: runtime.GOOS != "windows",
			Command: defaultTTSCommand,
		},
		VoiceClone: VoiceClone{
			Python:  defaultPython,
			Model:   defaultVoiceCloneModel,
			Device:  defaultVoiceCloneDevice,
			Denoise: true,
		},
		Wav2Lip: Wav2Lip{
			Python:     defaultPython,
			Dir:        defaultWav2LipDir,
			Checkpoint: defaultWav2LipCheckpoint,
		},
		Media: Media{
			FFmpeg:     defaultFFmpeg,
			FFprobe:    defaultFFprobe,
			SampleRate: defaultSampleRate,
		},
		Translate: Translate{
			BaseURL:        defaultTranslateBaseURL,
			Source:         defaultTranslateSource,
			Target:         defaultTranslateTarget,
			TimeoutSeconds: defaultTranslateTimeout,
			RetryAttempts:  defaultTranslateRetries,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			OnSuccess:      true,
			OnFailure:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
