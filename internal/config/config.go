package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for inputs, outputs, and state.
type Paths struct {
	ResultsDir   string `toml:"results_dir"`
	UploadDir    string `toml:"upload_dir"`
	GeneratedDir string `toml:"generated_dir"`
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
}

// Server contains HTTP listener settings for the web UI and API.
type Server struct {
	Bind           string `toml:"bind"`
	APIToken       string `toml:"api_token"`
	MaxUploadMB    int    `toml:"max_upload_mb"`
	RequestTimeout int    `toml:"request_timeout"`
}

// SadTalker contains settings for the talking-head model and its UI defaults.
type SadTalker struct {
	Python        string `toml:"python"`
	Dir           string `toml:"dir"`
	CheckpointDir string `toml:"checkpoint_dir"`
	Enhancer      string `toml:"enhancer"`
	Preprocess    string `toml:"preprocess"`
	Size          int    `toml:"size"`
	BatchSize     int    `toml:"batch_size"`
	PoseStyle     int    `toml:"pose_style"`
}

// TTS contains settings for the Coqui text-to-speech command used to
// produce driven audio from text.
type TTS struct {
	Enabled bool   `toml:"enabled"`
	Command string `toml:"command"`
	Model   string `toml:"model"`
}

// VoiceClone contains settings for the Chatterbox voice-cloning bridge.
type VoiceClone struct {
	Python  string `toml:"python"`
	Model   string `toml:"model"`
	Device  string `toml:"device"`
	Denoise bool   `toml:"denoise"`
}

// Wav2Lip contains settings for the lip-sync inference script.
type Wav2Lip struct {
	Python     string `toml:"python"`
	Dir        string `toml:"dir"`
	Checkpoint string `toml:"checkpoint"`
}

// Media contains external media tool settings.
type Media struct {
	FFmpeg     string `toml:"ffmpeg"`
	FFprobe    string `toml:"ffprobe"`
	SampleRate int    `toml:"sample_rate"`
}

// Translate contains settings for the translation backend.
type Translate struct {
	BaseURL        string `toml:"base_url"`
	Source         string `toml:"source"`
	Target         string `toml:"target"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnSuccess      bool   `toml:"on_success"`
	OnFailure      bool   `toml:"on_failure"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Prama.
//
// Configuration sections by subsystem:
//   - Paths: results, uploads, generated media, state and logs
//   - Server: web UI / API listener
//   - SadTalker: talking-head model location and default options
//   - TTS: Coqui text-to-speech for driven audio
//   - VoiceClone: Chatterbox voice cloning for the studio pipeline
//   - Wav2Lip: lip-sync model location
//   - Media: ffmpeg/ffprobe binaries
//   - Translate: translation backend
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	SadTalker     SadTalker     `toml:"sadtalker"`
	TTS           TTS           `toml:"tts"`
	VoiceClone    VoiceClone    `toml:"voice_clone"`
	Wav2Lip       Wav2Lip       `toml:"wav2lip"`
	Media         Media         `toml:"media"`
	Translate     Translate     `toml:"translate"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/prama/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	loadDotEnv()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv populates the process environment from .env files. Variables
// that are already set win over file values.
func loadDotEnv() {
	candidates := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "prama", ".env"))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err != nil || info.IsDir() {
			continue
		}
		_ = godotenv.Load(candidate)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("prama.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the result, upload, generated, state and log
// directories. Generated files accumulate there and are never pruned.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ResultsDir, c.Paths.UploadDir, c.Paths.GeneratedDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JobsDBPath returns the location of the run ledger database.
func (c *Config) JobsDBPath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// InferenceLockPath returns the lock file that serializes model invocations.
func (c *Config) InferenceLockPath() string {
	return filepath.Join(c.Paths.StateDir, "inference.lock")
}

// BridgeDir returns the directory where embedded helper scripts are written.
func (c *Config) BridgeDir() string {
	return filepath.Join(c.Paths.StateDir, "bridge")
}

// SadTalkerScript returns the SadTalker inference entry point.
func (c *Config) SadTalkerScript() string {
	return filepath.Join(c.SadTalker.Dir, "inference.py")
}

// Wav2LipScript returns the Wav2Lip inference entry point.
func (c *Config) Wav2LipScript() string {
	return filepath.Join(c.Wav2Lip.Dir, "inference.py")
}

// MaxUploadBytes returns the per-file upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
