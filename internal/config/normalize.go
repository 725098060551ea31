package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	if err := c.normalizeSadTalker(); err != nil {
		return err
	}
	c.normalizeTTS()
	c.normalizeVoiceClone()
	if err := c.normalizeWav2Lip(); err != nil {
		return err
	}
	c.normalizeMedia()
	c.normalizeTranslate()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		c.Paths.ResultsDir = defaultResultsDir
	}
	if c.Paths.ResultsDir, err = expandPath(c.Paths.ResultsDir); err != nil {
		return fmt.Errorf("paths.results_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		c.Paths.UploadDir = defaultUploadDir
	}
	if c.Paths.UploadDir, err = expandPath(c.Paths.UploadDir); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.GeneratedDir) == "" {
		c.Paths.GeneratedDir = defaultGeneratedDir
	}
	if c.Paths.GeneratedDir, err = expandPath(c.Paths.GeneratedDir); err != nil {
		return fmt.Errorf("paths.generated_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("PRAMA_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = defaultMaxUploadMB
	}
}

func (c *Config) normalizeSadTalker() error {
	var err error
	c.SadTalker.Python = firstNonEmpty(c.SadTalker.Python, defaultPython)
	if c.SadTalker.Dir, err = expandPath(firstNonEmpty(c.SadTalker.Dir, defaultSadTalkerDir)); err != nil {
		return fmt.Errorf("sadtalker.dir: %w", err)
	}
	if c.SadTalker.CheckpointDir, err = expandPath(firstNonEmpty(c.SadTalker.CheckpointDir, defaultSadTalkerCkptDir)); err != nil {
		return fmt.Errorf("sadtalker.checkpoint_dir: %w", err)
	}
	c.SadTalker.Enhancer = strings.ToLower(strings.TrimSpace(c.SadTalker.Enhancer))
	c.SadTalker.Preprocess = strings.ToLower(firstNonEmpty(c.SadTalker.Preprocess, defaultPreprocess))
	if c.SadTalker.Size == 0 {
		c.SadTalker.Size = defaultSize
	}
	if c.SadTalker.BatchSize == 0 {
		c.SadTalker.BatchSize = defaultBatchSize
	}
	return nil
}

func (c *Config) normalizeTTS() {
	c.TTS.Command = firstNonEmpty(c.TTS.Command, defaultTTSCommand)
	c.TTS.Model = strings.TrimSpace(c.TTS.Model)
}

func (c *Config) normalizeVoiceClone() {
	c.VoiceClone.Python = firstNonEmpty(c.VoiceClone.Python, defaultPython)
	c.VoiceClone.Model = firstNonEmpty(c.VoiceClone.Model, defaultVoiceCloneModel)
	c.VoiceClone.Device = strings.ToLower(firstNonEmpty(c.VoiceClone.Device, defaultVoiceCloneDevice))
}

func (c *Config) normalizeWav2Lip() error {
	var err error
	c.Wav2Lip.Python = firstNonEmpty(c.Wav2Lip.Python, defaultPython)
	if c.Wav2Lip.Dir, err = expandPath(firstNonEmpty(c.Wav2Lip.Dir, defaultWav2LipDir)); err != nil {
		return fmt.Errorf("wav2lip.dir: %w", err)
	}
	if c.Wav2Lip.Checkpoint, err = expandPath(firstNonEmpty(c.Wav2Lip.Checkpoint, defaultWav2LipCheckpoint)); err != nil {
		return fmt.Errorf("wav2lip.checkpoint: %w", err)
	}
	return nil
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpeg = firstNonEmpty(c.Media.FFmpeg, defaultFFmpeg)
	c.Media.FFprobe = firstNonEmpty(c.Media.FFprobe, defaultFFprobe)
	if c.Media.SampleRate == 0 {
		c.Media.SampleRate = defaultSampleRate
	}
}

func (c *Config) normalizeTranslate() {
	c.Translate.BaseURL = strings.TrimSpace(c.Translate.BaseURL)
	if value, ok := os.LookupEnv("PRAMA_TRANSLATE_BASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.Translate.BaseURL = strings.TrimSpace(value)
	}
	c.Translate.BaseURL = strings.TrimRight(firstNonEmpty(c.Translate.BaseURL, defaultTranslateBaseURL), "/")
	c.Translate.Source = strings.ToLower(firstNonEmpty(c.Translate.Source, defaultTranslateSource))
	c.Translate.Target = strings.ToLower(firstNonEmpty(c.Translate.Target, defaultTranslateTarget))
	if c.Translate.RetryAttempts == 0 {
		c.Translate.RetryAttempts = defaultTranslateRetries
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("PRAMA_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(firstNonEmpty(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(firstNonEmpty(c.Logging.Level, defaultLogLevel))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
