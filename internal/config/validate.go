package config

import (
	"errors"
	"fmt"
	"slices"
)

// PreprocessModes lists the image preprocessing modes SadTalker accepts.
var PreprocessModes = []string{"crop", "resize", "full", "extcrop", "extfull"}

// FaceModelSizes lists the supported face model resolutions.
var FaceModelSizes = []int{256, 512}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSadTalker(); err != nil {
		return err
	}
	if err := c.validateVoiceClone(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateTranslate(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateSadTalker() error {
	if !slices.Contains(PreprocessModes, c.SadTalker.Preprocess) {
		return fmt.Errorf("sadtalker.preprocess must be one of %v, got %q", PreprocessModes, c.SadTalker.Preprocess)
	}
	if !slices.Contains(FaceModelSizes, c.SadTalker.Size) {
		return fmt.Errorf("sadtalker.size must be 256 or 512, got %d", c.SadTalker.Size)
	}
	if c.SadTalker.BatchSize < 1 || c.SadTalker.BatchSize > MaxBatchSize {
		return fmt.Errorf("sadtalker.batch_size must be between 1 and %d", MaxBatchSize)
	}
	if c.SadTalker.PoseStyle < 0 || c.SadTalker.PoseStyle > MaxPoseStyle {
		return fmt.Errorf("sadtalker.pose_style must be between 0 and %d", MaxPoseStyle)
	}
	switch c.SadTalker.Enhancer {
	case "", "gfpgan", "restoreformer":
	default:
		return fmt.Errorf("sadtalker.enhancer must be gfpgan or restoreformer, got %q", c.SadTalker.Enhancer)
	}
	return nil
}

func (c *Config) validateVoiceClone() error {
	switch c.VoiceClone.Device {
	case "cuda", "cpu", "mps":
		return nil
	default:
		return fmt.Errorf("voice_clone.device must be cuda, cpu or mps, got %q", c.VoiceClone.Device)
	}
}

func (c *Config) validateMedia() error {
	if c.Media.SampleRate <= 0 {
		return errors.New("media.sample_rate must be positive")
	}
	return nil
}

func (c *Config) validateTranslate() error {
	if c.Translate.TimeoutSeconds <= 0 {
		return errors.New("translate.timeout_seconds must be positive")
	}
	if c.Translate.RetryAttempts < 1 {
		return errors.New("translate.retry_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
