package sadtalker

import (
	"fmt"
	"slices"

	"prama/internal/config"
	"prama/internal/services"
)

// ErrInvalidOptions reports generation options outside the supported ranges.
var ErrInvalidOptions = fmt.Errorf("invalid sadtalker options: %w", services.ErrValidation)

// Options are the user-facing generation settings.
type Options struct {
	Preprocess  string
	StillMode   bool
	UseEnhancer bool
	BatchSize   int
	Size        int
	PoseStyle   int
}

// DefaultOptions returns the settings the UI starts with.
func DefaultOptions(cfg *config.Config) Options {
	return Options{
		Preprocess: cfg.SadTalker.Preprocess,
		BatchSize:  cfg.SadTalker.BatchSize,
		Size:       cfg.SadTalker.Size,
		PoseStyle:  cfg.SadTalker.PoseStyle,
	}
}

// APIDefaults returns the settings the HTTP endpoint applies to omitted form
// fields. They differ from the UI defaults only in batch size.
func APIDefaults() Options {
	return Options{Preprocess: "crop", BatchSize: 1, Size: 256}
}

// Validate checks every option against the values SadTalker accepts.
func (o Options) Validate() error {
	if !slices.Contains(config.PreprocessModes, o.Preprocess) {
		return fmt.Errorf("%w: preprocess must be one of %v, got %q", ErrInvalidOptions, config.PreprocessModes, o.Preprocess)
	}
	if !slices.Contains(config.FaceModelSizes, o.Size) {
		return fmt.Errorf("%w: size must be 256 or 512, got %d", ErrInvalidOptions, o.Size)
	}
	if o.BatchSize < 1 || o.BatchSize > config.MaxBatchSize {
		return fmt.Errorf("%w: batch_size must be between 1 and %d, got %d", ErrInvalidOptions, config.MaxBatchSize, o.BatchSize)
	}
	if o.PoseStyle < 0 || o.PoseStyle > config.MaxPoseStyle {
		return fmt.Errorf("%w: pose_style must be between 0 and %d, got %d", ErrInvalidOptions, config.MaxPoseStyle, o.PoseStyle)
	}
	return nil
}
