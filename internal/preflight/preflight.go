package preflight

import (
	"context"

	"prama/internal/config"
	"prama/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Report bundles binary availability and preflight checks for status views.
type Report struct {
	Dependencies []deps.Status `json:"dependencies"`
	Checks       []Result      `json:"checks"`
}

// Ready reports whether every required dependency and check passed.
func (r Report) Ready() bool {
	if len(deps.Missing(r.Dependencies)) > 0 {
		return false
	}
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// RunAll executes the filesystem and model checks for the given config.
// The translate reachability check is network-bound and only runs when
// includeNetwork is set.
func RunAll(ctx context.Context, cfg *config.Config, includeNetwork bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Results directory", cfg.Paths.ResultsDir),
		CheckDirectoryAccess("Upload directory", cfg.Paths.UploadDir),
		CheckDirectoryAccess("Generated directory", cfg.Paths.GeneratedDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckFile("SadTalker script", cfg.SadTalkerScript(), false),
		CheckFile("SadTalker checkpoints", cfg.SadTalker.CheckpointDir, true),
		CheckFile("Wav2Lip script", cfg.Wav2LipScript(), false),
		CheckFile("Wav2Lip checkpoint", cfg.Wav2Lip.Checkpoint, false),
	}

	if includeNetwork {
		results = append(results, CheckTranslate(ctx, cfg.Translate))
	}
	return results
}

// BuildReport runs dependency and preflight checks together.
func BuildReport(ctx context.Context, cfg *config.Config, includeNetwork bool) Report {
	return Report{
		Dependencies: CheckSystemDeps(ctx, cfg),
		Checks:       RunAll(ctx, cfg, includeNetwork),
	}
}
