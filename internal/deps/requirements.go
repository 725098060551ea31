package deps

import (
	"prama/internal/config"
)

// Requirements lists the binaries the configured pipelines execute. Coqui TTS
// is optional because the talking-head page works with uploaded audio.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	reqs := []Requirement{
		{Name: "FFmpeg", Command: cfg.Media.FFmpeg, Description: "Extracts and denoises reference audio"},
		{Name: "FFprobe", Command: cfg.Media.FFprobe, Description: "Validates uploaded face videos"},
		{Name: "SadTalker Python", Command: cfg.SadTalker.Python, Description: "Runs SadTalker inference"},
	}
	if cfg.VoiceClone.Python != cfg.SadTalker.Python {
		reqs = append(reqs, Requirement{Name: "Voice clone Python", Command: cfg.VoiceClone.Python, Description: "Runs Chatterbox voice cloning"})
	}
	if cfg.Wav2Lip.Python != cfg.SadTalker.Python && cfg.Wav2Lip.Python != cfg.VoiceClone.Python {
		reqs = append(reqs, Requirement{Name: "Wav2Lip Python", Command: cfg.Wav2Lip.Python, Description: "Runs Wav2Lip lip-sync"})
	}
	if cfg.TTS.Enabled {
		reqs = append(reqs, Requirement{Name: "Coqui TTS", Command: cfg.TTS.Command, Description: "Generates driven audio from text", Optional: true})
	}
	return reqs
}

// Missing returns the required (non-optional) statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
