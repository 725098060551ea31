package workspace

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"prama/internal/textutil"
)

const studioTimeLayout = "2006-01-02-15-04-05"

// NewTag returns a fresh identifier for a talking-head or TTS run.
func NewTag() string {
	return uuid.NewString()
}

// NewStudioRun returns a studio run identifier of the form
// VIDEO-YYYY-MM-DD-HH-MM-SS-xxxxxxxx.
func NewStudioRun(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("VIDEO-%s-%s", now.Format(studioTimeLayout), suffix)
}

// TalkingHeadDirs is the directory pair for one talking-head run.
type TalkingHeadDirs struct {
	Tag   string
	Base  string
	Input string
}

// TalkingHead returns the run directories for tag under resultsDir.
func TalkingHead(resultsDir, tag string) (TalkingHeadDirs, error) {
	if err := checkElement(tag); err != nil {
		return TalkingHeadDirs{}, fmt.Errorf("talking head tag: %w", err)
	}
	base, err := within(resultsDir, tag)
	if err != nil {
		return TalkingHeadDirs{}, err
	}
	return TalkingHeadDirs{
		Tag:   tag,
		Base:  base,
		Input: filepath.Join(base, "input"),
	}, nil
}

// InputPath returns where an uploaded file named name is stored. Client
// supplied names are reduced to a single safe element; fallback is used when
// nothing usable remains.
func (d TalkingHeadDirs) InputPath(name, fallback string) string {
	return filepath.Join(d.Input, textutil.UploadName(name, fallback))
}

// StudioPaths lists the files produced by one studio run.
type StudioPaths struct {
	RunID          string
	FaceVideo      string
	ReferenceAudio string
	DenoisedAudio  string
	SpeechAudio    string
	FinalVideo     string
}

// Studio returns file paths for run id. ext is the face video extension,
// including the leading dot.
func Studio(uploadDir, generatedDir, id, ext string) (StudioPaths, error) {
	if err := checkElement(id); err != nil {
		return StudioPaths{}, fmt.Errorf("studio run id: %w", err)
	}
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && (!strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`)) {
		return StudioPaths{}, fmt.Errorf("studio video extension %q is invalid", ext)
	}
	paths := StudioPaths{RunID: id}
	entries := []struct {
		root string
		name string
		dst  *string
	}{
		{uploadDir, id + ext, &paths.FaceVideo},
		{uploadDir, id + "-ref_audio.wav", &paths.ReferenceAudio},
		{uploadDir, id + "-ref_audio_denoised.wav", &paths.DenoisedAudio},
		{generatedDir, id + "-output_audio.wav", &paths.SpeechAudio},
		{generatedDir, id + "-final_lipsynced_video.mp4", &paths.FinalVideo},
	}
	for _, e := range entries {
		p, err := within(e.root, e.name)
		if err != nil {
			return StudioPaths{}, err
		}
		*e.dst = p
	}
	return paths, nil
}

// TTSOutput returns the WAV location for a standalone text-to-speech request.
func TTSOutput(resultsDir, tag string) (string, error) {
	if err := checkElement(tag); err != nil {
		return "", fmt.Errorf("tts tag: %w", err)
	}
	return within(resultsDir, "tts", tag+".wav")
}

// Contains reports whether path is lexically inside root.
func Contains(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func within(root string, elems ...string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("root directory is required")
	}
	p := filepath.Join(append([]string{root}, elems...)...)
	if !Contains(root, p) || filepath.Clean(p) == filepath.Clean(root) {
		return "", fmt.Errorf("path %q escapes %q", p, root)
	}
	return p, nil
}

func checkElement(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("must not be empty")
	case name == "." || name == "..":
		return fmt.Errorf("%q is not a valid name", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%q must not contain path separators", name)
	}
	return nil
}
