package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"prama/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	CodecTag   string `json:"codec_tag_string"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// ErrNoVideo and ErrNoAudio report containers missing a required stream.
var (
	ErrNoVideo = errors.New("no video stream")
	ErrNoAudio = errors.New("no audio stream")
)

// Prober runs ffprobe through an injectable command runner.
type Prober struct {
	binary string
	run    services.CommandRunner
}

// NewProber returns a Prober for binary. A nil runner executes ffprobe directly.
func NewProber(binary string, runner services.CommandRunner) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary, run: runner}
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := services.Command{
		Name: p.binary,
		Args: []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path},
	}
	output, err := services.Run(ctx, p.run, cmd)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// RequireVideoWithAudio probes path and fails unless it carries at least one
// video stream and one audio stream.
func (p *Prober) RequireVideoWithAudio(ctx context.Context, path string) (Result, error) {
	result, err := p.Inspect(ctx, path)
	if err != nil {
		return Result{}, err
	}
	if result.VideoStreamCount() == 0 {
		return result, fmt.Errorf("%s: %w", path, ErrNoVideo)
	}
	if result.AudioStreamCount() == 0 {
		return result, fmt.Errorf("%s: %w", path, ErrNoAudio)
	}
	return result, nil
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int { return r.countStreams("video") }

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int { return r.countStreams("audio") }

func (r Result) countStreams(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	if d, ok := parseNumber(r.Format.Duration); ok {
		return d
	}
	return 0
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 { return nonNegative(r.Format.Size) }

// BitRate returns the container bitrate in bits per second, or 0 when unavailable.
func (r Result) BitRate() int64 { return nonNegative(r.Format.BitRate) }

func nonNegative(value string) int64 {
	n, ok := parseNumber(value)
	if !ok || n < 0 {
		return 0
	}
	return int64(n)
}

// parseNumber reads ffprobe's string-encoded numbers; "N/A" and blanks fail.
func parseNumber(value string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
