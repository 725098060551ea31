package audio

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// ErrInvalidWAV reports a file that is not a decodable PCM WAV or has no samples.
var ErrInvalidWAV = errors.New("invalid wav file")

// WAVInfo summarizes a decoded WAV header.
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	DataBytes  int64
	Duration   time.Duration
}

// InspectWAV decodes the header of path and reports its format and length.
func InspectWAV(path string) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return WAVInfo{}, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	if err := dec.FwdToPCM(); err != nil {
		return WAVInfo{}, fmt.Errorf("%s: %w: %v", path, ErrInvalidWAV, err)
	}

	info := WAVInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		DataBytes:  int64(dec.PCMSize),
	}
	if info.DataBytes <= 0 {
		return info, fmt.Errorf("%s: %w: no audio samples", path, ErrInvalidWAV)
	}
	bytesPerSecond := int64(info.SampleRate) * int64(info.Channels) * int64(info.BitDepth/8)
	if bytesPerSecond > 0 {
		info.Duration = time.Duration(float64(info.DataBytes) / float64(bytesPerSecond) * float64(time.Second))
	}
	return info, nil
}
