// Package audio prepares the voice reference clips the studio pipeline feeds
// into voice cloning and validates the speech files models hand back.
//
// Extraction and denoising shell out to ffmpeg through a
// services.CommandRunner; WAV validation decodes headers in process with
// github.com/go-audio/wav.
package audio
