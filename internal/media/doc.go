// Package media holds shared definitions for the ffmpeg-backed helpers in
// its subpackages.
package media
