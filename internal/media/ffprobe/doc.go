// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: runs ffprobe through a services.CommandRunner
//
// The studio pipeline uses RequireVideoWithAudio to reject uploads that have
// no picture or no voice to clone before any model is invoked.
package ffprobe
