// Package talkinghead orchestrates one SadTalker generation: it stores the
// uploaded portrait and driving audio under a fresh results/<tag> directory,
// waits for the inference slot, runs the model and reports the video path.
//
// Speak produces driving audio from text with Coqui TTS for the browser UI.
package talkinghead
