// Package services defines shared utilities consumed by the model wrappers and
// external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that classify failures
//     into validation, unavailable and external tool errors, and HTTPStatus
//     which turns those markers into API response codes.
//   - The Command/CommandRunner abstraction that makes every external process
//     (ffmpeg, python model scripts, Coqui tts) injectable in tests.
//
// Subpackages wrap individual tools: sadtalker, coqui, voiceclone, wav2lip,
// and the gtranslate HTTP client.
package services
