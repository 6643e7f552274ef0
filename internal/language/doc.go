// Package language normalizes spoken-language codes.
//
// Transcription settings, ffprobe stream tags and WhisperX all name
// languages differently ("en-US", "eng", "English"). Normalize reduces each
// to an ISO 639-1 code so audio track selection and the WhisperX
// --language flag agree.
package language
