// Package audio extracts onset and energy features from decoded PCM audio.
//
// Extract turns a signal into an RMS energy envelope sampled over fixed,
// non-overlapping analysis windows (30 ms by default) and a list of onset
// times picked from the rectified energy rise against an adaptive threshold.
// The output depends only on the signal and the window size.
//
// The package also hosts the audio-decoding boundary: Decoder shells out to
// ffmpeg and reads signed 16-bit PCM from stdout, and DetectSpeech runs WebRTC
// voice activity detection for diagnostics when the binary is built with cgo.
package audio
