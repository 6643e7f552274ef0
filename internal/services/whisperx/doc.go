// Package whisperx runs WhisperX through uvx and converts its aligned JSON
// output into caption words.
//
// Audio is first extracted to a mono 16 kHz WAV with ffmpeg. WhisperX
// aligns every word; its per-word score becomes the word confidence. Words
// the aligner could not time (digits, symbols) are kept as zero-length
// markers at the previous word's end.
package whisperx
