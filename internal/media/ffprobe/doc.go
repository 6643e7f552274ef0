// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The caption pipeline uses it to size the caption canvas (frame width and
// height), choose the frame-sampling rate, and bound the sampled time range.
package ffprobe
