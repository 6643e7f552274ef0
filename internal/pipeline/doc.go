// Package pipeline runs a caption job end to end.
//
// A job moves through four stages persisted in the queue store: transcribing
// (probe the source and obtain word timings from WhisperX or a words file),
// refining (decode audio and extend word ends to the last voiced sample),
// grouping (split words into caption groups), and exporting (write ASS, SRT
// and frame manifests, then optionally burn captions into the video). Stage
// failures are classified with services.FailureStatus so bad input lands in
// review while tool failures are marked failed.
//
// The same Service backs the single-purpose CLI commands (refine, analyze)
// that run one step without creating a job.
package pipeline
