// Package caption defines timed words and the caption groups built from them.
//
// A Word is a single transcribed token with a [Start, End] window in seconds.
// Group partitions an ordered word stream into on-screen lines bounded by a
// word-count limit and a silence-gap threshold. Groups are immutable once
// built: NewGroup copies its input so later edits to the caller's slice never
// leak into a group that a compositor may be reading concurrently.
//
// Grouping surfaces structural problems (no words, non-positive thresholds)
// as explicit errors rather than empty results so upstream data loss is never
// masked by an empty caption track.
package caption
