// Package preflight provides readiness checks for the directories, external
// binaries, and source media captioner depends on.
//
// These checks run in two contexts:
//   - "captioner caption" calls RunAll before starting a job. If any check
//     fails, the job is not created.
//   - "captioner doctor" renders every result as a status line.
//
// CheckSource probes one media file and selects its dialogue track; the
// pipeline's analyze step uses it.
package preflight
