// Package staging manages the per-job work directories under paths.work_dir:
// extracted audio and transcription output for a run live in a directory named
// after the job's run ID until the job finishes or the directory goes stale.
package staging
