// Command captioner turns transcribed speech into animated captions.
//
// The caption command runs a full job (transcribe, refine word timings, group,
// export ASS/SRT/frame manifests and optionally burn in). The refine, group,
// preview and analyze commands expose single steps for inspection, jobs
// manages the job history, and doctor checks the environment.
package main
