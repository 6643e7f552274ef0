// Package services holds the helpers shared by pipeline stages and the
// adapters for external tools.
//
// It stamps job IDs, stage names and correlation identifiers onto contexts
// for logging, and provides sentinel error markers plus Wrap so stage
// failures map onto consistent job statuses (failed vs review).
package services
