// Package config loads, normalizes, and validates captioner configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN. Accessors translate the file sections into the option types of
// the audio, timing, animation, compositor, and export packages so callers
// never parse colors, anchors, or formats themselves.
package config
