// Package audiotrack picks the audio stream a caption job listens to.
//
// Containers often carry several audio tracks: dubs, commentary, audio
// description. Select ranks them so transcription and timing refinement
// hear the main dialogue in the configured language:
//  1. Language matching transcription.language
//  2. Not commentary or description (by title or disposition)
//  3. Default disposition
//  4. Channel count, capped at 5.1
//
// Ties go to the earlier stream. A Selection's Ordinal is the stream's
// position among audio streams, which is what ffmpeg's "0:a:N" map expects.
package audiotrack
