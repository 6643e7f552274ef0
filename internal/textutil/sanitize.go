package textutil

import (
	"path/filepath"
	"strings"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons and asterisks become dashes; other unsafe
// characters and control characters are removed.
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(fileNameReplacer.Replace(strings.TrimSpace(name)))
}

// FileStem returns the sanitized base name of path without its extension.
// Leading dots are dropped so outputs are never hidden files; an empty
// result becomes "captions".
func FileStem(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == string(filepath.Separator) {
		return "captions"
	}
	if ext := filepath.Ext(base); ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	stem := strings.TrimLeft(SanitizeFileName(base), ".")
	if stem == "" {
		return "captions"
	}
	return stem
}
