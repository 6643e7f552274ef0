package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFprobe returns the ffprobe binary matching an ffmpeg command.
//
// Static ffmpeg builds ship ffprobe in the same directory, so an ffprobe
// beside the resolved ffmpeg wins over one found on PATH. The plain name
// "ffprobe" is returned when neither exists.
func ResolveFFprobe(ffmpegCommand string) string {
	ffmpegBinary := strings.TrimSpace(ffmpegCommand)
	if ffmpegBinary != "" {
		if resolved, err := exec.LookPath(ffmpegBinary); err == nil {
			candidate := filepath.Join(filepath.Dir(resolved), executableName("ffprobe"))
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				return candidate
			}
		}
	}
	if path, err := exec.LookPath("ffprobe"); err == nil {
		return path
	}
	return "ffprobe"
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
