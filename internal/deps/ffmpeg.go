package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFmpeg reports the ffmpeg binary yt-dlp will use for audio
// extraction. location mirrors yt-dlp's --ffmpeg-location: either the binary
// itself or the directory holding it. An empty location means PATH.
func CheckFFmpeg(location string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Used by yt-dlp to extract and convert audio",
	}

	location = strings.TrimSpace(location)
	if location != "" {
		candidate := location
		if info, err := os.Stat(location); err == nil && info.IsDir() {
			candidate = filepath.Join(location, executableName("ffmpeg"))
		}
		result.Command = candidate
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			result.Available = true
			return result
		}
		result.Detail = fmt.Sprintf("download.ffmpeg_location %q has no ffmpeg binary", location)
		return result
	}

	name := executableName("ffmpeg")
	if path, err := exec.LookPath(name); err == nil {
		result.Command = path
		result.Available = true
		return result
	}
	result.Command = name
	result.Detail = fmt.Sprintf("binary %q not found", name)
	return result
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
