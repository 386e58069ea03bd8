package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"ytkit/internal/config"
	"ytkit/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll checks the directories ytkit writes into. Directories that do not
// exist yet are reported, not created.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{CheckDirectoryAccess("State directory", cfg.Paths.StateDir)}
	if cfg.Tags.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Rename log directory", cfg.Tags.LogDir))
	}
	if dir, err := config.ExpandPath(cfg.Download.OutputDir); err == nil && dir != "" {
		results = append(results, CheckDirectoryAccess("Download directory", dir))
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps reports the binaries behind the urls, audio, and subs
// commands. The engines themselves need nothing external.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{{
		Name:        "yt-dlp",
		Command:     cfg.Download.Binary,
		Description: "Required for urls, audio, and subs",
	}})
	ffmpeg := deps.CheckFFmpeg(cfg.Download.FFmpegLocation)
	ffmpeg.Optional = true
	if !ffmpeg.Available && ffmpeg.Detail != "" {
		ffmpeg.Detail += "; audio extraction and --with-video merges will fail"
	}
	return append(statuses, ffmpeg)
}

// Missing returns the required statuses that are unavailable.
func Missing(statuses []deps.Status) []deps.Status {
	var missing []deps.Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
