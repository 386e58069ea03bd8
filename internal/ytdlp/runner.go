package ytdlp

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes yt-dlp. Implementations return the captured output and
// the process error, if any.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

// ExecRunner runs yt-dlp as a subprocess.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
