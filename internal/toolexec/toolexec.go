// Package toolexec runs the external media tools (ffmpeg, ffprobe,
// mkvmerge) with timeouts and captured output.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ErrMissingTool indicates a required external binary is not on PATH.
var ErrMissingTool = errors.New("required tool not found")

// DefaultTimeout bounds a single external tool invocation. Generous: the
// dominant cost is remux/transcode wall time on large files.
const DefaultTimeout = 30 * time.Minute

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner is the real Runner backed by os/exec.
type ExecRunner struct {
	timeout time.Duration
	log     *slog.Logger
}

// New creates an ExecRunner. A zero timeout uses DefaultTimeout.
func New(timeout time.Duration, log *slog.Logger) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{timeout: timeout, log: log}
}

// Run executes the command, capturing stdout and stderr. On failure the
// returned error carries the exit status and the tail of stderr so
// per-episode failures are diagnosable from the summary alone.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.log.Debug("running tool", "tool", name, "args", strings.Join(args, " "))
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s timed out after %s", name, elapsed.Round(time.Second))
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, stderrTail(stderr.String()))
	}

	r.log.Debug("tool finished", "tool", name, "elapsed", elapsed.Round(time.Millisecond))
	return stdout.Bytes(), nil
}

// stderrTail keeps the last few lines of tool output for error messages.
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(no output)"
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}

// Preflight verifies that every named binary is resolvable on PATH.
// A missing tool is fatal for the whole run, so this is checked before
// any processing begins.
func Preflight(tools ...string) error {
	var missing []string
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingTool, strings.Join(missing, ", "))
	}
	return nil
}
