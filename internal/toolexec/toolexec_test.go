package toolexec

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunCapturesStdout(t *testing.T) {
	r := New(0, testLogger())

	out, err := r.Run(context.Background(), "sh", "-c", "echo hello")

	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}

func TestRunFailureIncludesStderr(t *testing.T) {
	r := New(0, testLogger())

	_, err := r.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRunTimeout(t *testing.T) {
	r := New(50*time.Millisecond, testLogger())

	_, err := r.Run(context.Background(), "sleep", "5")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestPreflight(t *testing.T) {
	assert.NoError(t, Preflight("sh"))

	err := Preflight("sh", "definitely-not-a-real-tool-xyz")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTool)
	assert.Contains(t, err.Error(), "definitely-not-a-real-tool-xyz")
}

func TestStderrTail(t *testing.T) {
	assert.Equal(t, "(no output)", stderrTail(""))
	assert.Equal(t, "a | b", stderrTail("a\nb\n"))
	assert.Equal(t, "c | d | e | f | g", stderrTail("a\nb\nc\nd\ne\nf\ng"))
}
