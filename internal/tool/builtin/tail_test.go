package builtin

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailLines_FewerLinesThanRequested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o644))

	result, err := tailLines(path, 10, 1024, 16)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, result.Lines)
	assert.False(t, result.Truncated)
}

func TestTailLines_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	result, err := tailLines(path, 10, 1024, 16)

	require.NoError(t, err)
	assert.Empty(t, result.Lines)
}

func TestTailLines_ChunkBoundaries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chunky.log")
	lines := []string{"first", "second", "third", "fourth", "fifth"}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	// Threshold of 1 forces the chunked path; chunk size smaller than a line.
	result, err := tailLines(path, 2, 1, 3)

	require.NoError(t, err)
	assert.Equal(t, []string{"fourth", "fifth"}, result.Lines)
	assert.True(t, result.Truncated)
}
