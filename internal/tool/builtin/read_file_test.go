package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hualet/deepin-term-agent/internal/tool"
)

func TestReadFile_WholeFile(t *testing.T) {
	h := newReadFile(testConfig())
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\ngamma"), 0o644))

	payload, err := h.Execute(context.Background(), map[string]any{"path": path})

	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta\ngamma", payload["content"])
	assert.Equal(t, 3, payload["lines"])
	assert.Equal(t, false, payload["truncated"])
}

func TestReadFile_MaxLinesTruncates(t *testing.T) {
	h := newReadFile(testConfig())
	path := filepath.Join(t.TempDir(), "big.txt")

	var sb strings.Builder
	for i := 1; i <= 100; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))

	payload, err := h.Execute(context.Background(), map[string]any{
		"path":      path,
		"max_lines": 5,
	})

	require.NoError(t, err)
	assert.Equal(t, 5, payload["lines"])
	assert.Equal(t, true, payload["truncated"])
	assert.Equal(t, "line 1\nline 2\nline 3\nline 4\nline 5", payload["content"])
}

func TestReadFile_NotFound(t *testing.T) {
	h := newReadFile(testConfig())

	_, err := h.Execute(context.Background(), map[string]any{
		"path": filepath.Join(t.TempDir(), "missing.txt"),
	})

	require.Error(t, err)
	assert.Equal(t, tool.FailNotFound, tool.ClassifyError(err))
}

func TestReadFile_PermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission bits are not enforced")
	}
	h := newReadFile(testConfig())
	path := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(path, []byte("hidden"), 0o000))

	_, err := h.Execute(context.Background(), map[string]any{"path": path})

	require.Error(t, err)
	assert.Equal(t, tool.FailPermission, tool.ClassifyError(err))
}

func TestReadFile_DirectoryRejected(t *testing.T) {
	h := newReadFile(testConfig())

	_, err := h.Execute(context.Background(), map[string]any{"path": t.TempDir()})

	require.Error(t, err)
	assert.Equal(t, tool.FailNotFound, tool.ClassifyError(err))
}
