package config

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFileSystem implements FileSystem for testing.
type MockFileSystem struct {
	HomeDir     string
	HomeDirErr  error
	Files       map[string][]byte
	ReadFileErr error
	Dirs        []string
}

func NewMockFileSystem(home string) *MockFileSystem {
	return &MockFileSystem{HomeDir: home, Files: map[string][]byte{}}
}

func (m *MockFileSystem) UserHomeDir() (string, error) {
	return m.HomeDir, m.HomeDirErr
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileErr != nil {
		return nil, m.ReadFileErr
	}
	data, ok := m.Files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (m *MockFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	m.Files[path] = data
	return nil
}

func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	m.Dirs = append(m.Dirs, path)
	return nil
}

const cfgPath = "/home/user/.config/deepin-term-agent/config.json"

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	fs := NewMockFileSystem("/home/user")
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "moonshot", cfg.Provider.Provider)
	assert.Equal(t, 30, cfg.MCP.CallTimeoutSeconds)
	assert.Equal(t, 30, cfg.Tools.DefaultCommandTimeoutSeconds)
	assert.Empty(t, cfg.Servers)
}

func TestLoad_PartialOverride_MergesWithDefaults(t *testing.T) {
	configJSON := `{
		"provider": {"provider": "openai", "model": "gpt-4o-mini"},
		"mcp_servers": {"filesystem": {"endpoint": "ws://localhost:8080", "enabled": true}}
	}`
	fs := NewMockFileSystem("/home/user")
	fs.Files[cfgPath] = []byte(configJSON)
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider.Provider)        // Overridden
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)      // Overridden
	assert.Equal(t, 30, cfg.MCP.CallTimeoutSeconds)         // Default
	assert.Equal(t, 64*1024, cfg.Tools.MaxCommandOutputBytes) // Default
	require.Contains(t, cfg.Servers, "filesystem")
	assert.Equal(t, "ws://localhost:8080", cfg.Servers["filesystem"].Endpoint)
	assert.True(t, cfg.Servers["filesystem"].Enabled)
}

func TestLoad_MalformedJSON_ReturnsError(t *testing.T) {
	fs := NewMockFileSystem("/home/user")
	fs.Files[cfgPath] = []byte("{not json")
	loader := NewLoaderWithFS(fs)

	_, err := loader.Load()

	assert.Error(t, err)
}

func TestLoad_InvalidEndpointScheme_FailsValidation(t *testing.T) {
	configJSON := `{"mcp_servers": {"bad": {"endpoint": "http://localhost:8080", "enabled": true}}}`
	fs := NewMockFileSystem("/home/user")
	fs.Files[cfgPath] = []byte(configJSON)
	loader := NewLoaderWithFS(fs)

	_, err := loader.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestAddServer_PersistsSeed(t *testing.T) {
	fs := NewMockFileSystem("/home/user")
	loader := NewLoaderWithFS(fs)

	err := loader.AddServer("git", "ws://localhost:8081", false)
	require.NoError(t, err)

	saved, ok := fs.Files[cfgPath]
	require.True(t, ok)

	var cfg Config
	require.NoError(t, json.Unmarshal(saved, &cfg))
	require.Contains(t, cfg.Servers, "git")
	assert.Equal(t, "ws://localhost:8081", cfg.Servers["git"].Endpoint)
	assert.False(t, cfg.Servers["git"].Enabled)
}

func TestRemoveServer_UnknownName_ReturnsError(t *testing.T) {
	fs := NewMockFileSystem("/home/user")
	loader := NewLoaderWithFS(fs)

	err := loader.RemoveServer("nope")

	assert.ErrorIs(t, err, ErrServerNotConfigured)
}

func TestRemoveServer_DeletesSeed(t *testing.T) {
	fs := NewMockFileSystem("/home/user")
	loader := NewLoaderWithFS(fs)
	require.NoError(t, loader.AddServer("git", "ws://localhost:8081", true))

	require.NoError(t, loader.RemoveServer("git"))

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.NotContains(t, cfg.Servers, "git")
}
