package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "deepin-term-agent"
	// ConfigFile is the config file name
	ConfigFile = "config.json"
)

// FileSystem abstracts file operations for testability.
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// osFileSystem implements FileSystem using the real OS.
type osFileSystem struct{}

func (osFileSystem) UserHomeDir() (string, error) { return os.UserHomeDir() }
func (osFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
func (osFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}
func (osFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Loader handles configuration loading and persistence with an injected
// filesystem.
type Loader struct {
	fs FileSystem
}

// NewLoader creates a production Loader using the real filesystem.
func NewLoader() *Loader {
	return &Loader{fs: osFileSystem{}}
}

// NewLoaderWithFS creates a Loader with a custom filesystem (for testing).
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

func (l *Loader) configPath() (string, error) {
	homeDir, err := l.fs.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", ConfigDir, ConfigFile), nil
}

// Load reads configuration from ~/.config/deepin-term-agent/config.json and
// merges it with defaults. Missing file means defaults; parse and permission
// errors are returned.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := l.configPath()
	if err != nil {
		return cfg, nil // Use defaults if home dir is unavailable
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	// Unmarshal over the defaults: present keys overwrite (even zero values),
	// missing keys keep their defaults.
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg back to the config file, creating the directory if needed.
func (l *Loader) Save(cfg *Config) error {
	path, err := l.configPath()
	if err != nil {
		return err
	}
	if err := l.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return l.fs.WriteFile(path, data, 0o600)
}

// AddServer records an MCP server seed and persists the config.
func (l *Loader) AddServer(name, endpoint string, enabled bool) error {
	cfg, err := l.Load()
	if err != nil {
		return err
	}
	if cfg.Servers == nil {
		cfg.Servers = map[string]ServerConfig{}
	}
	cfg.Servers[name] = ServerConfig{Endpoint: endpoint, Enabled: enabled}
	return l.Save(cfg)
}

// RemoveServer deletes an MCP server seed and persists the config.
// Returns ErrServerNotConfigured when the name is unknown.
func (l *Loader) RemoveServer(name string) error {
	cfg, err := l.Load()
	if err != nil {
		return err
	}
	if _, ok := cfg.Servers[name]; !ok {
		return ErrServerNotConfigured
	}
	delete(cfg.Servers, name)
	return l.Save(cfg)
}

// Load is a convenience function using the default loader.
func Load() (*Config, error) {
	return NewLoader().Load()
}
