// Package config holds the agent configuration: provider settings, MCP
// server seeds, and tool limits. Values load from a JSON dotfile merged over
// defaults; the file is optional.
package config

// Config is the root configuration.
// NOTE: Keys present in the config file override defaults, including explicit
// zero values. Missing keys are left at their default values.
type Config struct {
	General  GeneralConfig           `json:"general"`
	Provider ProviderConfig          `json:"provider"`
	Servers  map[string]ServerConfig `json:"mcp_servers"`
	MCP      MCPConfig               `json:"mcp"`
	Tools    ToolsConfig             `json:"tools"`
}

type GeneralConfig struct {
	LogLevel string `json:"log_level"` // "debug" | "info" | "warn" | "error"
	LogFile  string `json:"log_file,omitempty"`
}

// ProviderConfig carries the LLM provider settings. APIKey is treated as an
// opaque credential and never logged.
type ProviderConfig struct {
	Provider    string  `json:"provider"` // "openai" | "moonshot" | "gemini"
	APIKey      string  `json:"api_key,omitempty"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	BaseURL     string  `json:"base_url,omitempty"`
}

// ServerConfig seeds one MCP server connection.
type ServerConfig struct {
	Endpoint string `json:"endpoint"`
	Enabled  bool   `json:"enabled"`
}

// MCPConfig bounds the remote call protocol.
type MCPConfig struct {
	CallTimeoutSeconds      int `json:"call_timeout_seconds"`      // Default: 30
	HandshakeTimeoutSeconds int `json:"handshake_timeout_seconds"` // Default: 10
	ReconnectBaseDelayMs    int `json:"reconnect_base_delay_ms"`   // Default: 500
	ReconnectMaxDelayMs     int `json:"reconnect_max_delay_ms"`    // Default: 30000
	MaxReconnectAttempts    int `json:"max_reconnect_attempts"`    // Default: 5
}

type ToolsConfig struct {
	// Command execution
	DefaultCommandTimeoutSeconds int `json:"default_command_timeout_seconds"` // Default: 30
	MaxCommandOutputBytes        int `json:"max_command_output_bytes"`        // Default: 64KiB
	GracefulShutdownMs           int `json:"graceful_shutdown_ms"`            // Default: 2000

	// File reading
	DefaultReadFileMaxLines int   `json:"default_read_file_max_lines"` // Default: 1000
	MaxFileSize             int64 `json:"max_file_size"`               // Default: 20MiB

	// Log reading
	DefaultLogLines       int   `json:"default_log_lines"`        // Default: 100
	MaxLogLines           int   `json:"max_log_lines"`            // Default: 10000
	LogTailChunkSize      int64 `json:"log_tail_chunk_size"`      // Default: 64KiB
	LogWholeFileThreshold int64 `json:"log_whole_file_threshold"` // Default: 10MiB

	// Registry
	CallTimeoutSeconds int `json:"call_timeout_seconds"` // Default: 60
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Provider: ProviderConfig{
			Provider:    "moonshot",
			Model:       "kimi-k2-0711-preview",
			Temperature: 0.1,
			MaxTokens:   4096,
			BaseURL:     "https://api.moonshot.cn/v1",
		},
		Servers: map[string]ServerConfig{},
		MCP: MCPConfig{
			CallTimeoutSeconds:      30,
			HandshakeTimeoutSeconds: 10,
			ReconnectBaseDelayMs:    500,
			ReconnectMaxDelayMs:     30000,
			MaxReconnectAttempts:    5,
		},
		Tools: ToolsConfig{
			DefaultCommandTimeoutSeconds: 30,
			MaxCommandOutputBytes:        64 * 1024,
			GracefulShutdownMs:           2000,
			DefaultReadFileMaxLines:      1000,
			MaxFileSize:                  20 * 1024 * 1024,
			DefaultLogLines:              100,
			MaxLogLines:                  10000,
			LogTailChunkSize:             64 * 1024,
			LogWholeFileThreshold:        10 * 1024 * 1024,
			CallTimeoutSeconds:           60,
		},
	}
}
