package config

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrServerNotConfigured is returned when removing an unknown server seed.
var ErrServerNotConfigured = errors.New("mcp server not configured")

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the merged configuration for values the agent cannot run
// with. It is called after defaults and file values are merged.
func (c *Config) Validate() error {
	if !logLevels[c.General.LogLevel] {
		return fmt.Errorf("invalid log_level %q", c.General.LogLevel)
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", c.Provider.Temperature)
	}
	if c.Provider.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d", c.Provider.MaxTokens)
	}
	for name, srv := range c.Servers {
		if srv.Endpoint == "" {
			return fmt.Errorf("mcp server %q: endpoint is required", name)
		}
		u, err := url.Parse(srv.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("mcp server %q: invalid endpoint %q", name, srv.Endpoint)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("mcp server %q: unsupported scheme %q", name, u.Scheme)
		}
	}
	if c.MCP.CallTimeoutSeconds <= 0 {
		return fmt.Errorf("mcp call_timeout_seconds must be positive, got %d", c.MCP.CallTimeoutSeconds)
	}
	if c.MCP.MaxReconnectAttempts < 0 {
		return fmt.Errorf("mcp max_reconnect_attempts must be non-negative, got %d", c.MCP.MaxReconnectAttempts)
	}
	if c.Tools.DefaultCommandTimeoutSeconds <= 0 {
		return fmt.Errorf("default_command_timeout_seconds must be positive, got %d", c.Tools.DefaultCommandTimeoutSeconds)
	}
	if c.Tools.MaxCommandOutputBytes <= 0 {
		return fmt.Errorf("max_command_output_bytes must be positive, got %d", c.Tools.MaxCommandOutputBytes)
	}
	if c.Tools.CallTimeoutSeconds <= 0 {
		return fmt.Errorf("call_timeout_seconds must be positive, got %d", c.Tools.CallTimeoutSeconds)
	}
	return nil
}
