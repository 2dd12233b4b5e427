// Package provider talks to the LLM backends. A Provider turns the
// conversation plus the available tool descriptors into either a text reply
// or a set of structured tool-call intents.
package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hualet/deepin-term-agent/internal/config"
	"github.com/hualet/deepin-term-agent/internal/tool"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Message is one turn of the conversation. Tool result messages carry the id
// and name of the call they answer.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// Reply is the model's output for one request: text, tool calls, or both.
type Reply struct {
	Content   string
	ToolCalls []ToolCall
}

// Provider is the LLM backend contract.
type Provider interface {
	Chat(ctx context.Context, messages []Message, tools []tool.Descriptor) (*Reply, error)
}

// New builds the backend selected by configuration. Moonshot and other
// OpenAI-compatible services share the HTTP backend via base_url.
func New(cfg config.ProviderConfig, logger *slog.Logger) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(cfg, logger)
	case "", "openai", "moonshot":
		return NewOpenAI(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// schemaProperties converts a descriptor schema into the JSON Schema object
// form both backends advertise to the model.
func schemaProperties(s tool.Schema) (map[string]any, []string) {
	props := make(map[string]any, len(s.Params))
	var required []string
	for _, name := range s.ParamNames() {
		param := s.Params[name]
		prop := map[string]any{"description": param.Description}
		switch param.Kind {
		case tool.KindInteger:
			prop["type"] = "integer"
		case tool.KindBoolean:
			prop["type"] = "boolean"
		case tool.KindEnum:
			prop["type"] = "string"
			prop["enum"] = param.Enum
		case tool.KindStringList:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "string"}
		default:
			prop["type"] = "string"
		}
		props[name] = prop
		if param.Required {
			required = append(required, name)
		}
	}
	return props, required
}
