package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/hualet/deepin-term-agent/internal/tool"
)

const protocolVersion = "2024-11-05"

const (
	methodInitialize = "initialize"
	methodToolsList  = "tools/list"
	methodToolsCall  = "tools/call"
)

// envelope is the JSON-RPC 2.0 message exchanged with a tool server.
// Requests carry Method/Params; replies carry Result or Error, correlated by
// ID. Replies may arrive in any order.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  any             `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      clientInfo     `json:"clientInfo"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type toolListResult struct {
	Tools []toolInfo `json:"tools"`
}

type toolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// jsonSchema is the subset of JSON Schema that tool servers advertise.
type jsonSchema struct {
	Type       string                `json:"type"`
	Properties map[string]jsonSchema `json:"properties"`
	Required   []string              `json:"required"`
	Enum       []string              `json:"enum"`
	Items      *jsonSchema           `json:"items"`
}

// parseDescriptor converts an advertised tool into a descriptor owned by the
// given server. Unsupported parameter types fall back to string so a server
// with a richer schema still exposes callable tools.
func parseDescriptor(serverID string, info toolInfo) (tool.Descriptor, error) {
	desc := tool.Descriptor{
		Name:        info.Name,
		Description: info.Description,
		Source:      tool.Remote(serverID),
		Schema:      tool.Schema{Params: map[string]tool.Param{}},
	}
	if info.Name == "" {
		return desc, fmt.Errorf("server %s advertised a tool without a name", serverID)
	}
	if len(info.InputSchema) == 0 {
		return desc, nil
	}

	var schema jsonSchema
	if err := json.Unmarshal(info.InputSchema, &schema); err != nil {
		return desc, fmt.Errorf("tool %s: malformed input schema: %w", info.Name, err)
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	for name, prop := range schema.Properties {
		desc.Schema.Params[name] = tool.Param{
			Kind:     paramKindOf(prop),
			Required: required[name],
			Enum:     prop.Enum,
		}
	}
	return desc, nil
}

func paramKindOf(prop jsonSchema) tool.ParamKind {
	if len(prop.Enum) > 0 {
		return tool.KindEnum
	}
	switch prop.Type {
	case "integer":
		return tool.KindInteger
	case "boolean":
		return tool.KindBoolean
	case "array":
		if prop.Items != nil && prop.Items.Type == "string" {
			return tool.KindStringList
		}
		return tool.KindStringList
	default:
		return tool.KindString
	}
}
